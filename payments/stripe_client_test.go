package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestParseWebhook_CheckoutCompleted(t *testing.T) {
	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"amount_total": 5500,
			"metadata": {"customerData": "{}", "cartData": "[]"}
		}}
	}`)
	c := NewStripeClient("", testSecret)

	got, err := c.ParseWebhook(payload, sign(payload, testSecret, time.Now()))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "evt_1", got.EventID)
	assert.Equal(t, "cs_test_1", got.SessionID)
	assert.Equal(t, int64(5500), got.AmountTotal)
	assert.Equal(t, "[]", got.Metadata["cartData"])
}

func TestParseWebhook_IgnoresOtherTypes(t *testing.T) {
	payload := []byte(`{"id":"evt_2","object":"event","type":"payment_intent.created","data":{"object":{}}}`)
	c := NewStripeClient("", testSecret)

	got, err := c.ParseWebhook(payload, sign(payload, testSecret, time.Now()))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseWebhook_BadSignature(t *testing.T) {
	payload := []byte(`{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{}}}`)
	c := NewStripeClient("", testSecret)

	_, err := c.ParseWebhook(payload, sign(payload, "whsec_other", time.Now()))
	assert.Error(t, err)
}

func TestNotConfigured(t *testing.T) {
	c := NewStripeClient("", "")
	_, err := c.CreateCheckoutSession(context.Background(), SessionParams{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.ParseWebhook([]byte("{}"), "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
