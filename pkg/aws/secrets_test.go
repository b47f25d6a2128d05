package aws

import (
	"context"
	"errors"
	"testing"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSecrets struct {
	values map[string]string
	calls  int
}

func (f *fakeSecrets) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	f.calls++
	v, ok := f.values[*in.SecretId]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: sdkaws.String(v)}, nil
}

func TestSecretsClient(t *testing.T) {
	api := &fakeSecrets{values: map[string]string{
		"storefront/JWT_SECRET": "s3cret",
		"storefront/stripe":     `{"secretKey":"sk_test_1","webhookSecret":"whsec_1"}`,
	}}
	s := newSecretsClient(api, "storefront")
	ctx := context.Background()

	v, err := s.GetSecret(ctx, "JWT_SECRET")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", v)

	v, err = s.GetSecret(ctx, "stripe#webhookSecret")
	require.NoError(t, err)
	assert.Equal(t, "whsec_1", v)
	_, err = s.GetSecret(ctx, "stripe#secretKey")
	require.NoError(t, err)
	assert.Equal(t, 2, api.calls)

	_, err = s.GetSecret(ctx, "stripe#missing")
	assert.Error(t, err)

	dst := "from-env"
	assert.Error(t, s.Override(ctx, "NOPE", &dst))
	assert.Equal(t, "from-env", dst)
	require.NoError(t, s.Override(ctx, "JWT_SECRET", &dst))
	assert.Equal(t, "s3cret", dst)
}
