package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-service/common/auth"
	"storefront-service/models"
	"storefront-service/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memUsers map[primitive.ObjectID]*models.User

func (m memUsers) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if id.IsZero() {
		return nil, errors.New("connection reset")
	}
	u, ok := m[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func newAuthRouter(users memUsers, tokens *auth.TokenManager) *gin.Engine {
	a := NewAuthenticator(tokens, users)
	r := gin.New()
	r.GET("/me", a.Authenticate(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": CurrentUser(c).Email})
	})
	r.GET("/admin", a.Authenticate(), AdminOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func call(r http.Handler, path string, headers map[string]string) (int, string) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	var body struct {
		Message string `json:"message"`
		Email   string `json:"email"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Message != "" {
		return rec.Code, body.Message
	}
	return rec.Code, body.Email
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret")
	customer := &models.User{ID: primitive.NewObjectID(), Email: "ada@example.com", Role: models.RoleUser}
	admin := &models.User{ID: primitive.NewObjectID(), Email: "root@example.com", Role: models.RoleAdmin}
	users := memUsers{customer.ID: customer, admin.ID: admin}
	r := newAuthRouter(users, tokens)

	customerToken, err := tokens.Generate(customer.ID.Hex(), customer.Role)
	require.NoError(t, err)
	adminToken, err := tokens.Generate(admin.ID.Hex(), admin.Role)
	require.NoError(t, err)
	goneToken, err := tokens.Generate(primitive.NewObjectID().Hex(), models.RoleUser)
	require.NoError(t, err)
	foreignToken, err := auth.NewTokenManager("other-secret").Generate(customer.ID.Hex(), customer.Role)
	require.NoError(t, err)

	t.Run("no token", func(t *testing.T) {
		code, msg := call(r, "/me", nil)
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "No token, authorization denied", msg)
	})

	t.Run("bearer token", func(t *testing.T) {
		code, email := call(r, "/me", map[string]string{"Authorization": "Bearer " + customerToken})
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ada@example.com", email)
	})

	t.Run("x-auth-token header", func(t *testing.T) {
		code, _ := call(r, "/me", map[string]string{"x-auth-token": customerToken})
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		code, msg := call(r, "/me", map[string]string{"Authorization": "Bearer " + foreignToken})
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "Token is not valid", msg)
	})

	t.Run("deleted user", func(t *testing.T) {
		code, msg := call(r, "/me", map[string]string{"Authorization": "Bearer " + goneToken})
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "User no longer exists", msg)
	})

	t.Run("customer on admin route", func(t *testing.T) {
		code, msg := call(r, "/admin", map[string]string{"Authorization": "Bearer " + customerToken})
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, "Access denied. Admin only.", msg)
	})

	t.Run("admin on admin route", func(t *testing.T) {
		code, _ := call(r, "/admin", map[string]string{"Authorization": "Bearer " + adminToken})
		assert.Equal(t, http.StatusNoContent, code)
	})
}

func TestAuthenticate_LookupFailure(t *testing.T) {
	tokens := auth.NewTokenManager("test-secret")
	zeroToken, err := tokens.Generate(primitive.NilObjectID.Hex(), models.RoleUser)
	require.NoError(t, err)

	code, _ := call(newAuthRouter(memUsers{}, tokens), "/me", map[string]string{"Authorization": "Bearer " + zeroToken})
	assert.Equal(t, http.StatusInternalServerError, code)
}
