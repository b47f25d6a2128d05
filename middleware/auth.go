package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"storefront-service/common/auth"
	apperrors "storefront-service/common/errors"
	"storefront-service/models"
	"storefront-service/repository"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const UserContextKey = "user"

var ErrUserGone = apperrors.New(http.StatusUnauthorized, "User no longer exists", nil)

type TokenParser interface {
	ParseAndValidateToken(tokenStr, expectedType string) (*auth.Claims, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Authenticator resolves the bearer token to a stored user on every request,
// so deleted accounts and role changes take effect immediately.
type Authenticator struct {
	tokens TokenParser
	users  UserFinder
}

func NewAuthenticator(tokens TokenParser, users UserFinder) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

func tokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if strings.HasPrefix(h, "Bearer ") {
			return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
		}
	}
	return strings.TrimSpace(c.GetHeader("x-auth-token"))
}

func abort(c *gin.Context, err *apperrors.Error) {
	c.AbortWithStatusJSON(err.Code, gin.H{"message": err.Message})
}

func (a *Authenticator) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)
		if raw == "" {
			abort(c, apperrors.ErrNoToken)
			return
		}
		claims, err := a.tokens.ParseAndValidateToken(raw, "access")
		if err != nil {
			abort(c, apperrors.ErrInvalidToken)
			return
		}
		oid, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			abort(c, apperrors.ErrInvalidToken)
			return
		}
		user, err := a.users.FindByID(c.Request.Context(), oid)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				abort(c, ErrUserGone)
				return
			}
			zap.L().Error("Auth user lookup failed", zap.Error(err))
			abort(c, apperrors.ErrInternalServer)
			return
		}
		c.Set(UserContextKey, user)
		c.Next()
	}
}

// AdminOnly must run after Authenticate.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			abort(c, apperrors.ErrAdminOnly)
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(UserContextKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
