package controllers

import (
	"net/http"

	"storefront-service/middleware"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuthController struct {
	service AuthAPI
}

func NewAuthController(service AuthAPI) *AuthController {
	return &AuthController{service: service}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func authBody(res *services.AuthResult) gin.H {
	return gin.H{
		"token": res.Token,
		"user": gin.H{
			"id":       res.User.ID,
			"email":    res.User.Email,
			"fullName": res.User.FullName,
			"role":     res.User.Role,
		},
	}
}

func (ac *AuthController) Register(c *gin.Context) {
	var req services.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	res, err := ac.service.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, authBody(res))
}

func (ac *AuthController) login(c *gin.Context, admin bool) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	login := ac.service.Login
	if admin {
		login = ac.service.AdminLogin
	}
	res, err := login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, authBody(res))
}

func (ac *AuthController) Login(c *gin.Context)      { ac.login(c, false) }
func (ac *AuthController) AdminLogin(c *gin.Context) { ac.login(c, true) }

// Me serves both /me and /admin-me; the middleware already loaded the user.
func (ac *AuthController) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

func (ac *AuthController) UpdateProfile(c *gin.Context) {
	var in services.ProfileUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	u, err := ac.service.UpdateProfile(c.Request.Context(), currentUserID(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (ac *AuthController) ChangePassword(c *gin.Context) {
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if err := ac.service.ChangePassword(c.Request.Context(), currentUserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

func (ac *AuthController) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	msg, err := ac.service.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (ac *AuthController) ResetPassword(c *gin.Context) {
	var req services.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if err := ac.service.ResetPassword(c.Request.Context(), req); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password has been reset successfully"})
}

func (ac *AuthController) ListAddresses(c *gin.Context) {
	list, err := ac.service.Addresses(c.Request.Context(), currentUserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (ac *AuthController) AddAddress(c *gin.Context) {
	var in services.AddressInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	list, err := ac.service.AddAddress(c.Request.Context(), currentUserID(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

func (ac *AuthController) UpdateAddress(c *gin.Context) {
	var in services.AddressInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	list, err := ac.service.UpdateAddress(c.Request.Context(), currentUserID(c), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (ac *AuthController) DeleteAddress(c *gin.Context) {
	list, err := ac.service.DeleteAddress(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// currentUserID is only called behind Authenticate.
func currentUserID(c *gin.Context) primitive.ObjectID {
	if u := middleware.CurrentUser(c); u != nil {
		return u.ID
	}
	return primitive.NilObjectID
}
