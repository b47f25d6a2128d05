package controllers

import (
	"io"
	"net/http"
	"strings"

	apperrors "storefront-service/common/errors"
	"storefront-service/common/logger"
	"storefront-service/middleware"
	"storefront-service/models"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

type CheckoutController struct {
	checkout CheckoutAPI
	orders   OrderAPI
	webhooks WebhookParser
	cache    *CacheManager
}

func NewCheckoutController(checkout CheckoutAPI, orders OrderAPI, webhooks WebhookParser, cache *CacheManager) *CheckoutController {
	return &CheckoutController{checkout: checkout, orders: orders, webhooks: webhooks, cache: cache}
}

func orderProductIDs(o *models.Order) []string {
	ids := make([]string, 0, len(o.Products))
	for _, item := range o.Products {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// PlaceCODOrder handles POST /api/checkout/cod.
func (cc *CheckoutController) PlaceCODOrder(c *gin.Context) {
	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid checkout request: "+err.Error())
		return
	}
	res, err := cc.checkout.PlaceCODOrder(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	cc.cache.InvalidateProducts(c.Request.Context(), orderProductIDs(res.Order)...)
	if len(res.Failures) > 0 {
		logger.Warn(c, "Order placed with failed side effects", zap.Strings("failures", res.Failures))
	}
	c.JSON(http.StatusCreated, gin.H{
		"orderId":   res.Order.ID,
		"orderCode": res.Order.OrderID,
		"order":     res.Order,
	})
}

// CreateStripeSession handles POST /api/checkout/stripe-session.
func (cc *CheckoutController) CreateStripeSession(c *gin.Context) {
	var req services.StripeSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid checkout request: "+err.Error())
		return
	}
	sess, err := cc.checkout.CreateStripeSession(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": sess.ID, "url": sess.URL})
}

// StripeWebhook handles POST /api/checkout/webhook. The signature is
// checked against the raw body, so nothing may consume it earlier.
func (cc *CheckoutController) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.String(http.StatusBadRequest, "Webhook Error: %s", err.Error())
		return
	}
	evt, err := cc.webhooks.ParseWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logger.Warn(c, "Stripe webhook rejected", zap.Error(err))
		c.String(http.StatusBadRequest, "Webhook Error: %s", err.Error())
		return
	}

	res, err := cc.checkout.HandleStripeEvent(c.Request.Context(), evt)
	if err != nil {
		appErr := apperrors.As(err)
		// client errors will not improve on retry, so acknowledge them
		if appErr.Code < http.StatusInternalServerError {
			logger.Warn(c, "Stripe event not turned into an order", zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		fail(c, err)
		return
	}
	if res != nil && res.Order != nil {
		cc.cache.InvalidateProducts(c.Request.Context(), orderProductIDs(res.Order)...)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

// GetOrder handles GET /api/checkout/order/:id. Customers see their own
// orders only; admins see any.
func (cc *CheckoutController) GetOrder(c *gin.Context) {
	order, err := cc.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	user := middleware.CurrentUser(c)
	if user != nil && !user.IsAdmin() && !ownsOrder(user, order) {
		fail(c, services.ErrOrderNotFound)
		return
	}
	c.JSON(http.StatusOK, order)
}

func ownsOrder(u *models.User, o *models.Order) bool {
	for _, id := range u.Orders {
		if id == o.ID {
			return true
		}
	}
	return o.Customer.Email != "" && strings.EqualFold(o.Customer.Email, u.Email)
}

// MyOrders handles GET /api/checkout/orders.
func (cc *CheckoutController) MyOrders(c *gin.Context) {
	orders, err := cc.orders.ListForUser(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}
