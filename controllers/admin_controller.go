package controllers

import (
	"net/http"
	"strconv"

	"storefront-service/common/logger"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AdminController serves the order desk, user directory, dashboard and
// stock audit trail under /api/admin.
type AdminController struct {
	orders OrderAPI
	admin  AdminAPI
	cache  *CacheManager
}

func NewAdminController(orders OrderAPI, admin AdminAPI, cache *CacheManager) *AdminController {
	return &AdminController{orders: orders, admin: admin, cache: cache}
}

func (ac *AdminController) ListOrders(c *gin.Context) {
	orders, err := ac.orders.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (ac *AdminController) GetOrder(c *gin.Context) {
	order, err := ac.orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrder handles PUT /api/admin/orders/:id. The response carries the
// transition report so the admin UI can show restock and sale outcomes.
func (ac *AdminController) UpdateOrder(c *gin.Context) {
	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	res, err := ac.orders.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	if len(res.Restock) > 0 {
		ac.cache.InvalidateProducts(c.Request.Context(), orderProductIDs(res.Order)...)
	}
	if len(res.Failures) > 0 {
		logger.Warn(c, "Order status changed with failed side effects",
			zap.String("order_id", res.Order.OrderID), zap.Strings("failures", res.Failures))
	}
	c.JSON(http.StatusOK, res)
}

func (ac *AdminController) DeleteOrder(c *gin.Context) {
	if err := ac.orders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type bulkOrderRequest struct {
	OrderIDs []string `json:"orderIds"`
	IDs      []string `json:"ids"`
}

func (ac *AdminController) BulkDeleteOrders(c *gin.Context) {
	var req bulkOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "No order IDs provided")
		return
	}
	ids := req.OrderIDs
	if len(ids) == 0 {
		ids = req.IDs
	}
	n, err := ac.orders.BulkDelete(c.Request.Context(), ids)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deletedCount": n})
}

func (ac *AdminController) Dashboard(c *gin.Context) {
	d, err := ac.admin.Dashboard(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (ac *AdminController) ListUsers(c *gin.Context) {
	users, err := ac.admin.Customers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (ac *AdminController) GetUser(c *gin.Context) {
	u, err := ac.admin.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (ac *AdminController) GetUserByEmail(c *gin.Context) {
	u, err := ac.admin.GetUserByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (ac *AdminController) DeleteUser(c *gin.Context) {
	if err := ac.admin.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (ac *AdminController) BulkDeleteUsers(c *gin.Context) {
	var req idsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "No user IDs provided")
		return
	}
	n, err := ac.admin.BulkDeleteUsers(c.Request.Context(), req.IDs)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deletedCount": n})
}

func (ac *AdminController) AddNote(c *gin.Context) {
	var in services.NoteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	u, err := ac.admin.AddNote(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// InventoryLogs handles GET /api/admin/inventory/logs?productId=&reason=&page=&limit=.
func (ac *AdminController) InventoryLogs(c *gin.Context) {
	q := services.InventoryLogQuery{
		ProductID: c.Query("productId"),
		Reason:    c.Query("reason"),
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.PerPage, _ = strconv.Atoi(c.DefaultQuery("limit", "0"))

	page, err := ac.admin.InventoryLogs(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
