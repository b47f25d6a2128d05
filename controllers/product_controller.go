package controllers

import (
	"math"
	"net/http"

	"storefront-service/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProductController struct {
	service   ProductAPI
	cache     *CacheManager
	validator *RequestValidator
}

func NewProductController(service ProductAPI, cache *CacheManager) *ProductController {
	return &ProductController{service: service, cache: cache, validator: NewRequestValidator()}
}

// GetProducts handles GET /api/products and GET /api/admin/products.
func (pc *ProductController) GetProducts(c *gin.Context) {
	page, perPage, err := pc.validator.ParsePagination(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	filters, params, err := pc.validator.ParseFilters(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	if cached, ok := pc.cache.GetProductList(ctx, page, perPage, filters); ok {
		c.Header("X-Cache", "HIT")
		c.JSON(http.StatusOK, cached)
		return
	}

	params.Page, params.PerPage = page, perPage
	products, total, err := pc.service.ListProducts(ctx, params)
	if err != nil {
		zap.L().Error("Error listing products", zap.Error(err))
		fail(c, err)
		return
	}

	meta := PageMeta{Page: page, PerPage: perPage, Total: total, TotalPages: 1}
	if perPage > 0 {
		meta.TotalPages = int(math.Ceil(float64(total) / float64(perPage)))
	}
	body := &ProductListPage{Products: products, Meta: meta}
	pc.cache.SetProductListAsync(page, perPage, filters, body)

	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, body)
}

// GetProductByID handles GET /api/products/:id.
func (pc *ProductController) GetProductByID(c *gin.Context) {
	id := c.Param("id")
	if cached, ok := pc.cache.GetProduct(c.Request.Context(), id); ok {
		c.Header("X-Cache", "HIT")
		c.JSON(http.StatusOK, cached)
		return
	}
	product, err := pc.service.GetProduct(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	pc.cache.SetProductAsync(id, product)
	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, product)
}

func (pc *ProductController) bindProductForm(c *gin.Context) (services.ProductForm, bool) {
	var form services.ProductForm
	if err := pc.validator.BindForm(c, &form); err != nil {
		badRequest(c, ValidationMessage(err))
		return form, false
	}
	return form, true
}

// CreateProduct handles POST /api/admin/products (multipart).
func (pc *ProductController) CreateProduct(c *gin.Context) {
	form, ok := pc.bindProductForm(c)
	if !ok {
		return
	}
	uploads := &uploadSet{}
	defer uploads.Close()
	changes, err := uploads.ParseMediaForm(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	product, err := pc.service.CreateProduct(c.Request.Context(), form, changes)
	if err != nil {
		fail(c, err)
		return
	}
	pc.cache.InvalidateProducts(c.Request.Context())
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/admin/products/:id (multipart).
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	form, ok := pc.bindProductForm(c)
	if !ok {
		return
	}
	uploads := &uploadSet{}
	defer uploads.Close()
	changes, err := uploads.ParseMediaForm(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	id := c.Param("id")
	product, err := pc.service.UpdateProduct(c.Request.Context(), id, form, changes)
	if err != nil {
		fail(c, err)
		return
	}
	pc.cache.InvalidateProducts(c.Request.Context(), id)
	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/admin/products/:id.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if err := pc.service.DeleteProduct(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	pc.cache.InvalidateProducts(c.Request.Context(), id)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

type bulkUpdateRequest struct {
	IDs    []string               `json:"ids"`
	Update map[string]interface{} `json:"update"`
}

// BulkUpdate handles PUT /api/admin/products/bulk.
func (pc *ProductController) BulkUpdate(c *gin.Context) {
	var req bulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid bulk update request")
		return
	}
	n, err := pc.service.BulkUpdate(c.Request.Context(), req.IDs, req.Update)
	if err != nil {
		fail(c, err)
		return
	}
	pc.cache.InvalidateProducts(c.Request.Context(), req.IDs...)
	c.JSON(http.StatusOK, gin.H{"success": true, "modifiedCount": n})
}
