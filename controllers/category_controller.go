package controllers

import (
	"net/http"

	"storefront-service/services"

	"github.com/gin-gonic/gin"
)

type CategoryController struct {
	service CategoryAPI
	cache   *CacheManager
}

func NewCategoryController(service CategoryAPI, cache *CacheManager) *CategoryController {
	return &CategoryController{service: service, cache: cache}
}

// ListCategories handles GET /api/categories (active only) and the admin
// listing, which passes ?all=true.
func (cc *CategoryController) ListCategories(c *gin.Context) {
	activeOnly := c.Query("all") != "true"
	categories, err := cc.service.List(c.Request.Context(), activeOnly)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (cc *CategoryController) GetCategory(c *gin.Context) {
	category, err := cc.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (cc *CategoryController) CreateCategory(c *gin.Context) {
	var in services.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid category request")
		return
	}
	category, err := cc.service.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (cc *CategoryController) UpdateCategory(c *gin.Context) {
	var in services.CategoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid category request")
		return
	}
	category, err := cc.service.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	// product lists filter and display by category
	cc.cache.InvalidateProducts(c.Request.Context())
	c.JSON(http.StatusOK, category)
}

func (cc *CategoryController) DeleteCategory(c *gin.Context) {
	if err := cc.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	cc.cache.InvalidateProducts(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"success": true})
}
