package controllers

import (
	"net/http"

	"storefront-service/services"

	"github.com/gin-gonic/gin"
)

type ReviewController struct {
	service ReviewAPI
}

func NewReviewController(service ReviewAPI) *ReviewController {
	return &ReviewController{service: service}
}

// VerifyEligibility handles POST /api/reviews/verify-eligibility.
func (rc *ReviewController) VerifyEligibility(c *gin.Context) {
	var req services.EligibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	res, err := rc.service.CheckEligibility(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SubmitReview handles POST /api/reviews/submit.
func (rc *ReviewController) SubmitReview(c *gin.Context) {
	var req services.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	review, err := rc.service.Submit(c.Request.Context(), req, c.ClientIP())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Review submitted for approval", "review": review.Public()})
}

func (rc *ReviewController) ProductReviews(c *gin.Context) {
	reviews, err := rc.service.ProductReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (rc *ReviewController) ProductRating(c *gin.Context) {
	rating, err := rc.service.ProductRating(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rating)
}

func (rc *ReviewController) ListReviews(c *gin.Context) {
	reviews, err := rc.service.All(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, reviews)
}

func (rc *ReviewController) UpdateReview(c *gin.Context) {
	var upd services.ReviewUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	review, err := rc.service.Update(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, review)
}

func (rc *ReviewController) DeleteReview(c *gin.Context) {
	if err := rc.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (rc *ReviewController) AddReview(c *gin.Context) {
	var req services.AdminReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Product, customer name, rating and review text are required")
		return
	}
	review, err := rc.service.AdminCreate(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}
