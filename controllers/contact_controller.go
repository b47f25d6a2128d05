package controllers

import (
	"net/http"

	"storefront-service/services"

	"github.com/gin-gonic/gin"
)

type ContactController struct {
	service ContactAPI
}

func NewContactController(service ContactAPI) *ContactController {
	return &ContactController{service: service}
}

// Submit handles POST /api/contact.
func (cc *ContactController) Submit(c *gin.Context) {
	var req services.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	contact, err := cc.service.Submit(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": contact.ID, "createdAt": contact.CreatedAt})
}

func (cc *ContactController) List(c *gin.Context) {
	contacts, err := cc.service.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, contacts)
}

type contactStatusRequest struct {
	Status string `json:"status"`
}

func (cc *ContactController) UpdateStatus(c *gin.Context) {
	var req contactStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid status")
		return
	}
	contact, err := cc.service.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, contact)
}
