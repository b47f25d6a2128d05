package controllers

import (
	"net/http"

	"storefront-service/services"

	"github.com/gin-gonic/gin"
)

type OfferController struct {
	service   OfferAPI
	validator *RequestValidator
}

func NewOfferController(service OfferAPI) *OfferController {
	return &OfferController{service: service, validator: NewRequestValidator()}
}

func (oc *OfferController) PublicOffers(c *gin.Context) {
	offers, err := oc.service.PublicList(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}

func (oc *OfferController) ListOffers(c *gin.Context) {
	offers, err := oc.service.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}

func (oc *OfferController) GetOffer(c *gin.Context) {
	offer, err := oc.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

func (oc *OfferController) CreateOffer(c *gin.Context) {
	var in services.OfferInput
	if err := oc.validator.BindForm(c, &in); err != nil {
		badRequest(c, ValidationMessage(err))
		return
	}
	uploads := &uploadSet{}
	defer uploads.Close()
	image, err := uploads.OptionalUpload(c, "image")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	offer, err := oc.service.Create(c.Request.Context(), in, image)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

func (oc *OfferController) UpdateOffer(c *gin.Context) {
	var in services.OfferInput
	if err := oc.validator.BindForm(c, &in); err != nil {
		badRequest(c, ValidationMessage(err))
		return
	}
	uploads := &uploadSet{}
	defer uploads.Close()
	image, err := uploads.OptionalUpload(c, "image")
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	offer, err := oc.service.Update(c.Request.Context(), c.Param("id"), in, image)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

func (oc *OfferController) DeleteOffer(c *gin.Context) {
	if err := oc.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Offer deleted"})
}
