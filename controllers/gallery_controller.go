package controllers

import (
	"net/http"

	"storefront-service/media"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
)

type GalleryController struct {
	service   GalleryAPI
	validator *RequestValidator
}

func NewGalleryController(service GalleryAPI) *GalleryController {
	return &GalleryController{service: service, validator: NewRequestValidator()}
}

// PublicImages serves /gallery/images and /gallery/images/:categorySlug.
func (gc *GalleryController) PublicImages(c *gin.Context) {
	images, err := gc.service.Images(c.Request.Context(), c.Param("categorySlug"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, images)
}

func (gc *GalleryController) Featured(c *gin.Context) {
	images, err := gc.service.Featured(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, images)
}

func (gc *GalleryController) AdminImages(c *gin.Context) {
	images, err := gc.service.AdminImages(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, images)
}

func (gc *GalleryController) GetImage(c *gin.Context) {
	image, err := gc.service.GetImage(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, image)
}

func (gc *GalleryController) CreateImage(c *gin.Context) {
	var in services.GalleryImageInput
	gc.save(c, http.StatusCreated, &in, func(file *media.UploadInput) (interface{}, error) {
		return gc.service.CreateImage(c.Request.Context(), in, file)
	})
}

func (gc *GalleryController) UpdateImage(c *gin.Context) {
	var in services.GalleryImageInput
	gc.save(c, http.StatusOK, &in, func(file *media.UploadInput) (interface{}, error) {
		return gc.service.UpdateImage(c.Request.Context(), c.Param("id"), in, file)
	})
}

func (gc *GalleryController) DeleteImage(c *gin.Context) {
	if err := gc.service.DeleteImage(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Gallery image deleted successfully"})
}

func (gc *GalleryController) PublicOffers(c *gin.Context) {
	offers, err := gc.service.PublicOffers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}

func (gc *GalleryController) AdminOffers(c *gin.Context) {
	offers, err := gc.service.AdminOffers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, offers)
}

func (gc *GalleryController) GetOffer(c *gin.Context) {
	offer, err := gc.service.GetOffer(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

func (gc *GalleryController) CreateOffer(c *gin.Context) {
	var in services.GalleryOfferInput
	gc.save(c, http.StatusCreated, &in, func(file *media.UploadInput) (interface{}, error) {
		return gc.service.CreateOffer(c.Request.Context(), in, file)
	})
}

func (gc *GalleryController) UpdateOffer(c *gin.Context) {
	var in services.GalleryOfferInput
	gc.save(c, http.StatusOK, &in, func(file *media.UploadInput) (interface{}, error) {
		return gc.service.UpdateOffer(c.Request.Context(), c.Param("id"), in, file)
	})
}

func (gc *GalleryController) DeleteOffer(c *gin.Context) {
	if err := gc.service.DeleteOffer(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Gallery offer deleted successfully"})
}

// save binds the form into dst and opens the optional "image" file before
// running fn.
func (gc *GalleryController) save(c *gin.Context, status int, dst interface{}, fn func(*media.UploadInput) (interface{}, error)) {
	if err := gc.validator.BindForm(c, dst); err != nil {
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
	out, err := fn(image)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(status, out)
}
