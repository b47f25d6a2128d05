package controllers

import (
	"net/http"

	apperrors "storefront-service/common/errors"
	"storefront-service/services"

	"github.com/gin-gonic/gin"
)

type TestimonialController struct {
	service   TestimonialAPI
	validator *RequestValidator
}

func NewTestimonialController(service TestimonialAPI) *TestimonialController {
	return &TestimonialController{service: service, validator: NewRequestValidator()}
}

func (tc *TestimonialController) PublicTestimonials(c *gin.Context) {
	list, err := tc.service.PublicList(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (tc *TestimonialController) ListTestimonials(c *gin.Context) {
	list, err := tc.service.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// save binds the multipart form and the optional avatar file, then runs fn.
func (tc *TestimonialController) save(c *gin.Context, status int, fn func(services.TestimonialInput, *uploadSet) (interface{}, error)) {
	var in services.TestimonialInput
	if err := tc.validator.BindForm(c, &in); err != nil {
		badRequest(c, ValidationMessage(err))
		return
	}
	uploads := &uploadSet{}
	defer uploads.Close()
	out, err := fn(in, uploads)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(status, out)
}

func (tc *TestimonialController) CreateTestimonial(c *gin.Context) {
	tc.save(c, http.StatusCreated, func(in services.TestimonialInput, uploads *uploadSet) (interface{}, error) {
		avatar, err := uploads.OptionalUpload(c, "avatar")
		if err != nil {
			return nil, apperrors.BadRequest(err.Error())
		}
		return tc.service.Create(c.Request.Context(), in, avatar)
	})
}

func (tc *TestimonialController) UpdateTestimonial(c *gin.Context) {
	tc.save(c, http.StatusOK, func(in services.TestimonialInput, uploads *uploadSet) (interface{}, error) {
		avatar, err := uploads.OptionalUpload(c, "avatar")
		if err != nil {
			return nil, apperrors.BadRequest(err.Error())
		}
		return tc.service.Update(c.Request.Context(), c.Param("id"), in, avatar)
	})
}

func (tc *TestimonialController) DeleteTestimonial(c *gin.Context) {
	if err := tc.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
