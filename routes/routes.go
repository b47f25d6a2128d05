package routes

import (
	"storefront-service/controllers"
	"storefront-service/middleware"

	"github.com/gin-gonic/gin"
)

// Controllers bundles every handler set the router mounts.
type Controllers struct {
	Checkout     *controllers.CheckoutController
	Products     *controllers.ProductController
	Categories   *controllers.CategoryController
	Reviews      *controllers.ReviewController
	Testimonials *controllers.TestimonialController
	Offers       *controllers.OfferController
	Gallery      *controllers.GalleryController
	Contact      *controllers.ContactController
	Auth         *controllers.AuthController
	Admin        *controllers.AdminController
}

// Guards are the per-route middlewares built in main.
type Guards struct {
	Authenticate  gin.HandlerFunc
	ReviewLimiter gin.HandlerFunc
}

func RegisterRoutes(r *gin.Engine, ctl Controllers, g Guards) {
	api := r.Group("/api")
	adminOnly := []gin.HandlerFunc{g.Authenticate, middleware.AdminOnly()}

	checkout := api.Group("/checkout")
	{
		checkout.POST("/cod", ctl.Checkout.PlaceCODOrder)
		checkout.POST("/stripe-session", ctl.Checkout.CreateStripeSession)
		checkout.POST("/webhook", ctl.Checkout.StripeWebhook)
		checkout.GET("/order/:id", g.Authenticate, ctl.Checkout.GetOrder)
		checkout.GET("/orders", g.Authenticate, ctl.Checkout.MyOrders)
	}

	api.GET("/products", ctl.Products.GetProducts)
	api.GET("/products/:id", ctl.Products.GetProductByID)
	api.GET("/categories", ctl.Categories.ListCategories)

	reviews := api.Group("/reviews")
	{
		reviews.POST("/verify-eligibility", g.ReviewLimiter, ctl.Reviews.VerifyEligibility)
		reviews.POST("/submit", g.ReviewLimiter, ctl.Reviews.SubmitReview)
		reviews.GET("/product/:id", ctl.Reviews.ProductReviews)
		reviews.GET("/product/:id/rating", ctl.Reviews.ProductRating)
	}

	gallery := api.Group("/gallery")
	{
		gallery.GET("/categories", ctl.Categories.ListCategories)
		gallery.GET("/images", ctl.Gallery.PublicImages)
		gallery.GET("/images/:categorySlug", ctl.Gallery.PublicImages)
		gallery.GET("/featured", ctl.Gallery.Featured)
	}
	galleryAdmin := api.Group("/gallery/admin", adminOnly...)
	{
		galleryAdmin.GET("/categories", ctl.Categories.ListCategories)
		galleryAdmin.POST("/categories", ctl.Categories.CreateCategory)
		galleryAdmin.PUT("/categories/:id", ctl.Categories.UpdateCategory)
		galleryAdmin.DELETE("/categories/:id", ctl.Categories.DeleteCategory)

		galleryAdmin.GET("/images", ctl.Gallery.AdminImages)
		galleryAdmin.GET("/images/:id", ctl.Gallery.GetImage)
		galleryAdmin.POST("/images", ctl.Gallery.CreateImage)
		galleryAdmin.PUT("/images/:id", ctl.Gallery.UpdateImage)
		galleryAdmin.DELETE("/images/:id", ctl.Gallery.DeleteImage)
	}

	galleryOffers := api.Group("/gallery-offers")
	{
		galleryOffers.GET("", ctl.Gallery.PublicOffers)
		galleryOffers.GET("/admin", append(adminOnly, ctl.Gallery.AdminOffers)...)
		galleryOffers.GET("/admin/:id", append(adminOnly, ctl.Gallery.GetOffer)...)
		galleryOffers.POST("/admin", append(adminOnly, ctl.Gallery.CreateOffer)...)
		galleryOffers.PUT("/admin/:id", append(adminOnly, ctl.Gallery.UpdateOffer)...)
		galleryOffers.DELETE("/admin/:id", append(adminOnly, ctl.Gallery.DeleteOffer)...)
	}

	api.GET("/testimonials", ctl.Testimonials.PublicTestimonials)
	api.GET("/offers", ctl.Offers.PublicOffers)
	api.POST("/contact", ctl.Contact.Submit)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", ctl.Auth.Register)
		authGroup.POST("/login", ctl.Auth.Login)
		authGroup.POST("/admin-login", ctl.Auth.AdminLogin)
		authGroup.GET("/me", g.Authenticate, ctl.Auth.Me)
		authGroup.GET("/admin-me", append(adminOnly, ctl.Auth.Me)...)
		authGroup.PUT("/profile", g.Authenticate, ctl.Auth.UpdateProfile)
		authGroup.PUT("/password", g.Authenticate, ctl.Auth.ChangePassword)
		authGroup.POST("/forgot-password", ctl.Auth.ForgotPassword)
		authGroup.POST("/reset-password", ctl.Auth.ResetPassword)
		authGroup.GET("/addresses", g.Authenticate, ctl.Auth.ListAddresses)
		authGroup.POST("/addresses", g.Authenticate, ctl.Auth.AddAddress)
		authGroup.PUT("/addresses/:id", g.Authenticate, ctl.Auth.UpdateAddress)
		authGroup.DELETE("/addresses/:id", g.Authenticate, ctl.Auth.DeleteAddress)
	}

	admin := api.Group("/admin", adminOnly...)
	{
		admin.GET("/orders", ctl.Admin.ListOrders)
		admin.GET("/orders/:id", ctl.Admin.GetOrder)
		admin.PUT("/orders/:id", ctl.Admin.UpdateOrder)
		admin.DELETE("/orders/:id", ctl.Admin.DeleteOrder)
		admin.DELETE("/orders", ctl.Admin.BulkDeleteOrders)

		admin.GET("/products", ctl.Products.GetProducts)
		admin.GET("/products/:id", ctl.Products.GetProductByID)
		admin.POST("/products", ctl.Products.CreateProduct)
		admin.PUT("/products/bulk", ctl.Products.BulkUpdate)
		admin.PUT("/products/:id", ctl.Products.UpdateProduct)
		admin.DELETE("/products/:id", ctl.Products.DeleteProduct)

		admin.GET("/categories", ctl.Categories.ListCategories)
		admin.GET("/categories/:id", ctl.Categories.GetCategory)
		admin.POST("/categories", ctl.Categories.CreateCategory)
		admin.PUT("/categories/:id", ctl.Categories.UpdateCategory)
		admin.DELETE("/categories/:id", ctl.Categories.DeleteCategory)

		admin.GET("/reviews", ctl.Reviews.ListReviews)
		admin.POST("/reviews", ctl.Reviews.AddReview)
		admin.PUT("/reviews/:id", ctl.Reviews.UpdateReview)
		admin.DELETE("/reviews/:id", ctl.Reviews.DeleteReview)

		admin.GET("/testimonials", ctl.Testimonials.ListTestimonials)
		admin.POST("/testimonials", ctl.Testimonials.CreateTestimonial)
		admin.PUT("/testimonials/:id", ctl.Testimonials.UpdateTestimonial)
		admin.DELETE("/testimonials/:id", ctl.Testimonials.DeleteTestimonial)

		admin.GET("/offers", ctl.Offers.ListOffers)
		admin.GET("/offers/:id", ctl.Offers.GetOffer)
		admin.POST("/offers", ctl.Offers.CreateOffer)
		admin.PUT("/offers/:id", ctl.Offers.UpdateOffer)
		admin.DELETE("/offers/:id", ctl.Offers.DeleteOffer)

		admin.GET("/contacts", ctl.Contact.List)
		admin.PUT("/contacts/:id", ctl.Contact.UpdateStatus)

		admin.GET("/users", ctl.Admin.ListUsers)
		admin.GET("/users/email/:email", ctl.Admin.GetUserByEmail)
		admin.GET("/users/:id", ctl.Admin.GetUser)
		admin.DELETE("/users/:id", ctl.Admin.DeleteUser)
		admin.DELETE("/users", ctl.Admin.BulkDeleteUsers)
		admin.PUT("/users/:id/notes", ctl.Admin.AddNote)

		admin.GET("/dashboard", ctl.Admin.Dashboard)
		admin.GET("/inventory/logs", ctl.Admin.InventoryLogs)
	}
}
