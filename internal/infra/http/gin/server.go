package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"leasehub/internal/infra/config"
	"leasehub/internal/infra/obs"
)

type Handlers struct {
	Auth           AuthHTTP
	Listing        ListingHTTP
	OwnerListing   OwnerListingHTTP
	Booking        BookingHTTP
	OwnerBooking   OwnerBookingHTTP
	Admin          AdminHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(cfg.CORSAllowOrigins, obsMW, health, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewRouter builds the route table. Nil handler groups are not mounted.
func NewRouter(allowOrigins []string, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.AccessLog())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  allowOrigins,
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", idempotencyHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Type", obs.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/register", h.Auth.Register)
		api.POST("/auth/login", h.Auth.Login)
		api.POST("/auth/logout", h.Auth.Logout)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.Listing != nil {
		api.GET("/listings", h.Listing.Catalog)
		api.GET("/listings/:id", h.Listing.Get)
	}
	if h.OwnerListing != nil {
		owner := api.Group("/owner/listings")
		owner.GET("", h.OwnerListing.List)
		owner.POST("", h.OwnerListing.Create)
		owner.PATCH("/:id", h.OwnerListing.Update)
		owner.DELETE("/:id", h.OwnerListing.Delete)
	}
	if h.Booking != nil {
		bookings := api.Group("/bookings")
		bookings.POST("", h.Booking.Create)
		bookings.GET("", h.Booking.ListMine)
		bookings.GET("/:id", h.Booking.Get)
		bookings.POST("/:id/cancel", h.Booking.Cancel)
	}
	if h.OwnerBooking != nil {
		owner := api.Group("/owner/bookings")
		owner.GET("", h.OwnerBooking.ListOwned)
		owner.POST("/:id/status", h.OwnerBooking.Transition)
	}
	if h.Admin != nil {
		admin := api.Group("/admin")
		admin.GET("/users", h.Admin.Users)
		admin.GET("/pending-owners", h.Admin.PendingOwners)
		admin.DELETE("/pending-owners/:id", h.Admin.RejectOwner)
		admin.GET("/bookings", h.Admin.Bookings)
		admin.GET("/listings", h.Admin.Listings)
		admin.POST("/users/:id/approve-owner", h.Admin.ApproveOwner)
		admin.DELETE("/users/:id", h.Admin.DeleteUser)
		admin.DELETE("/listings/:id", h.Admin.DeleteListing)
	}
	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
