package routes

import (
	"net/http"
	"strings"
	"time"

	"pixels/database"
	"pixels/handlers"
	"pixels/middleware"
	"pixels/realtime"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Setup wires every HTTP route. The auth rules are layered: public
// routes, header-token protected routes, and a verified-only subset for
// mutations. The legacy ad endpoints authenticate themselves from the
// request body and stay outside the middleware.
func Setup(h *handlers.Handler, rt *realtime.Manager, db *database.Mongo) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:8080", "http://127.0.0.1:8080", "http://localhost:5500", "http://127.0.0.1:5500", "http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"message":   "Pixels Media API is running",
			"time":      time.Now().Unix(),
			"ws":        "WebSocket available at /ws",
			"connected": rt.ConnectedUsers(),
		})
	})

	// The auth endpoints answer to anyone, so they get their own
	// per-IP budget against brute force.
	authLimiter := middleware.NewIPRateLimiter(20, time.Minute)

	public := router.Group("/api")
	public.Use(authLimiter.Middleware())
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)
	public.GET("/verify", h.VerifyLink)
	public.POST("/verify-code", h.VerifyCode)
	public.POST("/resend-code", h.ResendCode)

	router.GET("/api/vapid-public-key", h.GetVapidPublicKey)

	// Ads feed is public; the legacy clients carry the JWT in the
	// request body for the two mutating calls.
	router.GET("/api/ads/feed", h.ListActiveAds)
	router.POST("/api/ads", h.CreateAd)
	router.POST("/api/interact", h.Interact)

	protected := router.Group("/api")
	protected.Use(h.Auth.Middleware())

	protected.GET("/me", h.GetMyProfile)
	protected.PUT("/me", h.UpdateMyProfile)
	protected.GET("/user/:id", h.GetUser)
	protected.GET("/users/search", h.SearchUsers)

	protected.GET("/feed", h.GetFeed)
	protected.GET("/dashboard", h.GetDashboard)
	protected.GET("/warnings", h.GetWarnings)
	protected.POST("/subscribe", h.SubscribePush)
	protected.DELETE("/ads/:id", h.DeleteAd)

	// Mutations require a verified email.
	verified := protected.Group("")
	verified.Use(middleware.RequireVerified(db))

	verified.POST("/upload", h.UploadMedia)
	verified.DELETE("/media/:id", h.DeleteMedia)
	verified.POST("/like/:id", h.Like)
	verified.DELETE("/like/:id", h.Unlike)
	verified.POST("/dislike/:id", h.Dislike)
	verified.DELETE("/dislike/:id", h.Undislike)
	verified.POST("/comment/:id", h.CreateComment)
	verified.PUT("/comment/:id/:commentId", h.UpdateComment)
	verified.DELETE("/comment/:id/:commentId", h.DeleteComment)

	verified.POST("/follow", h.Follow)
	verified.DELETE("/follow", h.Unfollow)

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Endpoint not found",
				"path":  c.Request.URL.Path,
			})
			return
		}
		c.Next()
	})

	return router
}
