package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/curricula/backend/config"
	"github.com/curricula/backend/internal/approval"
	"github.com/curricula/backend/internal/auth"
	"github.com/curricula/backend/internal/catalog"
	"github.com/curricula/backend/internal/discovery"
	"github.com/curricula/backend/internal/middleware"
	"github.com/curricula/backend/internal/submissions"
	"github.com/curricula/backend/pkg/response"
)

type routerDeps struct {
	cfg       *config.Config
	logger    *zap.Logger
	health    func(ctx context.Context) error
	sessions  middleware.ViewerResolver
	auth      *auth.Handler
	catalog   *catalog.Handler
	intake    *submissions.IntakeHandler
	review    *submissions.AdminHandler
	approval  *approval.Handler
	discovery *discovery.Handler
}

func newRouter(d routerDeps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(d.cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.LoadViewer(d.sessions, d.logger))
	router.Use(middleware.Logger(d.logger))

	// Health
	router.GET("/health", func(c *gin.Context) {
		if err := d.health(c.Request.Context()); err != nil {
			response.Internal(c, "database unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// Public catalog
	api.GET("/home", d.catalog.Home)
	api.GET("/browse", d.catalog.Browse)
	api.GET("/resources/:slug", d.catalog.Resource)
	api.GET("/creators/:slug", d.catalog.Creator)
	api.GET("/categories/:slug", d.catalog.Category)

	// Agent intake (shared bearer token)
	api.POST("/submissions", submissions.RequireToken(d.cfg.Intake.APIToken), d.intake.Create)

	trusted := middleware.TrustedOrigin([]string{d.cfg.Auth.AppURL})

	// Auth (public)
	authGroup := api.Group("/auth", trusted)
	{
		authGroup.POST("/sign-in/email", d.auth.SignIn)
		authGroup.POST("/sign-out", d.auth.SignOut)
		authGroup.GET("/get-session", d.auth.GetSession)
	}

	// Back-office (admin session required)
	admin := api.Group("/admin", trusted, middleware.RequireAdmin())
	{
		admin.GET("/submissions", d.review.ListPending)
		admin.GET("/submissions/:id/review", d.review.Review)
		admin.POST("/submissions/:id/approve", d.approval.Approve)
		admin.POST("/submissions/:id/reject", d.approval.Reject)

		admin.GET("/creators", d.catalog.Creators)
		admin.GET("/categories", d.catalog.Categories)
		admin.GET("/tags", d.catalog.Tags)

		admin.POST("/discover", d.discovery.Discover)
		admin.POST("/discover/queue", d.discovery.QueueDiscovered)
		admin.POST("/extract", d.discovery.Extract)
		admin.POST("/extract/queue", d.discovery.QueueExtracted)
	}

	router.NoRoute(catalog.NotFound)
	return router
}
