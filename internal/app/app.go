package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"reviewhub/internal/api/handler"
	"reviewhub/internal/api/middleware"
	"reviewhub/internal/api/repository"
	"reviewhub/internal/api/service"
	"reviewhub/internal/cache"
	"reviewhub/internal/config"
	"reviewhub/internal/mail"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Run wires repositories, services and handlers, mounts the routes and
// serves until interrupted. redisClient may be nil; the rating cache then
// degrades to recomputing on every read.
func Run(cfg *config.Config, logger *slog.Logger, db *gorm.DB, redisClient *redis.Client) {
	// Repositories
	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	genreRepo := repository.NewGenreRepository(db)
	titleRepo := repository.NewTitleRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	ratingCache := cache.NewRatingCache(redisClient, cfg.RatingCacheTTL, logger)

	var mailer mail.Mailer
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	} else {
		logger.Warn("SMTP_HOST not set, confirmation codes go to the log")
		mailer = mail.NewLogMailer(logger)
	}

	// Services
	authService := service.NewAuthService(userRepo, mailer, cfg, logger)
	userService := service.NewUserService(userRepo)
	categoryService := service.NewCategoryService(categoryRepo)
	genreService := service.NewGenreService(genreRepo)
	titleService := service.NewTitleService(titleRepo, categoryRepo, genreRepo, reviewRepo, ratingCache)
	reviewService := service.NewReviewService(reviewRepo, titleRepo, ratingCache)
	commentService := service.NewCommentService(commentRepo, reviewRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	genreHandler := handler.NewGenreHandler(genreService)
	titleHandler := handler.NewTitleHandler(titleService)
	reviewHandler := handler.NewReviewHandler(reviewService)
	commentHandler := handler.NewCommentHandler(commentService)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authn := middleware.Authenticate(authService, userService)
	authnOptional := middleware.AuthenticateOptional(authService, userService)
	adminOnly := middleware.RequireAdmin()

	api := r.Group("/api/v1")
	{
		// Auth handshake; rate limited per IP.
		auth := api.Group("/auth", middleware.RateLimit(cfg.AuthRatePerMinute))
		{
			auth.POST("/signup", authHandler.SignUp)
			auth.POST("/token", authHandler.Token)
		}

		// User management: admin only, except the self-service pair.
		users := api.Group("/users", authn)
		{
			users.GET("/me", userHandler.Me)
			users.PATCH("/me", userHandler.UpdateMe)

			users.GET("", adminOnly, userHandler.List)
			users.POST("", adminOnly, userHandler.Create)
			users.GET("/:username", adminOnly, userHandler.Get)
			users.PATCH("/:username", adminOnly, userHandler.Update)
			users.DELETE("/:username", adminOnly, userHandler.Delete)
		}

		// Catalog: public reads, admin writes.
		api.GET("/categories", categoryHandler.List)
		api.POST("/categories", authn, adminOnly, categoryHandler.Create)
		api.DELETE("/categories/:slug", authn, adminOnly, categoryHandler.Delete)

		api.GET("/genres", genreHandler.List)
		api.POST("/genres", authn, adminOnly, genreHandler.Create)
		api.DELETE("/genres/:slug", authn, adminOnly, genreHandler.Delete)

		api.GET("/titles", titleHandler.List)
		api.POST("/titles", authn, adminOnly, titleHandler.Create)
		api.GET("/titles/:title_id", titleHandler.Get)
		api.PATCH("/titles/:title_id", authn, adminOnly, titleHandler.Update)
		api.DELETE("/titles/:title_id", authn, adminOnly, titleHandler.Delete)

		// Feedback: public reads; writes need auth, object-level rules live
		// in the services.
		reviews := api.Group("/titles/:title_id/reviews")
		{
			reviews.GET("", authnOptional, reviewHandler.List)
			reviews.GET("/:review_id", authnOptional, reviewHandler.Get)
			reviews.POST("", authn, reviewHandler.Create)
			reviews.PATCH("/:review_id", authn, reviewHandler.Update)
			reviews.DELETE("/:review_id", authn, reviewHandler.Delete)

			comments := reviews.Group("/:review_id/comments")
			{
				comments.GET("", authnOptional, commentHandler.List)
				comments.GET("/:comment_id", authnOptional, commentHandler.Get)
				comments.POST("", authn, commentHandler.Create)
				comments.PATCH("/:comment_id", authn, commentHandler.Update)
				comments.DELETE("/:comment_id", authn, commentHandler.Delete)
			}
		}
	}

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.HTTPPort),
		Handler: r,
	}

	go func() {
		logger.Info("API server starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("error closing database", "error", err)
		}
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("error closing redis", "error", err)
		}
	}

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
