package server

import (
  "github.com/gin-contrib/cors"
  "github.com/gin-gonic/gin"

  "github.com/celoacademy/academy-backend/internal/handlers"
  "github.com/celoacademy/academy-backend/internal/middleware"
)

type RouterConfig struct {
  AuthHandler        *handlers.AuthHandler
  AuthMiddleware     *middleware.AuthMiddleware
  CourseHandler      *handlers.CourseHandler
  EntitlementHandler *handlers.EntitlementHandler
  EnrollmentHandler  *handlers.EnrollmentHandler
  ProgressHandler    *handlers.ProgressHandler
  ReviewHandler      *handlers.ReviewHandler
  AllowOrigins       []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  origins := cfg.AllowOrigins
  if len(origins) == 0 {
    origins = []string{"http://localhost:3000", "http://localhost:5173"}
  }
  router.Use(cors.New(cors.Config{
    AllowOrigins:     origins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)
  router.POST("/auth/login", cfg.AuthHandler.Login)
  router.POST("/auth/refresh", cfg.AuthHandler.Refresh)

  api := router.Group("/api")
  api.GET("/courses", cfg.CourseHandler.List)
  api.GET("/courses/:slug", cfg.CourseHandler.Get)
  api.GET("/courses/:slug/reviews", cfg.ReviewHandler.List)
  api.GET("/courses/:slug/enrollment-count", cfg.CourseHandler.EnrollmentCount)

// ===============
// || Protected ||
// ===============
  protected := router.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  // Auth
  protected.POST("/auth/logout", cfg.AuthHandler.Logout)
  // Entitlement
  protected.GET("/api/courses/:slug/access", cfg.EntitlementHandler.Access)
  protected.GET("/api/courses/:slug/reviews/eligibility", cfg.EntitlementHandler.ReviewEligibility)
  // Enrollment and on-chain actions
  protected.POST("/api/courses/:slug/enroll", cfg.EnrollmentHandler.Enroll)
  protected.POST("/api/courses/:slug/modules/:index/complete", cfg.EnrollmentHandler.CompleteModule)
  protected.POST("/api/courses/:slug/sync-enrollment", cfg.EnrollmentHandler.SyncEnrollment)
  protected.GET("/api/actions/:id", cfg.EnrollmentHandler.GetAction)
  // Progress
  protected.GET("/api/courses/:slug/progress", cfg.ProgressHandler.CourseProgress)
  protected.POST("/api/courses/:slug/lessons/:lessonId/complete", cfg.ProgressHandler.CompleteLesson)
  // Reviews
  protected.POST("/api/courses/:slug/reviews", cfg.ReviewHandler.Submit)

  return router
}
