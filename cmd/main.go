package main

import (
  "context"
  "fmt"
  "os"
  "strings"
  "time"

  "github.com/celoacademy/academy-backend/internal/chain"
  rediscache "github.com/celoacademy/academy-backend/internal/clients/redis"
  "github.com/celoacademy/academy-backend/internal/clients/relay"
  "github.com/celoacademy/academy-backend/internal/db"
  "github.com/celoacademy/academy-backend/internal/handlers"
  "github.com/celoacademy/academy-backend/internal/logger"
  "github.com/celoacademy/academy-backend/internal/middleware"
  "github.com/celoacademy/academy-backend/internal/repos"
  "github.com/celoacademy/academy-backend/internal/server"
  "github.com/celoacademy/academy-backend/internal/services"
  "github.com/celoacademy/academy-backend/internal/utils"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
  chainConfigPath := utils.GetEnv("CHAIN_CONFIG_PATH", "", log)
  rpcTimeout := utils.GetEnvAsInt("CHAIN_RPC_TIMEOUT_SECONDS", 10, log)

  // Chain config. A malformed network config must stop the process
  // here, not surface per request.
  chainConfig, err := chain.LoadConfig(chainConfigPath)
  if err != nil {
    log.Fatal("Chain config invalid", "error", err)
  }
  network := chainConfig.Default()
  log.Info("Chain network selected", "chain_id", network.ChainID, "name", network.Name, "contract", network.ContractAddress.Hex(), "version", network.ContractVersion)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Warn("Postgres init failed", "error", err)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  userTokenRepo := repos.NewUserTokenRepo(thePG, log)
  courseRepo := repos.NewCourseRepo(thePG, log)
  enrollmentRepo := repos.NewEnrollmentRepo(thePG, log)
  lessonProgressRepo := repos.NewLessonProgressRepo(thePG, log)
  reviewRepo := repos.NewReviewRepo(thePG, log)

  // Chain clients
  log.Info("Setting up chain clients from main...")
  rpcClient := chain.NewRPCClient(network.RPCURL, time.Duration(rpcTimeout)*time.Second, log)
  badge, err := chain.NewBadge(network, rpcClient)
  if err != nil {
    log.Fatal("Badge init failed", "error", err)
  }

  factCache, err := rediscache.NewFactCache(log)
  if err != nil {
    // Reads fall through to the chain without a cache.
    log.Warn("Fact cache unavailable", "error", err)
    factCache = nil
  }

  relayClient, err := relay.NewClient(log)
  if err != nil {
    log.Warn("Relay client init failed", "error", err)
  }
  if relayClient != nil {
    go func() {
      ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
      defer cancel()
      if initErr := relayClient.Initialize(ctx); initErr != nil {
        log.Warn("Relay session init failed, sponsored submits will be rejected", "error", initErr)
      }
    }()
  }

  // Services
  log.Info("Setting up Services from main...")
  authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
  chainFactService := services.NewChainFactService(log, network, badge, factCache)
  enrollmentService := services.NewEnrollmentService(log, network, badge, rpcClient, relayClient, chainFactService, courseRepo, enrollmentRepo, userRepo)
  entitlementService := services.NewEntitlementService(log, courseRepo, enrollmentRepo, lessonProgressRepo, chainFactService, enrollmentService)
  courseService := services.NewCourseService(log, courseRepo, enrollmentRepo)
  progressService := services.NewProgressService(log, courseRepo, lessonProgressRepo, entitlementService)
  reviewService := services.NewReviewService(log, courseRepo, reviewRepo, entitlementService)

  // Handlers
  log.Info("Setting up handlers from main...")
  authHandler := handlers.NewAuthHandler(authService)
  courseHandler := handlers.NewCourseHandler(courseService)
  entitlementHandler := handlers.NewEntitlementHandler(entitlementService)
  enrollmentHandler := handlers.NewEnrollmentHandler(enrollmentService)
  progressHandler := handlers.NewProgressHandler(progressService)
  reviewHandler := handlers.NewReviewHandler(reviewService)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router
  log.Info("Setting up router from main...")
  allowOrigins := strings.Split(utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000", log), ",")
  router := server.NewRouter(server.RouterConfig{
    AuthHandler:        authHandler,
    AuthMiddleware:     authMiddleware,
    CourseHandler:      courseHandler,
    EntitlementHandler: entitlementHandler,
    EnrollmentHandler:  enrollmentHandler,
    ProgressHandler:    progressHandler,
    ReviewHandler:      reviewHandler,
    AllowOrigins:       allowOrigins,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Warn("Server failed", "error", err)
  }
}
