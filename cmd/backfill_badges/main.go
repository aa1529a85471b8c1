// Backfill walks users with wallet addresses, reads their badge state
// on-chain and upserts the missing mirror enrollment rows. Safe to
// rerun; existing rows are never overwritten.
package main

import (
  "context"
  "flag"
  "fmt"
  "os"
  "time"

  "github.com/celoacademy/academy-backend/internal/chain"
  "github.com/celoacademy/academy-backend/internal/coursetoken"
  "github.com/celoacademy/academy-backend/internal/db"
  "github.com/celoacademy/academy-backend/internal/logger"
  "github.com/celoacademy/academy-backend/internal/repos"
  "github.com/celoacademy/academy-backend/internal/types"
  "github.com/celoacademy/academy-backend/internal/utils"
)

func main() {
  courseSlug := flag.String("course", "", "restrict the backfill to one course slug")
  dryRun := flag.Bool("dry-run", false, "report what would be written without writing")
  limit := flag.Int("limit", 0, "max users to scan (0 = all)")
  flag.Parse()

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

  chainConfig, err := chain.LoadConfig(utils.GetEnv("CHAIN_CONFIG_PATH", "", log))
  if err != nil {
    log.Fatal("Chain config invalid", "error", err)
  }
  network := chainConfig.Default()
  rpcTimeout := utils.GetEnvAsInt("CHAIN_RPC_TIMEOUT_SECONDS", 10, log)
  rpcClient := chain.NewRPCClient(network.RPCURL, time.Duration(rpcTimeout)*time.Second, log)
  badge, err := chain.NewBadge(network, rpcClient)
  if err != nil {
    log.Fatal("Badge init failed", "error", err)
  }

  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Fatal("Postgres init failed", "error", err)
  }
  thePG := postgresService.DB()
  userRepo := repos.NewUserRepo(thePG, log)
  courseRepo := repos.NewCourseRepo(thePG, log)
  enrollmentRepo := repos.NewEnrollmentRepo(thePG, log)

  ctx := context.Background()

  var courses []*types.Course
  if *courseSlug != "" {
    course, err := courseRepo.GetBySlug(ctx, nil, *courseSlug)
    if err != nil {
      log.Fatal("Course lookup failed", "slug", *courseSlug, "error", err)
    }
    if course == nil {
      log.Fatal("No course with slug", "slug", *courseSlug)
    }
    courses = []*types.Course{course}
  } else {
    courses, err = courseRepo.ListPublished(ctx, nil)
    if err != nil {
      log.Fatal("Course list failed", "error", err)
    }
  }

  users, err := userRepo.List(ctx, nil, *limit)
  if err != nil {
    log.Fatal("User list failed", "error", err)
  }
  log.Info("Backfill scan starting", "users", len(users), "courses", len(courses), "dry_run", *dryRun)

  var scanned, written, skipped, failed int
  for _, user := range users {
    wallet, addrErr := chain.ParseAddress(user.WalletAddress)
    if addrErr != nil {
      log.Warn("Skipping user with unparseable wallet", "user_id", user.ID, "wallet", user.WalletAddress, "error", addrErr)
      continue
    }
    for _, course := range courses {
      scanned++
      tokenID := coursetoken.TokenID(course.Slug, course.ID.String())

      existing, getErr := enrollmentRepo.GetByUserAndCourse(ctx, nil, user.ID, course.ID)
      if getErr != nil {
        log.Warn("Mirror read failed", "user_id", user.ID, "course_id", course.ID, "error", getErr)
        failed++
        continue
      }
      if existing != nil {
        skipped++
        continue
      }

      enrolled, readErr := badge.IsEnrolled(ctx, wallet, tokenID)
      if readErr == nil && !enrolled {
        enrolled, readErr = badge.HasClaimed(ctx, wallet, tokenID)
      }
      if readErr != nil {
        log.Warn("Chain read failed", "wallet", wallet.Hex(), "token_id", tokenID, "error", readErr)
        failed++
        continue
      }
      if !enrolled {
        continue
      }

      if *dryRun {
        log.Info("Would backfill enrollment", "user_id", user.ID, "course", course.Slug, "token_id", tokenID)
        written++
        continue
      }
      row := &types.CourseEnrollment{
        UserID:   user.ID,
        CourseID: course.ID,
        TokenID:  tokenID,
        Source:   types.EnrollmentSourceBackfill,
      }
      if upErr := enrollmentRepo.Upsert(ctx, nil, row); upErr != nil {
        log.Warn("Mirror write failed", "user_id", user.ID, "course_id", course.ID, "error", upErr)
        failed++
        continue
      }
      written++
      log.Info("Backfilled enrollment", "user_id", user.ID, "course", course.Slug, "token_id", tokenID)
    }
  }

  log.Info("Backfill finished", "scanned", scanned, "written", written, "skipped", skipped, "failed", failed)
}
