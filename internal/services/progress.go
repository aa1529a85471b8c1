package services

import (
  "context"
  "fmt"
  "time"

  "github.com/google/uuid"

  "github.com/celoacademy/academy-backend/internal/logger"
  "github.com/celoacademy/academy-backend/internal/repos"
  "github.com/celoacademy/academy-backend/internal/requestdata"
  "github.com/celoacademy/academy-backend/internal/types"
)

// CourseProgress summarizes one user's position in a course over its
// published lessons only. Draft lessons never count toward either
// side of the ratio.
type CourseProgress struct {
  CompletedLessons int64   `json:"completed_lessons"`
  TotalLessons     int64   `json:"total_lessons"`
  Percent          float64 `json:"percent"`
}

type ProgressService interface {
  CourseProgress(ctx context.Context, courseSlug string) (*CourseProgress, error)
  // CompleteLesson records the lesson as done in the mirror. Access
  // gating is on-chain facts; the mirror write itself only checks
  // the lesson belongs to the course and is published.
  CompleteLesson(ctx context.Context, courseSlug string, lessonID uuid.UUID) error
}

type progressService struct {
  log          *logger.Logger
  courseRepo   repos.CourseRepo
  progressRepo repos.LessonProgressRepo
  entitlement  EntitlementService
}

func NewProgressService(baseLog *logger.Logger, courseRepo repos.CourseRepo, progressRepo repos.LessonProgressRepo, entitlement EntitlementService) ProgressService {
  serviceLog := baseLog.With("service", "ProgressService")
  return &progressService{
    log:          serviceLog,
    courseRepo:   courseRepo,
    progressRepo: progressRepo,
    entitlement:  entitlement,
  }
}

func (ps *progressService) CourseProgress(ctx context.Context, courseSlug string) (*CourseProgress, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    return nil, NewCodedError(CodeNotAuthenticated, "authentication required")
  }

  course, err := ps.courseRepo.GetBySlug(ctx, nil, courseSlug)
  if err != nil {
    return nil, err
  }
  if course == nil {
    return nil, NewCodedError(CodeCourseNotFound, fmt.Sprintf("no course with slug %q", courseSlug))
  }

  lessonIDs, err := ps.courseRepo.ListPublishedLessonIDs(ctx, nil, course.ID)
  if err != nil {
    return nil, err
  }

  progress := &CourseProgress{TotalLessons: int64(len(lessonIDs))}
  if len(lessonIDs) == 0 {
    return progress, nil
  }

  completed, err := ps.progressRepo.CountCompleted(ctx, nil, rd.UserID, lessonIDs)
  if err != nil {
    return nil, err
  }
  progress.CompletedLessons = completed
  progress.Percent = float64(completed) / float64(progress.TotalLessons) * 100
  return progress, nil
}

func (ps *progressService) CompleteLesson(ctx context.Context, courseSlug string, lessonID uuid.UUID) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    return NewCodedError(CodeNotAuthenticated, "authentication required")
  }

  decision, err := ps.entitlement.ResolveAccess(ctx, courseSlug)
  if err != nil {
    return err
  }
  if !decision.HasAccess {
    return NewCodedError(CodeNotEnrolled, "course access required to record progress")
  }

  course, err := ps.courseRepo.GetBySlug(ctx, nil, courseSlug)
  if err != nil {
    return err
  }
  if course == nil {
    return NewCodedError(CodeCourseNotFound, fmt.Sprintf("no course with slug %q", courseSlug))
  }
  lessonIDs, err := ps.courseRepo.ListPublishedLessonIDs(ctx, nil, course.ID)
  if err != nil {
    return err
  }
  known := false
  for _, id := range lessonIDs {
    if id == lessonID {
      known = true
      break
    }
  }
  if !known {
    return fmt.Errorf("Lesson %s is not a published lesson of course %q", lessonID, courseSlug)
  }

  now := time.Now()
  row := &types.LessonProgress{
    UserID:      rd.UserID,
    LessonID:    lessonID,
    Status:      types.LessonProgressCompleted,
    CompletedAt: &now,
  }
  return ps.progressRepo.Upsert(ctx, nil, row)
}
