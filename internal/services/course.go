package services

import (
  "context"
  "fmt"

  "github.com/celoacademy/academy-backend/internal/coursetoken"
  "github.com/celoacademy/academy-backend/internal/logger"
  "github.com/celoacademy/academy-backend/internal/repos"
  "github.com/celoacademy/academy-backend/internal/types"
)

// CourseDetail is the course plus derived fields the UI needs on a
// course page.
type CourseDetail struct {
  Course          *types.Course `json:"course"`
  TokenID         uint64        `json:"token_id"`
  EnrollmentCount int64         `json:"enrollment_count"`
}

type CourseService interface {
  ListPublished(ctx context.Context) ([]*types.Course, error)
  GetBySlug(ctx context.Context, slug string) (*CourseDetail, error)
  EnrollmentCount(ctx context.Context, slug string) (int64, error)
}

type courseService struct {
  log            *logger.Logger
  courseRepo     repos.CourseRepo
  enrollmentRepo repos.EnrollmentRepo
}

func NewCourseService(baseLog *logger.Logger, courseRepo repos.CourseRepo, enrollmentRepo repos.EnrollmentRepo) CourseService {
  serviceLog := baseLog.With("service", "CourseService")
  return &courseService{
    log:            serviceLog,
    courseRepo:     courseRepo,
    enrollmentRepo: enrollmentRepo,
  }
}

func (cs *courseService) ListPublished(ctx context.Context) ([]*types.Course, error) {
  return cs.courseRepo.ListPublished(ctx, nil)
}

func (cs *courseService) GetBySlug(ctx context.Context, slug string) (*CourseDetail, error) {
  course, err := cs.courseRepo.GetBySlugWithContent(ctx, nil, slug)
  if err != nil {
    return nil, err
  }
  if course == nil {
    return nil, NewCodedError(CodeCourseNotFound, fmt.Sprintf("no course with slug %q", slug))
  }

  count, err := cs.enrollmentRepo.CountByCourseID(ctx, nil, course.ID)
  if err != nil {
    // Counting is cosmetic; the page still renders.
    cs.log.Warn("Enrollment count failed", "course_id", course.ID, "error", err)
  }

  return &CourseDetail{
    Course:          course,
    TokenID:         coursetoken.TokenID(course.Slug, course.ID.String()),
    EnrollmentCount: count,
  }, nil
}

func (cs *courseService) EnrollmentCount(ctx context.Context, slug string) (int64, error) {
  course, err := cs.courseRepo.GetBySlug(ctx, nil, slug)
  if err != nil {
    return 0, err
  }
  if course == nil {
    return 0, NewCodedError(CodeCourseNotFound, fmt.Sprintf("no course with slug %q", slug))
  }
  return cs.enrollmentRepo.CountByCourseID(ctx, nil, course.ID)
}
