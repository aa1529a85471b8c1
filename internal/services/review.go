package services

import (
  "context"
  "fmt"

  "github.com/celoacademy/academy-backend/internal/logger"
  "github.com/celoacademy/academy-backend/internal/repos"
  "github.com/celoacademy/academy-backend/internal/requestdata"
  "github.com/celoacademy/academy-backend/internal/types"
)

type ReviewService interface {
  ListByCourse(ctx context.Context, courseSlug string) ([]*types.CourseReview, error)
  // Submit upserts the caller's review. Eligibility is re-checked
  // server-side on every submit; the client-side gate is advisory.
  Submit(ctx context.Context, courseSlug string, rating int, comment string) (*types.CourseReview, error)
}

type reviewService struct {
  log         *logger.Logger
  courseRepo  repos.CourseRepo
  reviewRepo  repos.ReviewRepo
  entitlement EntitlementService
}

func NewReviewService(baseLog *logger.Logger, courseRepo repos.CourseRepo, reviewRepo repos.ReviewRepo, entitlement EntitlementService) ReviewService {
  serviceLog := baseLog.With("service", "ReviewService")
  return &reviewService{
    log:         serviceLog,
    courseRepo:  courseRepo,
    reviewRepo:  reviewRepo,
    entitlement: entitlement,
  }
}

func (rs *reviewService) ListByCourse(ctx context.Context, courseSlug string) ([]*types.CourseReview, error) {
  course, err := rs.courseRepo.GetBySlug(ctx, nil, courseSlug)
  if err != nil {
    return nil, err
  }
  if course == nil {
    return nil, NewCodedError(CodeCourseNotFound, fmt.Sprintf("no course with slug %q", courseSlug))
  }
  return rs.reviewRepo.GetByCourseID(ctx, nil, course.ID)
}

func (rs *reviewService) Submit(ctx context.Context, courseSlug string, rating int, comment string) (*types.CourseReview, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    return nil, NewCodedError(CodeNotAuthenticated, "authentication required")
  }
  if rating < 1 || rating > 5 {
    return nil, fmt.Errorf("Rating must be between 1 and 5, got %d", rating)
  }

  eligibility, err := rs.entitlement.ResolveReviewEligibility(ctx, courseSlug)
  if err != nil {
    return nil, err
  }
  if !eligibility.CanReview {
    reason := eligibility.Reason
    if reason == "" {
      reason = CodeNotEnrolled
    }
    return nil, NewCodedError(reason, "review eligibility requirements not met")
  }

  course, err := rs.courseRepo.GetBySlug(ctx, nil, courseSlug)
  if err != nil {
    return nil, err
  }
  if course == nil {
    return nil, NewCodedError(CodeCourseNotFound, fmt.Sprintf("no course with slug %q", courseSlug))
  }

  row := &types.CourseReview{
    UserID:   rd.UserID,
    CourseID: course.ID,
    Rating:   rating,
    Comment:  comment,
  }
  if err := rs.reviewRepo.Upsert(ctx, nil, row); err != nil {
    return nil, err
  }
  return row, nil
}
