package services

import (
  "context"
  "sync"
  "testing"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/celoacademy/academy-backend/internal/types"
)

type fakeReviewRepo struct {
  mu   sync.Mutex
  rows []*types.CourseReview
}

func (f *fakeReviewRepo) GetByCourseID(_ context.Context, _ *gorm.DB, courseID uuid.UUID) ([]*types.CourseReview, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  var out []*types.CourseReview
  for _, row := range f.rows {
    if row.CourseID == courseID {
      out = append(out, row)
    }
  }
  return out, nil
}

func (f *fakeReviewRepo) GetByUserAndCourse(_ context.Context, _ *gorm.DB, userID, courseID uuid.UUID) (*types.CourseReview, error) {
  f.mu.Lock()
  defer f.mu.Unlock()
  for _, row := range f.rows {
    if row.UserID == userID && row.CourseID == courseID {
      return row, nil
    }
  }
  return nil, nil
}

func (f *fakeReviewRepo) Upsert(_ context.Context, _ *gorm.DB, row *types.CourseReview) error {
  f.mu.Lock()
  defer f.mu.Unlock()
  for i, existing := range f.rows {
    if existing.UserID == row.UserID && existing.CourseID == row.CourseID {
      f.rows[i] = row
      return nil
    }
  }
  f.rows = append(f.rows, row)
  return nil
}

func TestReviewSubmitGatedOnCompletion(t *testing.T) {
  courseRepo, _, progressRepo, badge, _, entitlement := newEntitlementFixture(t)
  course := courseRepo.addCourse("celo-basics", 2)
  badge.enrolled = true
  userID := uuid.New()
  ctx := authedContext(userID)
  reviewRepo := &fakeReviewRepo{}
  svc := NewReviewService(testLogger(), courseRepo, reviewRepo, entitlement)

  if _, err := svc.Submit(ctx, "celo-basics", 5, "great"); ErrorCode(err) != "COURSE_NOT_COMPLETED" {
    t.Fatalf("error = %v, want COURSE_NOT_COMPLETED", err)
  }

  progressRepo.complete(userID, courseRepo.lessons[course.ID]...)
  review, err := svc.Submit(ctx, "celo-basics", 5, "great")
  if err != nil {
    t.Fatalf("Submit after completion: %v", err)
  }
  if review.Rating != 5 {
    t.Fatalf("Rating = %d", review.Rating)
  }
}

func TestReviewSubmitUpsertsSingleRow(t *testing.T) {
  courseRepo, _, progressRepo, badge, _, entitlement := newEntitlementFixture(t)
  course := courseRepo.addCourse("celo-basics", 1)
  badge.enrolled = true
  userID := uuid.New()
  ctx := authedContext(userID)
  reviewRepo := &fakeReviewRepo{}
  svc := NewReviewService(testLogger(), courseRepo, reviewRepo, entitlement)
  progressRepo.complete(userID, courseRepo.lessons[course.ID]...)

  if _, err := svc.Submit(ctx, "celo-basics", 3, "ok"); err != nil {
    t.Fatalf("first Submit: %v", err)
  }
  if _, err := svc.Submit(ctx, "celo-basics", 4, "better on reread"); err != nil {
    t.Fatalf("second Submit: %v", err)
  }

  rows, _ := reviewRepo.GetByCourseID(ctx, nil, course.ID)
  if len(rows) != 1 {
    t.Fatalf("rows = %d, want 1 (resubmission replaces)", len(rows))
  }
  if rows[0].Rating != 4 {
    t.Fatalf("Rating = %d, want 4", rows[0].Rating)
  }
}

func TestReviewSubmitRejectsOutOfRangeRating(t *testing.T) {
  courseRepo, _, _, _, _, entitlement := newEntitlementFixture(t)
  courseRepo.addCourse("celo-basics", 1)
  svc := NewReviewService(testLogger(), courseRepo, &fakeReviewRepo{}, entitlement)

  for _, rating := range []int{0, 6, -1} {
    if _, err := svc.Submit(authedContext(uuid.New()), "celo-basics", rating, ""); err == nil {
      t.Fatalf("rating %d accepted", rating)
    }
  }
}
