package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/celoacademy/academy-backend/internal/logger"
  "github.com/celoacademy/academy-backend/internal/types"
)

type ReviewRepo interface {
  GetByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.CourseReview, error)
  GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseReview, error)
  Upsert(ctx context.Context, tx *gorm.DB, row *types.CourseReview) error
}

type reviewRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
  repoLog := baseLog.With("repo", "ReviewRepo")
  return &reviewRepo{db: db, log: repoLog}
}

func (r *reviewRepo) GetByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.CourseReview, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.CourseReview
  if courseID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("course_id = ?", courseID).
    Order("created_at DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *reviewRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseReview, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if userID == uuid.Nil || courseID == uuid.Nil {
    return nil, nil
  }

  var result types.CourseReview
  err := transaction.WithContext(ctx).
    Where("user_id = ? AND course_id = ?", userID, courseID).
    First(&result).Error
  if err == gorm.ErrRecordNotFound {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *reviewRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.CourseReview) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }

  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND course_id = ?", row.UserID, row.CourseID).
    Assign(map[string]interface{}{
      "rating":  row.Rating,
      "comment": row.Comment,
    }).
    FirstOrCreate(row).Error; err != nil {
    return err
  }
  return nil
}
