package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/celoacademy/academy-backend/internal/logger"
  "github.com/celoacademy/academy-backend/internal/types"
)

type EnrollmentRepo interface {
  GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseEnrollment, error)
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.CourseEnrollment, error)
  // Upsert is keyed by (user_id, course_id); re-recording the same
  // enrollment event must not create duplicates.
  Upsert(ctx context.Context, tx *gorm.DB, row *types.CourseEnrollment) error
  CountByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error)
}

type enrollmentRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
  repoLog := baseLog.With("repo", "EnrollmentRepo")
  return &enrollmentRepo{db: db, log: repoLog}
}

func (r *enrollmentRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.CourseEnrollment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if userID == uuid.Nil || courseID == uuid.Nil {
    return nil, nil
  }

  var result types.CourseEnrollment
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

func (r *enrollmentRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.CourseEnrollment, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.CourseEnrollment
  if userID == uuid.Nil {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *enrollmentRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.CourseEnrollment) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }

  // Existing rows win: a later sync must not clobber the tx hash and
  // source recorded at confirmation time.
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND course_id = ?", row.UserID, row.CourseID).
    Attrs(map[string]interface{}{
      "token_id": row.TokenID,
      "tx_hash":  row.TxHash,
      "source":   row.Source,
    }).
    FirstOrCreate(row).Error; err != nil {
    return err
  }
  return nil
}

func (r *enrollmentRepo) CountByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if courseID == uuid.Nil {
    return 0, nil
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.CourseEnrollment{}).
    Where("course_id = ?", courseID).
    Count(&count).Error; err != nil {
    return 0, err
  }
  return count, nil
}
