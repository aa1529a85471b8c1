package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/celoacademy/academy-backend/internal/logger"
  "github.com/celoacademy/academy-backend/internal/types"
)

type LessonProgressRepo interface {
  GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.LessonProgress, error)
  GetByUserAndLessonIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, lessonIDs []uuid.UUID) ([]*types.LessonProgress, error)
  Upsert(ctx context.Context, tx *gorm.DB, row *types.LessonProgress) error
  CountCompleted(ctx context.Context, tx *gorm.DB, userID uuid.UUID, lessonIDs []uuid.UUID) (int64, error)
}

type lessonProgressRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewLessonProgressRepo(db *gorm.DB, baseLog *logger.Logger) LessonProgressRepo {
  repoLog := baseLog.With("repo", "LessonProgressRepo")
  return &lessonProgressRepo{db: db, log: repoLog}
}

func (r *lessonProgressRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.LessonProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.LessonProgress
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

func (r *lessonProgressRepo) GetByUserAndLessonIDs(ctx context.Context, tx *gorm.DB, userID uuid.UUID, lessonIDs []uuid.UUID) ([]*types.LessonProgress, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.LessonProgress
  if userID == uuid.Nil || len(lessonIDs) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND lesson_id IN ?", userID, lessonIDs).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *lessonProgressRepo) Upsert(ctx context.Context, tx *gorm.DB, row *types.LessonProgress) error {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row == nil {
    return nil
  }

  // Upsert by unique user_id + lesson_id
  if err := transaction.WithContext(ctx).
    Where("user_id = ? AND lesson_id = ?", row.UserID, row.LessonID).
    Assign(map[string]interface{}{
      "status":       row.Status,
      "completed_at": row.CompletedAt,
    }).
    FirstOrCreate(row).Error; err != nil {
    return err
  }
  return nil
}

func (r *lessonProgressRepo) CountCompleted(ctx context.Context, tx *gorm.DB, userID uuid.UUID, lessonIDs []uuid.UUID) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if userID == uuid.Nil || len(lessonIDs) == 0 {
    return 0, nil
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.LessonProgress{}).
    Where("user_id = ? AND lesson_id IN ? AND status = ?", userID, lessonIDs, types.LessonProgressCompleted).
    Count(&count).Error; err != nil {
    return 0, err
  }
  return count, nil
}
