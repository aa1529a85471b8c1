package repos

import (
  "context"
  "strings"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/celoacademy/academy-backend/internal/logger"
  "github.com/celoacademy/academy-backend/internal/types"
)

type CourseRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.Course) ([]*types.Course, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Course, error)
  GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Course, error)
  GetBySlugWithContent(ctx context.Context, tx *gorm.DB, slug string) (*types.Course, error)
  ListPublished(ctx context.Context, tx *gorm.DB) ([]*types.Course, error)
  CountPublishedLessons(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error)
  ListPublishedLessonIDs(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]uuid.UUID, error)
}

type courseRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
  repoLog := baseLog.With("repo", "CourseRepo")
  return &courseRepo{db: db, log: repoLog}
}

func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.Course) ([]*types.Course, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.Course{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *courseRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Course, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Course
  if len(ids) == 0 {
    return results, nil
  }

  if err := transaction.WithContext(ctx).
    Where("id IN ?", ids).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *courseRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Course, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  slug = strings.TrimSpace(slug)
  if slug == "" {
    return nil, nil
  }

  var result types.Course
  err := transaction.WithContext(ctx).
    Where("slug = ?", slug).
    First(&result).Error
  if err == gorm.ErrRecordNotFound {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *courseRepo) GetBySlugWithContent(ctx context.Context, tx *gorm.DB, slug string) (*types.Course, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  slug = strings.TrimSpace(slug)
  if slug == "" {
    return nil, nil
  }

  var result types.Course
  err := transaction.WithContext(ctx).
    Preload("Modules", func(db *gorm.DB) *gorm.DB {
      return db.Order("course_module.position ASC")
    }).
    Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
      return db.Order("lesson.position ASC")
    }).
    Where("slug = ?", slug).
    First(&result).Error
  if err == gorm.ErrRecordNotFound {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *courseRepo) ListPublished(ctx context.Context, tx *gorm.DB) ([]*types.Course, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Course
  if err := transaction.WithContext(ctx).
    Where("status = ?", "PUBLISHED").
    Order("created_at ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *courseRepo) CountPublishedLessons(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if courseID == uuid.Nil {
    return 0, nil
  }

  var count int64
  if err := transaction.WithContext(ctx).
    Model(&types.Lesson{}).
    Joins("JOIN course_module ON course_module.id = lesson.module_id").
    Where("course_module.course_id = ? AND lesson.status = ?", courseID, types.LessonStatusPublished).
    Count(&count).Error; err != nil {
    return 0, err
  }
  return count, nil
}

func (r *courseRepo) ListPublishedLessonIDs(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]uuid.UUID, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var ids []uuid.UUID
  if courseID == uuid.Nil {
    return ids, nil
  }

  if err := transaction.WithContext(ctx).
    Model(&types.Lesson{}).
    Joins("JOIN course_module ON course_module.id = lesson.module_id").
    Where("course_module.course_id = ? AND lesson.status = ?", courseID, types.LessonStatusPublished).
    Pluck("lesson.id", &ids).Error; err != nil {
    return nil, err
  }
  return ids, nil
}
