package repos

import (
  "context"
  "strings"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/celoacademy/academy-backend/internal/logger"
  "github.com/celoacademy/academy-backend/internal/types"
)

type UserRepo interface {
  Create(ctx context.Context, tx *gorm.DB, rows []*types.User) ([]*types.User, error)
  GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.User, error)
  GetByWalletAddress(ctx context.Context, tx *gorm.DB, walletAddress string) (*types.User, error)
  UpsertByWalletAddress(ctx context.Context, tx *gorm.DB, walletAddress string) (*types.User, error)
  List(ctx context.Context, tx *gorm.DB, limit int) ([]*types.User, error)
  ListWithEnrollments(ctx context.Context, tx *gorm.DB, limit int) ([]*types.User, error)
}

type userRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
  repoLog := baseLog.With("repo", "UserRepo")
  return &userRepo{db: db, log: repoLog}
}

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, rows []*types.User) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if len(rows) == 0 {
    return []*types.User{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&rows).Error; err != nil {
    return nil, err
  }
  return rows, nil
}

func (r *userRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.User
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

func (r *userRepo) GetByWalletAddress(ctx context.Context, tx *gorm.DB, walletAddress string) (*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  wallet := strings.ToLower(strings.TrimSpace(walletAddress))
  if wallet == "" {
    return nil, nil
  }

  var result types.User
  err := transaction.WithContext(ctx).
    Where("wallet_address = ?", wallet).
    First(&result).Error
  if err == gorm.ErrRecordNotFound {
    return nil, nil
  }
  if err != nil {
    return nil, err
  }
  return &result, nil
}

func (r *userRepo) UpsertByWalletAddress(ctx context.Context, tx *gorm.DB, walletAddress string) (*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  wallet := strings.ToLower(strings.TrimSpace(walletAddress))
  if wallet == "" {
    return nil, gorm.ErrInvalidData
  }

  row := &types.User{WalletAddress: wallet}
  if err := transaction.WithContext(ctx).
    Where("wallet_address = ?", wallet).
    FirstOrCreate(row).Error; err != nil {
    return nil, err
  }
  return row, nil
}

func (r *userRepo) List(ctx context.Context, tx *gorm.DB, limit int) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.User
  q := transaction.WithContext(ctx).Order("created_at ASC")
  if limit > 0 {
    q = q.Limit(limit)
  }
  if err := q.Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *userRepo) ListWithEnrollments(ctx context.Context, tx *gorm.DB, limit int) ([]*types.User, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.User
  q := transaction.WithContext(ctx).
    Joins("JOIN course_enrollment ON course_enrollment.user_id = \"user\".id").
    Distinct("\"user\".*")
  if limit > 0 {
    q = q.Limit(limit)
  }
  if err := q.Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
