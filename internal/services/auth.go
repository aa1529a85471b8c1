package services

import (
  "context"
  "fmt"
  "time"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/celoacademy/academy-backend/internal/chain"
  "github.com/celoacademy/academy-backend/internal/logger"
  "github.com/celoacademy/academy-backend/internal/repos"
  "github.com/celoacademy/academy-backend/internal/requestdata"
  "github.com/celoacademy/academy-backend/internal/types"
)

type JWTClaims struct {
  WalletAddress string `json:"wallet_address"`
  jwt.RegisteredClaims
}

type AuthService interface {
  // LoginWallet upserts the user for the address and issues an
  // access/refresh pair. Address validity (including checksum when
  // mixed-case) is enforced here; storage is always lowercase.
  LoginWallet(ctx context.Context, walletAddress string) (string, string, *types.User, error)
  RefreshUser(ctx context.Context, refreshToken string) (string, string, error)
  LogoutUser(ctx context.Context) error
  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
  GetAccessTTL() time.Duration
}

type authService struct {
  db            *gorm.DB
  log           *logger.Logger
  userRepo      repos.UserRepo
  userTokenRepo repos.UserTokenRepo
  jwtSecretKey  string
  accessTTL     time.Duration
  refreshTTL    time.Duration
}

func NewAuthService(
  db *gorm.DB,
  baseLog *logger.Logger,
  userRepo repos.UserRepo,
  userTokenRepo repos.UserTokenRepo,
  jwtSecretKey string,
  accessTTL time.Duration,
  refreshTTL time.Duration,
) AuthService {
  serviceLog := baseLog.With("service", "AuthService")
  return &authService{
    db:            db,
    log:           serviceLog,
    userRepo:      userRepo,
    userTokenRepo: userTokenRepo,
    jwtSecretKey:  jwtSecretKey,
    accessTTL:     accessTTL,
    refreshTTL:    refreshTTL,
  }
}

func (as *authService) LoginWallet(ctx context.Context, walletAddress string) (string, string, *types.User, error) {
  parsed, err := chain.ParseAddress(walletAddress)
  if err != nil {
    return "", "", nil, NewCodedError(CodeWalletNotConnected, fmt.Sprintf("invalid wallet address: %v", err))
  }
  normalized := normalizeWallet(parsed.Hex())

  var accessToken, refreshToken string
  var user *types.User
  txErr := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    u, upErr := as.userRepo.UpsertByWalletAddress(ctx, tx, normalized)
    if upErr != nil {
      return fmt.Errorf("Failed to upsert user by wallet address: %w", upErr)
    }
    user = u

    tok, genErr := as.generateAccessToken(u)
    if genErr != nil {
      return fmt.Errorf("Generate access token error: %w", genErr)
    }
    accessToken = tok
    refreshToken = uuid.New().String()
    userToken := types.UserToken{
      ID:           uuid.New(),
      UserID:       u.ID,
      AccessToken:  accessToken,
      RefreshToken: refreshToken,
      ExpiresAt:    time.Now().Add(as.refreshTTL),
    }
    if _, ctErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{&userToken}); ctErr != nil {
      as.log.Warn("Create User Token Error", "error", ctErr)
      return fmt.Errorf("Create User Token Error: %w", ctErr)
    }
    return nil
  })
  if txErr != nil {
    return "", "", nil, txErr
  }
  return accessToken, refreshToken, user, nil
}

func (as *authService) RefreshUser(ctx context.Context, refreshToken string) (string, string, error) {
  if refreshToken == "" {
    return "", "", fmt.Errorf("Refresh token not provided")
  }

  var accessToken, newRefreshToken string
  err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    existingToken, ftErr := as.userTokenRepo.GetByRefreshToken(ctx, tx, refreshToken)
    if ftErr != nil {
      as.log.Warn("Error fetching refresh token", "error", ftErr)
      return fmt.Errorf("Error fetching refresh token: %w", ftErr)
    }
    if existingToken == nil {
      return fmt.Errorf("Unknown refresh token")
    }
    if existingToken.ExpiresAt.Before(time.Now()) {
      if dtErr := as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{existingToken.UserID}); dtErr != nil {
        as.log.Warn("Refresh token expired, error deleting", "error", dtErr)
        return fmt.Errorf("Refresh token expired, error deleting: %w", dtErr)
      }
      return fmt.Errorf("Refresh token expired")
    }
    users, uErr := as.userRepo.GetByIDs(ctx, tx, []uuid.UUID{existingToken.UserID})
    if uErr != nil {
      return fmt.Errorf("Failed to load user for refresh: %w", uErr)
    }
    if len(users) == 0 {
      return fmt.Errorf("No user found for the given refresh token")
    }
    user := users[0]
    tok, genErr := as.generateAccessToken(user)
    if genErr != nil {
      return fmt.Errorf("Failed to generate new access token: %w", genErr)
    }
    accessToken = tok
    newRefreshToken = uuid.New().String()
    newUserToken := types.UserToken{
      ID:           uuid.New(),
      UserID:       user.ID,
      AccessToken:  tok,
      RefreshToken: newRefreshToken,
      ExpiresAt:    time.Now().Add(as.refreshTTL),
    }
    // The old pair is replaced atomically with the new one.
    if dErr := as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{user.ID}); dErr != nil {
      return fmt.Errorf("Failed to remove old refresh token: %w", dErr)
    }
    if _, cErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{&newUserToken}); cErr != nil {
      return fmt.Errorf("Failed to create new user token: %w", cErr)
    }
    return nil
  })
  if err != nil {
    return "", "", err
  }
  return accessToken, newRefreshToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    return fmt.Errorf("No request data found in context")
  }
  if rd.TokenString == "" {
    return fmt.Errorf("TokenString in request data empty")
  }
  return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    foundToken, ftErr := as.userTokenRepo.GetByAccessToken(ctx, tx, rd.TokenString)
    if ftErr != nil {
      as.log.Warn("Error finding user token from token string", "error", ftErr)
      return fmt.Errorf("Error finding user token from token string: %w", ftErr)
    }
    if foundToken == nil {
      return nil
    }
    if tdErr := as.userTokenRepo.FullDeleteByUserIDs(ctx, tx, []uuid.UUID{foundToken.UserID}); tdErr != nil {
      as.log.Warn("Error deleting user token", "error", tdErr)
      return fmt.Errorf("Error deleting user token: %w", tdErr)
    }
    return nil
  })
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
  claims := JWTClaims{
    WalletAddress: user.WalletAddress,
    RegisteredClaims: jwt.RegisteredClaims{
      Subject:   user.ID.String(),
      ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
      IssuedAt:  jwt.NewNumericDate(time.Now()),
    },
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  if tokenString == "" {
    return ctx, nil
  }
  parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil {
    return ctx, fmt.Errorf("Failed to parse token: %w", err)
  }
  claims, ok := parsedToken.Claims.(*JWTClaims)
  if !ok || !parsedToken.Valid {
    return ctx, fmt.Errorf("Invalid or expired JWT token")
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return ctx, fmt.Errorf("Invalid user id in token: %w", err)
  }
  rd := &requestdata.RequestData{
    TokenString:   tokenString,
    UserID:        userID,
    WalletAddress: claims.WalletAddress,
  }
  return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
  return as.accessTTL
}
