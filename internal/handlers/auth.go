package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/celoacademy/academy-backend/internal/services"
)

type AuthHandler struct {
  authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
  return &AuthHandler{authService: authService}
}

func (ah *AuthHandler) Login(c *gin.Context) {
  var req struct {
    WalletAddress string `json:"wallet_address"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "", err)
    return
  }
  accessToken, refreshToken, user, err := ah.authService.LoginWallet(c.Request.Context(), req.WalletAddress)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  expiresIn := int(ah.authService.GetAccessTTL().Seconds())
  RespondOK(c, gin.H{
    "access_token":  accessToken,
    "refresh_token": refreshToken,
    "expires_in":    expiresIn,
    "user":          user,
  })
}

func (ah *AuthHandler) Refresh(c *gin.Context) {
  var req struct {
    RefreshToken string `json:"refresh_token"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "", err)
    return
  }
  accessToken, refreshToken, err := ah.authService.RefreshUser(c.Request.Context(), req.RefreshToken)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, "", err)
    return
  }
  expiresIn := int(ah.authService.GetAccessTTL().Seconds())
  RespondOK(c, gin.H{
    "access_token":  accessToken,
    "refresh_token": refreshToken,
    "expires_in":    expiresIn,
  })
}

func (ah *AuthHandler) Logout(c *gin.Context) {
  if err := ah.authService.LogoutUser(c.Request.Context()); err != nil {
    RespondError(c, http.StatusBadRequest, "", err)
    return
  }
  RespondOK(c, gin.H{"message": "logged out successfully"})
}
