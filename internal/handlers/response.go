package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/celoacademy/academy-backend/internal/services"
)

type APIError struct {
  Message string `json:"message"`
  Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
  Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
  msg := "unknown error"
  if err != nil {
    msg = err.Error()
  }
  c.JSON(status, ErrorEnvelope{
    Error: APIError{
      Message: msg,
      Code:    code,
    },
  })
}

func RespondOK(c *gin.Context, payload any) {
  c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps stable service codes onto HTTP statuses.
// Unknown codes are internal errors.
func RespondServiceError(c *gin.Context, err error) {
  code := services.ErrorCode(err)
  status := http.StatusInternalServerError
  switch code {
  case services.CodeCourseNotFound:
    status = http.StatusNotFound
  case services.CodeNotAuthenticated, services.CodeWalletNotConnected:
    status = http.StatusUnauthorized
  case services.CodeNotEnrolled:
    status = http.StatusForbidden
  case services.CodeRelayNotReady:
    status = http.StatusServiceUnavailable
  case services.CodeSubmissionRejected, services.CodeConfigInvalid:
    status = http.StatusBadRequest
  case services.CodeSubmissionReverted, services.CodeChainReadFailed:
    status = http.StatusBadGateway
  case services.CodeTimeout:
    status = http.StatusGatewayTimeout
  case "COURSE_NOT_COMPLETED", "COURSE_HAS_NO_LESSONS":
    status = http.StatusForbidden
  }
  RespondError(c, status, code, err)
}
