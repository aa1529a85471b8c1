package handlers

import (
  "net/http"
  "strconv"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/celoacademy/academy-backend/internal/requestdata"
  "github.com/celoacademy/academy-backend/internal/services"
)

type EnrollmentHandler struct {
  enrollmentService services.EnrollmentService
}

func NewEnrollmentHandler(enrollmentService services.EnrollmentService) *EnrollmentHandler {
  return &EnrollmentHandler{enrollmentService: enrollmentService}
}

func (eh *EnrollmentHandler) Enroll(c *gin.Context) {
  var req struct {
    Strategy string `json:"strategy"`
    SignedTx string `json:"signed_tx"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "", err)
    return
  }
  strategy := services.SubmitStrategy(req.Strategy)
  if strategy == "" {
    strategy = services.StrategySponsored
  }
  action, err := eh.enrollmentService.Submit(c.Request.Context(), services.SubmitRequest{
    Kind:       services.ActionEnroll,
    CourseSlug: c.Param("slug"),
    Strategy:   strategy,
    SignedTx:   req.SignedTx,
  })
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusAccepted, action)
}

func (eh *EnrollmentHandler) CompleteModule(c *gin.Context) {
  moduleIndex, err := strconv.Atoi(c.Param("index"))
  if err != nil || moduleIndex < 0 {
    RespondError(c, http.StatusBadRequest, "", err)
    return
  }
  var req struct {
    Strategy string `json:"strategy"`
    SignedTx string `json:"signed_tx"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "", err)
    return
  }
  strategy := services.SubmitStrategy(req.Strategy)
  if strategy == "" {
    strategy = services.StrategySponsored
  }
  action, err := eh.enrollmentService.Submit(c.Request.Context(), services.SubmitRequest{
    Kind:        services.ActionCompleteModule,
    CourseSlug:  c.Param("slug"),
    ModuleIndex: moduleIndex,
    Strategy:    strategy,
    SignedTx:    req.SignedTx,
  })
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  c.JSON(http.StatusAccepted, action)
}

func (eh *EnrollmentHandler) GetAction(c *gin.Context) {
  actionID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "", err)
    return
  }
  action, found := eh.enrollmentService.Get(actionID)
  if !found {
    RespondError(c, http.StatusNotFound, "", nil)
    return
  }
  RespondOK(c, action)
}

// SyncEnrollment records an enrollment the client observed on-chain,
// e.g. after a wallet-side transaction this backend never saw. The
// write is idempotent.
func (eh *EnrollmentHandler) SyncEnrollment(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    RespondError(c, http.StatusUnauthorized, services.CodeNotAuthenticated, nil)
    return
  }
  var req struct {
    TxHash string `json:"tx_hash"`
    Source string `json:"source"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "", err)
    return
  }
  if err := eh.enrollmentService.RecordMirrorEnrollment(c.Request.Context(), rd.UserID, c.Param("slug"), req.TxHash, req.Source); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"synced": true})
}
