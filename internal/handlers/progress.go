package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"

  "github.com/celoacademy/academy-backend/internal/services"
)

type ProgressHandler struct {
  progressService services.ProgressService
}

func NewProgressHandler(progressService services.ProgressService) *ProgressHandler {
  return &ProgressHandler{progressService: progressService}
}

func (ph *ProgressHandler) CourseProgress(c *gin.Context) {
  progress, err := ph.progressService.CourseProgress(c.Request.Context(), c.Param("slug"))
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, progress)
}

func (ph *ProgressHandler) CompleteLesson(c *gin.Context) {
  lessonID, err := uuid.Parse(c.Param("lessonId"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "", err)
    return
  }
  if err := ph.progressService.CompleteLesson(c.Request.Context(), c.Param("slug"), lessonID); err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"completed": true})
}
