package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/celoacademy/academy-backend/internal/services"
)

type ReviewHandler struct {
  reviewService services.ReviewService
}

func NewReviewHandler(reviewService services.ReviewService) *ReviewHandler {
  return &ReviewHandler{reviewService: reviewService}
}

func (rh *ReviewHandler) List(c *gin.Context) {
  reviews, err := rh.reviewService.ListByCourse(c.Request.Context(), c.Param("slug"))
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"reviews": reviews})
}

func (rh *ReviewHandler) Submit(c *gin.Context) {
  var req struct {
    Rating  int    `json:"rating"`
    Comment string `json:"comment"`
  }
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "", err)
    return
  }
  review, err := rh.reviewService.Submit(c.Request.Context(), c.Param("slug"), req.Rating, req.Comment)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, review)
}
