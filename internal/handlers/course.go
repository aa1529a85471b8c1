package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/celoacademy/academy-backend/internal/services"
)

type CourseHandler struct {
  courseService services.CourseService
}

func NewCourseHandler(courseService services.CourseService) *CourseHandler {
  return &CourseHandler{courseService: courseService}
}

func (ch *CourseHandler) List(c *gin.Context) {
  courses, err := ch.courseService.ListPublished(c.Request.Context())
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"courses": courses})
}

func (ch *CourseHandler) Get(c *gin.Context) {
  detail, err := ch.courseService.GetBySlug(c.Request.Context(), c.Param("slug"))
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, detail)
}

func (ch *CourseHandler) EnrollmentCount(c *gin.Context) {
  count, err := ch.courseService.EnrollmentCount(c.Request.Context(), c.Param("slug"))
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"count": count})
}
