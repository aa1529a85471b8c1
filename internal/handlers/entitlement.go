package handlers

import (
  "github.com/gin-gonic/gin"

  "github.com/celoacademy/academy-backend/internal/services"
)

type EntitlementHandler struct {
  entitlementService services.EntitlementService
}

func NewEntitlementHandler(entitlementService services.EntitlementService) *EntitlementHandler {
  return &EntitlementHandler{entitlementService: entitlementService}
}

// Access resolves course access for the authenticated wallet. A 200
// with has_access false is a valid answer; only infrastructure faults
// become error statuses.
func (eh *EntitlementHandler) Access(c *gin.Context) {
  decision, err := eh.entitlementService.ResolveAccess(c.Request.Context(), c.Param("slug"))
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, decision)
}

func (eh *EntitlementHandler) ReviewEligibility(c *gin.Context) {
  eligibility, err := eh.entitlementService.ResolveReviewEligibility(c.Request.Context(), c.Param("slug"))
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, eligibility)
}
