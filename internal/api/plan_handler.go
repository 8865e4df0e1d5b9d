// internal/api/plan_handler.go
package api

import (
	"alcyxob/runplan/internal/domain"
	"alcyxob/runplan/internal/service"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PlanHandler holds the plan service dependency.
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- Request/Response Structs ---

type GeneratePlanRequest struct {
	ProfileData *domain.Profile `json:"profileData"`
}

type GeneratePlanResponse struct {
	Success     bool               `json:"success"`
	Message     string             `json:"message"`
	WorkoutPlan domain.WorkoutPlan `json:"workout_plan"`
}

// --- Handler Methods ---

// GeneratePlan godoc
// @Summary Generate a four-week running plan
// @Description Generates a plan for the caller's profile and stores it under the caller's id.
// @Tags Plans
// @Accept json
// @Produce json
// @Param request body GeneratePlanRequest true "Profile to plan for"
// @Success 200 {object} GeneratePlanResponse
// @Failure 400 {object} gin.H "profileData missing or invalid"
// @Failure 401 {object} gin.H "Missing or invalid bearer token"
// @Failure 500 {object} gin.H "Generation or persistence failed"
// @Router /plan/generate [post]
// @Security BearerAuth
func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	credential, err := getCredentialFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	// A body that does not decode is treated as a missing profile; the service
	// still checks the credential first.
	var req GeneratePlanRequest
	bindErr := c.ShouldBindJSON(&req)
	if bindErr != nil {
		req.ProfileData = nil
	}

	result, err := h.planService.GeneratePlan(c.Request.Context(), credential, req.ProfileData)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAuthenticationFailed):
			abortWithError(c, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrProfileRequired) && bindErr != nil:
			abortWithError(c, http.StatusBadRequest, fmt.Sprintf("%v: %v", err, bindErr))
		case errors.Is(err, service.ErrProfileRequired), errors.Is(err, service.ErrInvalidProfile):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, err.Error())
		}
		return
	}

	c.JSON(http.StatusOK, GeneratePlanResponse{
		Success:     true,
		Message:     "Workout plan generated successfully",
		WorkoutPlan: result.Plan,
	})
}

// GetPlan godoc
// @Summary Get the caller's stored plan or generation diagnostic
// @Tags Plans
// @Produce json
// @Success 200 {object} domain.ProfileRecord
// @Failure 401 {object} gin.H "Missing or invalid bearer token"
// @Failure 404 {object} gin.H "Nothing stored yet"
// @Router /plan [get]
// @Security BearerAuth
func (h *PlanHandler) GetPlan(c *gin.Context) {
	credential, err := getCredentialFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	record, err := h.planService.GetPlan(c.Request.Context(), credential)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAuthenticationFailed):
			abortWithError(c, http.StatusUnauthorized, err.Error())
		case errors.Is(err, service.ErrPlanNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to load plan")
		}
		return
	}

	c.JSON(http.StatusOK, record)
}
