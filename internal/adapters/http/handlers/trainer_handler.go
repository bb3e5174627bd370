// Package handlers - Trainer HTTP handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Haleralex/gymhub/internal/adapters/http/common"
	"github.com/Haleralex/gymhub/internal/application/dtos"
)

// ============================================
// Use Case Interfaces
// ============================================

// GetTrainerAvailabilityUseCase - интерфейс для расчёта свободных слотов.
type GetTrainerAvailabilityUseCase interface {
	Execute(ctx context.Context, query dtos.GetTrainerAvailabilityQuery) (*dtos.TrainerAvailabilityDTO, error)
}

// ============================================
// Trainer Handler
// ============================================

// TrainerHandler обрабатывает HTTP запросы для тренеров.
type TrainerHandler struct {
	getAvailability GetTrainerAvailabilityUseCase
}

// NewTrainerHandler создаёт новый TrainerHandler.
func NewTrainerHandler(getAvailability GetTrainerAvailabilityUseCase) *TrainerHandler {
	return &TrainerHandler{getAvailability: getAvailability}
}

// ============================================
// Request DTOs
// ============================================

// TrainerIDParam - параметр ID тренера из URL.
type TrainerIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// AvailabilityParams - параметры запроса свободных слотов.
type AvailabilityParams struct {
	Date string `form:"date" binding:"required,datetime=2006-01-02"`
}

// ============================================
// HTTP Handlers
// ============================================

// GetAvailability возвращает свободные слоты тренера на дату.
//
// @Summary Get trainer availability
// @Description Free time slots of a trainer for a given date, bookings subtracted
// @Tags Trainers
// @Accept json
// @Produce json
// @Param id path string true "Trainer ID" format(uuid)
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} common.APIResponse{data=dtos.TrainerAvailabilityDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Trainer not found"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/trainers/{id}/availability [get]
func (h *TrainerHandler) GetAvailability(c *gin.Context) {
	var params TrainerIDParam
	if !BindURI(c, &params) {
		return
	}

	var query AvailabilityParams
	if !BindQuery(c, &query) {
		return
	}

	result, err := h.getAvailability.Execute(c.Request.Context(), dtos.GetTrainerAvailabilityQuery{
		TrainerID: params.ID,
		Date:      query.Date,
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// RegisterRoutes регистрирует маршруты для TrainerHandler.
//
// Routes:
// - GET /trainers/:id/availability - Trainer free slots for a date
func (h *TrainerHandler) RegisterRoutes(router *gin.RouterGroup) {
	trainers := router.Group("/trainers")
	{
		trainers.GET("/:id/availability", h.GetAvailability)
	}
}
