// Package handlers - Appointment HTTP handlers.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/adapters/http/common"
	"github.com/Haleralex/gymhub/internal/adapters/http/middleware"
	"github.com/Haleralex/gymhub/internal/application/dtos"
)

// ============================================
// Use Case Interfaces
// ============================================

// BookAppointmentUseCase - интерфейс для бронирования сессии.
type BookAppointmentUseCase interface {
	Execute(ctx context.Context, cmd dtos.BookAppointmentCommand) (*dtos.AppointmentDTO, error)
}

// CancelAppointmentUseCase - интерфейс для отмены записи участником.
type CancelAppointmentUseCase interface {
	Execute(ctx context.Context, cmd dtos.CancelAppointmentCommand) (*dtos.AppointmentDTO, error)
}

// ConfirmAppointmentUseCase - интерфейс для подтверждения записи персоналом.
type ConfirmAppointmentUseCase interface {
	Execute(ctx context.Context, cmd dtos.ConfirmAppointmentCommand) (*dtos.AppointmentDTO, error)
}

// RescheduleAppointmentUseCase - интерфейс для переноса записи.
type RescheduleAppointmentUseCase interface {
	Execute(ctx context.Context, cmd dtos.RescheduleAppointmentCommand) (*dtos.AppointmentDTO, error)
}

// GetAppointmentUseCase - интерфейс для получения записи.
type GetAppointmentUseCase interface {
	Execute(ctx context.Context, query dtos.GetAppointmentQuery) (*dtos.AppointmentDTO, error)
}

// ListAppointmentsUseCase - интерфейс для получения списка записей.
type ListAppointmentsUseCase interface {
	Execute(ctx context.Context, query dtos.ListAppointmentsQuery) ([]dtos.AppointmentDTO, error)
}

// ============================================
// Appointment Handler
// ============================================

// AppointmentHandler обрабатывает HTTP запросы для записей к тренерам.
type AppointmentHandler struct {
	bookAppointment       BookAppointmentUseCase
	cancelAppointment     CancelAppointmentUseCase
	confirmAppointment    ConfirmAppointmentUseCase
	rescheduleAppointment RescheduleAppointmentUseCase
	getAppointment        GetAppointmentUseCase
	listAppointments      ListAppointmentsUseCase
}

// NewAppointmentHandler создаёт новый AppointmentHandler.
func NewAppointmentHandler(
	bookAppointment BookAppointmentUseCase,
	cancelAppointment CancelAppointmentUseCase,
	confirmAppointment ConfirmAppointmentUseCase,
	rescheduleAppointment RescheduleAppointmentUseCase,
	getAppointment GetAppointmentUseCase,
	listAppointments ListAppointmentsUseCase,
) *AppointmentHandler {
	return &AppointmentHandler{
		bookAppointment:       bookAppointment,
		cancelAppointment:     cancelAppointment,
		confirmAppointment:    confirmAppointment,
		rescheduleAppointment: rescheduleAppointment,
		getAppointment:        getAppointment,
		listAppointments:      listAppointments,
	}
}

// ============================================
// Request DTOs
// ============================================

// BookAppointmentRequest - запрос на бронирование сессии.
// Участник берётся из auth-контекста, в теле его нет.
//
// @Description Book appointment request body
type BookAppointmentRequest struct {
	TrainerID    string `json:"trainer_id" binding:"required,uuid"`
	MembershipID string `json:"membership_id" binding:"required,uuid"`
	Date         string `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime    string `json:"start_time" binding:"required,time_of_day"`
	EndTime      string `json:"end_time" binding:"required,time_of_day"`
	Location     string `json:"location,omitempty" binding:"max=255"`
	Notes        string `json:"notes,omitempty" binding:"max=500"`
}

// RescheduleAppointmentRequest - запрос на перенос записи.
//
// @Description Reschedule appointment request body
type RescheduleAppointmentRequest struct {
	Date      string `json:"date" binding:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" binding:"required,time_of_day"`
	EndTime   string `json:"end_time" binding:"required,time_of_day"`
}

// AppointmentIDParam - параметр ID записи из URL.
type AppointmentIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ListAppointmentsParams - параметры для списка записей.
type ListAppointmentsParams struct {
	MemberID  string `form:"member_id" binding:"omitempty,uuid"`
	TrainerID string `form:"trainer_id" binding:"omitempty,uuid"`
	Status    string `form:"status" binding:"omitempty,appointment_status"`
	DateFrom  string `form:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo    string `form:"date_to" binding:"omitempty,datetime=2006-01-02"`
	Q         string `form:"q" binding:"omitempty,max=100"`
}

// ============================================
// HTTP Handlers
// ============================================

// Book бронирует сессию с тренером.
//
// @Summary Book a training session
// @Description Reserve a session slot with a trainer, spending one membership session
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body BookAppointmentRequest true "Appointment data"
// @Success 201 {object} common.APIResponse{data=dtos.AppointmentDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Trainer or membership not found"
// @Failure 409 {object} common.APIResponse "Slot already taken"
// @Failure 422 {object} common.APIResponse "Quota exhausted or trainer unavailable"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/appointments [post]
func (h *AppointmentHandler) Book(c *gin.Context) {
	memberID := middleware.GetAuthUserID(c)
	if memberID == uuid.Nil {
		common.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	var req BookAppointmentRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd := dtos.BookAppointmentCommand{
		MemberID:     memberID.String(),
		TrainerID:    req.TrainerID,
		MembershipID: req.MembershipID,
		Date:         req.Date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Location:     req.Location,
		Notes:        req.Notes,
	}

	result, err := h.bookAppointment.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, result)
}

// Cancel отменяет запись участника.
//
// @Summary Cancel an appointment
// @Description Cancel an appointment at least 24 hours in advance; the session is refunded
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.AppointmentDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse "Appointment belongs to another member"
// @Failure 404 {object} common.APIResponse
// @Failure 422 {object} common.APIResponse "Cancellation window closed"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/appointments/{id}/cancel [post]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	memberID := middleware.GetAuthUserID(c)
	if memberID == uuid.Nil {
		common.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	var params AppointmentIDParam
	if !BindURI(c, &params) {
		return
	}

	cmd := dtos.CancelAppointmentCommand{
		AppointmentID: params.ID,
		MemberID:      memberID.String(),
	}

	result, err := h.cancelAppointment.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// Confirm подтверждает запись (персонал).
//
// @Summary Confirm an appointment
// @Description Staff confirms a pending appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.AppointmentDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 422 {object} common.APIResponse "Appointment not pending"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/appointments/{id}/confirm [post]
func (h *AppointmentHandler) Confirm(c *gin.Context) {
	var params AppointmentIDParam
	if !BindURI(c, &params) {
		return
	}

	cmd := dtos.ConfirmAppointmentCommand{AppointmentID: params.ID}

	result, err := h.confirmAppointment.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// Reschedule переносит запись на другое время.
//
// @Summary Reschedule an appointment
// @Description Move an appointment to a different slot; same 24h rule as cancellation
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID" format(uuid)
// @Param request body RescheduleAppointmentRequest true "New slot"
// @Success 200 {object} common.APIResponse{data=dtos.AppointmentDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 409 {object} common.APIResponse "New slot already taken"
// @Failure 422 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/appointments/{id}/reschedule [post]
func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	memberID := middleware.GetAuthUserID(c)
	if memberID == uuid.Nil {
		common.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	var params AppointmentIDParam
	if !BindURI(c, &params) {
		return
	}

	var req RescheduleAppointmentRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd := dtos.RescheduleAppointmentCommand{
		AppointmentID: params.ID,
		MemberID:      memberID.String(),
		Date:          req.Date,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
	}

	result, err := h.rescheduleAppointment.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// Get возвращает запись по ID.
//
// @Summary Get appointment by ID
// @Description Get appointment details by UUID
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Appointment ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.AppointmentDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	var params AppointmentIDParam
	if !BindURI(c, &params) {
		return
	}

	query := dtos.GetAppointmentQuery{AppointmentID: params.ID}

	result, err := h.getAppointment.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// List возвращает список записей с фильтрацией.
//
// @Summary List appointments
// @Description Get paginated list of appointments with optional filters
// @Tags Appointments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20) maximum(100)
// @Param member_id query string false "Filter by member ID" format(uuid)
// @Param trainer_id query string false "Filter by trainer ID" format(uuid)
// @Param status query string false "Filter by status" Enums(pending, confirmed, cancelled, completed, missed)
// @Param date_from query string false "Filter from date (inclusive)"
// @Param date_to query string false "Filter to date (inclusive)"
// @Param q query string false "Free-text search over location and notes"
// @Success 200 {object} common.APIResponse{data=[]dtos.AppointmentDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	pagination := ParsePagination(c)

	var filters ListAppointmentsParams
	if !BindQuery(c, &filters) {
		return
	}

	query := dtos.ListAppointmentsQuery{
		Offset: pagination.Offset(),
		Limit:  pagination.PerPage,
	}

	if filters.MemberID != "" {
		query.MemberID = &filters.MemberID
	}
	if filters.TrainerID != "" {
		query.TrainerID = &filters.TrainerID
	}
	if filters.Status != "" {
		query.Status = &filters.Status
	}
	if filters.DateFrom != "" {
		query.DateFrom = &filters.DateFrom
	}
	if filters.DateTo != "" {
		query.DateTo = &filters.DateTo
	}
	if filters.Q != "" {
		query.Q = &filters.Q
	}

	result, err := h.listAppointments.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// RegisterRoutes регистрирует маршруты для AppointmentHandler.
//
// Routes:
// - POST   /appointments                  - Book appointment
// - GET    /appointments                  - List appointments
// - GET    /appointments/:id              - Get appointment by ID
// - POST   /appointments/:id/cancel       - Cancel appointment
// - POST   /appointments/:id/confirm     - Confirm appointment (staff)
// - POST   /appointments/:id/reschedule  - Reschedule appointment
func (h *AppointmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	appointments := router.Group("/appointments")
	{
		appointments.POST("", h.Book)
		appointments.GET("", h.List)
		appointments.GET("/:id", h.Get)
		appointments.POST("/:id/cancel", h.Cancel)
		appointments.POST("/:id/confirm", h.Confirm)
		appointments.POST("/:id/reschedule", h.Reschedule)
	}
}
