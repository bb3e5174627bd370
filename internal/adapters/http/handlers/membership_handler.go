// Package handlers - Membership HTTP handlers.
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

// GetActiveMembershipUseCase - интерфейс для чтения действующего абонемента.
type GetActiveMembershipUseCase interface {
	Execute(ctx context.Context, query dtos.GetActiveMembershipQuery) (*dtos.MembershipDTO, error)
}

// GetMembershipUseCase - интерфейс для чтения абонемента по ID.
type GetMembershipUseCase interface {
	Execute(ctx context.Context, query dtos.GetMembershipQuery) (*dtos.MembershipDTO, error)
}

// PauseMembershipUseCase - интерфейс для приостановки абонемента.
type PauseMembershipUseCase interface {
	Execute(ctx context.Context, cmd dtos.PauseMembershipCommand) (*dtos.MembershipDTO, error)
}

// ResumeMembershipUseCase - интерфейс для возобновления абонемента.
type ResumeMembershipUseCase interface {
	Execute(ctx context.Context, cmd dtos.ResumeMembershipCommand) (*dtos.MembershipDTO, error)
}

// ============================================
// Membership Handler
// ============================================

// MembershipHandler обрабатывает HTTP запросы для абонементов.
type MembershipHandler struct {
	getActive GetActiveMembershipUseCase
	getByID   GetMembershipUseCase
	pause     PauseMembershipUseCase
	resume    ResumeMembershipUseCase
}

// NewMembershipHandler создаёт новый MembershipHandler.
func NewMembershipHandler(
	getActive GetActiveMembershipUseCase,
	getByID GetMembershipUseCase,
	pause PauseMembershipUseCase,
	resume ResumeMembershipUseCase,
) *MembershipHandler {
	return &MembershipHandler{
		getActive: getActive,
		getByID:   getByID,
		pause:     pause,
		resume:    resume,
	}
}

// ============================================
// Request DTOs
// ============================================

// MembershipIDParam - параметр ID абонемента из URL.
type MembershipIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ============================================
// HTTP Handlers
// ============================================

// GetMine возвращает действующий абонемент авторизованного участника.
//
// @Summary Get my membership
// @Description Active membership of the authenticated member, monthly quota refreshed
// @Tags Memberships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} common.APIResponse{data=dtos.MembershipDTO}
// @Failure 401 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "No active membership"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/memberships/me [get]
func (h *MembershipHandler) GetMine(c *gin.Context) {
	memberID := middleware.GetAuthUserID(c)
	if memberID == uuid.Nil {
		common.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	result, err := h.getActive.Execute(c.Request.Context(), dtos.GetActiveMembershipQuery{
		MemberID: memberID.String(),
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// Get возвращает абонемент по ID.
//
// @Summary Get membership by ID
// @Description Membership details; members see only their own, staff see any
// @Tags Memberships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Membership ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.MembershipDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 401 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/memberships/{id} [get]
func (h *MembershipHandler) Get(c *gin.Context) {
	memberID := middleware.GetAuthUserID(c)
	if memberID == uuid.Nil {
		common.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	var params MembershipIDParam
	if !BindURI(c, &params) {
		return
	}

	query := dtos.GetMembershipQuery{
		MembershipID: params.ID,
		MemberID:     memberID.String(),
	}
	// Персонал видит любой абонемент
	switch middleware.GetAuthUserRole(c) {
	case middleware.RoleStaff, middleware.RoleAdmin:
		query.MemberID = ""
	}

	result, err := h.getByID.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// Pause приостанавливает абонемент.
//
// @Summary Pause membership
// @Description Freeze an active membership; remaining sessions are kept
// @Tags Memberships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Membership ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.MembershipDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 422 {object} common.APIResponse "Membership not active"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/memberships/{id}/pause [post]
func (h *MembershipHandler) Pause(c *gin.Context) {
	memberID := middleware.GetAuthUserID(c)
	if memberID == uuid.Nil {
		common.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	var params MembershipIDParam
	if !BindURI(c, &params) {
		return
	}

	result, err := h.pause.Execute(c.Request.Context(), dtos.PauseMembershipCommand{
		MembershipID: params.ID,
		MemberID:     memberID.String(),
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// Resume возобновляет приостановленный абонемент.
//
// @Summary Resume membership
// @Description Unfreeze a paused membership
// @Tags Memberships
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Membership ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.MembershipDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 422 {object} common.APIResponse "Membership not paused"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/memberships/{id}/resume [post]
func (h *MembershipHandler) Resume(c *gin.Context) {
	memberID := middleware.GetAuthUserID(c)
	if memberID == uuid.Nil {
		common.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	var params MembershipIDParam
	if !BindURI(c, &params) {
		return
	}

	result, err := h.resume.Execute(c.Request.Context(), dtos.ResumeMembershipCommand{
		MembershipID: params.ID,
		MemberID:     memberID.String(),
	})
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// RegisterRoutes регистрирует маршруты для MembershipHandler.
//
// Routes:
// - GET  /memberships/me         - My active membership
// - GET  /memberships/:id        - Membership by ID
// - POST /memberships/:id/pause  - Pause membership
// - POST /memberships/:id/resume - Resume membership
func (h *MembershipHandler) RegisterRoutes(router *gin.RouterGroup) {
	memberships := router.Group("/memberships")
	{
		memberships.GET("/me", h.GetMine)
		memberships.GET("/:id", h.Get)
		memberships.POST("/:id/pause", h.Pause)
		memberships.POST("/:id/resume", h.Resume)
	}
}
