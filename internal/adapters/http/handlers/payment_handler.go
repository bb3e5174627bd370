// Package handlers - Payment HTTP handlers, включая IPN endpoint шлюза.
package handlers

import (
	"context"
	"io"
	"log/slog"
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

// InitiatePaymentUseCase - интерфейс для создания платежа за пакет.
type InitiatePaymentUseCase interface {
	Execute(ctx context.Context, cmd dtos.InitiatePaymentCommand) (*dtos.InitiatePaymentDTO, error)
}

// ReconcileCallbackUseCase - интерфейс для сверки IPN callback'а.
type ReconcileCallbackUseCase interface {
	Execute(ctx context.Context, cmd dtos.ReconcileCallbackCommand) (*dtos.ReconcileResultDTO, error)
}

// GetPaymentStatusUseCase - интерфейс для чтения статуса платежа.
type GetPaymentStatusUseCase interface {
	Execute(ctx context.Context, query dtos.GetPaymentStatusQuery) (*dtos.PaymentDTO, error)
}

// ============================================
// Payment Handler
// ============================================

// maxIPNBodySize ограничивает тело IPN callback'а (анонимный endpoint).
const maxIPNBodySize = 64 * 1024

// PaymentHandler обрабатывает HTTP запросы для платежей.
type PaymentHandler struct {
	initiatePayment   InitiatePaymentUseCase
	reconcileCallback ReconcileCallbackUseCase
	getPaymentStatus  GetPaymentStatusUseCase
	logger            *slog.Logger
}

// NewPaymentHandler создаёт новый PaymentHandler.
func NewPaymentHandler(
	initiatePayment InitiatePaymentUseCase,
	reconcileCallback ReconcileCallbackUseCase,
	getPaymentStatus GetPaymentStatusUseCase,
	logger *slog.Logger,
) *PaymentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PaymentHandler{
		initiatePayment:   initiatePayment,
		reconcileCallback: reconcileCallback,
		getPaymentStatus:  getPaymentStatus,
		logger:            logger,
	}
}

// ============================================
// Request DTOs
// ============================================

// InitiatePaymentRequest - запрос на создание платежа.
//
// @Description Initiate payment request body
type InitiatePaymentRequest struct {
	PackageID string `json:"package_id" binding:"required,uuid"`
}

// PaymentIDParam - параметр ID платежа из URL.
type PaymentIDParam struct {
	ID string `uri:"id" binding:"required,uuid"`
}

// ============================================
// HTTP Handlers
// ============================================

// Initiate создаёт платёж за пакет и возвращает платёжную ссылку.
//
// @Summary Initiate a package payment
// @Description Create a pending payment and a pending membership, return the gateway pay URL
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body InitiatePaymentRequest true "Payment data"
// @Success 201 {object} common.APIResponse{data=dtos.InitiatePaymentDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse "Package not found"
// @Failure 422 {object} common.APIResponse "Package not active"
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/payments [post]
func (h *PaymentHandler) Initiate(c *gin.Context) {
	memberID := middleware.GetAuthUserID(c)
	if memberID == uuid.Nil {
		common.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	var req InitiatePaymentRequest
	if !BindJSON(c, &req) {
		return
	}

	cmd := dtos.InitiatePaymentCommand{
		MemberID:  memberID.String(),
		PackageID: req.PackageID,
	}

	result, err := h.initiatePayment.Execute(c.Request.Context(), cmd)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusCreated, result)
}

// GetStatus возвращает платёж по ID.
//
// @Summary Get payment by ID
// @Description Payment status for polling after redirect from the gateway
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Payment ID" format(uuid)
// @Success 200 {object} common.APIResponse{data=dtos.PaymentDTO}
// @Failure 400 {object} common.APIResponse
// @Failure 401 {object} common.APIResponse
// @Failure 403 {object} common.APIResponse
// @Failure 404 {object} common.APIResponse
// @Failure 500 {object} common.APIResponse
// @Router /api/v1/payments/{id} [get]
func (h *PaymentHandler) GetStatus(c *gin.Context) {
	memberID := middleware.GetAuthUserID(c)
	if memberID == uuid.Nil {
		common.UnauthorizedResponse(c, "User not authenticated")
		return
	}

	var params PaymentIDParam
	if !BindURI(c, &params) {
		return
	}

	query := dtos.GetPaymentStatusQuery{
		PaymentID: params.ID,
		MemberID:  memberID.String(),
	}
	// Персонал видит любой платёж
	switch middleware.GetAuthUserRole(c) {
	case middleware.RoleStaff, middleware.RoleAdmin:
		query.MemberID = ""
	}

	result, err := h.getPaymentStatus.Execute(c.Request.Context(), query)
	if err != nil {
		common.HandleDomainError(c, err)
		return
	}

	common.Success(c, http.StatusOK, result)
}

// HandleIPN принимает IPN callback от шлюза MoMo.
//
// Endpoint всегда отвечает 204: шлюз ретраит всё, что не 2xx, а ретраи
// невалидной подписи или уже обработанного платежа бессмысленны. Итог
// сверки уходит в лог, сам платёж меняется (или нет) внутри use case.
//
// @Summary MoMo IPN callback
// @Description Gateway-to-server payment notification; always acknowledged with 204
// @Tags Payments
// @Accept json
// @Success 204 "Acknowledged"
// @Router /api/v1/payments/momo/ipn [post]
func (h *PaymentHandler) HandleIPN(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIPNBodySize))
	if err != nil {
		h.logger.Warn("failed to read IPN body",
			slog.String("request_id", common.GetRequestID(c)),
			slog.Any("error", err),
		)
		c.Status(http.StatusNoContent)
		return
	}

	result, err := h.reconcileCallback.Execute(c.Request.Context(), dtos.ReconcileCallbackCommand{
		Body: body,
	})
	if err != nil {
		h.logger.Warn("IPN reconciliation rejected",
			slog.String("request_id", common.GetRequestID(c)),
			slog.Any("error", err),
		)
		c.Status(http.StatusNoContent)
		return
	}

	h.logger.Info("IPN reconciled",
		slog.String("request_id", common.GetRequestID(c)),
		slog.String("transaction_id", result.TransactionID),
		slog.String("outcome", result.Outcome),
	)

	c.Status(http.StatusNoContent)
}

// RegisterRoutes регистрирует защищённые маршруты для PaymentHandler.
// IPN endpoint регистрируется отдельно в публичной группе роутера.
//
// Routes:
// - POST /payments     - Initiate payment
// - GET  /payments/:id - Get payment status
func (h *PaymentHandler) RegisterRoutes(router *gin.RouterGroup) {
	payments := router.Group("/payments")
	{
		payments.POST("", h.Initiate)
		payments.GET("/:id", h.GetStatus)
	}
}
