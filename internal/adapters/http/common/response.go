// Package common содержит общие типы для HTTP слоя.
//
// Вынесен в отдельный пакет чтобы избежать циклических импортов
// между handlers и основным http пакетом.
package common

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	domainerrors "github.com/Haleralex/gymhub/internal/domain/errors"
)

// ============================================
// Standard API Response Format
// ============================================

// APIResponse - стандартный формат ответа API.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Meta      *APIMeta    `json:"meta,omitempty"`
	RequestID string      `json:"request_id"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIMeta - мета-информация для пагинации.
type APIMeta struct {
	Page       int `json:"page,omitempty"`
	PerPage    int `json:"per_page,omitempty"`
	Total      int `json:"total,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
}

// APIError - структура ошибки API.
type APIError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Fields     []FieldError           `json:"fields,omitempty"`
	RetryAfter int                    `json:"retry_after,omitempty"`
}

// FieldError - ошибка конкретного поля.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ============================================
// Error Codes
// ============================================

const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"
	ErrCodeBusinessRule    = "BUSINESS_RULE_VIOLATION"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeConcurrency     = "CONCURRENCY_ERROR"

	ErrCodeQuotaExhausted   = "QUOTA_EXHAUSTED"
	ErrCodeSlotTaken        = "SLOT_TAKEN"
	ErrCodeSlotUnavailable  = "SLOT_UNAVAILABLE"
	ErrCodeNotCancellable   = "CANCELLATION_WINDOW_CLOSED"
	ErrCodeAppointmentFinal = "APPOINTMENT_FINAL"
	ErrCodeMembership       = "MEMBERSHIP_NOT_ACTIVE"
	ErrCodePaymentDone      = "PAYMENT_ALREADY_COMPLETED"
)

// ============================================
// Request ID
// ============================================

const RequestIDKey = "X-Request-ID"

// GetRequestID возвращает Request ID из контекста.
func GetRequestID(c *gin.Context) string {
	if id, exists := c.Get(RequestIDKey); exists {
		return id.(string)
	}
	return ""
}

// SetRequestID устанавливает Request ID в контекст.
func SetRequestID(c *gin.Context, id string) {
	c.Set(RequestIDKey, id)
	c.Header(RequestIDKey, id)
}

// ============================================
// Response Helpers
// ============================================

// Success отправляет успешный ответ.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Success:   true,
		Data:      data,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// SuccessWithMeta отправляет успешный ответ с мета-информацией.
func SuccessWithMeta(c *gin.Context, statusCode int, data interface{}, meta *APIMeta) {
	c.JSON(statusCode, APIResponse{
		Success:   true,
		Data:      data,
		Meta:      meta,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// Error отправляет ответ с ошибкой.
func Error(c *gin.Context, statusCode int, apiError *APIError) {
	c.JSON(statusCode, APIResponse{
		Success:   false,
		Error:     apiError,
		RequestID: GetRequestID(c),
		Timestamp: time.Now().UTC(),
	})
}

// ============================================
// Error Response Helpers
// ============================================

// ValidationErrorResponse создаёт ответ для ошибок валидации.
func ValidationErrorResponse(c *gin.Context, fields []FieldError) {
	Error(c, http.StatusBadRequest, &APIError{
		Code:    ErrCodeValidation,
		Message: "Request validation failed",
		Fields:  fields,
	})
}

// NotFoundResponse создаёт ответ для 404.
func NotFoundResponse(c *gin.Context, resource string) {
	Error(c, http.StatusNotFound, &APIError{
		Code:    ErrCodeNotFound,
		Message: resource + " not found",
		Details: map[string]interface{}{
			"resource": resource,
		},
	})
}

// BadRequestResponse создаёт ответ для некорректного запроса.
func BadRequestResponse(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, &APIError{
		Code:    ErrCodeBadRequest,
		Message: message,
	})
}

// UnauthorizedResponse создаёт ответ для 401.
func UnauthorizedResponse(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, &APIError{
		Code:    ErrCodeUnauthorized,
		Message: message,
	})
}

// ForbiddenResponse создаёт ответ для 403.
func ForbiddenResponse(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, &APIError{
		Code:    ErrCodeForbidden,
		Message: message,
	})
}

// ConflictResponse создаёт ответ для 409.
func ConflictResponse(c *gin.Context, message string) {
	Error(c, http.StatusConflict, &APIError{
		Code:    ErrCodeConflict,
		Message: message,
	})
}

// TooManyRequestsResponse создаёт ответ для rate limiting.
func TooManyRequestsResponse(c *gin.Context, retryAfter int) {
	Error(c, http.StatusTooManyRequests, &APIError{
		Code:       ErrCodeTooManyRequests,
		Message:    "Too many requests, please try again later",
		RetryAfter: retryAfter,
	})
}

// InternalErrorResponse создаёт ответ для внутренней ошибки.
func InternalErrorResponse(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, &APIError{
		Code:    ErrCodeInternal,
		Message: message,
	})
}

// ============================================
// Domain Error to HTTP Error Mapper
// ============================================

// sentinelMapping связывает доменные sentinel-ошибки с HTTP статусом и кодом.
type sentinelMapping struct {
	err     error
	status  int
	code    string
	message string
}

// sentinelMappings проверяются по порядку; первая совпавшая выигрывает.
// ErrBookingConflict - единственный 409: слот перехвачен конкурентом,
// повтор с другим временем осмыслен. Исчерпанная квота и нерабочие часы -
// 422: повтор того же запроса не поможет.
var sentinelMappings = []sentinelMapping{
	{domainerrors.ErrBookingConflict, http.StatusConflict, ErrCodeSlotTaken,
		"Trainer is already booked for this time slot"},
	{domainerrors.ErrNoSessionsLeft, http.StatusUnprocessableEntity, ErrCodeQuotaExhausted,
		"No training sessions left on the membership this month"},
	{domainerrors.ErrSlotUnavailable, http.StatusUnprocessableEntity, ErrCodeSlotUnavailable,
		"Trainer is not available for the requested time"},
	{domainerrors.ErrNotCancellable, http.StatusUnprocessableEntity, ErrCodeNotCancellable,
		"Appointments can only be cancelled at least 24 hours in advance"},
	{domainerrors.ErrAppointmentFinal, http.StatusUnprocessableEntity, ErrCodeAppointmentFinal,
		"Appointment is already in a terminal state"},
	{domainerrors.ErrMembershipNotActive, http.StatusUnprocessableEntity, ErrCodeMembership,
		"Membership is not active"},
	{domainerrors.ErrMembershipNotPaused, http.StatusUnprocessableEntity, ErrCodeMembership,
		"Membership is not paused"},
	{domainerrors.ErrPackageNotActive, http.StatusUnprocessableEntity, ErrCodeBusinessRule,
		"Package is not available for purchase"},
	{domainerrors.ErrPaymentAlreadyCompleted, http.StatusUnprocessableEntity, ErrCodePaymentDone,
		"Payment has already been completed"},
	{domainerrors.ErrForbidden, http.StatusForbidden, ErrCodeForbidden,
		"You do not have access to this resource"},
}

// HandleDomainError преобразует domain error в HTTP response.
func HandleDomainError(c *gin.Context, err error) {
	// 1. Sentinel-ошибки доменных инвариантов
	for _, m := range sentinelMappings {
		if domainerrors.Is(err, m.err) {
			Error(c, m.status, &APIError{
				Code:    m.code,
				Message: m.message,
			})
			return
		}
	}

	// 2. Проверяем ValidationError
	if domainerrors.IsValidationError(err) {
		if valErr := extractValidationError(err); valErr != nil {
			ValidationErrorResponse(c, []FieldError{
				{Field: valErr.Field, Message: valErr.Message, Code: "invalid"},
			})
			return
		}
		BadRequestResponse(c, err.Error())
		return
	}

	// 3. Проверяем BusinessRuleViolation
	if brv := extractBusinessRuleViolation(err); brv != nil {
		Error(c, http.StatusUnprocessableEntity, &APIError{
			Code:    ErrCodeBusinessRule,
			Message: brv.Message,
			Details: map[string]interface{}{
				"rule":    brv.Rule,
				"context": brv.Context,
			},
		})
		return
	}

	// 4. Проверяем ConcurrencyError
	if domainerrors.IsConcurrencyError(err) {
		Error(c, http.StatusConflict, &APIError{
			Code:    ErrCodeConcurrency,
			Message: "Resource was modified by another request, please retry",
			Details: map[string]interface{}{
				"retryable": true,
			},
		})
		return
	}

	// 5. Проверяем NotFound
	if domainerrors.IsNotFound(err) {
		NotFoundResponse(c, "Resource")
		return
	}

	// 6. Проверяем DomainError
	if domainErr := extractDomainError(err); domainErr != nil {
		statusCode := http.StatusBadRequest

		switch domainErr.Code {
		case "TRAINER_NOT_FOUND", "PACKAGE_NOT_FOUND", "MEMBERSHIP_NOT_FOUND",
			"APPOINTMENT_NOT_FOUND", "PAYMENT_NOT_FOUND":
			statusCode = http.StatusNotFound
		case "QUOTA_EXHAUSTED", "DUPLICATE_TRANSACTION_ID":
			statusCode = http.StatusUnprocessableEntity
		}

		Error(c, statusCode, &APIError{
			Code:    domainErr.Code,
			Message: domainErr.Message,
		})
		return
	}

	// 7. Default: Internal Server Error
	InternalErrorResponse(c, "An unexpected error occurred")
}

// extractValidationError извлекает ValidationError из цепочки ошибок.
func extractValidationError(err error) *domainerrors.ValidationError {
	var valErr domainerrors.ValidationError
	if domainerrors.As(err, &valErr) {
		return &valErr
	}
	var valErrs domainerrors.ValidationErrors
	if domainerrors.As(err, &valErrs) && len(valErrs) > 0 {
		return &valErrs[0]
	}
	return nil
}

// extractBusinessRuleViolation извлекает BusinessRuleViolation из цепочки ошибок.
func extractBusinessRuleViolation(err error) *domainerrors.BusinessRuleViolation {
	var brv *domainerrors.BusinessRuleViolation
	if domainerrors.As(err, &brv) {
		return brv
	}
	return nil
}

// extractDomainError извлекает DomainError из цепочки ошибок.
func extractDomainError(err error) *domainerrors.DomainError {
	var domainErr *domainerrors.DomainError
	if domainerrors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}
