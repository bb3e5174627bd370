package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/gymhub/internal/adapters/http/common"
	"github.com/Haleralex/gymhub/internal/application/dtos"
	domerrors "github.com/Haleralex/gymhub/internal/domain/errors"
)

// ============================================
// Mock Use Cases
// ============================================

type mockInitiatePaymentUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.InitiatePaymentCommand) (*dtos.InitiatePaymentDTO, error)
}

func (m *mockInitiatePaymentUseCase) Execute(ctx context.Context, cmd dtos.InitiatePaymentCommand) (*dtos.InitiatePaymentDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, nil
}

type mockReconcileCallbackUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.ReconcileCallbackCommand) (*dtos.ReconcileResultDTO, error)
}

func (m *mockReconcileCallbackUseCase) Execute(ctx context.Context, cmd dtos.ReconcileCallbackCommand) (*dtos.ReconcileResultDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, nil
}

type mockGetPaymentStatusUseCase struct {
	ExecuteFn func(ctx context.Context, query dtos.GetPaymentStatusQuery) (*dtos.PaymentDTO, error)
}

func (m *mockGetPaymentStatusUseCase) Execute(ctx context.Context, query dtos.GetPaymentStatusQuery) (*dtos.PaymentDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, query)
	}
	return nil, nil
}

// ============================================
// Helper Functions
// ============================================

func setupPaymentTestRouter(handler *PaymentHandler, memberID string) *gin.Engine {
	SetupValidator()
	router := gin.New()
	group := router.Group("/api/v1")
	if memberID != "" {
		group.Use(authAs(memberID))
	}
	handler.RegisterRoutes(group)
	// IPN живёт в публичной группе, без auth
	router.POST("/api/v1/payments/momo/ipn", handler.HandleIPN)
	return router
}

// ============================================
// Test Cases
// ============================================

func TestPaymentHandler_Initiate(t *testing.T) {
	gin.SetMode(gin.TestMode)

	memberID := uuid.New().String()
	packageID := uuid.New().String()

	t.Run("Success", func(t *testing.T) {
		mockUseCase := &mockInitiatePaymentUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.InitiatePaymentCommand) (*dtos.InitiatePaymentDTO, error) {
				assert.Equal(t, memberID, cmd.MemberID)
				assert.Equal(t, packageID, cmd.PackageID)
				return &dtos.InitiatePaymentDTO{
					PaymentID:     uuid.New().String(),
					TransactionID: "GYM-tx-1",
					Amount:        500000,
					Currency:      "VND",
					PayURL:        "https://test-payment.momo.vn/pay/GYM-tx-1",
				}, nil
			},
		}

		handler := NewPaymentHandler(mockUseCase, nil, nil, nil)
		router := setupPaymentTestRouter(handler, memberID)

		body, _ := json.Marshal(InitiatePaymentRequest{PackageID: packageID})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		resp := decodeAPIResponse(t, rec)
		assert.True(t, resp.Success)
	})

	t.Run("InactivePackageReturns422", func(t *testing.T) {
		mockUseCase := &mockInitiatePaymentUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.InitiatePaymentCommand) (*dtos.InitiatePaymentDTO, error) {
				return nil, domerrors.ErrPackageNotActive
			},
		}

		handler := NewPaymentHandler(mockUseCase, nil, nil, nil)
		router := setupPaymentTestRouter(handler, memberID)

		body, _ := json.Marshal(InitiatePaymentRequest{PackageID: packageID})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("MissingPackageIDReturns400", func(t *testing.T) {
		handler := NewPaymentHandler(&mockInitiatePaymentUseCase{}, nil, nil, nil)
		router := setupPaymentTestRouter(handler, memberID)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPaymentHandler_GetStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	memberID := uuid.New().String()
	paymentID := uuid.New().String()

	t.Run("Success", func(t *testing.T) {
		mockUseCase := &mockGetPaymentStatusUseCase{
			ExecuteFn: func(ctx context.Context, query dtos.GetPaymentStatusQuery) (*dtos.PaymentDTO, error) {
				assert.Equal(t, paymentID, query.PaymentID)
				// владелец берётся из auth-контекста
				assert.Equal(t, memberID, query.MemberID)
				return &dtos.PaymentDTO{ID: paymentID, Status: "completed"}, nil
			},
		}

		handler := NewPaymentHandler(nil, nil, mockUseCase, nil)
		router := setupPaymentTestRouter(handler, memberID)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/"+paymentID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("ForeignPaymentReturns403", func(t *testing.T) {
		mockUseCase := &mockGetPaymentStatusUseCase{
			ExecuteFn: func(ctx context.Context, query dtos.GetPaymentStatusQuery) (*dtos.PaymentDTO, error) {
				return nil, domerrors.ErrForbidden
			},
		}

		handler := NewPaymentHandler(nil, nil, mockUseCase, nil)
		router := setupPaymentTestRouter(handler, memberID)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/"+paymentID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("NotFoundReturns404", func(t *testing.T) {
		mockUseCase := &mockGetPaymentStatusUseCase{
			ExecuteFn: func(ctx context.Context, query dtos.GetPaymentStatusQuery) (*dtos.PaymentDTO, error) {
				return nil, domerrors.ErrEntityNotFound
			},
		}

		handler := NewPaymentHandler(nil, nil, mockUseCase, nil)
		router := setupPaymentTestRouter(handler, memberID)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/payments/"+paymentID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		resp := decodeAPIResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, common.ErrCodeNotFound, resp.Error.Code)
	})
}

// IPN endpoint всегда отвечает 204: шлюз ретраит любой не-2xx ответ,
// а ретраи невалидной подписи или повторного callback'а бессмысленны.
func TestPaymentHandler_HandleIPN(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("SuccessfulReconciliationAcks204", func(t *testing.T) {
		var captured []byte
		mockUseCase := &mockReconcileCallbackUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.ReconcileCallbackCommand) (*dtos.ReconcileResultDTO, error) {
				captured = cmd.Body
				return &dtos.ReconcileResultDTO{TransactionID: "GYM-tx-1", Outcome: "completed"}, nil
			},
		}

		handler := NewPaymentHandler(nil, mockUseCase, nil, nil)
		router := setupPaymentTestRouter(handler, "")

		body := []byte(`{"orderId":"GYM-tx-1","resultCode":0,"signature":"abc"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/momo/ipn", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.Bytes())
		assert.Equal(t, body, captured, "raw body must reach the use case untouched")
	})

	t.Run("InvalidSignatureStillAcks204", func(t *testing.T) {
		mockUseCase := &mockReconcileCallbackUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.ReconcileCallbackCommand) (*dtos.ReconcileResultDTO, error) {
				return nil, domerrors.ErrInvalidSignature
			},
		}

		handler := NewPaymentHandler(nil, mockUseCase, nil, nil)
		router := setupPaymentTestRouter(handler, "")

		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/momo/ipn",
			bytes.NewReader([]byte(`{"orderId":"GYM-tx-1","signature":"forged"}`)))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("InternalErrorStillAcks204", func(t *testing.T) {
		mockUseCase := &mockReconcileCallbackUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.ReconcileCallbackCommand) (*dtos.ReconcileResultDTO, error) {
				return nil, errors.New("db down")
			},
		}

		handler := NewPaymentHandler(nil, mockUseCase, nil, nil)
		router := setupPaymentTestRouter(handler, "")

		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/momo/ipn",
			bytes.NewReader([]byte(`{}`)))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
