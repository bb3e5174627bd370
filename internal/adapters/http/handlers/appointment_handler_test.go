package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Haleralex/gymhub/internal/adapters/http/common"
	"github.com/Haleralex/gymhub/internal/adapters/http/middleware"
	"github.com/Haleralex/gymhub/internal/application/dtos"
	domerrors "github.com/Haleralex/gymhub/internal/domain/errors"
)

// ============================================
// Mock Use Cases
// ============================================

type mockBookAppointmentUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.BookAppointmentCommand) (*dtos.AppointmentDTO, error)
}

func (m *mockBookAppointmentUseCase) Execute(ctx context.Context, cmd dtos.BookAppointmentCommand) (*dtos.AppointmentDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, nil
}

type mockCancelAppointmentUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.CancelAppointmentCommand) (*dtos.AppointmentDTO, error)
}

func (m *mockCancelAppointmentUseCase) Execute(ctx context.Context, cmd dtos.CancelAppointmentCommand) (*dtos.AppointmentDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, nil
}

type mockConfirmAppointmentUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.ConfirmAppointmentCommand) (*dtos.AppointmentDTO, error)
}

func (m *mockConfirmAppointmentUseCase) Execute(ctx context.Context, cmd dtos.ConfirmAppointmentCommand) (*dtos.AppointmentDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, nil
}

type mockRescheduleAppointmentUseCase struct {
	ExecuteFn func(ctx context.Context, cmd dtos.RescheduleAppointmentCommand) (*dtos.AppointmentDTO, error)
}

func (m *mockRescheduleAppointmentUseCase) Execute(ctx context.Context, cmd dtos.RescheduleAppointmentCommand) (*dtos.AppointmentDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, cmd)
	}
	return nil, nil
}

type mockGetAppointmentUseCase struct {
	ExecuteFn func(ctx context.Context, query dtos.GetAppointmentQuery) (*dtos.AppointmentDTO, error)
}

func (m *mockGetAppointmentUseCase) Execute(ctx context.Context, query dtos.GetAppointmentQuery) (*dtos.AppointmentDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, query)
	}
	return nil, nil
}

type mockListAppointmentsUseCase struct {
	ExecuteFn func(ctx context.Context, query dtos.ListAppointmentsQuery) ([]dtos.AppointmentDTO, error)
}

func (m *mockListAppointmentsUseCase) Execute(ctx context.Context, query dtos.ListAppointmentsQuery) ([]dtos.AppointmentDTO, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, query)
	}
	return nil, nil
}

// ============================================
// Helper Functions
// ============================================

// authAs подставляет авторизованного пользователя в контекст.
func authAs(memberID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.AuthUserIDKey, memberID)
		c.Next()
	}
}

func setupAppointmentTestRouter(handler *AppointmentHandler, memberID string) *gin.Engine {
	SetupValidator()
	router := gin.New()
	group := router.Group("/api/v1")
	if memberID != "" {
		group.Use(authAs(memberID))
	}
	handler.RegisterRoutes(group)
	return router
}

func decodeAPIResponse(t *testing.T, rec *httptest.ResponseRecorder) common.APIResponse {
	t.Helper()
	var resp common.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

// ============================================
// Test Cases
// ============================================

func TestNewAppointmentHandler(t *testing.T) {
	handler := NewAppointmentHandler(nil, nil, nil, nil, nil, nil)
	assert.NotNil(t, handler)
}

func TestAppointmentHandler_Book(t *testing.T) {
	gin.SetMode(gin.TestMode)

	memberID := uuid.New().String()
	trainerID := uuid.New().String()
	membershipID := uuid.New().String()

	t.Run("Success", func(t *testing.T) {
		var captured dtos.BookAppointmentCommand
		mockUseCase := &mockBookAppointmentUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.BookAppointmentCommand) (*dtos.AppointmentDTO, error) {
				captured = cmd
				return &dtos.AppointmentDTO{
					ID:        uuid.New().String(),
					MemberID:  cmd.MemberID,
					TrainerID: cmd.TrainerID,
					Date:      cmd.Date,
					StartTime: cmd.StartTime,
					EndTime:   cmd.EndTime,
					Status:    "pending",
				}, nil
			},
		}

		handler := NewAppointmentHandler(mockUseCase, nil, nil, nil, nil, nil)
		router := setupAppointmentTestRouter(handler, memberID)

		body, _ := json.Marshal(BookAppointmentRequest{
			TrainerID:    trainerID,
			MembershipID: membershipID,
			Date:         "2026-09-15",
			StartTime:    "10:00",
			EndTime:      "11:00",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, memberID, captured.MemberID, "member must come from auth context")
		assert.Equal(t, trainerID, captured.TrainerID)
		assert.Equal(t, membershipID, captured.MembershipID)

		resp := decodeAPIResponse(t, rec)
		assert.True(t, resp.Success)
	})

	t.Run("SlotTakenReturns409", func(t *testing.T) {
		mockUseCase := &mockBookAppointmentUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.BookAppointmentCommand) (*dtos.AppointmentDTO, error) {
				return nil, domerrors.ErrBookingConflict
			},
		}

		handler := NewAppointmentHandler(mockUseCase, nil, nil, nil, nil, nil)
		router := setupAppointmentTestRouter(handler, memberID)

		body, _ := json.Marshal(BookAppointmentRequest{
			TrainerID:    trainerID,
			MembershipID: membershipID,
			Date:         "2026-09-15",
			StartTime:    "10:00",
			EndTime:      "11:00",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		resp := decodeAPIResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, common.ErrCodeSlotTaken, resp.Error.Code)
	})

	t.Run("QuotaExhaustedReturns422", func(t *testing.T) {
		mockUseCase := &mockBookAppointmentUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.BookAppointmentCommand) (*dtos.AppointmentDTO, error) {
				return nil, domerrors.ErrNoSessionsLeft
			},
		}

		handler := NewAppointmentHandler(mockUseCase, nil, nil, nil, nil, nil)
		router := setupAppointmentTestRouter(handler, memberID)

		body, _ := json.Marshal(BookAppointmentRequest{
			TrainerID:    trainerID,
			MembershipID: membershipID,
			Date:         "2026-09-15",
			StartTime:    "10:00",
			EndTime:      "11:00",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decodeAPIResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, common.ErrCodeQuotaExhausted, resp.Error.Code)
	})

	t.Run("InvalidTimeFormatReturns400", func(t *testing.T) {
		handler := NewAppointmentHandler(&mockBookAppointmentUseCase{}, nil, nil, nil, nil, nil)
		router := setupAppointmentTestRouter(handler, memberID)

		body, _ := json.Marshal(map[string]string{
			"trainer_id":    trainerID,
			"membership_id": membershipID,
			"date":          "2026-09-15",
			"start_time":    "25:99",
			"end_time":      "11:00",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("MissingMembershipIDReturns400", func(t *testing.T) {
		handler := NewAppointmentHandler(&mockBookAppointmentUseCase{}, nil, nil, nil, nil, nil)
		router := setupAppointmentTestRouter(handler, memberID)

		body, _ := json.Marshal(map[string]string{
			"trainer_id": trainerID,
			"date":       "2026-09-15",
			"start_time": "10:00",
			"end_time":   "11:00",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("UnauthenticatedReturns401", func(t *testing.T) {
		handler := NewAppointmentHandler(&mockBookAppointmentUseCase{}, nil, nil, nil, nil, nil)
		router := setupAppointmentTestRouter(handler, "")

		body, _ := json.Marshal(BookAppointmentRequest{
			TrainerID:    trainerID,
			MembershipID: membershipID,
			Date:         "2026-09-15",
			StartTime:    "10:00",
			EndTime:      "11:00",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAppointmentHandler_Cancel(t *testing.T) {
	gin.SetMode(gin.TestMode)

	memberID := uuid.New().String()
	appointmentID := uuid.New().String()

	t.Run("Success", func(t *testing.T) {
		mockUseCase := &mockCancelAppointmentUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.CancelAppointmentCommand) (*dtos.AppointmentDTO, error) {
				assert.Equal(t, appointmentID, cmd.AppointmentID)
				assert.Equal(t, memberID, cmd.MemberID)
				return &dtos.AppointmentDTO{ID: appointmentID, Status: "cancelled"}, nil
			},
		}

		handler := NewAppointmentHandler(nil, mockUseCase, nil, nil, nil, nil)
		router := setupAppointmentTestRouter(handler, memberID)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/"+appointmentID+"/cancel", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("WindowClosedReturns422", func(t *testing.T) {
		mockUseCase := &mockCancelAppointmentUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.CancelAppointmentCommand) (*dtos.AppointmentDTO, error) {
				return nil, domerrors.ErrNotCancellable
			},
		}

		handler := NewAppointmentHandler(nil, mockUseCase, nil, nil, nil, nil)
		router := setupAppointmentTestRouter(handler, memberID)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/"+appointmentID+"/cancel", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decodeAPIResponse(t, rec)
		require.NotNil(t, resp.Error)
		assert.Equal(t, common.ErrCodeNotCancellable, resp.Error.Code)
	})

	t.Run("ForeignAppointmentReturns403", func(t *testing.T) {
		mockUseCase := &mockCancelAppointmentUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.CancelAppointmentCommand) (*dtos.AppointmentDTO, error) {
				return nil, domerrors.ErrForbidden
			},
		}

		handler := NewAppointmentHandler(nil, mockUseCase, nil, nil, nil, nil)
		router := setupAppointmentTestRouter(handler, memberID)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/"+appointmentID+"/cancel", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestAppointmentHandler_Reschedule(t *testing.T) {
	gin.SetMode(gin.TestMode)

	memberID := uuid.New().String()
	appointmentID := uuid.New().String()

	t.Run("Success", func(t *testing.T) {
		mockUseCase := &mockRescheduleAppointmentUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.RescheduleAppointmentCommand) (*dtos.AppointmentDTO, error) {
				assert.Equal(t, "2026-09-20", cmd.Date)
				assert.Equal(t, "14:00", cmd.StartTime)
				return &dtos.AppointmentDTO{ID: appointmentID, Status: "pending"}, nil
			},
		}

		handler := NewAppointmentHandler(nil, nil, nil, mockUseCase, nil, nil)
		router := setupAppointmentTestRouter(handler, memberID)

		body, _ := json.Marshal(RescheduleAppointmentRequest{
			Date:      "2026-09-20",
			StartTime: "14:00",
			EndTime:   "15:00",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/"+appointmentID+"/reschedule", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAppointmentHandler_List(t *testing.T) {
	gin.SetMode(gin.TestMode)

	memberID := uuid.New().String()

	t.Run("FiltersAndPaginationArePassedThrough", func(t *testing.T) {
		var captured dtos.ListAppointmentsQuery
		mockUseCase := &mockListAppointmentsUseCase{
			ExecuteFn: func(ctx context.Context, query dtos.ListAppointmentsQuery) ([]dtos.AppointmentDTO, error) {
				captured = query
				return []dtos.AppointmentDTO{}, nil
			},
		}

		handler := NewAppointmentHandler(nil, nil, nil, nil, nil, mockUseCase)
		router := setupAppointmentTestRouter(handler, memberID)

		trainerID := uuid.New().String()
		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/appointments?trainer_id="+trainerID+"&status=confirmed&q=studio&page=2&per_page=10", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, captured.TrainerID)
		assert.Equal(t, trainerID, *captured.TrainerID)
		require.NotNil(t, captured.Status)
		assert.Equal(t, "confirmed", *captured.Status)
		require.NotNil(t, captured.Q)
		assert.Equal(t, "studio", *captured.Q)
		assert.Equal(t, 10, captured.Offset)
		assert.Equal(t, 10, captured.Limit)
	})

	t.Run("InvalidStatusReturns400", func(t *testing.T) {
		handler := NewAppointmentHandler(nil, nil, nil, nil, nil, &mockListAppointmentsUseCase{})
		router := setupAppointmentTestRouter(handler, memberID)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments?status=bogus", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAppointmentHandler_Confirm(t *testing.T) {
	gin.SetMode(gin.TestMode)

	appointmentID := uuid.New().String()

	t.Run("Success", func(t *testing.T) {
		mockUseCase := &mockConfirmAppointmentUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.ConfirmAppointmentCommand) (*dtos.AppointmentDTO, error) {
				return &dtos.AppointmentDTO{ID: cmd.AppointmentID, Status: "confirmed"}, nil
			},
		}

		handler := NewAppointmentHandler(nil, nil, mockUseCase, nil, nil, nil)
		router := setupAppointmentTestRouter(handler, uuid.New().String())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/"+appointmentID+"/confirm", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("TerminalStateReturns422", func(t *testing.T) {
		mockUseCase := &mockConfirmAppointmentUseCase{
			ExecuteFn: func(ctx context.Context, cmd dtos.ConfirmAppointmentCommand) (*dtos.AppointmentDTO, error) {
				return nil, domerrors.ErrAppointmentFinal
			},
		}

		handler := NewAppointmentHandler(nil, nil, mockUseCase, nil, nil, nil)
		router := setupAppointmentTestRouter(handler, uuid.New().String())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments/"+appointmentID+"/confirm", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
