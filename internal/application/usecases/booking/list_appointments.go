// Package booking - ListAppointments use case.
package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/application/dtos"
	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/entities"
	"github.com/Haleralex/gymhub/internal/domain/errors"
)

// ListAppointmentsUseCase - use case списка записей с фильтрацией.
type ListAppointmentsUseCase struct {
	appointmentRepo ports.AppointmentRepository
	clock           ports.Clock
}

// NewListAppointmentsUseCase создаёт новый use case.
func NewListAppointmentsUseCase(appointmentRepo ports.AppointmentRepository, clock ports.Clock) *ListAppointmentsUseCase {
	return &ListAppointmentsUseCase{appointmentRepo: appointmentRepo, clock: clock}
}

// Execute возвращает страницу записей.
func (uc *ListAppointmentsUseCase) Execute(ctx context.Context, query dtos.ListAppointmentsQuery) ([]dtos.AppointmentDTO, error) {
	filter, err := buildFilter(query)
	if err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}

	appointments, err := uc.appointmentRepo.List(ctx, filter, query.Offset, limit)
	if err != nil {
		return nil, err
	}

	return dtos.ToAppointmentDTOList(appointments, uc.clock.Now()), nil
}

func buildFilter(query dtos.ListAppointmentsQuery) (ports.AppointmentFilter, error) {
	var filter ports.AppointmentFilter

	if query.MemberID != nil {
		id, err := uuid.Parse(*query.MemberID)
		if err != nil {
			return filter, errors.ValidationError{Field: "member_id", Message: "invalid UUID"}
		}
		filter.MemberID = &id
	}
	if query.TrainerID != nil {
		id, err := uuid.Parse(*query.TrainerID)
		if err != nil {
			return filter, errors.ValidationError{Field: "trainer_id", Message: "invalid UUID"}
		}
		filter.TrainerID = &id
	}
	if query.Status != nil {
		status := entities.AppointmentStatus(*query.Status)
		if !status.IsValid() {
			return filter, errors.ValidationError{Field: "status", Message: "unknown status"}
		}
		filter.Status = &status
	}
	if query.DateFrom != nil {
		from, err := time.Parse(dtos.DateLayout, *query.DateFrom)
		if err != nil {
			return filter, errors.ValidationError{Field: "date_from", Message: "expected YYYY-MM-DD"}
		}
		filter.DateFrom = &from
	}
	if query.DateTo != nil {
		to, err := time.Parse(dtos.DateLayout, *query.DateTo)
		if err != nil {
			return filter, errors.ValidationError{Field: "date_to", Message: "expected YYYY-MM-DD"}
		}
		filter.DateTo = &to
	}
	if query.Q != nil {
		q := strings.TrimSpace(*query.Q)
		if q != "" {
			filter.Query = &q
		}
	}

	return filter, nil
}
