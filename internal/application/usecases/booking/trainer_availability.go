// Package booking - TrainerAvailability use case.
package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/application/dtos"
	"github.com/Haleralex/gymhub/internal/application/ports"
	"github.com/Haleralex/gymhub/internal/domain/errors"
)

// TrainerAvailabilityUseCase - use case расчёта свободных слотов тренера.
//
// Свободный слот = рабочий час с не погашенным флагом, не пересекающийся
// ни с одной не-отменённой записью на эту дату. Скан по записям
// авторитетен: флаг в расписании только advisory.
type TrainerAvailabilityUseCase struct {
	trainerRepo     ports.TrainerRepository
	appointmentRepo ports.AppointmentRepository
}

// NewTrainerAvailabilityUseCase создаёт новый use case.
func NewTrainerAvailabilityUseCase(trainerRepo ports.TrainerRepository, appointmentRepo ports.AppointmentRepository) *TrainerAvailabilityUseCase {
	return &TrainerAvailabilityUseCase{trainerRepo: trainerRepo, appointmentRepo: appointmentRepo}
}

// Execute возвращает свободные слоты тренера на дату.
func (uc *TrainerAvailabilityUseCase) Execute(ctx context.Context, query dtos.GetTrainerAvailabilityQuery) (*dtos.TrainerAvailabilityDTO, error) {
	trainerID, err := uuid.Parse(query.TrainerID)
	if err != nil {
		return nil, errors.ValidationError{Field: "trainer_id", Message: "invalid UUID"}
	}
	date, err := time.Parse(dtos.DateLayout, query.Date)
	if err != nil {
		return nil, errors.ValidationError{Field: "date", Message: "expected YYYY-MM-DD"}
	}

	trainer, err := uc.trainerRepo.FindByID(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	result := &dtos.TrainerAvailabilityDTO{
		TrainerID: trainerID.String(),
		Date:      query.Date,
		Slots:     []dtos.TimeSlotDTO{},
	}

	day := trainer.DayFor(date)
	if !day.Available {
		return result, nil
	}
	result.Available = true

	booked, err := uc.appointmentRepo.FindByTrainerAndDate(ctx, trainerID, date)
	if err != nil {
		return nil, err
	}

	for _, wh := range day.WorkingHours {
		if !wh.Available {
			continue
		}
		taken := false
		for _, appt := range booked {
			if appt.Window().Overlaps(wh.Window) {
				taken = true
				break
			}
		}
		if taken {
			continue
		}
		result.Slots = append(result.Slots, dtos.TimeSlotDTO{
			StartTime: wh.Window.Start().String(),
			EndTime:   wh.Window.End().String(),
		})
	}

	return result, nil
}
