// Package entities - GymPackage is the product a membership subscribes to.
package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/Haleralex/gymhub/internal/domain/valueobjects"
)

// PackageStatus represents whether a package is currently sellable.
type PackageStatus string

const (
	PackageStatusActive   PackageStatus = "active"
	PackageStatusInactive PackageStatus = "inactive"
)

// GymPackage defines a sellable membership product: its price, validity
// duration and monthly training-session allotment.
type GymPackage struct {
	id               uuid.UUID
	name             string
	price            valueobjects.Money
	durationDays     int
	trainingSessions int // Monthly session allotment
	status           PackageStatus
	createdAt        time.Time
	updatedAt        time.Time
}

// ReconstructGymPackage reconstructs a GymPackage from stored data.
// Packages are managed by the out-of-scope admin surface; the core only
// reads them, so there is no rich factory here.
func ReconstructGymPackage(
	id uuid.UUID,
	name string,
	price valueobjects.Money,
	durationDays, trainingSessions int,
	status PackageStatus,
	createdAt, updatedAt time.Time,
) *GymPackage {
	return &GymPackage{
		id:               id,
		name:             name,
		price:            price,
		durationDays:     durationDays,
		trainingSessions: trainingSessions,
		status:           status,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// Getters

func (p *GymPackage) ID() uuid.UUID              { return p.id }
func (p *GymPackage) Name() string               { return p.name }
func (p *GymPackage) Price() valueobjects.Money  { return p.price }
func (p *GymPackage) DurationDays() int          { return p.durationDays }
func (p *GymPackage) TrainingSessions() int      { return p.trainingSessions }
func (p *GymPackage) Status() PackageStatus      { return p.status }
func (p *GymPackage) CreatedAt() time.Time       { return p.createdAt }
func (p *GymPackage) UpdatedAt() time.Time       { return p.updatedAt }

// IsActive returns true if the package can be purchased.
func (p *GymPackage) IsActive() bool {
	return p.status == PackageStatusActive
}

// ValidityWindow computes the membership dates for a purchase made now.
func (p *GymPackage) ValidityWindow(now time.Time) (start, end time.Time) {
	return now, now.AddDate(0, 0, p.durationDays)
}
