// Package entities - Promotion is a time-boxed percentage discount scoped to
// a set of packages.
package entities

import (
	"time"

	"github.com/google/uuid"
)

// Promotion is a discount campaign. Like packages, promotions are managed by
// the admin surface; the core only selects and snapshots them at checkout.
type Promotion struct {
	id                 uuid.UUID
	name               string
	discountPercent    int
	applicablePackages []uuid.UUID // Empty means all packages
	active             bool
	startsAt           time.Time
	endsAt             time.Time
	createdAt          time.Time
}

// ReconstructPromotion reconstructs a Promotion from stored data.
func ReconstructPromotion(
	id uuid.UUID,
	name string,
	discountPercent int,
	applicablePackages []uuid.UUID,
	active bool,
	startsAt, endsAt, createdAt time.Time,
) *Promotion {
	return &Promotion{
		id:                 id,
		name:               name,
		discountPercent:    discountPercent,
		applicablePackages: applicablePackages,
		active:             active,
		startsAt:           startsAt,
		endsAt:             endsAt,
		createdAt:          createdAt,
	}
}

// Getters

func (p *Promotion) ID() uuid.UUID                  { return p.id }
func (p *Promotion) Name() string                   { return p.name }
func (p *Promotion) DiscountPercent() int           { return p.discountPercent }
func (p *Promotion) ApplicablePackages() []uuid.UUID { return p.applicablePackages }
func (p *Promotion) CreatedAt() time.Time           { return p.createdAt }

// IsRunning reports whether the promotion is live at the given instant.
func (p *Promotion) IsRunning(now time.Time) bool {
	return p.active && !now.Before(p.startsAt) && now.Before(p.endsAt)
}

// AppliesTo reports whether the promotion covers the given package.
func (p *Promotion) AppliesTo(packageID uuid.UUID) bool {
	if len(p.applicablePackages) == 0 {
		return true
	}
	for _, id := range p.applicablePackages {
		if id == packageID {
			return true
		}
	}
	return false
}

// BestPromotion selects the applicable promotion with the largest discount.
// Ties break on earliest created, so selection is deterministic.
func BestPromotion(promotions []*Promotion, packageID uuid.UUID, now time.Time) *Promotion {
	var best *Promotion
	for _, promo := range promotions {
		if !promo.IsRunning(now) || !promo.AppliesTo(packageID) {
			continue
		}
		if best == nil ||
			promo.discountPercent > best.discountPercent ||
			(promo.discountPercent == best.discountPercent && promo.createdAt.Before(best.createdAt)) {
			best = promo
		}
	}
	return best
}
