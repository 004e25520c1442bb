package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Admission states derived from remaining_count.
const (
	StateUntouched         = "untouched"
	StatePartiallyAdmitted = "partially_admitted"
	StateFullyAdmitted     = "fully_admitted"
)

type Invitation struct {
	bun.BaseModel `bun:"table:invitations"`

	TicketID       string    `bun:"ticket_id,pk"`
	EventID        string    `bun:"event_id,notnull"`
	GuestID        string    `bun:"guest_id,notnull"`
	PartySize      int       `bun:"party_size,notnull"`
	RemainingCount int       `bun:"remaining_count,notnull"`
	RsvpConfirmed  bool      `bun:"rsvp_confirmed"`
	IssuedAt       time.Time `bun:"issued_at,nullzero"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero"`
}

// AdmissionState reports where the invitation sits in its lifecycle.
// FullyAdmitted is terminal; remaining_count never increases.
func (i *Invitation) AdmissionState() string {
	switch {
	case i.RemainingCount == 0:
		return StateFullyAdmitted
	case i.RemainingCount < i.PartySize:
		return StatePartiallyAdmitted
	default:
		return StateUntouched
	}
}
