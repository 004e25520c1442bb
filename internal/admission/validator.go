package admission

import (
	"fmt"

	"ms-admission/internal/models"
	"ms-admission/internal/token"
)

// Decision is an accepted admission: how many people enter now and what the
// invitation's remaining count becomes once the transaction commits.
type Decision struct {
	EntryQuantity int
	NewRemaining  int
}

// ValidateAdmission decides whether and how many people may be admitted,
// given verified token claims and the authoritative invitation row. Pure:
// no I/O, no clock. Rules apply in order and short-circuit.
//
// gateEventID is the event the scanning gate is configured for; empty means
// the gate does not pin an event. requested of zero means "admit everyone
// still remaining".
func ValidateAdmission(claims *token.RedemptionClaims, inv *models.Invitation, gateEventID string, rsvpConfirmed bool, requested int) (*Decision, *models.Rejection) {
	if claims.EventID != inv.EventID {
		return nil, models.NewRejection(models.OutcomeMismatch, "ticket does not belong to this event")
	}
	if gateEventID != "" && gateEventID != inv.EventID {
		return nil, models.NewRejection(models.OutcomeMismatch, "ticket does not belong to this event")
	}

	if !rsvpConfirmed {
		return nil, models.NewRejection(models.OutcomeNotConfirmed, "guest has not confirmed attendance")
	}

	if inv.RemainingCount == 0 {
		return nil, models.NewRejection(models.OutcomeAlreadyFullyAdmitted, "all guests already entered")
	}

	quantity := requested
	if quantity == 0 {
		quantity = inv.RemainingCount
	} else if quantity < 1 || quantity > inv.RemainingCount {
		return nil, models.NewRejection(models.OutcomeInvalidQuantity,
			fmt.Sprintf("entry quantity must be between 1 and %d", inv.RemainingCount))
	}

	return &Decision{
		EntryQuantity: quantity,
		NewRemaining:  inv.RemainingCount - quantity,
	}, nil
}
