package token

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"ms-admission/internal/models"
	"ms-admission/internal/utils"
)

// InvitationStore is the read-only view the codec needs at issuance time.
type InvitationStore interface {
	GetInvitationByID(ctx context.Context, ticketID string) (*models.Invitation, error)
	GetEventByID(ctx context.Context, eventID string) (*models.Event, error)
}

// RedemptionClaims is the signed payload carried inside a redemption token.
// The embedded counts are advisory snapshots for display; the admission
// decision always re-reads the live invitation row.
type RedemptionClaims struct {
	TicketID  string `json:"ticket_id"`
	EventID   string `json:"event_id"`
	GuestID   string `json:"guest_id"`
	PartySize int    `json:"party_size"`
	Remaining int    `json:"remaining"`
	OccursOn  string `json:"occurs_on"`
	jwt.RegisteredClaims
}

// Codec issues and verifies redemption tokens. The signing secret and the
// reference timezone are injected at construction so they can be swapped
// per environment.
type Codec struct {
	Store  InvitationStore
	secret []byte
	loc    *time.Location

	// Now is the clock used for expiry and day-match checks.
	Now func() time.Time
}

func NewCodec(secret string, loc *time.Location, store InvitationStore) *Codec {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Codec{
		Store:  store,
		secret: hashed[:],
		loc:    loc,
		Now:    time.Now,
	}
}

// Issue loads the invitation and its event and returns a signed token whose
// expiry is the end of the event's calendar day in the reference timezone.
// Read-only; nothing is mutated.
func (c *Codec) Issue(ctx context.Context, ticketID string) (string, error) {
	inv, err := c.Store.GetInvitationByID(ctx, ticketID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", models.NewRejection(models.OutcomeNotFound, fmt.Sprintf("invitation %s not found", ticketID))
	}
	if err != nil {
		return "", err
	}

	event, err := c.Store.GetEventByID(ctx, inv.EventID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", models.NewRejection(models.OutcomeNotFound, fmt.Sprintf("event %s not found", inv.EventID))
	}
	if err != nil {
		return "", err
	}

	expiry := utils.EndOfDay(event.OccursOn, c.loc)

	claims := RedemptionClaims{
		TicketID:  inv.TicketID,
		EventID:   inv.EventID,
		GuestID:   inv.GuestID,
		PartySize: inv.PartySize,
		Remaining: inv.RemainingCount,
		OccursOn:  event.OccursOn.In(c.loc).Format("2006-01-02"),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   inv.TicketID,
			IssuedAt:  jwt.NewNumericDate(c.Now()),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks signature, expiry, then the same-calendar-day rule, in that
// order, returning a typed rejection on the first failure. The day-match is
// a separate check from expiry: a token issued far in advance carries a
// future expiry, and expiry alone would let it through before the event day.
// A verified token is not an admission decision; callers still consult the
// live invitation row.
//
// For Expired and OutsideEventWindow the signature was valid, so the parsed
// claims are returned together with the rejection; Forged returns nil claims.
func (c *Codec) Verify(tokenString string) (*RedemptionClaims, error) {
	claims := &RedemptionClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(func() time.Time { return c.Now() }))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			// Signature checked out, so the claims identify a real ticket.
			// Returned alongside the rejection so the attempt can be audited.
			return claims, models.NewRejection(models.OutcomeExpired, "ticket has expired")
		}
		return nil, models.NewRejection(models.OutcomeForged, "ticket could not be verified")
	}
	if !parsed.Valid {
		return nil, models.NewRejection(models.OutcomeForged, "ticket could not be verified")
	}

	occurs, err := time.ParseInLocation("2006-01-02", claims.OccursOn, c.loc)
	if err != nil {
		return nil, models.NewRejection(models.OutcomeForged, "ticket could not be verified")
	}
	if !utils.SameCalendarDay(c.Now(), occurs, c.loc) {
		return claims, models.NewRejection(models.OutcomeOutsideEventWindow, "ticket not valid today")
	}

	return claims, nil
}
