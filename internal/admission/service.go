package admission

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"ms-admission/internal/models"
	"ms-admission/internal/token"
)

type DBLayer interface {
	GetInvitationByID(ctx context.Context, ticketID string) (*models.Invitation, error)
	GetEventByID(ctx context.Context, eventID string) (*models.Event, error)
	AdmitGuests(ctx context.Context, scan *models.Scan) error
	RecordScan(ctx context.Context, scan *models.Scan) error
	GetScanByLocalID(ctx context.Context, localID string) (*models.Scan, error)
	GetScansByTicket(ctx context.Context, ticketID string) ([]models.Scan, error)
}

// RSVPChecker is the read-only collaborator owning confirmation state.
type RSVPChecker interface {
	IsConfirmed(ctx context.Context, guestID string) (bool, error)
}

// ScanPublisher streams resolved scans to the ops/analytics plane. Conflict
// outcomes go to a dedicated topic so offline double-admissions reach
// operators instead of disappearing into a counter.
type ScanPublisher interface {
	PublishScanRecorded(scan models.Scan) error
	PublishScanConflict(scan models.Scan) error
}

// AdmissionService runs the verify → validate → admit pipeline for live
// scans and replays offline batches through the same pipeline.
type AdmissionService struct {
	DB    DBLayer
	Codec *token.Codec

	// RSVP is optional; when nil the invitation row's stored flag is
	// trusted (single-binary deployments without the collaborator).
	RSVP RSVPChecker

	// Publisher is optional; nil disables event streaming.
	Publisher ScanPublisher
}

func NewAdmissionService(db DBLayer, codec *token.Codec, rsvp RSVPChecker, publisher ScanPublisher) *AdmissionService {
	return &AdmissionService{DB: db, Codec: codec, RSVP: rsvp, Publisher: publisher}
}

// Scan resolves one live gate scan. Rejections come back inside the result
// with Accepted false; the returned error is reserved for infrastructure
// failures, in which case nothing was committed.
func (s *AdmissionService) Scan(ctx context.Context, req models.ScanRequest) (models.ScanResult, error) {
	return s.scan(ctx, req, models.ScanSourceLive, "")
}

func (s *AdmissionService) scan(ctx context.Context, req models.ScanRequest, source, localID string) (models.ScanResult, error) {
	if req.ScannedAt.IsZero() {
		req.ScannedAt = time.Now()
	}

	claims, err := s.Codec.Verify(req.Token)
	if err != nil {
		rej := asRejection(err)
		if rej == nil {
			return models.ScanResult{}, err
		}
		if claims == nil {
			// Forged: no trustworthy ticket identity to audit against.
			return rejectedResult("", 0, rej), nil
		}
		if err := s.recordRejection(ctx, claims.TicketID, claims.EventID, req, source, localID, 0, rej); err != nil {
			return models.ScanResult{}, err
		}
		return rejectedResult(claims.TicketID, 0, rej), nil
	}

	inv, err := s.DB.GetInvitationByID(ctx, claims.TicketID)
	if err != nil {
		// Only a genuinely missing row is a data-integrity rejection; an
		// unreachable database is an infrastructure error, not a verdict
		// about the ticket, and leaves no audit record.
		if !errors.Is(err, sql.ErrNoRows) {
			return models.ScanResult{}, err
		}
		rej := models.NewRejection(models.OutcomeNotFound, "invitation not found")
		if err := s.recordRejection(ctx, claims.TicketID, claims.EventID, req, source, localID, 0, rej); err != nil {
			return models.ScanResult{}, err
		}
		return rejectedResult(claims.TicketID, 0, rej), nil
	}

	confirmed := inv.RsvpConfirmed
	if s.RSVP != nil {
		if live, err := s.RSVP.IsConfirmed(ctx, inv.GuestID); err == nil {
			confirmed = live
		}
	}

	requested := req.EntryQuantity
	if len(req.EnteredNames) > 0 {
		if requested == 0 {
			requested = len(req.EnteredNames)
		} else if requested != len(req.EnteredNames) {
			rej := models.NewRejection(models.OutcomeInvalidQuantity, "entered names do not match entry quantity")
			if err := s.recordRejection(ctx, inv.TicketID, inv.EventID, req, source, localID, inv.RemainingCount, rej); err != nil {
				return models.ScanResult{}, err
			}
			return rejectedResult(inv.TicketID, inv.RemainingCount, rej), nil
		}
	}

	decision, rej := ValidateAdmission(claims, inv, req.EventID, confirmed, requested)
	if rej != nil {
		if err := s.recordRejection(ctx, inv.TicketID, inv.EventID, req, source, localID, inv.RemainingCount, rej); err != nil {
			return models.ScanResult{}, err
		}
		return rejectedResult(inv.TicketID, inv.RemainingCount, rej), nil
	}

	scan := &models.Scan{
		ScanID:        uuid.New().String(),
		TicketID:      inv.TicketID,
		EventID:       inv.EventID,
		ScannedBy:     req.ScannedBy,
		ScannedAt:     req.ScannedAt,
		EntryQuantity: decision.EntryQuantity,
		EnteredNames:  req.EnteredNames,
		Source:        source,
		LocalID:       localID,
		CreatedAt:     time.Now(),
	}

	if err := s.DB.AdmitGuests(ctx, scan); err != nil {
		// Lost the race after the validator's pre-check: the transaction's
		// own capacity re-check refused the decrement.
		if conflict := asRejection(err); conflict != nil {
			if err := s.recordRejection(ctx, inv.TicketID, inv.EventID, req, source, localID, scan.RemainingAfter, conflict); err != nil {
				return models.ScanResult{}, err
			}
			return rejectedResult(inv.TicketID, scan.RemainingAfter, conflict), nil
		}
		return models.ScanResult{}, err
	}

	if s.Publisher != nil {
		// Streaming is best-effort; the committed scan row is the record.
		_ = s.Publisher.PublishScanRecorded(*scan)
	}

	message := "guests admitted"
	if scan.Outcome == models.OutcomeFullyAdmitted {
		message = "all guests admitted"
	}

	return models.ScanResult{
		Accepted:       true,
		Outcome:        scan.Outcome,
		TicketID:       inv.TicketID,
		EntryQuantity:  scan.EntryQuantity,
		RemainingCount: scan.RemainingAfter,
		EnteredNames:   scan.EnteredNames,
		Message:        message,
	}, nil
}

// Reconcile replays a disconnected scanner's queued batch through the same
// pipeline as live scans, oldest first so the replay approximates the order
// admissions actually happened at the venue. Items already synced under
// their localId return the prior outcome without re-admitting, which makes
// a retried batch safe. One item failing never aborts the rest.
func (s *AdmissionService) Reconcile(ctx context.Context, batch []models.OfflineScan) models.ReconcileResult {
	sorted := make([]models.OfflineScan, len(batch))
	copy(sorted, batch)
	sortOfflineScans(sorted)

	result := models.ReconcileResult{Results: make([]models.OfflineScanResult, 0, len(sorted))}

	for _, item := range sorted {
		if item.LocalID != "" {
			if prior, err := s.DB.GetScanByLocalID(ctx, item.LocalID); err == nil {
				result.Results = append(result.Results, models.OfflineScanResult{
					LocalID:        item.LocalID,
					Accepted:       admittedOutcome(prior.Outcome),
					Outcome:        prior.Outcome,
					RemainingCount: prior.RemainingAfter,
					Message:        "already synced",
				})
				if admittedOutcome(prior.Outcome) {
					result.SyncedCount++
				} else {
					result.FailedCount++
				}
				continue
			}
		}

		res, err := s.scan(ctx, models.ScanRequest{
			Token:         item.Token,
			EventID:       item.EventID,
			ScannedBy:     item.ScannedBy,
			ScannedAt:     item.ScannedAt,
			EntryQuantity: item.EntryQuantity,
			EnteredNames:  item.EnteredNames,
		}, models.ScanSourceOffline, item.LocalID)
		if err != nil {
			result.FailedCount++
			result.Results = append(result.Results, models.OfflineScanResult{
				LocalID: item.LocalID,
				Message: err.Error(),
			})
			continue
		}

		if res.Accepted {
			result.SyncedCount++
		} else {
			result.FailedCount++
		}
		result.Results = append(result.Results, models.OfflineScanResult{
			LocalID:        item.LocalID,
			Accepted:       res.Accepted,
			Outcome:        res.Outcome,
			RemainingCount: res.RemainingCount,
			Message:        res.Message,
		})
	}

	return result
}

// History returns the immutable scan trail for one invitation.
func (s *AdmissionService) History(ctx context.Context, ticketID string) ([]models.Scan, error) {
	return s.DB.GetScansByTicket(ctx, ticketID)
}

func (s *AdmissionService) recordRejection(ctx context.Context, ticketID, eventID string, req models.ScanRequest, source, localID string, remaining int, rej *models.Rejection) error {
	scan := &models.Scan{
		ScanID:         uuid.New().String(),
		TicketID:       ticketID,
		EventID:        eventID,
		ScannedBy:      req.ScannedBy,
		ScannedAt:      req.ScannedAt,
		Outcome:        rej.Code,
		RemainingAfter: remaining,
		Source:         source,
		LocalID:        localID,
		CreatedAt:      time.Now(),
	}
	if err := s.DB.RecordScan(ctx, scan); err != nil {
		return err
	}
	if s.Publisher != nil && rej.Benign() {
		_ = s.Publisher.PublishScanConflict(*scan)
	}
	return nil
}

func rejectedResult(ticketID string, remaining int, rej *models.Rejection) models.ScanResult {
	return models.ScanResult{
		Accepted:       false,
		Outcome:        rej.Code,
		TicketID:       ticketID,
		RemainingCount: remaining,
		Message:        rej.Message,
	}
}

func sortOfflineScans(batch []models.OfflineScan) {
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].ScannedAt.Before(batch[j].ScannedAt)
	})
}

func admittedOutcome(outcome string) bool {
	return outcome == models.OutcomeFullyAdmitted || outcome == models.OutcomePartiallyAdmitted
}

func asRejection(err error) *models.Rejection {
	var rej *models.Rejection
	if errors.As(err, &rej) {
		return rej
	}
	return nil
}
