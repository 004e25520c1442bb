package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/uptrace/bun"

	"ms-admission/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetInvitationByID(ctx context.Context, ticketID string) (*models.Invitation, error) {
	var inv models.Invitation
	err := d.Bun.NewSelect().
		Model(&inv).
		Where("ticket_id = ?", ticketID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (d *DB) GetEventByID(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) CreateInvitation(ctx context.Context, inv models.Invitation) error {
	_, err := d.Bun.NewInsert().Model(&inv).Exec(ctx)
	return err
}

func (d *DB) CreateEvent(ctx context.Context, event models.Event) error {
	_, err := d.Bun.NewInsert().Model(&event).Exec(ctx)
	return err
}

func (d *DB) CreateGuest(ctx context.Context, guest models.Guest) error {
	_, err := d.Bun.NewInsert().Model(&guest).Exec(ctx)
	return err
}

// AdmitGuests applies an accepted admission decision atomically: decrement
// remaining_count and insert the scan record in one transaction, both or
// neither. The decrement is guarded on remaining_count >= quantity inside
// the transaction, so the capacity check seen by the validator moments
// earlier is re-verified at the atomic boundary. Zero rows affected means a
// concurrent scan consumed the capacity first; the caller gets a Conflict
// and is expected to re-run validate-then-admit.
//
// On success scan.Outcome and scan.RemainingAfter are filled in; on a
// Conflict only scan.RemainingAfter is, holding the untouched live count.
func (d *DB) AdmitGuests(ctx context.Context, scan *models.Scan) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Invitation)(nil)).
			Set("remaining_count = remaining_count - ?", scan.EntryQuantity).
			Set("updated_at = ?", time.Now()).
			Where("ticket_id = ?", scan.TicketID).
			Where("remaining_count >= ?", scan.EntryQuantity).
			Exec(ctx)
		if err != nil {
			return err
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			// A conflict means remaining < quantity, not remaining == 0;
			// report what is actually left so the scanner can retry with
			// a smaller party.
			var remaining int
			if err := tx.NewSelect().
				Model((*models.Invitation)(nil)).
				Column("remaining_count").
				Where("ticket_id = ?", scan.TicketID).
				Scan(ctx, &remaining); err != nil {
				return err
			}
			scan.RemainingAfter = remaining
			return models.NewRejection(models.OutcomeConflict, "remaining capacity consumed by a concurrent scan")
		}

		var remaining int
		err = tx.NewSelect().
			Model((*models.Invitation)(nil)).
			Column("remaining_count").
			Where("ticket_id = ?", scan.TicketID).
			Scan(ctx, &remaining)
		if err != nil {
			return err
		}

		scan.RemainingAfter = remaining
		if remaining == 0 {
			scan.Outcome = models.OutcomeFullyAdmitted
		} else {
			scan.Outcome = models.OutcomePartiallyAdmitted
		}

		_, err = tx.NewInsert().Model(scan).Exec(ctx)
		return err
	})
}

// RecordScan inserts the audit record for a scan attempt that did not
// admit anyone. No invitation state is touched.
func (d *DB) RecordScan(ctx context.Context, scan *models.Scan) error {
	_, err := d.Bun.NewInsert().Model(scan).Exec(ctx)
	return err
}

// GetScanByLocalID looks up a previously reconciled offline scan by its
// client-generated idempotency key. sql.ErrNoRows when unseen.
func (d *DB) GetScanByLocalID(ctx context.Context, localID string) (*models.Scan, error) {
	var scan models.Scan
	err := d.Bun.NewSelect().
		Model(&scan).
		Where("local_id = ?", localID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &scan, nil
}

func (d *DB) GetScansByTicket(ctx context.Context, ticketID string) ([]models.Scan, error) {
	var scans []models.Scan
	err := d.Bun.NewSelect().
		Model(&scans).
		Where("ticket_id = ?", ticketID).
		Order("scanned_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return scans, nil
}
