package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Scan sources.
const (
	ScanSourceLive    = "live"
	ScanSourceOffline = "offline"
)

// Scan is the immutable audit record of one resolved scan attempt,
// written whether the attempt admitted anyone or not.
type Scan struct {
	bun.BaseModel `bun:"table:scans"`

	ScanID         string    `bun:"scan_id,pk"`
	TicketID       string    `bun:"ticket_id,notnull"`
	EventID        string    `bun:"event_id"`
	ScannedBy      string    `bun:"scanned_by"`
	ScannedAt      time.Time `bun:"scanned_at,notnull"`
	Outcome        string    `bun:"outcome,notnull"`
	EntryQuantity  int       `bun:"entry_quantity"`
	RemainingAfter int       `bun:"remaining_after"`
	EnteredNames   []string  `bun:"entered_names,nullzero"`
	Source         string    `bun:"source,notnull"`
	LocalID        string    `bun:"local_id,nullzero,unique"`
	CreatedAt      time.Time `bun:"created_at,nullzero"`
}
