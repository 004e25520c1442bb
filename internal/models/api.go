package models

import "time"

// ScanRequest is the inbound payload for a live gate scan.
// EntryQuantity of zero means "admit everyone still remaining".
type ScanRequest struct {
	Token         string    `json:"token"`
	EventID       string    `json:"event_id"`
	ScannedBy     string    `json:"scanned_by"`
	ScannedAt     time.Time `json:"scanned_at"`
	EntryQuantity int       `json:"entry_quantity,omitempty"`
	EnteredNames  []string  `json:"entered_names,omitempty"`
}

type ScanResult struct {
	Accepted       bool     `json:"accepted"`
	Outcome        string   `json:"outcome"`
	TicketID       string   `json:"ticket_id,omitempty"`
	EntryQuantity  int      `json:"entry_quantity,omitempty"`
	RemainingCount int      `json:"remaining_count"`
	EnteredNames   []string `json:"entered_names,omitempty"`
	Message        string   `json:"message"`
}

// OfflineScan is one queued item from a disconnected scanner. LocalID is
// the client-generated idempotency key for the item.
type OfflineScan struct {
	LocalID       string    `json:"local_id"`
	Token         string    `json:"token"`
	EventID       string    `json:"event_id"`
	ScannedBy     string    `json:"scanned_by"`
	ScannedAt     time.Time `json:"scanned_at"`
	EntryQuantity int       `json:"entry_quantity,omitempty"`
	EnteredNames  []string  `json:"entered_names,omitempty"`
}

type OfflineScanResult struct {
	LocalID        string `json:"local_id"`
	Accepted       bool   `json:"accepted"`
	Outcome        string `json:"outcome"`
	RemainingCount int    `json:"remaining_count"`
	Message        string `json:"message"`
}

type ReconcileResult struct {
	SyncedCount int                 `json:"synced_count"`
	FailedCount int                 `json:"failed_count"`
	Results     []OfflineScanResult `json:"results"`
}
