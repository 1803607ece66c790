// Package sla computes ticket due dates and breach status from per-queue
// SLA policies and holiday calendars. All timestamps are UTC; end of
// business day is 17:00 UTC. Per-queue timezones are a future extension.
package sla

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// DB is a minimal interface to allow mocking in tests.
type DB interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// TicketStatus is the closed set of ticket workflow states.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketPending    TicketStatus = "pending"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

// IsTerminal reports whether the ticket has reached a resolved state and is
// no longer subject to SLA tracking.
func (s TicketStatus) IsTerminal() bool {
	switch s {
	case TicketResolved, TicketClosed:
		return true
	}
	return false
}

// Category is the fixed set of ticket categories that SLA policies key on.
type Category string

const (
	CategoryAssetRepair   Category = "ASSET_REPAIR"
	CategoryAssetRequest  Category = "ASSET_REQUEST"
	CategoryShipment      Category = "SHIPMENT"
	CategoryAccessRequest Category = "ACCESS_REQUEST"
	CategoryGeneral       Category = "GENERAL"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryAssetRepair, CategoryAssetRequest, CategoryShipment, CategoryAccessRequest, CategoryGeneral:
		return true
	}
	return false
}

// Categories lists every known category, for validation and admin UIs.
func Categories() []Category {
	return []Category{CategoryAssetRepair, CategoryAssetRequest, CategoryShipment, CategoryAccessRequest, CategoryGeneral}
}

// Ticket is the read-only view of a ticket the scheduler consumes. QueueID
// and Category are empty when unassigned.
type Ticket struct {
	ID        string       `json:"id"`
	QueueID   string       `json:"queue_id,omitempty"`
	Category  Category     `json:"category,omitempty"`
	Status    TicketStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
}
