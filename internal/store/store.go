// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"econdash/internal/models"
)

// EventStore defines the interface for calendar persistence.
type EventStore interface {
	// Events
	SaveEvents(ctx context.Context, events []models.EventRecord) error
	LoadEvents(ctx context.Context, filter EventFilter) ([]models.EventRecord, error)
	Currencies(ctx context.Context) ([]string, error)

	// Sync
	GetLastSync(dataType string) time.Time
	SetLastSync(dataType string, t time.Time) error

	// Lifecycle
	Close() error
}

// EventFilter represents filters for querying releases. Zero fields match everything.
type EventFilter struct {
	Currencies []string
	From       time.Time
	To         time.Time
	Importance []models.Importance
	Limit      int
}

// DatasetSource loads the complete dataset.
type DatasetSource interface {
	Load(ctx context.Context) ([]models.EventRecord, error)
}

// Provider fetches releases scheduled between from and to, both inclusive.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, from, to time.Time) ([]models.EventRecord, error)
}

// SyncTypeEvents is the sync_status key of the calendar dataset.
const SyncTypeEvents = "events"
