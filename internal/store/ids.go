package store

import (
	"strings"

	"github.com/google/uuid"

	"econdash/internal/models"
)

var eventNamespace = uuid.MustParse("6f1c2a3e-8d5b-4c1e-9a7f-3b2d4e5f6a70")

// EventID derives a stable identifier from the fields that identify a
// release, so the same release fetched twice upserts instead of duplicating.
func EventID(r models.EventRecord) string {
	key := strings.Join([]string{
		strings.ToUpper(strings.TrimSpace(r.Currency)),
		r.Date.Format("2006-01-02"),
		strings.TrimSpace(r.Time),
		strings.TrimSpace(r.Event),
	}, "|")
	return uuid.NewSHA1(eventNamespace, []byte(key)).String()
}

// EnsureIDs returns a copy of records where every empty ID is filled by EventID.
func EnsureIDs(records []models.EventRecord) []models.EventRecord {
	out := make([]models.EventRecord, len(records))
	copy(out, records)
	for i := range out {
		if strings.TrimSpace(out[i].ID) == "" {
			out[i].ID = EventID(out[i])
		}
	}
	return out
}
