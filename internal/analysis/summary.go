package analysis

import (
	"sort"
	"time"

	"econdash/internal/models"
)

// TagCount is the number of releases under one tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Summary describes a normalised dataset.
type Summary struct {
	Records        int            `json:"records"`
	Currencies     []string       `json:"currencies"`
	Tags           []TagCount     `json:"tags"`
	Importance     map[string]int `json:"importance"`
	From           time.Time      `json:"from"`
	To             time.Time      `json:"to"`
	FullCoverage   []string       `json:"full_coverage"`
	MissingActual  int            `json:"missing_actual"`
	TrackedRegions []string       `json:"tracked_regions"`
}

// Summarize counts records, tags and importance levels and finds the date span.
func (p *Pipeline) Summarize(records []models.NormalizedRecord) Summary {
	s := Summary{
		Records:        len(records),
		Importance:     make(map[string]int),
		FullCoverage:   p.FullCoverage(records),
		TrackedRegions: p.Regions(),
	}

	currencies := make(map[string]bool)
	tags := make(map[string]int)
	for _, r := range records {
		currencies[r.Currency] = true
		tags[r.Tag]++
		s.Importance[r.Importance.String()]++
		if r.Actual.Value.IsMissing() {
			s.MissingActual++
		}
		if s.From.IsZero() || r.Date.Before(s.From) {
			s.From = r.Date
		}
		if r.Date.After(s.To) {
			s.To = r.Date
		}
	}

	s.Currencies = sortedKeys(currencies)
	for _, tag := range sortedKeys(tags) {
		s.Tags = append(s.Tags, TagCount{Tag: tag, Count: tags[tag]})
	}
	sort.SliceStable(s.Tags, func(i, j int) bool { return s.Tags[i].Count > s.Tags[j].Count })
	return s
}
