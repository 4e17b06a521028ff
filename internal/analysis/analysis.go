// Package analysis turns raw calendar releases into chartable indicator data.
//
// It chains the classifier, the value normaliser, gap repair, scale grouping
// and coverage analysis. Everything here is a pure function of its inputs;
// callers own the dataset and any caching of it.
package analysis

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/multierr"

	"econdash/internal/analysis/classify"
	"econdash/internal/analysis/coverage"
	"econdash/internal/analysis/normalize"
	"econdash/internal/errors"
	"econdash/internal/models"
)

// Pipeline holds the immutable settings shared by the entry points.
type Pipeline struct {
	classifier *classify.Classifier
	regions    []string
	groups     []coverage.EquivalenceGroup
	validate   *validator.Validate
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClassifier replaces the default rule table.
func WithClassifier(c *classify.Classifier) Option {
	return func(p *Pipeline) { p.classifier = c }
}

// WithRegions sets the tracked regions used for coverage.
func WithRegions(regions []string) Option {
	return func(p *Pipeline) { p.regions = append([]string(nil), regions...) }
}

// WithEquivalenceGroups sets the coverage equivalence clusters.
func WithEquivalenceGroups(groups []coverage.EquivalenceGroup) Option {
	return func(p *Pipeline) { p.groups = append([]coverage.EquivalenceGroup(nil), groups...) }
}

// DefaultRegions are the currencies tracked when none are configured.
var DefaultRegions = []string{"USD", "JPY", "EUR", "GBP", "AUD"}

// New creates a pipeline. Without options it uses the built-in rules, the
// default regions and the default equivalence groups.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		classifier: classify.Default(),
		regions:    append([]string(nil), DefaultRegions...),
		groups:     coverage.DefaultEquivalenceGroups(),
		validate:   newValidator(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// newValidator adds the notblank tag, which rejects empty and
// whitespace-only strings.
func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Classifier returns the classifier in use.
func (p *Pipeline) Classifier() *classify.Classifier { return p.classifier }

// Regions returns the tracked regions.
func (p *Pipeline) Regions() []string { return append([]string(nil), p.regions...) }

// EquivalenceGroups returns the coverage clusters.
func (p *Pipeline) EquivalenceGroups() []coverage.EquivalenceGroup {
	return append([]coverage.EquivalenceGroup(nil), p.groups...)
}

// ValidateRecord reports every shape problem of r as *errors.InvalidRecordError.
// index is the position of r in its batch.
func (p *Pipeline) ValidateRecord(index int, r models.EventRecord) error {
	var errs error
	if err := p.validate.Struct(r); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = multierr.Append(errs, errors.NewInvalidRecordError(index, r.ID, strings.ToLower(fe.Field()), "failed "+fe.Tag()))
			}
		} else {
			errs = multierr.Append(errs, errors.NewInvalidRecordError(index, r.ID, "record", err.Error()))
		}
	}
	if r.Date.IsZero() {
		errs = multierr.Append(errs, errors.NewInvalidRecordError(index, r.ID, "date", "missing"))
	}
	return errs
}

// ClassifyAndNormalize classifies and normalises a batch. Records with a
// missing currency or date are left out of the result and reported together
// in the returned error; each one can be recovered with errors.As as an
// *errors.InvalidRecordError. The input is not modified.
func (p *Pipeline) ClassifyAndNormalize(records []models.EventRecord) ([]models.NormalizedRecord, error) {
	out := make([]models.NormalizedRecord, 0, len(records))
	var errs error
	for i, r := range records {
		if err := p.ValidateRecord(i, r); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		out = append(out, normalize.Record(p.classifier.ClassifyRecord(r)))
	}
	return out, errs
}

// FullCoverage returns the tags present in every tracked region.
func (p *Pipeline) FullCoverage(records []models.NormalizedRecord) []string {
	return coverage.FullCoverage(records, p.regions, p.groups)
}

// CoverageMatrix lists per-tag region availability.
func (p *Pipeline) CoverageMatrix(records []models.NormalizedRecord) []coverage.TagCoverage {
	return coverage.NewIndex(records, p.regions).Matrix(p.groups)
}

var defaultPipeline = New()

// ClassifyAndNormalize runs the default pipeline.
func ClassifyAndNormalize(records []models.EventRecord) ([]models.NormalizedRecord, error) {
	return defaultPipeline.ClassifyAndNormalize(records)
}

// InvalidRecords extracts the individual record errors from err.
func InvalidRecords(err error) []*errors.InvalidRecordError {
	var out []*errors.InvalidRecordError
	for _, e := range multierr.Errors(err) {
		var ire *errors.InvalidRecordError
		if errors.As(e, &ire) {
			out = append(out, ire)
		}
	}
	return out
}
