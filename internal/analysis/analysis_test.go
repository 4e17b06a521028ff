package analysis

import (
	"reflect"
	"testing"
	"time"

	"econdash/internal/analysis/classify"
	"econdash/internal/analysis/scale"
	"econdash/internal/errors"
	"econdash/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func event(id, currency string, date time.Time, name, actual string) models.EventRecord {
	return models.EventRecord{
		ID:         id,
		Date:       date,
		Currency:   currency,
		Importance: models.ImportanceHigh,
		Event:      name,
		Actual:     actual,
	}
}

func TestClassifyAndNormalize_CPIScenario(t *testing.T) {
	records := []models.EventRecord{
		event("1", "USD", day(2024, 3, 12), "CPI (YoY) (Mar)", "3.20%"),
		event("2", "JPY", day(2024, 3, 22), "BoJ Core CPI (YoY) (Mar)", "2.10%"),
	}

	got, err := ClassifyAndNormalize(records)
	if err != nil {
		t.Fatalf("ClassifyAndNormalize: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records", len(got))
	}
	if got[0].Tag != "CPI (YoY)" || got[1].Tag != "Core CPI (YoY)" {
		t.Errorf("tags = %q, %q", got[0].Tag, got[1].Tag)
	}
	if got[0].Actual.Value.Float != 3.2 || got[1].Actual.Value.Float != 2.1 {
		t.Errorf("values = %v, %v", got[0].Actual.Value, got[1].Actual.Value)
	}

	var family bool
	for _, g := range New().EquivalenceGroups() {
		var hits int
		for _, tag := range g.Tags {
			if tag == got[0].Tag || tag == got[1].Tag {
				hits++
			}
		}
		family = family || hits == 2
	}
	if !family {
		t.Errorf("%q and %q should share an equivalence group", got[0].Tag, got[1].Tag)
	}

	p := New()
	usd := p.CurrencyView(got, "USD", models.ColumnActual, Filter{})
	jpy := p.CurrencyView(got, "JPY", models.ColumnActual, Filter{})
	if len(usd.Panels) != 1 || len(jpy.Panels) != 1 {
		t.Fatalf("expected one panel per currency: %+v %+v", usd.Panels, jpy.Panels)
	}

	// Grouping both tags together, as a cross-currency comparison does.
	stats := map[string]models.IndicatorStats{
		got[0].Tag: usd.Stats[got[0].Tag],
		got[1].Tag: jpy.Stats[got[1].Tag],
	}
	groups := scale.Group(stats)
	if len(groups) != 1 || groups[0].Kind != models.ScalePercentSmall {
		t.Fatalf("groups = %+v", groups)
	}
	if groups[0].Label != "Small percentage: 2.10~3.20%" {
		t.Errorf("Label = %q", groups[0].Label)
	}
}

func TestClassifyAndNormalize_InvalidRecords(t *testing.T) {
	records := []models.EventRecord{
		event("ok", "USD", day(2024, 1, 5), "Nonfarm Payrolls (Dec)", "216K"),
		event("no-currency", "", day(2024, 1, 5), "CPI (YoY)", "3.4%"),
		event("no-date", "EUR", time.Time{}, "CPI (YoY)", "2.9%"),
		event("neither", "", time.Time{}, "CPI (YoY)", "2.9%"),
		event("blank-currency", "   ", day(2024, 1, 5), "CPI (YoY)", "3.4%"),
	}

	got, err := ClassifyAndNormalize(records)
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, errors.ErrInvalidRecord) {
		t.Errorf("error should match ErrInvalidRecord: %v", err)
	}
	if len(got) != 1 || got[0].ID != "ok" || got[0].Tag != "Employment Change" {
		t.Errorf("valid records = %+v", got)
	}
	if got[0].Actual.Value.Float != 216 {
		t.Errorf("216K should normalise to 216, got %v", got[0].Actual.Value)
	}

	invalid := InvalidRecords(err)
	if len(invalid) != 5 {
		t.Fatalf("got %d invalid record errors: %v", len(invalid), invalid)
	}
	fields := map[string][]string{}
	for _, e := range invalid {
		fields[e.RecordID] = append(fields[e.RecordID], e.Field)
	}
	if !reflect.DeepEqual(fields["no-currency"], []string{"currency"}) {
		t.Errorf("no-currency fields = %v", fields["no-currency"])
	}
	if !reflect.DeepEqual(fields["blank-currency"], []string{"currency"}) {
		t.Errorf("blank-currency fields = %v", fields["blank-currency"])
	}
	if !reflect.DeepEqual(fields["no-date"], []string{"date"}) {
		t.Errorf("no-date fields = %v", fields["no-date"])
	}
	if len(fields["neither"]) != 2 {
		t.Errorf("neither fields = %v", fields["neither"])
	}
	if invalid[0].Index != 1 {
		t.Errorf("Index = %d, want 1", invalid[0].Index)
	}
}

func TestClassifyAndNormalize_DoesNotMutateInput(t *testing.T) {
	records := []models.EventRecord{event("1", "USD", day(2024, 3, 12), "CPI (YoY) (Mar)", "3.20%")}
	snapshot := append([]models.EventRecord(nil), records...)
	if _, err := ClassifyAndNormalize(records); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(records, snapshot) {
		t.Errorf("input mutated")
	}
}

func TestPipeline_WithClassifier(t *testing.T) {
	p := New(WithClassifier(classify.New([]classify.Rule{classify.MustRule("Inflation", `CPI`)})))
	got, err := p.ClassifyAndNormalize([]models.EventRecord{
		event("1", "USD", day(2024, 3, 12), "Core CPI (YoY) (Mar)", "3.8%"),
		event("2", "USD", day(2024, 3, 12), "Retail Sales (MoM) (Feb)", "0.6%"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Tag != "Inflation" || got[1].Tag != "Retail Sales (MoM)" {
		t.Errorf("tags = %q, %q", got[0].Tag, got[1].Tag)
	}
}
