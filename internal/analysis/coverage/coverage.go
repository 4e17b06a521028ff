// Package coverage finds indicators that are published in every tracked region.
package coverage

import (
	"sort"

	"econdash/internal/models"
)

// EquivalenceGroup lists tags that count as one indicator for coverage.
type EquivalenceGroup struct {
	Name string   `mapstructure:"name" json:"name"`
	Tags []string `mapstructure:"tags" json:"tags"`
}

// DefaultEquivalenceGroups returns the built-in clusters of comparable tags.
func DefaultEquivalenceGroups() []EquivalenceGroup {
	return []EquivalenceGroup{
		{Name: "CPI", Tags: []string{"CPI (YoY)", "National CPI (YoY)", "Core CPI (YoY)"}},
		{Name: "CPI_MoM", Tags: []string{"CPI (MoM)", "National CPI (MoM)", "Core CPI (MoM)"}},
		{Name: "Tokyo_CPI", Tags: []string{"Tokyo CPI (YoY)", "CPI (YoY)"}},
		{Name: "Building_Permits", Tags: []string{"Building Permits", "Housing Starts"}},
		{Name: "Factory_Orders", Tags: []string{"Factory Orders", "Industrial Production (MoM)", "Industrial Production (YoY)"}},
		{Name: "Housing_Prices", Tags: []string{"Housing Prices (MoM)", "Housing Prices (YoY)"}},
		{Name: "PPI", Tags: []string{"PPI (MoM)", "PPI (YoY)"}},
		{Name: "Retail_Sales", Tags: []string{"Retail Sales (MoM)", "Retail Sales (YoY)"}},
	}
}

// regionSet is a set of region codes.
type regionSet map[string]struct{}

func (s regionSet) add(r string) { s[r] = struct{}{} }

func (s regionSet) covers(want regionSet) bool {
	for r := range want {
		if _, ok := s[r]; !ok {
			return false
		}
	}
	return true
}

func (s regionSet) sorted() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// Index maps each tag to the tracked regions that published it.
type Index struct {
	tracked regionSet
	byTag   map[string]regionSet
}

// NewIndex builds the tag to region index. Records from regions outside
// regions are ignored. The degenerate empty tag is indexed like any other.
func NewIndex(records []models.NormalizedRecord, regions []string) *Index {
	idx := &Index{tracked: regionSet{}, byTag: map[string]regionSet{}}
	for _, r := range regions {
		idx.tracked.add(r)
	}

	for _, rec := range records {
		if _, ok := idx.tracked[rec.Currency]; !ok {
			continue
		}
		set, ok := idx.byTag[rec.Tag]
		if !ok {
			set = regionSet{}
			idx.byTag[rec.Tag] = set
		}
		set.add(rec.Currency)
	}
	return idx
}

// Regions returns the sorted tracked regions that published tag.
func (idx *Index) Regions(tag string) []string {
	return idx.byTag[tag].sorted()
}

// Tags returns every indexed tag, sorted.
func (idx *Index) Tags() []string {
	tags := make([]string, 0, len(idx.byTag))
	for t := range idx.byTag {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// FullCoverage returns the sorted tags whose own region set, or the union
// over an equivalence group they belong to, equals the tracked set. An empty
// tracked set yields no tags.
func (idx *Index) FullCoverage(groups []EquivalenceGroup) []string {
	if len(idx.tracked) == 0 {
		return []string{}
	}

	full := map[string]bool{}
	for tag, set := range idx.byTag {
		if set.covers(idx.tracked) {
			full[tag] = true
		}
	}

	for _, g := range groups {
		union := regionSet{}
		var present []string
		for _, tag := range g.Tags {
			set, ok := idx.byTag[tag]
			if !ok {
				continue
			}
			present = append(present, tag)
			for r := range set {
				union.add(r)
			}
		}
		if len(present) == 0 || !union.covers(idx.tracked) {
			continue
		}
		for _, tag := range present {
			full[tag] = true
		}
	}

	out := make([]string, 0, len(full))
	for tag := range full {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// FullCoverage returns the tags available in every region of regions,
// crediting equivalence groups.
func FullCoverage(records []models.NormalizedRecord, regions []string, groups []EquivalenceGroup) []string {
	return NewIndex(records, regions).FullCoverage(groups)
}

// TagCoverage is one row of a coverage matrix.
type TagCoverage struct {
	Tag     string   `json:"tag"`
	Regions []string `json:"regions"`
	Missing []string `json:"missing"`
	Full    bool     `json:"full"`
}

// Matrix lists every tag with the tracked regions it has and lacks. Full
// reflects FullCoverage, including equivalence credit.
func (idx *Index) Matrix(groups []EquivalenceGroup) []TagCoverage {
	full := map[string]bool{}
	for _, tag := range idx.FullCoverage(groups) {
		full[tag] = true
	}

	tags := idx.Tags()
	rows := make([]TagCoverage, 0, len(tags))
	for _, tag := range tags {
		have := idx.byTag[tag]
		var missing []string
		for _, r := range idx.tracked.sorted() {
			if _, ok := have[r]; !ok {
				missing = append(missing, r)
			}
		}
		rows = append(rows, TagCoverage{
			Tag:     tag,
			Regions: have.sorted(),
			Missing: missing,
			Full:    full[tag],
		})
	}
	return rows
}
