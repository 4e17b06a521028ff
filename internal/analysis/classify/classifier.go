// Package classify assigns canonical indicator tags to calendar releases.
//
// A Classifier walks an ordered list of rules and returns the tag of the first
// rule whose pattern matches the event name. Names that match nothing are
// tagged with their cleaned form, so identical releases from different
// regions still line up under one tag.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"econdash/internal/errors"
	"econdash/internal/models"
)

// monthSuffix matches a trailing reference month such as "(Feb)". It is case
// sensitive so that "(YoY)" and "(MoM)" survive.
var monthSuffix = regexp.MustCompile(`\s*\([A-Z][a-z]{2}\)\s*$`)

// Rule maps event names matching Pattern to Tag.
type Rule struct {
	Tag     string
	Pattern *regexp.Regexp
}

// NewRule compiles expr as a case-insensitive pattern for tag.
func NewRule(tag, expr string) (Rule, error) {
	if strings.TrimSpace(tag) == "" {
		return Rule{}, fmt.Errorf("%w: empty tag for pattern %q", errors.ErrInvalidRule, expr)
	}
	if strings.TrimSpace(expr) == "" {
		return Rule{}, fmt.Errorf("%w: empty pattern for tag %q", errors.ErrInvalidRule, tag)
	}
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return Rule{}, fmt.Errorf("%w: tag %q: %v", errors.ErrInvalidRule, tag, err)
	}
	return Rule{Tag: tag, Pattern: re}, nil
}

// MustRule is like NewRule but panics on error. It is meant for static tables.
func MustRule(tag, expr string) Rule {
	r, err := NewRule(tag, expr)
	if err != nil {
		panic(err)
	}
	return r
}

// Classifier is an ordered, first-match-wins decision list. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	rules []Rule
}

// New creates a classifier over rules, evaluated in the given order.
func New(rules []Rule) *Classifier {
	c := &Classifier{rules: make([]Rule, len(rules))}
	copy(c.rules, rules)
	return c
}

// Default returns a classifier over DefaultRules.
func Default() *Classifier {
	return New(DefaultRules())
}

// Rules returns a copy of the rule list in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Tags returns the canonical tags in rule order.
func (c *Classifier) Tags() []string {
	tags := make([]string, len(c.rules))
	for i, r := range c.rules {
		tags[i] = r.Tag
	}
	return tags
}

// Match returns the tag of the first rule matching event.
func (c *Classifier) Match(event string) (string, bool) {
	for _, r := range c.rules {
		if r.Pattern.MatchString(event) {
			return r.Tag, true
		}
	}
	return "", false
}

// Classify returns the canonical tag for event, or its cleaned name when no
// rule matches. An empty name yields the empty tag.
func (c *Classifier) Classify(event string) string {
	if tag, ok := c.Match(event); ok {
		return tag
	}
	return CleanEventName(event)
}

// ClassifyRecord derives the classified form of r. r is not modified.
func (c *Classifier) ClassifyRecord(r models.EventRecord) models.ClassifiedRecord {
	return models.ClassifiedRecord{
		EventRecord:  r,
		Tag:          c.Classify(r.Event),
		CleanedEvent: CleanEventName(r.Event),
	}
}

// CleanEventName strips trailing reference months and surrounding whitespace.
// "CPI (YoY) (Mar)" becomes "CPI (YoY)". The result is a fixed point.
func CleanEventName(name string) string {
	s := strings.TrimSpace(name)
	for {
		next := strings.TrimSpace(monthSuffix.ReplaceAllString(s, ""))
		if next == s {
			return s
		}
		s = next
	}
}
