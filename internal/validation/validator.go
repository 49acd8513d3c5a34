// =============================================================================
// Transit Payment Reports - Integrity Checks
// =============================================================================
//
// This module checks the references between loaded records:
//   - Passenger.CategoryId must name a loaded category
//   - PaymentRecord.PassengerId must name a loaded passenger
//   - PaymentRecord.RouteNumber must name a loaded route (when routes are loaded)
//
// Field-level problems never reach this module; the loader rejects them.
// Dangling references are not fatal: the trip count report ignores payments
// of unknown passengers and the monthly report drops payments it cannot price.
// The checks make those silent drops visible.
//
// ERROR HANDLING:
//   - Issues are collected, never returned as a failure
//   - Repeated references to the same missing id are reported once, with a count
//   - Every issue names the record kind, first record and field involved
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/transit-payment-reports/internal/types"
	"github.com/ginjaninja78/transit-payment-reports/pkg/utils"
)

// Severity levels.
const (
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// =============================================================================
// ISSUE TYPES
// =============================================================================

// Issue represents one integrity finding.
type Issue struct {
	// Severity is "warning" for dangling references and "info" for
	// observations that do not affect any report.
	Severity string

	// Kind is the entity the reference points at.
	Kind types.ReferenceKind

	// Source is the record kind holding the reference, e.g. "payment".
	Source string

	// Field is the referencing field name as it appears in the input.
	Field string

	// ID is the referenced id that could not be resolved.
	ID int

	// Count is how many records carry this reference.
	Count int

	// FirstRecord is the 1-based position of the first such record.
	FirstRecord int

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (i *Issue) Error() string {
	return fmt.Sprintf("[%s] %s", strings.ToUpper(i.Severity), i.Message)
}

// =============================================================================
// CHECK RESULT
// =============================================================================

// Result contains the results of the integrity check.
type Result struct {
	// Issues are ordered by source, kind and referenced id.
	Issues []*Issue

	// WarningCount is the number of warnings.
	WarningCount int

	// InfoCount is the number of informational issues.
	InfoCount int

	// UnpricedPayments counts payments the monthly report cannot price.
	UnpricedPayments int
}

// IsClean reports whether no warnings were found.
func (r *Result) IsClean() bool {
	return r.WarningCount == 0
}

// =============================================================================
// CHECKER
// =============================================================================

// Options selects which references are checked. A reference kind whose
// source was not loaded cannot be checked.
type Options struct {
	// Categories enables the passenger -> category check.
	Categories bool

	// Routes enables the payment -> route check.
	Routes bool
}

// Check runs the integrity checks over ds.
//
// PARAMETERS:
//   - ds: The loaded dataset.
//   - options: Which optional sources were loaded.
//
// RETURNS:
//   - The check result. It is never nil.
func Check(ds *types.Dataset, options Options) *Result {
	c := newCollector()

	passengers := make(map[int]types.Passenger, len(ds.Passengers))
	for _, p := range ds.Passengers {
		passengers[p.ID] = p
	}
	categories := make(map[int]bool, len(ds.Categories))
	for _, cat := range ds.Categories {
		categories[cat.ID] = true
	}
	routes := make(map[int]bool, len(ds.Routes))
	for _, r := range ds.Routes {
		routes[r.Number] = true
	}

	if options.Categories {
		for i, p := range ds.Passengers {
			if !categories[p.CategoryID] {
				c.add(SeverityWarning, types.CategoryReference, "passenger", "CategoryId", p.CategoryID, i+1)
			}
		}
	}

	result := &Result{}
	usedCategories := make(map[int]bool)

	for i, pay := range ds.Payments {
		p, ok := passengers[pay.PassengerID]
		if !ok {
			c.add(SeverityWarning, types.PassengerReference, "payment", "PassengerId", pay.PassengerID, i+1)
			result.UnpricedPayments++
		} else if options.Categories {
			if categories[p.CategoryID] {
				usedCategories[p.CategoryID] = true
			} else {
				result.UnpricedPayments++
			}
		}

		if options.Routes && !routes[pay.RouteNumber] {
			c.add(SeverityWarning, types.RouteReference, "payment", "RouteNumber", pay.RouteNumber, i+1)
		}
	}

	if options.Categories && len(ds.Payments) > 0 {
		for _, cat := range ds.Categories {
			if !usedCategories[cat.ID] {
				c.addInfo(fmt.Sprintf("category %d (%s) has no priced payments", cat.ID, cat.Name))
			}
		}
	}

	result.Issues = c.issues()
	for _, issue := range result.Issues {
		if issue.Severity == SeverityWarning {
			result.WarningCount++
		} else {
			result.InfoCount++
		}
	}

	return result
}

// collector folds repeated references into one issue.
type collector struct {
	byKey map[string]*Issue
	infos []*Issue
}

func newCollector() *collector {
	return &collector{byKey: make(map[string]*Issue)}
}

func (c *collector) add(severity string, kind types.ReferenceKind, source, field string, id, record int) {
	key := source + "|" + string(kind) + "|" + strconv.Itoa(id)
	if issue, ok := c.byKey[key]; ok {
		issue.Count++
		return
	}
	c.byKey[key] = &Issue{
		Severity:    severity,
		Kind:        kind,
		Source:      source,
		Field:       field,
		ID:          id,
		Count:       1,
		FirstRecord: record,
	}
}

func (c *collector) addInfo(message string) {
	c.infos = append(c.infos, &Issue{Severity: SeverityInfo, Source: "category", Message: message, Count: 1})
}

func (c *collector) issues() []*Issue {
	out := make([]*Issue, 0, len(c.byKey)+len(c.infos))
	for _, issue := range c.byKey {
		issue.Message = fmt.Sprintf("%s %s %d references unknown %s (%d record(s), first at %d)",
			issue.Source, issue.Field, issue.ID, issue.Kind, issue.Count, issue.FirstRecord)
		out = append(out, issue)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ID < b.ID
	})
	return append(out, c.infos...)
}

// =============================================================================
// OUTPUT
// =============================================================================

// FormatIssues formats issues for display or logging.
//
// RETURNS:
//   - A formatted string containing all issues.
func FormatIssues(issues []*Issue) string {
	if len(issues) == 0 {
		return "No integrity issues."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Integrity check found %d issue(s):\n\n", len(issues)))

	for i, issue := range issues {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, issue.Error()))
	}

	return builder.String()
}

// LogEntries converts issues into issue log entries.
func LogEntries(issues []*Issue, at time.Time) []utils.IssueLogEntry {
	entries := make([]utils.IssueLogEntry, 0, len(issues))
	for _, issue := range issues {
		entry := utils.IssueLogEntry{
			Timestamp:    at,
			Severity:     issue.Severity,
			Kind:         string(issue.Kind),
			Source:       issue.Source,
			Message:      issue.Message,
			RecordNumber: issue.FirstRecord,
			FieldName:    issue.Field,
		}
		if issue.Field != "" {
			entry.FieldValue = strconv.Itoa(issue.ID)
		}
		if entry.Kind == "" {
			entry.Kind = "observation"
		}
		entries = append(entries, entry)
	}
	return entries
}

// LoadErrorEntry converts a load failure into an issue log entry, naming the
// record and field when the failure carries them.
func LoadErrorEntry(err error, at time.Time) utils.IssueLogEntry {
	entry := utils.IssueLogEntry{
		Timestamp: at,
		Severity:  "error",
		Kind:      "load",
		Message:   err.Error(),
	}

	var malformed *types.MalformedInputError
	var missing *types.MissingSourceError
	switch {
	case errors.As(err, &malformed):
		entry.Kind = "malformed input"
		entry.Source = malformed.Source
		entry.RecordNumber = malformed.Record
		entry.FieldName = malformed.Field
		entry.FieldValue = malformed.Value
	case errors.As(err, &missing):
		entry.Kind = "missing source"
		entry.Source = missing.Path
	}
	return entry
}
