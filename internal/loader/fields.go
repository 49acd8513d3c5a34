package loader

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/transit-payment-reports/internal/types"
)

// dateLayouts are tried in order. Year and month are read from the value as
// written, so an offset in an RFC 3339 value never moves a payment into a
// different month.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
}

// record is one entry of a source, independent of the source format. Field
// names are stored lower-cased so XML attributes, XML elements and CSV or
// XLSX headers all match the same way.
type record struct {
	source string
	number int
	fields map[string]string
}

func newRecord(source string, number int) record {
	return record{source: source, number: number, fields: make(map[string]string)}
}

func (r record) set(name, value string) {
	r.fields[strings.ToLower(strings.TrimSpace(name))] = strings.TrimSpace(value)
}

func (r record) malformed(field, value, reason string, err error) error {
	return &types.MalformedInputError{
		Source: r.source,
		Record: r.number,
		Field:  field,
		Value:  value,
		Reason: reason,
		Err:    err,
	}
}

// lookup returns the first non-empty value among the given field names.
func (r record) lookup(names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := r.fields[strings.ToLower(name)]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// requiredText returns a field that must be present and non-empty.
func (r record) requiredText(field string) (string, error) {
	v, ok := r.lookup(field)
	if !ok {
		return "", r.malformed(field, "", "required field is missing", nil)
	}
	return v, nil
}

// optionalText returns the first present alias, or "".
func (r record) optionalText(fields ...string) string {
	v, _ := r.lookup(fields...)
	return v
}

func (r record) integer(field string) (int, error) {
	raw, err := r.requiredText(field)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, r.malformed(field, raw, "not an integer", nil)
	}
	return n, nil
}

func (r record) money(field string) (decimal.Decimal, error) {
	raw, err := r.requiredText(field)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, r.malformed(field, raw, "not a decimal number", nil)
	}
	if d.IsNegative() {
		return decimal.Zero, r.malformed(field, raw, "must not be negative", nil)
	}
	return d, nil
}

func (r record) date(field string) (time.Time, error) {
	raw, err := r.requiredText(field)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, r.malformed(field, raw, "not a calendar date", nil)
}
