package records

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/poiesic/finrag/core"
	"github.com/shopspring/decimal"
)

// dateLayouts are tried in order. The short forms are what spreadsheet
// applications render for date-formatted cells.
var dateLayouts = []string{
	core.DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01-02-06",
	"1/2/2006",
	"1/2/06",
}

var errNotInteger = errors.New("not an integer")

// isBlank reports whether a cell holds no value. Exports from dataframe
// tools write missing values as None or NaN.
func isBlank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "nan", "nat", "null":
		return true
	}
	return false
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Truncate(24 * time.Hour), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1":
		return true, nil
	case "false", "no", "n", "0":
		return false, nil
	}
	return false, fmt.Errorf("unrecognized boolean %q", s)
}

// row reads typed cells from one data row. The first failure is kept in
// err and later reads become no-ops.
type row struct {
	table string
	line  int
	cells []string
	index map[string]int
	err   error
}

func (r *row) raw(col string) string {
	pos, ok := r.index[col]
	if !ok || pos >= len(r.cells) {
		return ""
	}
	if isBlank(r.cells[pos]) {
		return ""
	}
	return strings.TrimSpace(r.cells[pos])
}

func (r *row) fail(col, value string, cause error) {
	if r.err != nil {
		return
	}
	if cause != nil {
		r.err = fmt.Errorf("%w: %s row %d column %s: %q: %v", core.ErrInvalidField, r.table, r.line, col, value, cause)
		return
	}
	r.err = fmt.Errorf("%w: %s row %d column %s: value required", core.ErrInvalidField, r.table, r.line, col)
}

func (r *row) str(col string) string {
	return r.raw(col)
}

func (r *row) required(col string) string {
	v := r.raw(col)
	if v == "" {
		r.fail(col, v, nil)
	}
	return v
}

// date parses an optional date; blank yields the zero time.
func (r *row) date(col string) time.Time {
	v := r.raw(col)
	if v == "" || r.err != nil {
		return time.Time{}
	}
	t, err := parseDate(v)
	if err != nil {
		r.fail(col, v, err)
	}
	return t
}

func (r *row) requiredDate(col string) time.Time {
	if r.required(col) == "" {
		return time.Time{}
	}
	return r.date(col)
}

// amount parses an optional amount; blank yields zero.
func (r *row) amount(col string) decimal.Decimal {
	v := r.raw(col)
	if v == "" || r.err != nil {
		return decimal.Zero
	}
	d, err := parseAmount(v)
	if err != nil {
		r.fail(col, v, err)
	}
	return d
}

func (r *row) requiredAmount(col string) decimal.Decimal {
	if r.required(col) == "" {
		return decimal.Zero
	}
	return r.amount(col)
}

func (r *row) boolean(col string) bool {
	v := r.raw(col)
	if v == "" || r.err != nil {
		return false
	}
	b, err := parseBool(v)
	if err != nil {
		r.fail(col, v, err)
	}
	return b
}

func (r *row) requiredInt(col string) int {
	v := r.required(col)
	if v == "" || r.err != nil {
		return 0
	}
	// Numeric cells sometimes come back as "2024.0"
	n, err := strconv.ParseFloat(v, 64)
	if err != nil || n != float64(int(n)) {
		r.fail(col, v, errNotInteger)
		return 0
	}
	return int(n)
}

// empty reports whether every cell in the row is blank.
func (r *row) empty() bool {
	for _, c := range r.cells {
		if !isBlank(c) {
			return false
		}
	}
	return true
}
