package validation

import (
	"fmt"
	"regexp"
	"strconv"
)

// periodRe matches D[D]-M[M]/D[D]-M[M] with day 1-31 and month 1-12.
var periodRe = regexp.MustCompile(
	`^(0?[1-9]|[12][0-9]|3[01])-(0?[1-9]|1[0-2])/(0?[1-9]|[12][0-9]|3[01])-(0?[1-9]|1[0-2])$`)

// Period is the yearly validity span of an attestation. Days are not checked
// against the month length.
type Period struct {
	StartDay   int `json:"start_day"`
	StartMonth int `json:"start_month"`
	EndDay     int `json:"end_day"`
	EndMonth   int `json:"end_month"`
}

// String formats the period with two-digit fields.
func (p Period) String() string {
	return fmt.Sprintf("%02d-%02d/%02d-%02d", p.StartDay, p.StartMonth, p.EndDay, p.EndMonth)
}

// ValidPeriod reports whether s is a well-formed attestation period.
func ValidPeriod(s string) bool {
	return periodRe.MatchString(s)
}

// ParsePeriod parses an attestation period such as "05-03/20-09" or "5-3/20-9".
func ParsePeriod(s string) (Period, error) {
	m := periodRe.FindStringSubmatch(s)
	if m == nil {
		return Period{}, fmt.Errorf("period %q is not in the D-M/D-M form", s)
	}
	var fields [4]int
	for i := range fields {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return Period{}, fmt.Errorf("period %q: %w", s, err)
		}
		fields[i] = n
	}
	return Period{
		StartDay:   fields[0],
		StartMonth: fields[1],
		EndDay:     fields[2],
		EndMonth:   fields[3],
	}, nil
}
