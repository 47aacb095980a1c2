// Package schedule computes occurrence times for cron-style interval
// expressions. Callers never see the underlying parser's types; the package
// exposes a single pure function over expression strings and time instants.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

var (
	// ErrInvalidExpression is returned when the expression cannot be parsed.
	ErrInvalidExpression = errors.New("invalid cron expression")
	// ErrUnsatisfiable is returned when a syntactically valid expression
	// denotes no reachable occurrence, e.g. "0 0 30 2 *".
	ErrUnsatisfiable = errors.New("cron expression has no future occurrence")
)

// standard five-field parser (minute hour dom month dow) with the usual
// step/range/list extensions and @-descriptors.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NextOccurrence returns the first occurrence of expr strictly after ref.
// Deterministic: it reads no clock other than ref. Expressions without an
// explicit TZ/CRON_TZ prefix are evaluated in UTC, never in the host's local
// zone.
func NextOccurrence(expr string, ref time.Time) (time.Time, error) {
	spec := expr
	if !strings.HasPrefix(spec, "TZ=") && !strings.HasPrefix(spec, "CRON_TZ=") {
		spec = "CRON_TZ=UTC " + spec
	}
	sched, err := parser.Parse(spec)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidExpression, err)
	}

	next := sched.Next(ref)
	if next.IsZero() {
		// the parser searches a bounded horizon and gives up with the
		// zero time for dates like Feb 30
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnsatisfiable, expr)
	}
	return next, nil
}

// Validate checks that expr parses and yields at least one occurrence.
// Used at creation time so execution never sees a bad expression.
func Validate(expr string) error {
	_, err := NextOccurrence(expr, time.Now())
	return err
}
