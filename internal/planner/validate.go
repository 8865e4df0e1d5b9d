package planner

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"alcyxob/runplan/internal/domain"
)

// MalformedDocumentError means a brace-delimited span was found but it is not a JSON object.
type MalformedDocumentError struct {
	Err error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed plan document: %v", e.Err)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

// NormalizeReport lists what NormalizePlan had to repair. It is a soft warning channel:
// a non-empty report never fails the run.
type NormalizeReport struct {
	MissingWeeks     []string // Week keys absent (or not arrays) in the document
	DroppedEntries   int      // Day entries without a usable day/type
	CoercedDurations int      // duration_minutes values that were not already non-negative integers
}

// Clean reports whether the document needed no repair.
func (r NormalizeReport) Clean() bool {
	return len(r.MissingWeeks) == 0 && r.DroppedEntries == 0 && r.CoercedDurations == 0
}

// ParseDocument strictly decodes an extracted document. Anything that is not exactly one
// JSON object fails with *MalformedDocumentError.
func ParseDocument(doc string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(doc))
	dec.UseNumber()

	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, &MalformedDocumentError{Err: err}
	}
	if out == nil {
		return nil, &MalformedDocumentError{Err: errors.New("document is null")}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, &MalformedDocumentError{Err: errors.New("unexpected data after the document")}
	}
	return out, nil
}

// NormalizePlan shapes a parsed document into a WorkoutPlan. It never fails:
// missing weeks become empty sequences, unusable entries are dropped and
// durations are coerced, with every repair counted in the report.
func NormalizePlan(doc map[string]any) (domain.WorkoutPlan, NormalizeReport) {
	plan := domain.NewWorkoutPlan()
	var report NormalizeReport

	for _, key := range domain.WeekKeys {
		entries, ok := doc[key].([]any)
		if !ok {
			report.MissingWeeks = append(report.MissingWeeks, key)
			continue
		}

		days := make([]domain.WorkoutDay, 0, len(entries))
		for _, e := range entries {
			entry, ok := e.(map[string]any)
			if !ok {
				report.DroppedEntries++
				continue
			}
			day := stringField(entry, "day")
			kind := stringField(entry, "type")
			if day == "" || kind == "" {
				report.DroppedEntries++
				continue
			}
			minutes, coerced := coerceMinutes(entry["duration_minutes"])
			if coerced {
				report.CoercedDurations++
			}
			days = append(days, domain.WorkoutDay{
				Day:             day,
				Type:            kind,
				DurationMinutes: minutes,
				Description:     stringField(entry, "description"),
			})
		}
		plan.SetWeek(key, days)
	}
	return plan, report
}

// ReadPlan runs extraction, strict parsing and normalization over a raw model reply.
func ReadPlan(raw string) (domain.WorkoutPlan, NormalizeReport, error) {
	doc, err := ExtractDocument(raw)
	if err != nil {
		return domain.WorkoutPlan{}, NormalizeReport{}, err
	}
	parsed, err := ParseDocument(doc)
	if err != nil {
		return domain.WorkoutPlan{}, NormalizeReport{}, err
	}
	plan, report := NormalizePlan(parsed)
	return plan, report, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

// coerceMinutes returns a non-negative integer and whether the input had to be changed to get it.
func coerceMinutes(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			if i < 0 {
				return 0, true
			}
			return int(i), false
		}
		f, err := n.Float64()
		if err != nil {
			return 0, true
		}
		return clampFloat(f), true
	case float64:
		if n >= 0 && n == math.Trunc(n) {
			return int(n), false
		}
		return clampFloat(n), true
	case int:
		if n < 0 {
			return 0, true
		}
		return n, false
	case string:
		return leadingInt(n), true
	default:
		return 0, true
	}
}

func clampFloat(f float64) int {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(f))
}

// leadingInt reads the digits at the start of strings like "30" or "45 min".
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	var digits bytes.Buffer
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		digits.WriteRune(r)
	}
	if digits.Len() == 0 {
		return 0
	}
	i, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return i
}
