package assess

import (
	"errors"
	"fmt"

	"github.com/havenproj/haven/internal/domain"
)

var (
	// ErrUnknownKind is returned for an unsupported instrument.
	ErrUnknownKind = errors.New("unknown assessment type")

	// ErrItemCount is returned when the answer vector has the wrong length.
	ErrItemCount = errors.New("wrong number of item scores")

	// ErrItemValue is returned when an answer is outside the instrument's
	// valid per-item range.
	ErrItemValue = errors.New("item score out of range")

	// ErrSeverityLookup means a total matched no severity band. The band
	// tables are meant to be exhaustive, so this is a configuration
	// defect and must abort the scoring operation.
	ErrSeverityLookup = errors.New("no severity band for total score")
)

// Result is a scored assessment. Items reflects any reverse-scoring
// applied, so it is the vector to persist.
type Result struct {
	Kind     domain.AssessmentKind
	Total    int
	MaxScore int
	Severity string
	Items    []int

	// RiskSignal is the PHQ-9 self-harm item value; 0 for other kinds.
	RiskSignal int
}

// Score validates and scores an answer vector for the given instrument.
func Score(kind domain.AssessmentKind, items []int) (Result, error) {
	in, ok := Lookup(kind)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if len(items) != in.ItemCount() {
		return Result{}, fmt.Errorf("%w: %s requires %d, got %d",
			ErrItemCount, in.Title, in.ItemCount(), len(items))
	}
	for i, v := range items {
		if v < in.ItemMin || v > in.ItemMax {
			return Result{}, fmt.Errorf("%w: item %d = %d, valid range %d-%d",
				ErrItemValue, i+1, v, in.ItemMin, in.ItemMax)
		}
	}

	// Reverse-scored items flip before summation and the stored vector
	// reflects the flip.
	scored := make([]int, len(items))
	copy(scored, items)
	if in.ReverseItem > 0 {
		idx := in.ReverseItem - 1
		scored[idx] = in.ItemMax - scored[idx]
	}

	total := 0
	for _, v := range scored {
		total += v
	}

	severity, err := severityFor(in, total)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Kind:       kind,
		Total:      total,
		MaxScore:   in.MaxScore,
		Severity:   severity,
		Items:      scored,
		RiskSignal: riskSignal(in, items),
	}, nil
}

// SuicideRiskSignal returns the value of the designated self-harm item
// for the depression instrument, 0 for any other instrument or when the
// vector is too short. Pure read, no validation side effects.
func SuicideRiskSignal(kind domain.AssessmentKind, items []int) int {
	in, ok := Lookup(kind)
	if !ok {
		return 0
	}
	return riskSignal(in, items)
}

func riskSignal(in Instrument, items []int) int {
	if in.RiskItem == 0 || len(items) < in.RiskItem {
		return 0
	}
	return items[in.RiskItem-1]
}

func severityFor(in Instrument, total int) (string, error) {
	for _, b := range in.Bands {
		if total >= b.Min && total <= b.Max {
			return b.Label, nil
		}
	}
	return "", fmt.Errorf("%w: %s total %d", ErrSeverityLookup, in.Kind, total)
}
