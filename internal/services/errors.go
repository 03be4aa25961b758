package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoMatch       = errors.New("no match")
	ErrRejected      = errors.New("record rejected")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTransient     = errors.New("transient failure")
	ErrRateLimited   = errors.New("rate limited")
)

// Outcome summarizes how processing a single file ended.
type Outcome string

const (
	OutcomeMatched  Outcome = "matched"
	OutcomeNoMatch  Outcome = "no_match"
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps a processing error to the outcome reported in logs and metrics.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeMatched
	case errors.Is(err, ErrNoMatch), errors.Is(err, ErrNotFound):
		return OutcomeNoMatch
	case errors.Is(err, ErrRejected):
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
