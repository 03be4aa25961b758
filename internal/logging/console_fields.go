package logging

import "strings"

type infoField struct {
	label string
	value string
}

// infoHighlightKeys are rendered first, in this order, on info and above.
var infoHighlightKeys = []string{
	FieldAlert,
	FieldEventType,
	FieldDecisionType,
	FieldDecisionResult,
	FieldDecisionReason,
	"error",
	FieldErrorHint,
	FieldImpact,
	"show",
	"season",
	"episode",
	"title",
	"pattern_kind",
	"session_kind",
	"event_id",
	"league_id",
	"score",
}

func selectInfoFields(attrs []kv) []infoField {
	used := make([]bool, len(attrs))
	result := make([]infoField, 0, len(attrs))
	for _, key := range infoHighlightKeys {
		for idx, attr := range attrs {
			if used[idx] || attr.key != key {
				continue
			}
			used[idx] = true
			result = append(result, infoField{label: displayLabel(key), value: valueString(attr.value, false)})
			break
		}
	}
	for idx, attr := range attrs {
		if used[idx] || skipInfoKey(attr.key) {
			continue
		}
		result = append(result, infoField{label: displayLabel(attr.key), value: valueString(attr.value, false)})
	}
	return result
}

func skipInfoKey(key string) bool {
	switch key {
	case "", FieldComponent, FieldFile, FieldStage, FieldDepth, FieldCorrelationID:
		return true
	default:
		return false
	}
}

func displayLabel(key string) string {
	switch key {
	case FieldEventType:
		return "Event"
	case FieldDecisionType:
		return "Decision"
	case FieldDecisionResult:
		return "Result"
	case FieldDecisionReason:
		return "Reason"
	case FieldErrorHint:
		return "Hint"
	default:
		return titleizeKey(key)
	}
}

func titleizeKey(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	for i, part := range parts {
		parts[i] = strings.ToUpper(part[:1]) + strings.ToLower(part[1:])
	}
	return strings.Join(parts, " ")
}
