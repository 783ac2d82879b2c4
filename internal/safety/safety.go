// File path: internal/safety/safety.go
package safety

import (
	"fmt"
	"regexp"
	"strings"
)

// Violation describes why a statement was rejected. It is produced before
// any fingerprinting, caching, or ledger interaction so a rejected statement
// can never be cached as if it were valid.
type Violation struct {
	Reason     string
	Suggestion string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("unsafe statement: %s", v.Reason)
}

var mutationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bDROP\s+TABLE\b`),
	regexp.MustCompile(`(?i)\bDELETE\s+FROM\b`),
	regexp.MustCompile(`(?i)\bTRUNCATE\b`),
	regexp.MustCompile(`(?i)\bALTER\s+TABLE\b`),
	regexp.MustCompile(`(?i)\bCREATE\s+TABLE\b`),
	regexp.MustCompile(`(?i)\bINSERT\s+INTO\b`),
	regexp.MustCompile(`(?i)\bUPDATE\s+\w+\s+SET\b`),
	regexp.MustCompile(`(?i)\bGRANT\b`),
	regexp.MustCompile(`(?i)\bREVOKE\b`),
}

var (
	lineComment  = regexp.MustCompile(`--.*`)
	blockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// Check is a pure predicate over the statement text. It rejects empty
// payloads, schema- or data-mutating operations, and payloads smuggling more
// than one statement. No state, no I/O.
func Check(statement string) error {
	trimmed := strings.TrimSpace(statement)
	if trimmed == "" {
		return &Violation{
			Reason:     "statement is empty",
			Suggestion: "provide a single read-only SELECT statement",
		}
	}
	stripped := Sanitize(trimmed)
	for _, pattern := range mutationPatterns {
		if pattern.MatchString(stripped) {
			return &Violation{
				Reason:     fmt.Sprintf("statement contains a mutating operation (%s)", patternLabel(pattern)),
				Suggestion: "rephrase the question so it only reads data, e.g. ask for counts or listings",
			}
		}
	}
	if containsMultipleStatements(stripped) {
		return &Violation{
			Reason:     "payload contains more than one statement",
			Suggestion: "submit one statement at a time",
		}
	}
	return nil
}

const (
	minQuestionLength = 3
	maxQuestionLength = 1000
)

// ValidateQuestion trims and bounds-checks a natural language question.
func ValidateQuestion(question string) (string, error) {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return "", fmt.Errorf("question cannot be empty")
	}
	if len(trimmed) < minQuestionLength {
		return "", fmt.Errorf("question too short (minimum %d characters)", minQuestionLength)
	}
	if len(trimmed) > maxQuestionLength {
		return "", fmt.Errorf("question too long (maximum %d characters)", maxQuestionLength)
	}
	return trimmed, nil
}

// Sanitize strips SQL comments and collapses whitespace so a statement can
// be displayed or matched without hidden content.
func Sanitize(statement string) string {
	cleaned := blockComment.ReplaceAllString(statement, " ")
	cleaned = lineComment.ReplaceAllString(cleaned, " ")
	return strings.Join(strings.Fields(cleaned), " ")
}

func containsMultipleStatements(statement string) bool {
	trimmed := strings.TrimSuffix(strings.TrimSpace(statement), ";")
	return strings.Contains(trimmed, ";")
}

func patternLabel(pattern *regexp.Regexp) string {
	label := pattern.String()
	label = strings.TrimPrefix(label, "(?i)")
	label = strings.ReplaceAll(label, `\b`, "")
	label = strings.ReplaceAll(label, `\s+`, " ")
	label = strings.ReplaceAll(label, `\w+`, "...")
	return strings.TrimSpace(label)
}
