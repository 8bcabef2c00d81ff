package errors

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// FormatForCLI renders an error for terminal output: message, optional hint,
// then the code.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	ze, ok := As(err)
	if !ok {
		ze = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", ze.Message)
	if ze.Suggestion != "" {
		fmt.Fprintf(&sb, "  Hint: %s\n", ze.Suggestion)
	}
	fmt.Fprintf(&sb, "  Code: %s\n", ze.Code)
	return sb.String()
}

// jsonError is the JSON representation of an error.
type jsonError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Category   string            `json:"category"`
	Severity   string            `json:"severity"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	Cause      string            `json:"cause,omitempty"`
	Retryable  bool              `json:"retryable"`
}

// FormatJSON returns a JSON representation of the error for --format json.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	ze, ok := As(err)
	if !ok {
		ze = Wrap(ErrCodeInternal, err)
	}

	je := jsonError{
		Code:       ze.Code,
		Message:    ze.Message,
		Category:   string(ze.Category),
		Severity:   string(ze.Severity),
		Details:    ze.Details,
		Suggestion: ze.Suggestion,
		Retryable:  ze.Retryable,
	}
	if ze.Cause != nil {
		je.Cause = ze.Cause.Error()
	}

	return json.Marshal(je)
}

// LogAttrs returns slog attributes describing err. Details are emitted in key
// order so log lines are stable.
func LogAttrs(err error) []slog.Attr {
	if err == nil {
		return nil
	}

	ze, ok := As(err)
	if !ok {
		return []slog.Attr{slog.String("error", err.Error())}
	}

	attrs := []slog.Attr{
		slog.String("error_code", ze.Code),
		slog.String("error", ze.Message),
		slog.String("category", string(ze.Category)),
		slog.String("severity", string(ze.Severity)),
	}
	if ze.Cause != nil {
		attrs = append(attrs, slog.String("cause", ze.Cause.Error()))
	}

	keys := make([]string, 0, len(ze.Details))
	for k := range ze.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attrs = append(attrs, slog.String("detail_"+k, ze.Details[k]))
	}
	return attrs
}
