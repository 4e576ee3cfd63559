package logging

import "context"

type contextKey string

const fieldsKey contextKey = "log_fields"

// Fields are attached to every log line written with a context carrying them
type Fields struct {
	SessionID string
	ThreadID  string
	RunID     string
	Component string
}

// WithFields merges fields into the context; non-empty values win.
func WithFields(ctx context.Context, fields Fields) context.Context {
	merged := GetFields(ctx)
	if fields.SessionID != "" {
		merged.SessionID = fields.SessionID
	}
	if fields.ThreadID != "" {
		merged.ThreadID = fields.ThreadID
	}
	if fields.RunID != "" {
		merged.RunID = fields.RunID
	}
	if fields.Component != "" {
		merged.Component = fields.Component
	}
	return context.WithValue(ctx, fieldsKey, merged)
}

// GetFields returns the fields stored in ctx, or the zero value
func GetFields(ctx context.Context) Fields {
	if ctx == nil {
		return Fields{}
	}
	if fields, ok := ctx.Value(fieldsKey).(Fields); ok {
		return fields
	}
	return Fields{}
}

// Truncate shortens s to maxLen runes, appending "..." when cut.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
