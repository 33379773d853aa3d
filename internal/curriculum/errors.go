package curriculum

import (
	"fmt"
	"strings"
)

// TopicError reports a build request that was rejected before any network call.
type TopicError struct {
	Topic  string
	Reason string
}

func (e *TopicError) Error() string {
	return fmt.Sprintf("invalid topic %q: %s", e.Topic, e.Reason)
}

// GenerationError reports generated text that could not be turned into a
// valid curriculum. Callers may retry the build.
type GenerationError struct {
	Stage   string   // extract, parse, schema, shape or generate
	Details []string // schema or shape violations, if any
	Err     error
}

func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("curriculum generation failed at ")
	b.WriteString(e.Stage)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Details) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(e.Details, "; "))
		b.WriteString(")")
	}
	return b.String()
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Retryable is always true: a new generation may well succeed.
func (e *GenerationError) Retryable() bool { return true }
