package llm

import (
	"context"
	"errors"

	"github.com/leadflow-dev/leadflow/pkg/schema"
)

// Client generates text from a system instruction and a user prompt.
// Agents treat any error as a signal to degrade to rule-based behavior;
// a dead model never fails a step by itself.
type Client interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// Unavailable builds the error returned when no usable model is
// configured (missing API key, open circuit).
func Unavailable(reason string) error {
	return schema.NewError(schema.ErrCodeUnavailable, reason)
}

// IsUnavailable reports whether err marks the model as unusable rather
// than a transient request failure.
func IsUnavailable(err error) bool {
	var flowErr *schema.FlowError
	return errors.As(err, &flowErr) && flowErr.Code == schema.ErrCodeUnavailable
}
