package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// DocumentKind selects the extraction target shape.
type DocumentKind string

const (
	KindCV  DocumentKind = "cv"
	KindJob DocumentKind = "job"
)

// Client abstracts completion providers for document extraction.
type Client interface {
	Extract(ctx context.Context, input ExtractInput) (json.RawMessage, error)
}

// Prober checks provider reachability before an extraction call. Clients
// that cannot probe simply don't implement it.
type Prober interface {
	Probe(ctx context.Context) error
}

// ExtractInput captures the inputs needed for one extraction request.
type ExtractInput struct {
	Text          string
	Kind          DocumentKind
	Category      Category
	PromptVersion string
}

type fixJSONKey struct{}

// WithFixJSON returns a context signaling a fix-JSON retry with the given raw output.
func WithFixJSON(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, fixJSONKey{}, raw)
}

// FixJSONFromContext returns the raw JSON to repair, if any.
func FixJSONFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(fixJSONKey{})
	raw, ok := val.(string)
	return raw, ok
}

type extraSystemKey struct{}

// WithExtraSystemMessage prepends an additional system message to the next request.
func WithExtraSystemMessage(ctx context.Context, content string) context.Context {
	return context.WithValue(ctx, extraSystemKey{}, content)
}

// ExtraSystemMessageFromContext returns the extra system message, if any.
func ExtraSystemMessageFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(extraSystemKey{})
	content, ok := val.(string)
	return content, ok
}

type promptHashSinkKey struct{}

// WithPromptHashSink returns a context carrying a destination for the hash of
// the prompt actually sent, so callers can persist it for traceability.
func WithPromptHashSink(ctx context.Context, sink *string) context.Context {
	return context.WithValue(ctx, promptHashSinkKey{}, sink)
}

// PromptHashSinkFromContext returns the prompt hash sink, if any.
func PromptHashSinkFromContext(ctx context.Context) (*string, bool) {
	val := ctx.Value(promptHashSinkKey{})
	sink, ok := val.(*string)
	return sink, ok
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient is a stub implementation used when no provider is configured.
type PlaceholderClient struct{}

// Extract returns ErrNotImplemented.
func (PlaceholderClient) Extract(ctx context.Context, input ExtractInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotImplemented
}
