package types

import (
	"context"

	"github.com/tliron/glsp"
)

// RequestContext contains all request-scoped data for an LSP method call.
// It wraps both the server-wide context and the GLSP protocol context,
// and provides storage for request-scoped warnings.
type RequestContext struct {
	Server ServerContext // Server-wide context (documents, index, config)
	GLSP   *glsp.Context // GLSP protocol context (Notify, Call methods)

	ctx      context.Context
	warnings []error
}

// NewRequestContext creates a new request context
func NewRequestContext(server ServerContext, glsp *glsp.Context) *RequestContext {
	return &RequestContext{
		Server: server,
		GLSP:   glsp,
		ctx:    context.Background(),
	}
}

// Context returns the context blocking work in this request should honour
func (r *RequestContext) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext returns a copy of r that uses ctx
func (r *RequestContext) WithContext(ctx context.Context) *RequestContext {
	clone := *r
	clone.ctx = ctx
	return &clone
}

// AddWarning adds a non-fatal warning to this request.
// Warnings are logged by middleware after the handler returns.
func (r *RequestContext) AddWarning(err error) {
	if err != nil {
		r.warnings = append(r.warnings, err)
	}
}

// Warnings returns all warnings collected during this request.
// Returns nil if no warnings were added.
func (r *RequestContext) Warnings() []error {
	return r.warnings
}

// HasWarnings returns true if any warnings were collected
func (r *RequestContext) HasWarnings() bool {
	return len(r.warnings) > 0
}
