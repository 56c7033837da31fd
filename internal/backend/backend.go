// Package backend sends composed prompts to a language model and returns
// the raw text output. Implementations share one error taxonomy: deadline
// overruns surface as ErrTimeout, everything else as ErrBackend.
package backend

import "context"

// Request is one generation call: the role's instructions plus the
// rendered conversation input.
type Request struct {
	Instructions string
	Input        string
}

// Generator produces model output for a request. Implementations must be
// safe for concurrent use; all pipeline runs share one client.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
