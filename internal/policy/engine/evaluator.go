package engine

import (
	"context"
)

// ExportInput describes a report export request as seen by the export policy.
type ExportInput struct {
	Username string
	Role     string
	Type     string
	Rows     int
}

// ExportDecision is the outcome of the export policy.
type ExportDecision struct {
	Allow bool
	// MaxRows caps the exported rows. 0 means unlimited.
	MaxRows int
	Reason  string
}

// Evaluator evaluates the report export policy using OPA or other engines.
type Evaluator interface {
	// EvaluateExport decides whether the caller may export and how many rows they get.
	EvaluateExport(ctx context.Context, in ExportInput) (ExportDecision, error)
}
