package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	"github.com/rs/zerolog/log"
)

const (
	policyPackage = "maintenance.report_export"
	policyQuery   = "data.maintenance.report_export"
)

// Default Rego policy: every caller that holds generate_report may export everything.
const defaultRegoPolicy = `package maintenance.report_export

default allow := true
default max_rows := 0
default reason := ""
`

// OPAEvaluator evaluates the report export policy using OPA Rego.
type OPAEvaluator struct {
	policy string
}

// NewOPAEvaluator returns an OPA-based export evaluator. An empty policy uses the built-in default.
func NewOPAEvaluator(policy string) *OPAEvaluator {
	if strings.TrimSpace(policy) == "" {
		policy = defaultRegoPolicy
	}
	return &OPAEvaluator{policy: policy}
}

// LoadPolicyFile reads a Rego module from path and checks that it compiles and declares the
// export package. An empty path returns "".
func LoadPolicyFile(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read policy file: %w", err)
	}
	mod, err := ast.ParseModule(path, string(b))
	if err != nil {
		return "", fmt.Errorf("parse policy file: %w", err)
	}
	if got := strings.TrimPrefix(mod.Package.Path.String(), "data."); got != policyPackage {
		return "", fmt.Errorf("policy file declares package %s, want %s", got, policyPackage)
	}
	if _, err := ast.CompileModules(map[string]string{path: string(b)}); err != nil {
		return "", fmt.Errorf("compile policy file: %w", err)
	}
	return string(b), nil
}

// HealthCheck verifies that the in-process OPA Rego engine can compile and evaluate the default policy.
// Does not touch the configured policy. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	compiler, err := ast.CompileModules(map[string]string{"policy_0.rego": defaultRegoPolicy})
	if err != nil {
		return fmt.Errorf("compile default policy: %w", err)
	}
	q := rego.New(
		rego.Query(policyQuery+".allow"),
		rego.Compiler(compiler),
		rego.Input(buildInput(ExportInput{Role: "admin"})),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return fmt.Errorf("eval default policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return fmt.Errorf("policy query returned no result")
	}
	return nil
}

// EvaluateExport evaluates the configured policy. When the policy cannot be evaluated the default
// decision (allow, unlimited) is returned and the failure is logged.
func (e *OPAEvaluator) EvaluateExport(ctx context.Context, in ExportInput) (ExportDecision, error) {
	out, err := e.evaluate(ctx, e.policy, buildInput(in))
	if err != nil {
		log.Warn().Err(err).Str("component", "policy").Msg("export policy evaluation failed, using defaults")
		return defaultDecision(), nil
	}
	return out, nil
}

func buildInput(in ExportInput) map[string]interface{} {
	return map[string]interface{}{
		"user": map[string]interface{}{
			"username": in.Username,
			"role":     in.Role,
		},
		"report": map[string]interface{}{
			"type": in.Type,
			"rows": in.Rows,
		},
	}
}

func (e *OPAEvaluator) evaluate(ctx context.Context, policy string, input map[string]interface{}) (ExportDecision, error) {
	compiler, err := ast.CompileModules(map[string]string{"policy_0.rego": policy})
	if err != nil {
		return ExportDecision{}, fmt.Errorf("compile policy: %w", err)
	}
	q := rego.New(
		rego.Query(policyQuery),
		rego.Compiler(compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return ExportDecision{}, fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return ExportDecision{}, fmt.Errorf("policy query returned no result")
	}
	doc, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return ExportDecision{}, fmt.Errorf("policy document has type %T", rs[0].Expressions[0].Value)
	}

	out := defaultDecision()
	if v, ok := doc["allow"].(bool); ok {
		out.Allow = v
	}
	if v, ok := doc["reason"].(string); ok {
		out.Reason = v
	}
	switch v := doc["max_rows"].(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil && n > 0 {
			out.MaxRows = int(n)
		}
	case float64:
		if n := int(v); n > 0 {
			out.MaxRows = n
		}
	case int64:
		if v > 0 {
			out.MaxRows = int(v)
		}
	}
	return out, nil
}

func defaultDecision() ExportDecision {
	return ExportDecision{Allow: true}
}
