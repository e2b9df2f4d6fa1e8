// Package health reports liveness and readiness of the API and its backing services.
package health

import (
	"context"
	"time"
)

// Pinger checks database connectivity (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker checks that the policy engine can evaluate (e.g. the OPA evaluator).
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
	checkTimeout   = 2 * time.Second
)

// Report is the body of GET /health.
type Report struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Healthy reports whether every readiness check passed.
func (r *Report) Healthy() bool { return r.Status == StatusOK }

// Checker runs the readiness checks. Nil dependencies are skipped.
type Checker struct {
	service string
	db      Pinger
	policy  PolicyChecker
	now     func() time.Time
}

// NewChecker returns a Checker for service.
func NewChecker(service string, db Pinger, policy PolicyChecker) *Checker {
	return &Checker{service: service, db: db, policy: policy, now: time.Now}
}

// Check pings each dependency with a short timeout. Failures degrade the report; they are never returned as errors.
func (c *Checker) Check(ctx context.Context) *Report {
	r := &Report{
		Status:    StatusOK,
		Service:   c.service,
		Timestamp: c.now().UTC(),
		Checks:    map[string]string{},
	}
	if c.db != nil {
		r.record("database", probe(ctx, c.db.PingContext))
	}
	if c.policy != nil {
		r.record("policy", probe(ctx, c.policy.HealthCheck))
	}
	return r
}

func (r *Report) record(name string, err error) {
	if err != nil {
		r.Checks[name] = "error: " + err.Error()
		r.Status = StatusDegraded
		return
	}
	r.Checks[name] = StatusOK
}

func probe(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return fn(ctx)
}
