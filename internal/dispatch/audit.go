package dispatch

import (
	"context"
	"time"

	"github.com/softgrove/graft/internal/ledger"
)

// Audit fact types. The action fact's subject is the acting principal;
// the action_result fact's subject is the action fact itself, which is
// how the result points back at its operation inside the ledger.
const (
	FactTypeAction       = "action"
	FactTypeActionResult = "action_result"
)

// anonymousActor stands in as the audit subject when an operation
// carries no actor.
const anonymousActor = "anonymous"

// WithAudit records every dispatched operation in the ledger: an action
// fact describing the request, then an action_result fact carrying the
// outcome. The pair is written in its own transaction after the
// operation settles, so failed operations leave a trail too.
func WithAudit() Option {
	return func(d *Dispatcher) {
		d.audit = true
	}
}

// writeAudit appends the action/action_result pair for one dispatch.
// Audit facts go straight to the ledger, not through the verb registry,
// so they are never themselves audited. Failures are logged, never
// surfaced: the operation's envelope is already decided.
func (d *Dispatcher) writeAudit(ctx context.Context, op string, p Payload, actor string, env Envelope, elapsed time.Duration) {
	subject := actor
	if subject == "" {
		subject = anonymousActor
	}

	tx, err := d.ledger.Begin(ctx)
	if err != nil {
		d.logger.Error("audit: begin transaction", "op", op, "error", err)
		return
	}
	defer tx.Rollback()

	action, err := tx.Append(ctx, ledger.AppendRequest{
		SubjectID: subject,
		FactType:  FactTypeAction,
		Payload: map[string]any{
			"op":     op,
			"actor":  actor,
			"params": map[string]any(p),
		},
	})
	if err != nil {
		d.logger.Error("audit: append action", "op", op, "error", err)
		return
	}

	outcome := map[string]any{
		"status":      "ok",
		"duration_ms": elapsed.Milliseconds(),
	}
	if !env.OK {
		outcome["status"] = "error"
		outcome["error_kind"] = env.Error.Kind
		outcome["error"] = env.Error.Message
	}
	if _, err := tx.Append(ctx, ledger.AppendRequest{
		SubjectID: action.ID,
		FactType:  FactTypeActionResult,
		Payload:   outcome,
	}); err != nil {
		d.logger.Error("audit: append result", "op", op, "error", err)
		return
	}

	if err := tx.Commit(); err != nil {
		d.logger.Error("audit: commit", "op", op, "error", err)
	}
}
