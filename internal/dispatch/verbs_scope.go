package dispatch

import (
	"context"

	"github.com/softgrove/graft/internal/txn"
)

type scopeRequest struct {
	Scope string `json:"scope"`
}

func handleEnterScope(ctx context.Context, _ *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[scopeRequest](p)
	if err != nil {
		return nil, err
	}
	return h.Scope.EnterScope(req.Scope)
}

type leaveScopeResult struct {
	Left           string `json:"left"`
	PrimaryCleared bool   `json:"primary_cleared"`
}

func handleLeaveScope(ctx context.Context, _ *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[scopeRequest](p)
	if err != nil {
		return nil, err
	}
	f, err := h.Scope.LeaveScope(req.Scope)
	if err != nil {
		return nil, err
	}
	return leaveScopeResult{Left: f.Scope, PrimaryCleared: f.Primary}, nil
}

func handleFocusScope(ctx context.Context, _ *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[scopeRequest](p)
	if err != nil {
		return nil, err
	}
	return h.Scope.FocusScope(req.Scope)
}

type contextResult struct {
	Active  []string `json:"active"`
	Primary string   `json:"primary,omitempty"`
}

// handleContext takes no parameters. The empty-struct decode rejects
// any payload key, same as an unknown field on any other verb.
func handleContext(ctx context.Context, _ *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	if _, err := decode[struct{}](p); err != nil {
		return nil, err
	}
	res := contextResult{Active: h.Scope.Active()}
	if primary, ok := h.Scope.Primary(); ok {
		res.Primary = primary
	}
	return res, nil
}
