package dispatch

import (
	"context"

	"github.com/softgrove/graft/internal/ledger"
	"github.com/softgrove/graft/internal/model"
	"github.com/softgrove/graft/internal/txn"
)

type appendRequest struct {
	Subject  string `json:"subject"`
	FactType string `json:"fact_type"`
	Payload  any    `json:"payload"`
	Amends   string `json:"amends,omitempty"`
}

func handleAppend(ctx context.Context, d *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[appendRequest](p)
	if err != nil {
		return nil, err
	}
	if err := d.checkTag(model.KindFact, req.FactType); err != nil {
		return nil, err
	}

	// Facts are about entities; a fact about nothing is rejected before
	// it hits the ledger. Forgotten subjects still accept facts (their
	// history continues), and subjects created earlier in this same
	// operation are visible through the staged transaction.
	if _, err := h.Graph.GetEntityAny(ctx, req.Subject); err != nil {
		return nil, err
	}

	return h.Ledger.Append(ctx, ledger.AppendRequest{
		SubjectID: req.Subject,
		FactType:  req.FactType,
		Payload:   req.Payload,
		Amends:    req.Amends,
	})
}

func handleGetFact(ctx context.Context, _ *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[targetRequest](p)
	if err != nil {
		return nil, err
	}
	return h.Ledger.Get(ctx, req.Target)
}

type queryFactsRequest struct {
	Subject  string `json:"subject"`
	FactType string `json:"fact_type,omitempty"`
}

type factsResult struct {
	Facts []model.Fact `json:"facts"`
	Count int          `json:"count"`
}

func handleQueryFacts(ctx context.Context, _ *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[queryFactsRequest](p)
	if err != nil {
		return nil, err
	}
	facts, err := h.Ledger.Query(ctx, ledger.QueryRequest{
		SubjectID: req.Subject,
		FactType:  req.FactType,
	})
	if err != nil {
		return nil, err
	}
	return factsResult{Facts: facts, Count: len(facts)}, nil
}

type historyResult struct {
	Facts []model.Fact `json:"facts"`
}

func handleHistory(ctx context.Context, _ *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[targetRequest](p)
	if err != nil {
		return nil, err
	}
	facts, err := h.Ledger.History(ctx, req.Target)
	if err != nil {
		return nil, err
	}
	return historyResult{Facts: facts}, nil
}
