package dispatch

import (
	"context"

	"github.com/softgrove/graft/internal/txn"
)

type trackRequest struct {
	Target string `json:"target"`
	Depth  int    `json:"depth,omitempty"`
}

func handleTrack(ctx context.Context, d *Dispatcher, h *txn.Handles, p Payload, _ string) (any, error) {
	req, err := decode[trackRequest](p)
	if err != nil {
		return nil, err
	}
	// The walk reads through the operation's open transactions; a
	// store-level read here would wait forever on the connection those
	// transactions pin.
	res, err := d.tracer.TrackIn(ctx, h.Graph, h.Ledger, req.Target, req.Depth)
	if err != nil {
		return nil, err
	}
	d.metrics.ObserveTraceEvents(len(res.Events))
	return res, nil
}
