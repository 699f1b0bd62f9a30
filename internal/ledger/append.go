package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/softgrove/graft/internal/model"
)

// AppendRequest carries one fact to append.
type AppendRequest struct {
	SubjectID string
	FactType  string
	Payload   any

	// Amends optionally names the prior fact this one supersedes.
	Amends string
}

// Append writes one fact inside the staged transaction. With Amends set,
// the prior fact must exist (not_found otherwise) and must not already
// carry an amendment recorded at or after this one (conflict otherwise);
// on success the prior row's superseded_by is repointed here.
func (t *Tx) Append(ctx context.Context, req AppendRequest) (model.Fact, error) {
	return appendFact(ctx, t.tx, t.store, req)
}

func appendFact(ctx context.Context, q dbtx, s *Store, req AppendRequest) (model.Fact, error) {
	if req.SubjectID == "" {
		return model.Fact{}, model.NewInvalidArgument("append: subject_id is required")
	}
	if req.FactType == "" {
		return model.Fact{}, model.NewInvalidArgument("append: fact_type is required")
	}

	now := s.clock.Now()
	id := s.newID()

	if req.Amends != "" {
		if err := checkAmendable(ctx, q, req.Amends, now, id); err != nil {
			return model.Fact{}, err
		}
	}

	// Next seq comes from the table inside the transaction. The store is
	// single-writer, so MAX(seq)+1 cannot race.
	var seq int64
	if err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM facts`).Scan(&seq); err != nil {
		return model.Fact{}, model.WrapInternal(err, "append: next seq")
	}

	payloadJSON, err := model.EncodePayload(req.Payload)
	if err != nil {
		return model.Fact{}, model.NewInvalidArgument("append: payload is not JSON-representable: %v", err)
	}

	hash, err := model.FactIntegrityHash(req.SubjectID, req.FactType, req.Payload, req.Amends, seq)
	if err != nil {
		return model.Fact{}, model.NewInvalidArgument("append: payload is not hashable: %v", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO facts
		(id, subject_id, fact_type, payload, seq, recorded_at, amends, superseded_by, integrity_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, NULL, ?)
	`,
		id,
		req.SubjectID,
		req.FactType,
		payloadJSON,
		seq,
		now.UnixMicro(),
		nullString(req.Amends),
		hash,
	)
	if err != nil {
		return model.Fact{}, model.WrapInternal(err, "append: insert fact")
	}

	if req.Amends != "" {
		// The one UPDATE the ledger ever performs.
		if _, err := q.ExecContext(ctx,
			`UPDATE facts SET superseded_by = ? WHERE id = ?`, id, req.Amends); err != nil {
			return model.Fact{}, model.WrapInternal(err, "append: repoint superseded_by")
		}
	}

	return model.Fact{
		ID:            id,
		SubjectID:     req.SubjectID,
		FactType:      req.FactType,
		Payload:       req.Payload,
		Seq:           seq,
		RecordedAt:    now,
		Amends:        req.Amends,
		IntegrityHash: hash,
	}, nil
}

// checkAmendable enforces the amendment rules against the prior fact.
func checkAmendable(ctx context.Context, q dbtx, priorID string, now time.Time, newID string) error {
	var exists int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM facts WHERE id = ?`, priorID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return model.NewNotFound("fact %s", priorID)
	}
	if err != nil {
		return model.WrapInternal(err, "append: load prior fact")
	}

	// Newest existing amendment of the prior fact, if any. Conflict when
	// it is at or after the incoming one; timestamp order decides, ties
	// by id so the outcome never depends on arrival order.
	var latestID string
	var latestMicros int64
	err = q.QueryRowContext(ctx, `
		SELECT id, recorded_at FROM facts
		WHERE amends = ?
		ORDER BY recorded_at DESC, id COLLATE BINARY DESC
		LIMIT 1
	`, priorID).Scan(&latestID, &latestMicros)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return model.WrapInternal(err, "append: load existing amendments")
	}

	latest := time.UnixMicro(latestMicros).UTC()
	if latest.After(now) || (latest.Equal(now) && latestID > newID) {
		return model.NewConflict("fact %s already amended by %s", priorID, latestID).
			WithDetail("amended_by", latestID)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
