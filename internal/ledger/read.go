package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/softgrove/graft/internal/model"
)

// factColumns is the canonical column list for scanning facts.
const factColumns = `id, subject_id, fact_type, payload, seq, recorded_at, amends, superseded_by, integrity_hash`

// QueryRequest filters facts by subject and optionally by fact type.
type QueryRequest struct {
	SubjectID string
	FactType  string
}

// Get returns the fact with the given id.
// Returns not_found when the id is unknown. Amended facts stay readable;
// get on the original never reflects the amendment's payload.
func (s *Store) Get(ctx context.Context, id string) (model.Fact, error) {
	return getFact(ctx, s.db, id)
}

// Get is the in-transaction variant; it observes staged writes.
func (t *Tx) Get(ctx context.Context, id string) (model.Fact, error) {
	return getFact(ctx, t.tx, id)
}

// Query returns all facts for a subject in insertion order, optionally
// narrowed to one fact type. Superseded facts are included; callers see
// which is current from superseded_by.
func (s *Store) Query(ctx context.Context, req QueryRequest) ([]model.Fact, error) {
	return queryFacts(ctx, s.db, req)
}

// Query is the in-transaction variant; it observes staged writes.
func (t *Tx) Query(ctx context.Context, req QueryRequest) ([]model.Fact, error) {
	return queryFacts(ctx, t.tx, req)
}

// History returns every fact in the amend chain containing the given
// fact, oldest first. The chain root is reached by following amends
// pointers up, then all descendants are collected.
func (s *Store) History(ctx context.Context, factID string) ([]model.Fact, error) {
	return factHistory(ctx, s.db, factID)
}

// History is the in-transaction variant; it observes staged writes.
func (t *Tx) History(ctx context.Context, factID string) ([]model.Fact, error) {
	return factHistory(ctx, t.tx, factID)
}

// AmendmentsOf returns the facts that directly amend the given fact, in
// insertion order. Used by the causal tracer to walk amend ancestry.
func (s *Store) AmendmentsOf(ctx context.Context, factID string) ([]model.Fact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+factColumns+` FROM facts
		WHERE amends = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, factID)
	if err != nil {
		return nil, model.WrapInternal(err, "query amendments")
	}
	defer rows.Close()
	return collectFacts(rows)
}

func getFact(ctx context.Context, q dbtx, id string) (model.Fact, error) {
	row := q.QueryRowContext(ctx, `SELECT `+factColumns+` FROM facts WHERE id = ?`, id)
	f, err := scanFact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Fact{}, model.NewNotFound("fact %s", id)
	}
	if err != nil {
		return model.Fact{}, model.WrapInternal(err, "get fact")
	}
	return f, nil
}

func queryFacts(ctx context.Context, q dbtx, req QueryRequest) ([]model.Fact, error) {
	if req.SubjectID == "" {
		return nil, model.NewInvalidArgument("query facts: subject_id is required")
	}

	query := `SELECT ` + factColumns + ` FROM facts WHERE subject_id = ?`
	args := []any{req.SubjectID}
	if req.FactType != "" {
		query += ` AND fact_type = ?`
		args = append(args, req.FactType)
	}
	query += ` ORDER BY seq ASC, id COLLATE BINARY ASC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, model.WrapInternal(err, "query facts")
	}
	defer rows.Close()
	return collectFacts(rows)
}

func factHistory(ctx context.Context, q dbtx, factID string) ([]model.Fact, error) {
	// Walk up to the chain root. Chains are short; a loop of point reads
	// is simpler than a bidirectional CTE.
	rootID := factID
	for {
		var amends sql.NullString
		err := q.QueryRowContext(ctx, `SELECT amends FROM facts WHERE id = ?`, rootID).Scan(&amends)
		if errors.Is(err, sql.ErrNoRows) {
			if rootID == factID {
				return nil, model.NewNotFound("fact %s", factID)
			}
			return nil, model.WrapInternal(err, "fact history: broken amends chain at %s", rootID)
		}
		if err != nil {
			return nil, model.WrapInternal(err, "fact history: walk to root")
		}
		if !amends.Valid || amends.String == "" {
			break
		}
		rootID = amends.String
	}

	rows, err := q.QueryContext(ctx, `
		WITH RECURSIVE chain(id) AS (
			SELECT ?
			UNION
			SELECT f.id FROM facts f JOIN chain c ON f.amends = c.id
		)
		SELECT `+factColumns+` FROM facts
		WHERE id IN (SELECT id FROM chain)
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, rootID)
	if err != nil {
		return nil, model.WrapInternal(err, "fact history: collect chain")
	}
	defer rows.Close()
	return collectFacts(rows)
}

// rowScanner abstracts *sql.Row and *sql.Rows for the scan helper.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanFact(row rowScanner) (model.Fact, error) {
	var (
		f             model.Fact
		payloadJSON   string
		recordedMicro int64
		amends        sql.NullString
		supersededBy  sql.NullString
	)
	err := row.Scan(
		&f.ID,
		&f.SubjectID,
		&f.FactType,
		&payloadJSON,
		&f.Seq,
		&recordedMicro,
		&amends,
		&supersededBy,
		&f.IntegrityHash,
	)
	if err != nil {
		return model.Fact{}, err
	}

	payload, err := model.DecodePayload(payloadJSON)
	if err != nil {
		return model.Fact{}, err
	}
	f.Payload = payload
	f.RecordedAt = time.UnixMicro(recordedMicro).UTC()
	if amends.Valid {
		f.Amends = amends.String
	}
	if supersededBy.Valid {
		f.SupersededBy = supersededBy.String
	}
	return f, nil
}

// collectFacts drains rows into a slice. Returns an empty slice, not nil,
// when there are no rows.
func collectFacts(rows *sql.Rows) ([]model.Fact, error) {
	facts := make([]model.Fact, 0)
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			return nil, model.WrapInternal(err, "scan fact")
		}
		facts = append(facts, f)
	}
	if err := rows.Err(); err != nil {
		return nil, model.WrapInternal(err, "iterate facts")
	}
	return facts, nil
}
