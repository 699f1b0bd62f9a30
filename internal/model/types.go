package model

import "time"

// Kind discriminates the record families a causal trace can visit and a
// track target can resolve to.
type Kind string

const (
	KindEntity   Kind = "entity"
	KindRelation Kind = "relation"
	KindFact     Kind = "fact"
)

// Attrs is the free-form attribute set carried by entities and relations.
// Values are anything JSON-representable.
type Attrs map[string]any

// Clone returns a copy whose top-level keys are independent of the
// original. Nested values are shared; edit semantics only replace whole
// keys, never mutate in place.
func (a Attrs) Clone() Attrs {
	if a == nil {
		return nil
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Merge applies set/unset edit semantics: keys in set are written over,
// keys in unset are removed. The receiver is not modified.
func (a Attrs) Merge(set Attrs, unset []string) Attrs {
	out := a.Clone()
	if out == nil {
		out = make(Attrs, len(set))
	}
	for k, v := range set {
		out[k] = v
	}
	for _, k := range unset {
		delete(out, k)
	}
	return out
}

// Entity is a typed node in the graph. Entities are never physically
// removed; forgetting sets ForgottenAt and hides the record from reads.
type Entity struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Attrs       Attrs      `json:"attrs"`
	Version     int64      `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ForgottenAt *time.Time `json:"forgotten_at,omitempty"`
}

// Forgotten reports whether the entity has been soft-deleted.
func (e Entity) Forgotten() bool {
	return e.ForgottenAt != nil
}

// Relation is a typed directed edge between two entities. Unlinking sets
// UnlinkedAt; the row stays readable for history and causal traces.
type Relation struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	SourceID   string     `json:"source_id"`
	TargetID   string     `json:"target_id"`
	Attrs      Attrs      `json:"attrs,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UnlinkedAt *time.Time `json:"unlinked_at,omitempty"`
}

// Alive reports whether the relation has not been unlinked.
func (r Relation) Alive() bool {
	return r.UnlinkedAt == nil
}

// Fact is one immutable ledger record. Amending appends a new fact that
// points back via Amends; the ledger repoints SupersededBy on the prior
// row and touches nothing else.
type Fact struct {
	ID            string    `json:"id"`
	SubjectID     string    `json:"subject_id"`
	FactType      string    `json:"fact_type"`
	Payload       any       `json:"payload"`
	Seq           int64     `json:"seq"`
	RecordedAt    time.Time `json:"recorded_at"`
	Amends        string    `json:"amends,omitempty"`
	SupersededBy  string    `json:"superseded_by,omitempty"`
	IntegrityHash string    `json:"integrity_hash"`
}

// Current reports whether no later amendment supersedes this fact.
func (f Fact) Current() bool {
	return f.SupersededBy == ""
}

// Frame is one (owner, scope) membership. At most one frame per owner
// carries Primary at any time.
type Frame struct {
	Owner     string    `json:"owner"`
	Scope     string    `json:"scope"`
	EnteredAt time.Time `json:"entered_at"`
	Primary   bool      `json:"primary"`
}

// CausalEvent is one step of a causal trace: a fact or relation that
// contributed to the traced target's state. Events are emitted
// oldest-first, ties broken by ID.
type CausalEvent struct {
	Kind      Kind      `json:"kind"`
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	SubjectID string    `json:"subject_id,omitempty"`
	SourceID  string    `json:"source_id,omitempty"`
	TargetID  string    `json:"target_id,omitempty"`
	Depth     int       `json:"depth"`
	At        time.Time `json:"at"`
}
