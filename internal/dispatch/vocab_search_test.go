package dispatch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softgrove/graft/internal/model"
	"github.com/softgrove/graft/internal/vocab"
)

func strictVocab(t *testing.T) *vocab.Set {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocab.cue")
	require.NoError(t, os.WriteFile(path, []byte(`
vocabulary: {
	entity_types: {person: {}, project: {}}
	relation_kinds: works_on: {source: "person", target: "project"}
	fact_types: note: {}
}
`), 0o644))
	s, err := vocab.Compile(path)
	require.NoError(t, err)
	s.Strict = true
	return s
}

func TestStrictVocabularyRejectsUnknownTags(t *testing.T) {
	d := newTestDispatcher(t, WithVocabulary(strictVocab(t)))

	fail(t, d, "create", Payload{"type": "robot"}, "", model.ErrInvalidArgument)

	a := entityID(t, ok(t, d, "create", Payload{"type": "person"}, ""))
	b := entityID(t, ok(t, d, "create", Payload{"type": "project"}, ""))

	fail(t, d, "link", Payload{"kind": "owns", "source": a, "target": b}, "", model.ErrInvalidArgument)
	ok(t, d, "link", Payload{"kind": "works_on", "source": a, "target": b}, "")

	fail(t, d, "append", Payload{"subject": a, "fact_type": "rumor", "payload": "x"}, "", model.ErrInvalidArgument)
	ok(t, d, "append", Payload{"subject": a, "fact_type": "note", "payload": "x"}, "")
}

func TestNonStrictVocabularyAccepts(t *testing.T) {
	s := strictVocab(t)
	s.Strict = false
	d := newTestDispatcher(t, WithVocabulary(s))

	ok(t, d, "create", Payload{"type": "robot"}, "")
}

// stubSearch returns canned matches or a canned error.
type stubSearch struct {
	matches []Match
	err     error

	gotQuery string
	gotLimit int
}

func (s *stubSearch) Search(_ context.Context, query string, limit int) ([]Match, error) {
	s.gotQuery = query
	s.gotLimit = limit
	return s.matches, s.err
}

func TestSearchUnregisteredWithoutProvider(t *testing.T) {
	d := newTestDispatcher(t)

	fail(t, d, "search", Payload{"query": "ada"}, "", model.ErrUnknownOperation)
}

func TestSearchDelegatesToProvider(t *testing.T) {
	stub := &stubSearch{matches: []Match{{Kind: model.KindEntity, ID: "node-0001", Score: 0.9}}}
	d := newTestDispatcher(t, WithSearchProvider(stub))

	res := ok(t, d, "search", Payload{"query": "ada", "limit": 5}, "").(searchResult)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "node-0001", res.Matches[0].ID)
	assert.Equal(t, "ada", stub.gotQuery)
	assert.Equal(t, 5, stub.gotLimit)
}

func TestSearchProviderErrorSurfacesAsInternal(t *testing.T) {
	stub := &stubSearch{err: errors.New("index offline")}
	d := newTestDispatcher(t, WithSearchProvider(stub))

	info := fail(t, d, "search", Payload{"query": "ada"}, "", model.ErrInternal)
	assert.Contains(t, info.Message, "index offline")
}
