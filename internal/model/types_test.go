package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAttrsMerge(t *testing.T) {
	base := Attrs{"name": "Ada", "city": "London", "role": "engineer"}

	merged := base.Merge(Attrs{"city": "Berlin", "team": "graph"}, []string{"role"})

	assert.Equal(t, Attrs{"name": "Ada", "city": "Berlin", "team": "graph"}, merged)
	// Receiver untouched.
	assert.Equal(t, Attrs{"name": "Ada", "city": "London", "role": "engineer"}, base)
}

func TestAttrsMergeFromNil(t *testing.T) {
	var base Attrs
	merged := base.Merge(Attrs{"a": 1}, nil)
	assert.Equal(t, Attrs{"a": 1}, merged)
	assert.Nil(t, base)
}

func TestAttrsCloneNil(t *testing.T) {
	var a Attrs
	assert.Nil(t, a.Clone())
}

func TestEntityForgotten(t *testing.T) {
	e := Entity{ID: "e1"}
	assert.False(t, e.Forgotten())

	now := time.Now()
	e.ForgottenAt = &now
	assert.True(t, e.Forgotten())
}

func TestRelationAlive(t *testing.T) {
	r := Relation{ID: "r1"}
	assert.True(t, r.Alive())

	now := time.Now()
	r.UnlinkedAt = &now
	assert.False(t, r.Alive())
}

func TestFactCurrent(t *testing.T) {
	f := Fact{ID: "f1"}
	assert.True(t, f.Current())

	f.SupersededBy = "f2"
	assert.False(t, f.Current())
}

func TestPayloadRoundTrip(t *testing.T) {
	in := map[string]any{"text": "hello", "tags": []any{"a", "b"}}

	encoded, err := EncodePayload(in)
	assert.NoError(t, err)

	out, err := DecodePayload(encoded)
	assert.NoError(t, err)
	assert.Equal(t, "hello", out.(map[string]any)["text"])
}

func TestAttrsEncodeNilAsEmptyObject(t *testing.T) {
	encoded, err := EncodeAttrs(nil)
	assert.NoError(t, err)
	assert.Equal(t, "{}", encoded)

	decoded, err := DecodeAttrs(encoded)
	assert.NoError(t, err)
	assert.Empty(t, decoded)
}
