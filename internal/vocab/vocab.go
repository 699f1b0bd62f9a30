package vocab

import (
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/softgrove/graft/internal/model"
)

// EntityType is one declared entity type.
type EntityType struct {
	Name    string `json:"name"`
	Doc     string `json:"doc,omitempty"`
	Extends string `json:"extends,omitempty"`
}

// RelationKind is one declared relation kind with optional endpoint
// type constraints.
type RelationKind struct {
	Name   string `json:"name"`
	Doc    string `json:"doc,omitempty"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}

// FactType is one declared fact type.
type FactType struct {
	Name string `json:"name"`
	Doc  string `json:"doc,omitempty"`
}

// Set is a compiled vocabulary. The zero value (or a nil *Set) accepts
// everything.
type Set struct {
	Strict bool

	entityTypes   map[string]EntityType
	relationKinds map[string]RelationKind
	factTypes     map[string]FactType
}

// CompileError reports one vocabulary problem with its source location
// when CUE can provide one.
type CompileError struct {
	File    string
	Field   string
	Message string
}

func (e *CompileError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Compile loads and merges the given CUE files into one Set.
func Compile(paths ...string) (*Set, error) {
	s := &Set{
		entityTypes:   make(map[string]EntityType),
		relationKinds: make(map[string]RelationKind),
		factTypes:     make(map[string]FactType),
	}

	ctx := cuecontext.New()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &CompileError{File: path, Message: err.Error()}
		}

		v := ctx.CompileBytes(data, cue.Filename(path))
		if err := v.Err(); err != nil {
			return nil, &CompileError{File: path, Message: cueerrors.Details(err, nil)}
		}

		if err := s.mergeFile(path, v); err != nil {
			return nil, err
		}
	}

	if err := s.validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// mergeFile folds one file's declarations into the set, rejecting
// duplicates across files.
func (s *Set) mergeFile(path string, v cue.Value) error {
	root := v.LookupPath(cue.ParsePath("vocabulary"))
	if !root.Exists() {
		return &CompileError{File: path, Message: "no top-level vocabulary struct"}
	}

	entities := root.LookupPath(cue.ParsePath("entity_types"))
	if entities.Exists() {
		iter, err := entities.Fields()
		if err != nil {
			return &CompileError{File: path, Field: "entity_types", Message: err.Error()}
		}
		for iter.Next() {
			name := iter.Selector().Unquoted()
			if _, dup := s.entityTypes[name]; dup {
				return &CompileError{File: path, Field: "entity_types." + name, Message: "duplicate declaration"}
			}
			et := EntityType{Name: name}
			et.Doc, _ = stringField(iter.Value(), "doc")
			et.Extends, _ = stringField(iter.Value(), "extends")
			s.entityTypes[name] = et
		}
	}

	relations := root.LookupPath(cue.ParsePath("relation_kinds"))
	if relations.Exists() {
		iter, err := relations.Fields()
		if err != nil {
			return &CompileError{File: path, Field: "relation_kinds", Message: err.Error()}
		}
		for iter.Next() {
			name := iter.Selector().Unquoted()
			if _, dup := s.relationKinds[name]; dup {
				return &CompileError{File: path, Field: "relation_kinds." + name, Message: "duplicate declaration"}
			}
			rk := RelationKind{Name: name}
			rk.Doc, _ = stringField(iter.Value(), "doc")
			rk.Source, _ = stringField(iter.Value(), "source")
			rk.Target, _ = stringField(iter.Value(), "target")
			s.relationKinds[name] = rk
		}
	}

	facts := root.LookupPath(cue.ParsePath("fact_types"))
	if facts.Exists() {
		iter, err := facts.Fields()
		if err != nil {
			return &CompileError{File: path, Field: "fact_types", Message: err.Error()}
		}
		for iter.Next() {
			name := iter.Selector().Unquoted()
			if _, dup := s.factTypes[name]; dup {
				return &CompileError{File: path, Field: "fact_types." + name, Message: "duplicate declaration"}
			}
			ft := FactType{Name: name}
			ft.Doc, _ = stringField(iter.Value(), "doc")
			s.factTypes[name] = ft
		}
	}

	return nil
}

// validate checks cross-references after all files merged: extends
// targets exist and are acyclic, relation endpoints name known types.
func (s *Set) validate() error {
	for name, et := range s.entityTypes {
		if et.Extends == "" {
			continue
		}
		if _, ok := s.entityTypes[et.Extends]; !ok {
			return &CompileError{Field: "entity_types." + name,
				Message: fmt.Sprintf("extends unknown entity type %q", et.Extends)}
		}
	}

	if cyc := s.findExtendsCycle(); len(cyc) > 0 {
		return &CompileError{Field: "entity_types",
			Message: fmt.Sprintf("inheritance cycle: %v", cyc)}
	}

	for name, rk := range s.relationKinds {
		for _, end := range []string{rk.Source, rk.Target} {
			if end == "" {
				continue
			}
			if _, ok := s.entityTypes[end]; !ok {
				return &CompileError{Field: "relation_kinds." + name,
					Message: fmt.Sprintf("endpoint constraint names unknown entity type %q", end)}
			}
		}
	}
	return nil
}

// findExtendsCycle runs a three-color DFS over extends edges and
// returns one cycle's members, or nil when the graph is acyclic.
func (s *Set) findExtendsCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(s.entityTypes))

	var cycle []string
	var visit func(name string, path []string) bool
	visit = func(name string, path []string) bool {
		color[name] = gray
		next := s.entityTypes[name].Extends
		if next != "" {
			switch color[next] {
			case gray:
				cycle = append(path, name, next)
				return true
			case white:
				if visit(next, append(path, name)) {
					return true
				}
			}
		}
		color[name] = black
		return false
	}

	names := make([]string, 0, len(s.entityTypes))
	for name := range s.entityTypes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if color[name] == white && visit(name, nil) {
			return cycle
		}
	}
	return nil
}

// EntityTypes lists the declared entity types, sorted by name.
func (s *Set) EntityTypes() []EntityType {
	out := make([]EntityType, 0, len(s.entityTypes))
	for _, et := range s.entityTypes {
		out = append(out, et)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RelationKinds lists the declared relation kinds, sorted by name.
func (s *Set) RelationKinds() []RelationKind {
	out := make([]RelationKind, 0, len(s.relationKinds))
	for _, rk := range s.relationKinds {
		out = append(out, rk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FactTypes lists the declared fact types, sorted by name.
func (s *Set) FactTypes() []FactType {
	out := make([]FactType, 0, len(s.factTypes))
	for _, ft := range s.factTypes {
		out = append(out, ft)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Empty reports whether the set declares nothing.
func (s *Set) Empty() bool {
	return s == nil ||
		len(s.entityTypes)+len(s.relationKinds)+len(s.factTypes) == 0
}

// CheckEntityType validates a type tag against the vocabulary. Unknown
// tags fail only in strict mode over a non-empty set.
func (s *Set) CheckEntityType(name string) error {
	if s.Empty() || !s.Strict {
		return nil
	}
	if _, ok := s.entityTypes[name]; !ok {
		return model.NewInvalidArgument("unknown entity type %q", name)
	}
	return nil
}

// CheckRelationKind validates a relation kind tag.
func (s *Set) CheckRelationKind(name string) error {
	if s.Empty() || !s.Strict {
		return nil
	}
	if _, ok := s.relationKinds[name]; !ok {
		return model.NewInvalidArgument("unknown relation kind %q", name)
	}
	return nil
}

// CheckFactType validates a fact type tag.
func (s *Set) CheckFactType(name string) error {
	if s.Empty() || !s.Strict {
		return nil
	}
	if _, ok := s.factTypes[name]; !ok {
		return model.NewInvalidArgument("unknown fact type %q", name)
	}
	return nil
}

// Known reports whether a tag of the given kind is declared. Used for
// debug logging in non-strict mode.
func (s *Set) Known(kind model.Kind, name string) bool {
	if s.Empty() {
		return true
	}
	switch kind {
	case model.KindEntity:
		_, ok := s.entityTypes[name]
		return ok
	case model.KindRelation:
		_, ok := s.relationKinds[name]
		return ok
	case model.KindFact:
		_, ok := s.factTypes[name]
		return ok
	}
	return false
}

// stringField reads an optional string field from a CUE struct value.
func stringField(v cue.Value, field string) (string, bool) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", false
	}
	str, err := fv.String()
	if err != nil {
		return "", false
	}
	return str, true
}
