// Package vocab compiles CUE vocabulary files into the set of entity
// types, relation kinds, and fact types a graft instance recognizes.
//
// A vocabulary is optional. The empty vocabulary accepts every tag, and
// a populated one only rejects unknown tags when strict mode is on;
// non-strict instances treat the vocabulary as documentation.
//
// Vocabulary files declare a single top-level "vocabulary" struct:
//
//	vocabulary: {
//		entity_types: {
//			person: {doc: "A human being."}
//			author: {doc: "A person who writes.", extends: "person"}
//		}
//		relation_kinds: {
//			wrote: {doc: "Authorship.", source: "author", target: "work"}
//		}
//		fact_types: {
//			note: {doc: "Free-form observation."}
//		}
//	}
//
// Compilation rejects duplicate names across files, extends references
// to undeclared entity types, inheritance cycles, and relation endpoint
// constraints naming unknown entity types.
package vocab
