package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDs returns an id generator producing "<prefix>-0001",
// "<prefix>-0002", … for stores that accept an injected generator.
// Zero-padding keeps lexicographic order aligned with creation order,
// which the deterministic tie-break (id COLLATE BINARY) relies on in
// golden tests.
//
// The generator is safe for concurrent use.
func SequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%04d", prefix, n)
	}
}
