// Package emc answers regulatory lookup queries against a reference snapshot
// and renders the results as plain text.
//
// Every method is read-only over the Store and safe for concurrent use. Lookup
// misses and bad filter values are reported in the returned text, never as
// errors.
package emc

import (
	"sort"
	"strings"

	"github.com/vinodismyname/emcregs/config"
	"github.com/vinodismyname/emcregs/internal/refdata"
)

// Service runs the lookup operations.
type Service struct {
	store       *refdata.Store
	ltePageSize int
}

// NewService builds a Service over store. pageSize bounds LTE listings; a
// non-positive value uses the default.
func NewService(store *refdata.Store, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = config.DefaultLTEPageSize
	}
	return &Service{store: store, ltePageSize: pageSize}
}

// normalizeCarrier folds "AT&T", "T-Mobile" and similar spellings onto table keys.
func normalizeCarrier(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	return strings.NewReplacer("-", "", " ", "", "&", "", "_", "").Replace(c)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
