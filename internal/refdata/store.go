// Package refdata holds the regulatory reference tables and the range lookups
// over them.
package refdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Table file names inside a data directory.
const (
	FilePart15     = "part15_limits.json"
	FilePart18     = "part18_limits.json"
	FileRestricted = "restricted_bands.json"
	FileCISPR      = "cispr_limits.json"
	FileLTE        = "lte_bands.json"
	FileNR         = "nr_bands.json"
)

// Files lists every table file the store reads.
var Files = []string{FilePart15, FilePart18, FileRestricted, FileCISPR, FileLTE, FileNR}

// Store is the loaded reference snapshot. It is built once by Load and must
// not be mutated afterwards; readers share it without locking.
type Store struct {
	Part15     Part15Table
	Part18     Part18Table
	Restricted RestrictedTable
	CISPR      CISPRTable
	LTE        LTETable
	NR         NRTable
}

// Load decodes every table from fsys concurrently. A missing file yields an
// empty table; malformed JSON is an error.
func Load(ctx context.Context, fsys fs.FS) (*Store, error) {
	s := &Store{}
	targets := map[string]any{
		FilePart15:     &s.Part15,
		FilePart18:     &s.Part18,
		FileRestricted: &s.Restricted,
		FileCISPR:      &s.CISPR,
		FileLTE:        &s.LTE,
		FileNR:         &s.NR,
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range Files {
		dst := targets[name]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return loadTable(gctx, fsys, name, dst)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

func loadTable(ctx context.Context, fsys fs.FS, name string, dst any) error {
	b, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		zerolog.Ctx(ctx).Warn().Str("table", name).Msg("reference table missing; using empty table")
		return nil
	}
	if err != nil {
		return fmt.Errorf("refdata: read %s: %w", name, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("refdata: decode %s: %w", name, err)
	}
	return nil
}

// Counts returns the number of records per table, keyed by a short label.
func (s *Store) Counts() map[string]int {
	cispr := 0
	for _, std := range s.CISPR {
		cispr += len(std.Classes)
		for _, g := range std.Groups {
			cispr += len(g)
		}
	}
	return map[string]int{
		"part15_15109_a": classLen(s.Part15.Section15109.ClassA),
		"part15_15109_b": classLen(s.Part15.Section15109.ClassB),
		"part15_15207_a": classLen(s.Part15.Section15207.ClassA),
		"part15_15207_b": classLen(s.Part15.Section15207.ClassB),
		"part15_15209":   len(s.Part15.Section15209.Limits),
		"ism_bands":      len(s.Part18.ISMBands.Bands),
		"restricted":     len(s.Restricted.Bands),
		"cispr_classes":  cispr,
		"lte_bands":      len(s.LTE.Bands),
		"nr_fr1_bands":   len(s.NR.FR1),
		"nr_fr2_bands":   len(s.NR.FR2),
	}
}

func classLen(c *LimitClass) int {
	if c == nil {
		return 0
	}
	return len(c.Limits)
}
