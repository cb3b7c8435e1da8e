// Package export writes the reference snapshot to an .xlsx workbook, one
// sheet per table, for offline review.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/vinodismyname/emcregs/internal/refdata"
)

// Sheet names in workbook order.
const (
	SheetPart15     = "Part 15"
	SheetPart18     = "Part 18"
	SheetISM        = "ISM Bands"
	SheetRestricted = "Restricted Bands"
	SheetCISPR      = "CISPR"
	SheetLTE        = "LTE Bands"
	SheetNR         = "NR Bands"
)

// Sheets lists every sheet Workbook creates.
var Sheets = []string{SheetPart15, SheetPart18, SheetISM, SheetRestricted, SheetCISPR, SheetLTE, SheetNR}

var limitHeader = []any{"Min MHz", "Max MHz", "Value Kind", "Limit", "Secondary", "Distance m", "Detector", "Notes"}

// Workbook builds a workbook from store. The caller owns the returned file.
func Workbook(store *refdata.Store) (*excelize.File, error) {
	f := excelize.NewFile()
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("export: header style: %w", err)
	}

	builders := map[string]func() [][]any{
		SheetPart15:     func() [][]any { return part15Rows(store.Part15) },
		SheetPart18:     func() [][]any { return part18Rows(store.Part18) },
		SheetISM:        func() [][]any { return ismRows(store.Part18) },
		SheetRestricted: func() [][]any { return restrictedRows(store.Restricted) },
		SheetCISPR:      func() [][]any { return cisprRows(store.CISPR) },
		SheetLTE:        func() [][]any { return lteRows(store.LTE) },
		SheetNR:         func() [][]any { return nrRows(store.NR) },
	}

	for i, name := range Sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				_ = f.Close()
				return nil, fmt.Errorf("export: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("export: new sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, builders[name](), bold); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

// Write streams the workbook for store to w.
func Write(w io.Writer, store *refdata.Store) error {
	f, err := Workbook(store)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

// writeSheet streams rows into sheet; the first row is the styled header.
func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("export: stream %s: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		var opts []excelize.RowOpts
		if i == 0 {
			opts = append(opts, excelize.RowOpts{StyleID: headerStyle})
		}
		if err := sw.SetRow(cell, row, opts...); err != nil {
			return fmt.Errorf("export: %s row %d: %w", sheet, i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("export: flush %s: %w", sheet, err)
	}
	return nil
}

func part15Rows(t refdata.Part15Table) [][]any {
	rows := [][]any{append([]any{"Section", "Class"}, limitHeader...)}
	sections := []struct {
		name string
		sec  refdata.Part15Section
	}{{"15.109", t.Section15109}, {"15.207", t.Section15207}, {"15.209", t.Section15209}}
	for _, s := range sections {
		for _, class := range []string{"A", "B"} {
			c, ok := s.sec.Class(class)
			if !ok {
				continue
			}
			for _, r := range c.Limits {
				rows = append(rows, append([]any{s.name, class}, limitCells(r)...))
			}
		}
		for _, r := range s.sec.Limits {
			rows = append(rows, append([]any{s.name, ""}, limitCells(r)...))
		}
	}
	return rows
}

func part18Rows(t refdata.Part18Table) [][]any {
	rows := [][]any{append([]any{"Equipment"}, limitHeader...)}
	for _, kind := range []string{"consumer", "industrial"} {
		eq, _ := t.Equipment(kind)
		for _, r := range eq.EmissionsOutsideISM {
			rows = append(rows, append([]any{kind}, limitCells(r)...))
		}
	}
	return rows
}

func ismRows(t refdata.Part18Table) [][]any {
	rows := [][]any{{"Center MHz", "Min MHz", "Max MHz", "Notes"}}
	for _, b := range t.ISMBands.Bands {
		rows = append(rows, []any{cell(b.Center), cell(b.Range.Min), cell(b.Range.Max), b.Notes})
	}
	return rows
}

func restrictedRows(t refdata.RestrictedTable) [][]any {
	rows := [][]any{{"Min MHz", "Max MHz", "Service"}}
	for _, b := range t.Bands {
		rows = append(rows, []any{cell(b.FreqMin), cell(b.FreqMax), b.Service})
	}
	return rows
}

func cisprRows(t refdata.CISPRTable) [][]any {
	rows := [][]any{append([]any{"Standard", "Group", "Class", "Emission", "Port", "Measurement m"}, limitHeader...)}
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		std := t[key]
		name := std.Title
		if name == "" {
			name = key
		}
		for _, class := range sortedClassKeys(std.Classes) {
			rows = append(rows, cisprClassRows(name, "", class, std.Classes[class])...)
		}
		groups := make([]string, 0, len(std.Groups))
		for g := range std.Groups {
			groups = append(groups, g)
		}
		sort.Strings(groups)
		for _, g := range groups {
			for _, class := range sortedClassKeys(std.Groups[g]) {
				rows = append(rows, cisprClassRows(name, g, class, std.Groups[g][class])...)
			}
		}
	}
	return rows
}

func cisprClassRows(std, group, class string, c refdata.CISPRClass) [][]any {
	var rows [][]any
	emit := func(emission string, t *refdata.EmissionTable) {
		if t == nil {
			return
		}
		for _, r := range t.Limits {
			prefix := []any{std, group, strings.TrimPrefix(class, "class_"), emission, t.Port, cell(t.MeasurementDistance)}
			rows = append(rows, append(prefix, limitCells(r)...))
		}
	}
	if c.Radiated != nil {
		emit("radiated", c.Radiated)
		emit("radiated above 1 GHz", c.Radiated.Above1GHz)
	}
	emit("conducted", c.Conducted)
	return rows
}

func sortedClassKeys(m map[string]refdata.CISPRClass) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lteRows(t refdata.LTETable) [][]any {
	rows := [][]any{{"Band", "Name", "Duplex", "UL Min MHz", "UL Max MHz", "DL Min MHz", "DL Max MHz", "Bandwidths MHz", "Regions", "Notes"}}
	for _, b := range t.Bands {
		ulMin, ulMax := spanCells(b.Uplink)
		dlMin, dlMax := spanCells(b.Downlink)
		bws := make([]string, 0, len(b.Bandwidths))
		for _, bw := range b.Bandwidths {
			bws = append(bws, bw.String())
		}
		rows = append(rows, []any{b.Band, b.Name, b.Duplex, ulMin, ulMax, dlMin, dlMax,
			strings.Join(bws, ", "), strings.Join(b.Regions, ", "), b.Notes})
	}
	return rows
}

func nrRows(t refdata.NRTable) [][]any {
	rows := [][]any{{"Band", "Range", "Name", "Duplex", "UL Min MHz", "UL Max MHz", "DL Min MHz", "DL Max MHz", "Min MHz", "Max MHz", "Max BW MHz", "Notes"}}
	for _, bands := range [][]refdata.NRBand{t.FR1, t.FR2} {
		for _, b := range bands {
			ulMin, ulMax := spanCells(b.Uplink)
			dlMin, dlMax := spanCells(b.Downlink)
			rMin, rMax := spanCells(b.Range)
			rows = append(rows, []any{b.Band, b.FR.String(), b.Name, b.Duplex,
				ulMin, ulMax, dlMin, dlMax, rMin, rMax, cell(b.MaxBandwidth), b.Notes})
		}
	}
	return rows
}

func limitCells(r refdata.LimitRecord) []any {
	return []any{
		cell(r.FreqMin), cell(r.FreqMax), r.Value.Kind.String(),
		cell(r.Value.Primary), cell(r.Value.Secondary), cell(r.Distance),
		r.Detector, r.Notes,
	}
}

// cell keeps numbers numeric so the sheet can be sorted and filtered.
func cell(s refdata.Scalar) any {
	if f, ok := s.Float(); ok {
		return f
	}
	return s.String()
}

func spanCells(s *refdata.Span) (any, any) {
	if s == nil {
		return "", ""
	}
	return cell(s.Min), cell(s.Max)
}
