package emc

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vinodismyname/emcregs/internal/refdata"
)

// FormatLimit renders one limit record as a single indented line:
//
//	"  {min} - {max} MHz: {value} {distance} {detector}{notes}"
//
// Absent optional parts render as empty strings and absent bounds as "?".
func FormatLimit(r refdata.LimitRecord) string {
	var value string
	switch r.Value.Kind {
	case refdata.ValueFieldStrengthDB:
		value = r.Value.Primary.String() + " dBuV/m"
	case refdata.ValueFieldStrengthUV:
		value = fmt.Sprintf("%s uV/m (%s dBuV/m)", r.Value.Primary.String(), r.Value.Secondary.Or("?"))
	case refdata.ValueVoltage:
		value = r.Value.Primary.String() + " dBuV"
	case refdata.ValueQuasiPeakAverage:
		value = fmt.Sprintf("QP: %s dBuV/m, Avg: %s dBuV/m", r.Value.Primary.String(), r.Value.Secondary.Or("?"))
	default:
		value = "See notes"
	}

	var distance, detector, notes string
	if r.Distance.IsSet() {
		distance = "@ " + r.Distance.String() + "m"
	}
	if r.Detector != "" {
		detector = "(" + r.Detector + ")"
	}
	if r.Notes != "" {
		notes = " - " + r.Notes
	}
	return fmt.Sprintf("  %s - %s MHz: %s %s %s%s",
		r.FreqMin.Or("?"), r.FreqMax.Or("?"), value, distance, detector, notes)
}

// mhz renders a query frequency without trailing zeros.
func mhz(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func rule(n int) string {
	return strings.Repeat("=", n)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ", ")
}

func joinScalars(xs []refdata.Scalar) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = x.String()
	}
	return strings.Join(parts, ", ")
}

func spanText(s *refdata.Span) (string, string) {
	if s == nil {
		return "?", "?"
	}
	return s.Min.Or("?"), s.Max.Or("?")
}

// padLeft and padRight mirror fixed-width column alignment.
func padLeft(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return strings.Repeat(" ", w-len(s)) + s
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}
