package emc

import (
	"fmt"
	"strings"

	"github.com/vinodismyname/emcregs/internal/refdata"
)

// CISPR standards accepted by name resolution.
var cisprStandards = []struct {
	key     string
	display string
	match   []string
}{
	{key: "cispr_32", display: "CISPR 32", match: []string{"32", "22"}},
	{key: "cispr_11", display: "CISPR 11", match: []string{"11"}},
	{key: "cispr_14_1", display: "CISPR 14-1", match: []string{"14"}},
}

// ResolveCISPR maps a free-form standard name to its table key and display
// name by substring: "32" or "22" selects CISPR 32 (which replaced CISPR 22),
// "11" selects CISPR 11 and "14" selects CISPR 14-1.
func ResolveCISPR(standard string) (key, display string, ok bool) {
	for _, c := range cisprStandards {
		for _, m := range c.match {
			if strings.Contains(standard, m) {
				return c.key, c.display, true
			}
		}
	}
	return "", "", false
}

// classLetter normalizes a device class to "A" or "B"; anything else is B.
func classLetter(class string) string {
	if strings.EqualFold(strings.TrimSpace(class), "a") {
		return "A"
	}
	return "B"
}

// CISPR reports the radiated or conducted limit of a CISPR standard at f MHz.
// The header echoes the requested class; the limits come from classLetter.
// A radiated lookup falls back to the above-1 GHz table only when the primary
// table has no match and f is at least 1000 MHz.
func (s *Service) CISPR(f float64, standard, class, emission string) string {
	key, display, ok := ResolveCISPR(standard)
	if !ok {
		return fmt.Sprintf("Unknown CISPR standard: %s\nAvailable: CISPR 11, CISPR 14-1, CISPR 22 (now CISPR 32), CISPR 32", standard)
	}
	requested := strings.ToUpper(strings.TrimSpace(class))
	if requested == "" {
		requested = "B"
	}
	classData, ok := s.store.CISPR[key].Class("class_" + strings.ToLower(classLetter(class)))
	if !ok {
		return fmt.Sprintf("No data for %s Class %s", display, requested)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s Class %s at %s MHz\n%s\n\n", display, requested, mhz(f), rule(50))

	if emission == "radiated" {
		b.WriteString(radiatedLimit(classData.Radiated, f))
		return b.String()
	}

	cond := classData.Conducted
	if cond == nil {
		cond = &refdata.EmissionTable{}
	}
	if rec, ok := refdata.FindLimit(cond.Limits, f, refdata.HalfOpen); ok {
		fmt.Fprintf(&b, "Conducted Emissions (%s):\n", orDefault(cond.Port, "AC mains"))
		b.WriteString(FormatLimit(rec))
	} else {
		b.WriteString("No conducted limit found for this frequency")
	}
	return b.String()
}

func radiatedLimit(rad *refdata.EmissionTable, f float64) string {
	if rad == nil {
		rad = &refdata.EmissionTable{}
	}
	if rec, ok := refdata.FindLimit(rad.Limits, f, refdata.HalfOpen); ok {
		return fmt.Sprintf("Radiated Emissions (@ %sm):\n%s", rad.MeasurementDistance.Or("?"), FormatLimit(rec))
	}
	if f >= 1000 && rad.Above1GHz != nil {
		above := rad.Above1GHz
		if rec, ok := refdata.FindLimit(above.Limits, f, refdata.HalfOpen); ok {
			return fmt.Sprintf("Radiated Emissions >1GHz (@ %sm):\n%s", above.MeasurementDistance.Or("?"), FormatLimit(rec))
		}
	}
	return "No radiated limit found for this frequency"
}

// distanceCorrection converts a 10 m limit to its 3 m equivalent.
const distanceCorrection = 10.5

// Compare sets the FCC 15.109 radiated limit against the CISPR 32 radiated
// limit for the same class at f MHz. The 3 m extrapolation of the CISPR limit
// is only reported when both limits exist.
func (s *Service) Compare(f float64, class string) string {
	letter := classLetter(class)
	key := "class_" + strings.ToLower(letter)

	var b strings.Builder
	fmt.Fprintf(&b, "EMC Limit Comparison at %s MHz (Class %s)\n%s\n\n", mhz(f), letter, rule(55))

	fccClass, _ := s.store.Part15.Section15109.Class(letter)
	fcc, fccOK := refdata.FindLimit(fccClass.Limits, f, refdata.HalfOpen)
	if fccOK {
		fmt.Fprintf(&b, "FCC Part 15.109 Class %s:\n  %s dBuV/m @ %sm (QP)\n\n",
			letter, fieldStrength(fcc), fcc.Distance.Or("?"))
	} else {
		fmt.Fprintf(&b, "FCC Part 15.109 Class %s: %s\n\n", letter, noLimit)
	}

	var (
		cispr   refdata.LimitRecord
		cisprOK bool
		dist    = "10"
	)
	if c, ok := s.store.CISPR["cispr_32"].Class(key); ok && c.Radiated != nil {
		cispr, cisprOK = refdata.FindLimit(c.Radiated.Limits, f, refdata.HalfOpen)
		dist = c.Radiated.MeasurementDistance.Or("10")
	}
	if cisprOK {
		fmt.Fprintf(&b, "CISPR 32 Class %s:\n  %s dBuV/m @ %sm (QP)\n\n", letter, fieldStrength(cispr), dist)
	} else {
		fmt.Fprintf(&b, "CISPR 32 Class %s: %s\n\n", letter, noLimit)
	}

	if fccOK && cisprOK {
		if v, ok := cispr.Value.FieldStrength(); ok {
			if x, ok := v.Float(); ok {
				b.WriteString("Note: FCC uses 3m, CISPR uses 10m measurement distance.\n")
				b.WriteString("Distance correction: +10.5 dB to convert 10m→3m limits.\n")
				fmt.Fprintf(&b, "CISPR 32 at 3m (calculated): %.1f dBuV/m\n", x+distanceCorrection)
			}
		}
	}
	return b.String()
}

func fieldStrength(r refdata.LimitRecord) string {
	v, ok := r.Value.FieldStrength()
	if !ok {
		return "?"
	}
	return v.String()
}
