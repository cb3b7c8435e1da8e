package emc

import (
	"fmt"
	"math"
	"strings"

	"github.com/vinodismyname/emcregs/internal/refdata"
)

const noLimit = "no limit found for this frequency"

// Part15 reports FCC Part 15 limits at f MHz. section is one of "all",
// "15.109", "15.207", "15.209"; class is "both", "A" or "B". The conducted
// section 15.207 is only reported up to 30 MHz. A restricted band warning is
// appended whenever f falls in a 15.205 band.
func (s *Service) Part15(f float64, section, class string) string {
	p15 := s.store.Part15
	out := []string{fmt.Sprintf("FCC Part 15 Limits at %s MHz\n%s", mhz(f), rule(40))}

	if section == "all" || section == "15.109" {
		sec := p15.Section15109
		out = append(out, "\n## Section 15.109 - "+orDefault(sec.Title, "Radiated Emission Limits"))
		out = append(out, classBlocks(sec, f, class, map[string]string{"A": "Commercial", "B": "Residential"})...)
	}

	if (section == "all" || section == "15.207") && f <= 30 {
		sec := p15.Section15207
		out = append(out, "\n## Section 15.207 - "+orDefault(sec.Title, "Conducted Limits"))
		out = append(out, classBlocks(sec, f, class, nil)...)
	}

	if section == "all" || section == "15.209" {
		sec := p15.Section15209
		out = append(out, "\n## Section 15.209 - "+orDefault(sec.Title, "Intentional Radiators"))
		if rec, ok := refdata.FindLimit(sec.Limits, f, refdata.HalfOpen); ok {
			out = append(out, FormatLimit(rec))
		} else {
			out = append(out, "  "+noLimit)
		}
	}

	if b, ok := s.store.RestrictedBandAt(f); ok {
		out = append(out,
			fmt.Sprintf("\n⚠️  WARNING: %s MHz is in a RESTRICTED BAND (15.205)", mhz(f)),
			fmt.Sprintf("   %s - %s MHz: %s", b.FreqMin.Or("?"), b.FreqMax.Or("?"), b.Service))
	}
	return strings.Join(out, "\n")
}

// classBlocks renders the class A and/or B block of a section. When
// descriptions is non-nil the class label carries the class description.
func classBlocks(sec refdata.Part15Section, f float64, class string, descriptions map[string]string) []string {
	var classes []string
	switch class {
	case "both":
		classes = []string{"A", "B"}
	case "A", "B":
		classes = []string{class}
	}

	var out []string
	for _, c := range classes {
		lc, _ := sec.Class(c)
		label := "Class " + c
		if descriptions != nil {
			label += " (" + orDefault(lc.Description, descriptions[c]) + ")"
		}
		rec, ok := refdata.FindLimit(lc.Limits, f, refdata.HalfOpen)
		if !ok {
			out = append(out, "\n"+label+": "+noLimit)
			continue
		}
		out = append(out, "\n"+label+":", FormatLimit(rec))
	}
	return out
}

// Part18 reports ISM band membership at f MHz and the Part 18 limit that
// applies outside ISM bands for the equipment type ("consumer" or "industrial").
func (s *Service) Part18(f float64, equipment string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FCC Part 18 (ISM Equipment) at %s MHz\n%s\n\n", mhz(f), rule(50))

	if ism, ok := s.store.ISMBandAt(f); ok {
		b.WriteString("✓ WITHIN ISM BAND\n")
		fmt.Fprintf(&b, "  Center: %s MHz\n", ism.Center.Or("?"))
		fmt.Fprintf(&b, "  Range: %s - %s MHz\n", ism.Range.Min.Or("0"), ism.Range.Max.Or("0"))
		if ism.Notes != "" {
			fmt.Fprintf(&b, "  Notes: %s\n", ism.Notes)
		}
		b.WriteString("\n  Fundamental emissions: No limit within ISM band\n")
	} else {
		b.WriteString("✗ OUTSIDE ISM BANDS\n")
		b.WriteString("  Standard emission limits apply (same as Part 15.209)\n\n")
	}

	limits, _ := s.store.Part18.Equipment(equipment)
	label := fmt.Sprintf("\nLimits outside ISM bands (%s ISM):", titleCase(equipment))
	if rec, ok := refdata.FindLimit(limits.EmissionsOutsideISM, f, refdata.HalfOpen); ok {
		b.WriteString(label + "\n")
		b.WriteString(FormatLimit(rec))
	} else {
		b.WriteString(label + " " + noLimit)
	}
	return b.String()
}

// RestrictedCheck reports whether f MHz lies in a 47 CFR 15.205 restricted band.
func (s *Service) RestrictedCheck(f float64) string {
	band, ok := s.store.RestrictedBandAt(f)
	if !ok {
		return fmt.Sprintf("✓ CLEAR\n\nFrequency %s MHz is NOT in a restricted band.", mhz(f))
	}
	return fmt.Sprintf("⚠️  RESTRICTED BAND\n\n"+
		"Frequency %s MHz falls within a restricted band per 47 CFR 15.205:\n\n"+
		"  Band: %s - %s MHz\n"+
		"  Protected Service: %s\n\n"+
		"Intentional radiators are generally prohibited from operating in this band.",
		mhz(f), band.FreqMin.Or("?"), band.FreqMax.Or("?"), band.Service)
}

// RestrictedList lists every restricted band overlapping [lo, hi] MHz.
// Pass math.Inf(1) for an open upper bound.
func (s *Service) RestrictedList(lo, hi float64) string {
	bands := s.store.RestrictedBandsIn(lo, hi)
	var b strings.Builder
	fmt.Fprintf(&b, "FCC Part 15.205 Restricted Bands (%d bands)\n%s\n\n", len(bands), rule(50))
	for _, band := range bands {
		bmin, _ := band.FreqMin.Float()
		bmax, _ := band.FreqMax.Float()
		fmt.Fprintf(&b, "  %10.4f - %-10.4f MHz  |  %s\n", bmin, bmax, band.Service)
	}
	if len(bands) == 0 {
		fmt.Fprintf(&b, "  No restricted bands between %s and %s MHz.\n", mhz(lo), upperLabel(hi))
	}
	return b.String()
}

func upperLabel(hi float64) string {
	if math.IsInf(hi, 1) {
		return "∞"
	}
	return mhz(hi)
}

// ISMList lists every ISM band with its center, range and notes.
func (s *Service) ISMList() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ISM Frequency Bands (ITU Radio Regulations)\n%s\n\n", rule(50))
	for _, ism := range s.store.Part18.ISMBands.Bands {
		fmt.Fprintf(&b, "  %s MHz  (%s-%s MHz)", padLeft(ism.Center.Or("?"), 8), ism.Range.Min.Or("?"), ism.Range.Max.Or("?"))
		if ism.Notes != "" {
			fmt.Fprintf(&b, "  [%s]", ism.Notes)
		}
		b.WriteString("\n")
	}
	return b.String()
}
