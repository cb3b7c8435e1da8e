package emc

import (
	"fmt"
	"strings"
)

type catalogGroup struct {
	heading string
	mark    string
	entries []string
}

var standardsCatalog = []catalogGroup{
	{heading: "FCC (United States)", mark: "✓", entries: []string{
		"Part 15.109 - Radiated emissions (unintentional)",
		"Part 15.207 - Conducted emissions",
		"Part 15.209 - Radiated emissions (intentional)",
		"Part 15.205 - Restricted frequency bands",
		"Part 18 - ISM equipment",
	}},
	{heading: "CISPR (International)", mark: "✓", entries: []string{
		"CISPR 11 - Industrial, scientific, medical equipment",
		"CISPR 32 - Multimedia equipment (replaces CISPR 22)",
		"CISPR 14-1 - Household appliances",
	}},
	{heading: "Cellular (3GPP)", mark: "✓", entries: []string{
		"LTE bands (E-UTRA)",
		"5G NR bands (FR1 + FR2)",
		"US carrier band info (AT&T, Verizon, T-Mobile)",
	}},
	{heading: "Coming Soon", mark: "-", entries: []string{
		"CISPR 25 - Automotive components",
		"IEC 60601-1-2 - Medical devices",
		"PTCRB certification requirements",
	}},
}

// StandardsList renders the catalog of supported and planned standards.
func (s *Service) StandardsList() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Available EMC Standards and Regulations\n%s\n\n", strings.Repeat("=", 45))
	for i, g := range standardsCatalog {
		fmt.Fprintf(&b, "## %s\n", g.heading)
		for _, e := range g.entries {
			fmt.Fprintf(&b, "  %s %s\n", g.mark, e)
		}
		if i < len(standardsCatalog)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
