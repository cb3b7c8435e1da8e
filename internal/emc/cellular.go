package emc

import (
	"fmt"
	"strings"

	"github.com/vinodismyname/emcregs/internal/refdata"
)

// LTEBand describes one LTE band.
func (s *Service) LTEBand(n int) string {
	band, ok := s.store.LTEBand(n)
	if !ok {
		return fmt.Sprintf("LTE Band %d not found in database.", n)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "LTE Band %d (%s)\n%s\n\n", band.Band, orDefault(band.Name, "Unknown"), rule(40))
	if band.Uplink != nil {
		lo, hi := spanText(band.Uplink)
		fmt.Fprintf(&b, "Uplink:   %s - %s MHz\n", lo, hi)
	}
	if band.Downlink != nil {
		lo, hi := spanText(band.Downlink)
		fmt.Fprintf(&b, "Downlink: %s - %s MHz\n", lo, hi)
	}
	fmt.Fprintf(&b, "Duplex:   %s\n", orDefault(band.Duplex, "Unknown"))
	fmt.Fprintf(&b, "Bandwidths: %s MHz\n", joinScalars(band.Bandwidths))
	fmt.Fprintf(&b, "Regions:  %s\n", strings.Join(band.Regions, ", "))
	if band.Notes != "" {
		fmt.Fprintf(&b, "Notes:    %s\n", band.Notes)
	}
	return b.String()
}

// LTEPage is one page of an LTE band listing.
type LTEPage struct {
	Text string
	// Shown counts the bands on this page.
	Shown int
	// Remaining counts the bands after this page.
	Remaining int
}

// LTEBands lists LTE bands. A carrier filter takes precedence over region and
// renders the carrier's band sets. Otherwise bands whose regions contain
// region (case-insensitive) are listed one page at a time from offset.
func (s *Service) LTEBands(region, carrier string, offset int) LTEPage {
	if carrier != "" {
		return LTEPage{Text: s.lteCarrier(carrier)}
	}

	var matched []refdata.LTEBand
	for _, band := range s.store.LTE.Bands {
		if region == "" || inRegion(band.Regions, region) {
			matched = append(matched, band)
		}
	}

	header := "LTE Bands"
	if region != "" {
		header += " (" + titleCase(region) + ")"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n", header, rule(50))

	if offset < 0 || offset > len(matched) {
		offset = len(matched)
	}
	end := min(offset+s.ltePageSize, len(matched))
	for _, band := range matched[offset:end] {
		span := band.Downlink
		if span == nil {
			span = band.Uplink
		}
		lo, hi := spanText(span)
		fmt.Fprintf(&b, "Band %s: %s-%s MHz (%s) %s\n",
			padLeft(fmt.Sprint(band.Band), 2), padLeft(lo, 4), padRight(hi, 4), band.Duplex, band.Name)
	}
	if len(matched) == 0 {
		fmt.Fprintf(&b, "No LTE bands found for region '%s'.\n", region)
	}

	return LTEPage{Text: b.String(), Shown: end - offset, Remaining: len(matched) - end}
}

func inRegion(regions []string, want string) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	for _, r := range regions {
		if strings.Contains(strings.ToLower(r), want) {
			return true
		}
	}
	return false
}

func (s *Service) lteCarrier(carrier string) string {
	c, ok := s.store.LTE.Carriers[normalizeCarrier(carrier)]
	if !ok {
		return fmt.Sprintf("Carrier '%s' not found. Available: %s",
			carrier, strings.Join(sortedKeys(s.store.LTE.Carriers), ", "))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "LTE Bands for %s\n%s\n\n", strings.ToUpper(carrier), rule(40))
	fmt.Fprintf(&b, "Primary bands: %s\n", joinInts(c.Primary))
	fmt.Fprintf(&b, "LTE-M bands:   %s\n", joinInts(c.LTEM))
	return b.String()
}

// NRBand describes one 5G NR band. Paired FR1 bands show uplink and downlink,
// supplementary downlink bands show the downlink only, and FR2 bands show
// their single range.
func (s *Service) NRBand(name string) string {
	band, ok := s.store.NRBand(name)
	if !ok {
		return fmt.Sprintf("NR Band '%s' not found. Use format 'n77', 'n260', etc.", name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "5G NR Band %s (%s)\n%s\n\n", band.Band, orDefault(band.Name, "Unknown"), rule(40))
	switch band.Shape() {
	case refdata.NRShapePaired:
		lo, hi := spanText(band.Uplink)
		fmt.Fprintf(&b, "Uplink:   %s - %s MHz\n", lo, hi)
		if band.Downlink != nil {
			lo, hi = spanText(band.Downlink)
			fmt.Fprintf(&b, "Downlink: %s - %s MHz\n", lo, hi)
		}
	case refdata.NRShapeDownlinkOnly:
		lo, hi := spanText(band.Downlink)
		fmt.Fprintf(&b, "Downlink: %s - %s MHz\n", lo, hi)
	case refdata.NRShapeRange:
		lo, hi := spanText(band.Range)
		fmt.Fprintf(&b, "Range:    %s - %s MHz\n", lo, hi)
	}
	fmt.Fprintf(&b, "Duplex:   %s\n", orDefault(band.Duplex, "Unknown"))
	fmt.Fprintf(&b, "Max BW:   %s MHz\n", band.MaxBandwidth.Or("?"))
	if band.Notes != "" {
		fmt.Fprintf(&b, "Notes:    %s\n", band.Notes)
	}
	return b.String()
}

// NRBands lists NR bands for "FR1", "FR2" or "all". A carrier filter takes
// precedence and renders the carrier's low, mid and mmWave sets.
func (s *Service) NRBands(frequencyRange, carrier string) string {
	if carrier != "" {
		return s.nrCarrier(carrier)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "5G NR Bands\n%s\n\n", rule(50))
	if frequencyRange == "all" || frequencyRange == "FR1" {
		b.WriteString("## FR1 (Sub-6 GHz)\n")
		for _, band := range s.store.NR.FR1 {
			span := band.Uplink
			if span == nil {
				span = band.Downlink
			}
			if span == nil {
				continue
			}
			lo, hi := spanText(span)
			fmt.Fprintf(&b, "  %s: %s-%s MHz (%s) %s\n",
				padLeft(band.Band, 4), padLeft(lo, 4), padRight(hi, 4), band.Duplex, band.Name)
		}
	}
	if frequencyRange == "all" || frequencyRange == "FR2" {
		b.WriteString("\n## FR2 (mmWave)\n")
		for _, band := range s.store.NR.FR2 {
			lo, hi := spanText(band.Range)
			fmt.Fprintf(&b, "  %s: %s-%s MHz %s\n", padLeft(band.Band, 4), padLeft(lo, 5), padRight(hi, 5), band.Name)
		}
	}
	return b.String()
}

func (s *Service) nrCarrier(carrier string) string {
	c, ok := s.store.NR.Carriers[normalizeCarrier(carrier)]
	if !ok {
		return fmt.Sprintf("Carrier '%s' not found. Available: %s",
			carrier, strings.Join(sortedKeys(s.store.NR.Carriers), ", "))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "5G NR Bands for %s\n%s\n\n", strings.ToUpper(carrier), rule(40))
	fmt.Fprintf(&b, "Low-band:  %s\n", strings.Join(c.LowBand, ", "))
	fmt.Fprintf(&b, "Mid-band:  %s\n", strings.Join(c.MidBand, ", "))
	fmt.Fprintf(&b, "mmWave:    %s\n", strings.Join(c.MMWave, ", "))
	if c.Notes != "" {
		fmt.Fprintf(&b, "Notes:     %s\n", c.Notes)
	}
	return b.String()
}

// FrequencyToBand lists every LTE and NR band whose uplink, downlink or range
// contains f MHz, plus the ISM band when f is in one. Ranges are closed.
func (s *Service) FrequencyToBand(f float64) string {
	var matches []string
	for _, band := range s.store.LTE.Bands {
		if band.Uplink != nil && band.Uplink.Contains(f) {
			matches = append(matches, fmt.Sprintf("LTE Band %d (uplink)", band.Band))
		}
		if band.Downlink != nil && band.Downlink.Contains(f) {
			matches = append(matches, fmt.Sprintf("LTE Band %d (downlink)", band.Band))
		}
	}
	for _, band := range s.store.NR.FR1 {
		if band.Uplink != nil && band.Uplink.Contains(f) {
			matches = append(matches, fmt.Sprintf("NR %s (uplink)", band.Band))
		}
		if band.Downlink != nil && band.Downlink.Contains(f) {
			matches = append(matches, fmt.Sprintf("NR %s (downlink)", band.Band))
		}
	}
	for _, band := range s.store.NR.FR2 {
		if band.Range != nil && band.Range.Contains(f) {
			matches = append(matches, "NR "+band.Band)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Bands containing %s MHz\n%s\n\n", mhz(f), rule(40))
	if len(matches) == 0 {
		b.WriteString("  No LTE/NR bands found for this frequency.\n")
	}
	for _, m := range matches {
		fmt.Fprintf(&b, "  - %s\n", m)
	}
	if ism, ok := s.store.ISMBandAt(f); ok {
		fmt.Fprintf(&b, "\n  ISM Band: %s MHz center\n", ism.Center.Or("?"))
	}
	return b.String()
}
