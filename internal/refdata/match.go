package refdata

import "strings"

// Interval selects how a table's frequency bounds are compared.
type Interval int

const (
	// HalfOpen matches min <= f < max. Emission limit tables use it.
	HalfOpen Interval = iota
	// Closed matches min <= f <= max. Band allocation tables use it.
	Closed
)

// Contains reports whether f lies between min and max under the interval.
// Non-numeric bounds never match.
func (iv Interval) Contains(min, max Scalar, f float64) bool {
	lo, ok := min.Float()
	if !ok {
		return false
	}
	hi, ok := max.Float()
	if !ok {
		return false
	}
	if iv == Closed {
		return lo <= f && f <= hi
	}
	return lo <= f && f < hi
}

// FindLimit returns the first record containing f. Table order decides ties.
func FindLimit(records []LimitRecord, f float64, iv Interval) (LimitRecord, bool) {
	for _, r := range records {
		if iv.Contains(r.FreqMin, r.FreqMax, f) {
			return r, true
		}
	}
	return LimitRecord{}, false
}

// RestrictedBandAt returns the first restricted band containing f.
func (s *Store) RestrictedBandAt(f float64) (RestrictedBand, bool) {
	for _, b := range s.Restricted.Bands {
		if Closed.Contains(b.FreqMin, b.FreqMax, f) {
			return b, true
		}
	}
	return RestrictedBand{}, false
}

// RestrictedBandsIn returns every restricted band overlapping [lo, hi], in
// table order.
func (s *Store) RestrictedBandsIn(lo, hi float64) []RestrictedBand {
	var out []RestrictedBand
	for _, b := range s.Restricted.Bands {
		bmin, ok1 := b.FreqMin.Float()
		bmax, ok2 := b.FreqMax.Float()
		if !ok1 || !ok2 {
			continue
		}
		if bmax >= lo && bmin <= hi {
			out = append(out, b)
		}
	}
	return out
}

// ISMBandAt returns the first ISM band containing f.
func (s *Store) ISMBandAt(f float64) (ISMBand, bool) {
	for _, b := range s.Part18.ISMBands.Bands {
		if b.Range.Contains(f) {
			return b, true
		}
	}
	return ISMBand{}, false
}

// LTEBand returns the LTE band with the given number.
func (s *Store) LTEBand(n int) (LTEBand, bool) {
	for _, b := range s.LTE.Bands {
		if b.Band == n {
			return b, true
		}
	}
	return LTEBand{}, false
}

// NRBand looks a band up by name, case-insensitively. FR1 is searched before
// FR2, so FR1 wins when both list the same name.
func (s *Store) NRBand(name string) (NRBand, bool) {
	name = strings.TrimSpace(name)
	for _, b := range s.NR.FR1 {
		if strings.EqualFold(b.Band, name) {
			return b, true
		}
	}
	for _, b := range s.NR.FR2 {
		if strings.EqualFold(b.Band, name) {
			return b, true
		}
	}
	return NRBand{}, false
}
