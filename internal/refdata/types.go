package refdata

import (
	"encoding/json"
	"strings"
)

// ValueKind identifies which limit field a record carries.
type ValueKind int

const (
	// ValueNone means the record has no limit value; the notes carry it.
	ValueNone ValueKind = iota
	// ValueFieldStrengthDB is a field strength in dBuV/m.
	ValueFieldStrengthDB
	// ValueFieldStrengthUV is a field strength in uV/m with an optional dBuV/m echo.
	ValueFieldStrengthUV
	// ValueVoltage is a terminal voltage in dBuV.
	ValueVoltage
	// ValueQuasiPeakAverage is a quasi-peak limit paired with an average limit.
	ValueQuasiPeakAverage
)

func (k ValueKind) String() string {
	switch k {
	case ValueFieldStrengthDB:
		return "dBuV/m"
	case ValueFieldStrengthUV:
		return "uV/m"
	case ValueVoltage:
		return "dBuV"
	case ValueQuasiPeakAverage:
		return "QP/Avg"
	default:
		return "none"
	}
}

// Value is the limit carried by a record. Primary holds the main figure;
// Secondary holds the dBuV/m echo of a uV/m limit or the average half of a
// quasi-peak/average pair.
type Value struct {
	Kind      ValueKind
	Primary   Scalar
	Secondary Scalar
}

// FieldStrength returns the limit expressed in dBuV/m when the record has one.
func (v Value) FieldStrength() (Scalar, bool) {
	switch v.Kind {
	case ValueFieldStrengthDB, ValueQuasiPeakAverage:
		return v.Primary, v.Primary.IsSet()
	case ValueFieldStrengthUV:
		return v.Secondary, v.Secondary.IsSet()
	default:
		return Scalar{}, false
	}
}

// LimitRecord is one row of an emission limit table.
type LimitRecord struct {
	FreqMin  Scalar
	FreqMax  Scalar
	Value    Value
	Distance Scalar
	Detector string
	Notes    string
}

type limitRecordJSON struct {
	FreqMin      Scalar `json:"freq_min_mhz"`
	FreqMax      Scalar `json:"freq_max_mhz"`
	LimitDBuVM   Scalar `json:"limit_dbuv_m"`
	LimitUVM     Scalar `json:"limit_uv_m"`
	LimitDBuV    Scalar `json:"limit_dbuv"`
	LimitDBuVQP  Scalar `json:"limit_dbuv_qp"`
	LimitDBuVAvg Scalar `json:"limit_dbuv_avg"`
	Distance     Scalar `json:"distance_m"`
	Detector     string `json:"detector,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// UnmarshalJSON resolves the value variant once, in fixed priority order.
func (r *LimitRecord) UnmarshalJSON(b []byte) error {
	var raw limitRecordJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	rec := LimitRecord{
		FreqMin:  raw.FreqMin,
		FreqMax:  raw.FreqMax,
		Distance: raw.Distance,
		Detector: raw.Detector,
		Notes:    raw.Notes,
	}
	switch {
	case raw.LimitDBuVM.IsSet():
		rec.Value = Value{Kind: ValueFieldStrengthDB, Primary: raw.LimitDBuVM}
	case raw.LimitUVM.IsSet():
		rec.Value = Value{Kind: ValueFieldStrengthUV, Primary: raw.LimitUVM, Secondary: raw.LimitDBuVM}
	case raw.LimitDBuV.IsSet():
		rec.Value = Value{Kind: ValueVoltage, Primary: raw.LimitDBuV}
	case raw.LimitDBuVQP.IsSet():
		rec.Value = Value{Kind: ValueQuasiPeakAverage, Primary: raw.LimitDBuVQP, Secondary: raw.LimitDBuVAvg}
	}
	*r = rec
	return nil
}

func (r LimitRecord) MarshalJSON() ([]byte, error) {
	raw := limitRecordJSON{
		FreqMin:  r.FreqMin,
		FreqMax:  r.FreqMax,
		Distance: r.Distance,
		Detector: r.Detector,
		Notes:    r.Notes,
	}
	switch r.Value.Kind {
	case ValueFieldStrengthDB:
		raw.LimitDBuVM = r.Value.Primary
	case ValueFieldStrengthUV:
		raw.LimitUVM = r.Value.Primary
		raw.LimitDBuVM = r.Value.Secondary
	case ValueVoltage:
		raw.LimitDBuV = r.Value.Primary
	case ValueQuasiPeakAverage:
		raw.LimitDBuVQP = r.Value.Primary
		raw.LimitDBuVAvg = r.Value.Secondary
	}
	return json.Marshal(raw)
}

// LimitClass is a device class block (class_a / class_b) of a section.
type LimitClass struct {
	Description string        `json:"description"`
	Limits      []LimitRecord `json:"limits"`
}

// Part15Section holds either per-class limits or section-level limits.
type Part15Section struct {
	Title  string        `json:"title"`
	ClassA *LimitClass   `json:"class_a,omitempty"`
	ClassB *LimitClass   `json:"class_b,omitempty"`
	Limits []LimitRecord `json:"limits,omitempty"`
}

// Class returns the block for class "A" or "B" (case-insensitive).
func (s Part15Section) Class(class string) (LimitClass, bool) {
	var c *LimitClass
	switch strings.ToUpper(class) {
	case "A":
		c = s.ClassA
	case "B":
		c = s.ClassB
	}
	if c == nil {
		return LimitClass{}, false
	}
	return *c, true
}

// Part15Table is the FCC Part 15 limits table.
type Part15Table struct {
	Section15109 Part15Section `json:"section_15_109"`
	Section15207 Part15Section `json:"section_15_207"`
	Section15209 Part15Section `json:"section_15_209"`
}

// ISMBand is an ITU ISM allocation.
type ISMBand struct {
	Center Scalar `json:"center_mhz"`
	Range  Span   `json:"range_mhz"`
	Notes  string `json:"notes,omitempty"`
}

// EquipmentLimits holds Part 18 limits for one equipment category.
type EquipmentLimits struct {
	EmissionsOutsideISM []LimitRecord `json:"emissions_outside_ism"`
}

// Part18Table is the FCC Part 18 table including the ISM band list.
type Part18Table struct {
	Section18305 struct {
		ConsumerISM   EquipmentLimits `json:"consumer_ism"`
		IndustrialISM EquipmentLimits `json:"industrial_ism"`
	} `json:"section_18_305"`
	ISMBands struct {
		Bands []ISMBand `json:"bands"`
	} `json:"ism_bands"`
}

// Equipment returns the limits for "consumer" or "industrial".
func (t Part18Table) Equipment(kind string) (EquipmentLimits, bool) {
	switch strings.ToLower(kind) {
	case "consumer":
		return t.Section18305.ConsumerISM, true
	case "industrial":
		return t.Section18305.IndustrialISM, true
	}
	return EquipmentLimits{}, false
}

// RestrictedBand is one 47 CFR 15.205 entry.
type RestrictedBand struct {
	FreqMin Scalar `json:"freq_min_mhz"`
	FreqMax Scalar `json:"freq_max_mhz"`
	Service string `json:"service"`
}

// RestrictedTable is the FCC 15.205 restricted band list.
type RestrictedTable struct {
	Bands []RestrictedBand `json:"restricted_bands"`
}

// EmissionTable is a CISPR radiated or conducted block.
type EmissionTable struct {
	MeasurementDistance Scalar         `json:"measurement_distance_m"`
	Port                string         `json:"port,omitempty"`
	Limits              []LimitRecord  `json:"limits"`
	Above1GHz           *EmissionTable `json:"above_1ghz,omitempty"`
}

// CISPRClass holds the emission blocks of one device class.
type CISPRClass struct {
	Radiated  *EmissionTable `json:"radiated_emissions,omitempty"`
	Conducted *EmissionTable `json:"conducted_emissions,omitempty"`
}

// Empty reports whether the class carries no emission data.
func (c CISPRClass) Empty() bool {
	return c.Radiated == nil && c.Conducted == nil
}

// CISPRStandard is one CISPR standard. Classes are keyed class_a / class_b,
// either directly or nested under an equipment group such as group_1.
type CISPRStandard struct {
	Title   string
	Classes map[string]CISPRClass
	Groups  map[string]map[string]CISPRClass
}

// Class looks up a class key directly, then under group_1.
func (s CISPRStandard) Class(key string) (CISPRClass, bool) {
	if c, ok := s.Classes[key]; ok && !c.Empty() {
		return c, true
	}
	if c, ok := s.Groups["group_1"][key]; ok && !c.Empty() {
		return c, true
	}
	return CISPRClass{}, false
}

func (s *CISPRStandard) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := CISPRStandard{Classes: map[string]CISPRClass{}, Groups: map[string]map[string]CISPRClass{}}
	for key, msg := range raw {
		switch {
		case key == "title":
			if err := json.Unmarshal(msg, &out.Title); err != nil {
				return err
			}
		case strings.HasPrefix(key, "class_"):
			var c CISPRClass
			if err := json.Unmarshal(msg, &c); err != nil {
				return err
			}
			out.Classes[key] = c
		case strings.HasPrefix(key, "group_"):
			var g map[string]json.RawMessage
			if err := json.Unmarshal(msg, &g); err != nil {
				return err
			}
			classes := map[string]CISPRClass{}
			for ck, cm := range g {
				if !strings.HasPrefix(ck, "class_") {
					continue
				}
				var c CISPRClass
				if err := json.Unmarshal(cm, &c); err != nil {
					return err
				}
				classes[ck] = c
			}
			out.Groups[key] = classes
		}
	}
	*s = out
	return nil
}

// CISPRTable maps standard keys (cispr_32, cispr_11, cispr_14_1) to tables.
type CISPRTable map[string]CISPRStandard

func (t *CISPRTable) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := CISPRTable{}
	for key, msg := range raw {
		if !strings.HasPrefix(key, "cispr_") {
			continue
		}
		var std CISPRStandard
		if err := json.Unmarshal(msg, &std); err != nil {
			return err
		}
		out[key] = std
	}
	*t = out
	return nil
}

// LTEBand is one 3GPP E-UTRA operating band.
type LTEBand struct {
	Band       int      `json:"band"`
	Name       string   `json:"name,omitempty"`
	Uplink     *Span    `json:"uplink_mhz,omitempty"`
	Downlink   *Span    `json:"downlink_mhz,omitempty"`
	Duplex     string   `json:"duplex"`
	Bandwidths []Scalar `json:"bandwidth_mhz"`
	Regions    []string `json:"regions"`
	Notes      string   `json:"notes,omitempty"`
}

// LTECarrier lists the LTE bands a US carrier deploys.
type LTECarrier struct {
	Primary []int `json:"primary"`
	LTEM    []int `json:"lte_m"`
}

// LTETable is the LTE band table.
type LTETable struct {
	Bands    []LTEBand             `json:"bands"`
	Carriers map[string]LTECarrier `json:"us_carrier_bands"`
}

// FrequencyRange is the NR frequency range a band belongs to.
type FrequencyRange int

const (
	FR1 FrequencyRange = iota + 1
	FR2
)

func (r FrequencyRange) String() string {
	switch r {
	case FR1:
		return "FR1"
	case FR2:
		return "FR2"
	}
	return "unknown"
}

// NRShape tells which frequency fields an NR band carries.
type NRShape int

const (
	NRShapeUnknown NRShape = iota
	// NRShapePaired has an uplink range and usually a downlink range.
	NRShapePaired
	// NRShapeDownlinkOnly is a supplementary downlink band.
	NRShapeDownlinkOnly
	// NRShapeRange is a single unpaired range (FR2).
	NRShapeRange
)

// NRBand is one 3GPP NR operating band.
type NRBand struct {
	Band         string         `json:"band"`
	Name         string         `json:"name,omitempty"`
	Uplink       *Span          `json:"uplink_mhz,omitempty"`
	Downlink     *Span          `json:"downlink_mhz,omitempty"`
	Range        *Span          `json:"range_mhz,omitempty"`
	Duplex       string         `json:"duplex,omitempty"`
	MaxBandwidth Scalar         `json:"max_bandwidth_mhz"`
	Notes        string         `json:"notes,omitempty"`
	FR           FrequencyRange `json:"-"`
}

// Shape classifies the band by the frequency fields present.
func (b NRBand) Shape() NRShape {
	switch {
	case b.Uplink != nil:
		return NRShapePaired
	case b.Downlink != nil:
		return NRShapeDownlinkOnly
	case b.Range != nil:
		return NRShapeRange
	}
	return NRShapeUnknown
}

// NRCarrier lists the NR bands a US carrier deploys.
type NRCarrier struct {
	LowBand []string `json:"low_band"`
	MidBand []string `json:"mid_band"`
	MMWave  []string `json:"mmwave"`
	Notes   string   `json:"notes,omitempty"`
}

// NRTable is the NR band table split by frequency range.
type NRTable struct {
	FR1      []NRBand
	FR2      []NRBand
	Carriers map[string]NRCarrier
}

type nrTableJSON struct {
	FR1 struct {
		Bands []NRBand `json:"bands"`
	} `json:"fr1_bands"`
	FR2 struct {
		Bands []NRBand `json:"bands"`
	} `json:"fr2_bands"`
	Carriers map[string]NRCarrier `json:"us_carrier_nr_bands"`
}

func (t *NRTable) UnmarshalJSON(b []byte) error {
	var raw nrTableJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for i := range raw.FR1.Bands {
		raw.FR1.Bands[i].FR = FR1
	}
	for i := range raw.FR2.Bands {
		raw.FR2.Bands[i].FR = FR2
	}
	*t = NRTable{FR1: raw.FR1.Bands, FR2: raw.FR2.Bands, Carriers: raw.Carriers}
	return nil
}
