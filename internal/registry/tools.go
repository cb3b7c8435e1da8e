package registry

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vinodismyname/emcregs/internal/ecfr"
	"github.com/vinodismyname/emcregs/internal/emc"
	"github.com/vinodismyname/emcregs/internal/runtime"
	"github.com/vinodismyname/emcregs/pkg/mcperr"
	"github.com/vinodismyname/emcregs/pkg/pagination"
	"github.com/vinodismyname/emcregs/pkg/validation"
)

// Tool names.
const (
	ToolPart15          = "fcc_part15_limit"
	ToolPart18          = "fcc_part18_limit"
	ToolRestricted      = "fcc_restricted_bands"
	ToolRestrictedList  = "fcc_restricted_bands_list"
	ToolISMList         = "ism_bands_list"
	ToolCISPR           = "cispr_limit"
	ToolCompare         = "emc_compare_limits"
	ToolLTEBand         = "lte_band_lookup"
	ToolLTEBandsList    = "lte_bands_list"
	ToolNRBand          = "nr_band_lookup"
	ToolNRBandsList     = "nr_bands_list"
	ToolFrequencyToBand = "frequency_to_band"
	ToolStandardsList   = "emc_standards_list"
	ToolECFRQuery       = "ecfr_query"
)

// --- Input schemas ---

// Part15Input defines parameters for fcc_part15_limit.
type Part15Input struct {
	FrequencyMHz *float64 `json:"frequency_mhz" jsonschema_description:"Frequency in MHz" validate:"required"`
	Section      string   `json:"section,omitempty" jsonschema_description:"Section to query" validate:"omitempty,oneof=15.109 15.207 15.209 all"`
	DeviceClass  string   `json:"device_class,omitempty" jsonschema_description:"Device class" validate:"omitempty,oneof=A B both"`
}

// Part18Input defines parameters for fcc_part18_limit.
type Part18Input struct {
	FrequencyMHz  *float64 `json:"frequency_mhz" validate:"required"`
	EquipmentType string   `json:"equipment_type,omitempty" validate:"omitempty,oneof=consumer industrial"`
}

// FrequencyInput carries a single frequency.
type FrequencyInput struct {
	FrequencyMHz *float64 `json:"frequency_mhz" validate:"required"`
}

// RestrictedListInput bounds the restricted band listing.
type RestrictedListInput struct {
	FreqMinMHz *float64 `json:"freq_min_mhz,omitempty"`
	FreqMaxMHz *float64 `json:"freq_max_mhz,omitempty"`
}

// CISPRInput defines parameters for cispr_limit. Standard is matched by
// substring so it is not restricted to the enum offered in the schema, and a
// device class other than A or B reads the Class B tables.
type CISPRInput struct {
	FrequencyMHz *float64 `json:"frequency_mhz" validate:"required"`
	Standard     string   `json:"standard" validate:"required"`
	DeviceClass  string   `json:"device_class,omitempty"`
	EmissionType string   `json:"emission_type,omitempty" validate:"omitempty,oneof=radiated conducted"`
}

// CompareInput defines parameters for emc_compare_limits.
type CompareInput struct {
	FrequencyMHz *float64 `json:"frequency_mhz" validate:"required"`
	DeviceClass  string   `json:"device_class,omitempty" validate:"omitempty,oneof=A B"`
}

// LTEBandInput selects an LTE band by number.
type LTEBandInput struct {
	Band *int `json:"band" validate:"required"`
}

// LTEBandsListInput filters and pages the LTE listing. A cursor resumes a
// previous listing and overrides region and carrier.
type LTEBandsListInput struct {
	Region  string `json:"region,omitempty"`
	Carrier string `json:"carrier,omitempty"`
	Cursor  string `json:"cursor,omitempty" validate:"omitempty,cursor"`
}

// NRBandInput selects an NR band by name.
type NRBandInput struct {
	Band string `json:"band" validate:"required"`
}

// NRBandsListInput filters the NR listing.
type NRBandsListInput struct {
	FrequencyRange string `json:"frequency_range,omitempty" validate:"omitempty,oneof=FR1 FR2 all"`
	Carrier        string `json:"carrier,omitempty"`
}

// ECFRInput addresses a CFR part or section.
type ECFRInput struct {
	Title   *int   `json:"title" validate:"required,gt=0"`
	Part    *int   `json:"part" validate:"required,gt=0"`
	Section string `json:"section,omitempty" validate:"omitempty,cfr_section"`
}

// Deps are the collaborators the tool handlers call. A nil ECFR client
// disables ecfr_query.
type Deps struct {
	Service *emc.Service
	ECFR    *ecfr.Client
	Runtime *runtime.Controller
}

// RegisterTools defines every lookup tool and registers it with reg.
func RegisterTools(reg *Registry, d Deps) {
	svc := d.Service
	frequency := mcp.WithNumber("frequency_mhz", mcp.Required(), mcp.Description("Frequency in MHz"))

	reg.Register(mcp.NewTool(ToolPart15,
		mcp.WithDescription("Get FCC Part 15 emission limits for a frequency. Returns Class A and/or Class B limits for unintentional radiators (15.109), intentional radiators (15.209), or conducted emissions (15.207)."),
		mcp.WithReadOnlyHintAnnotation(true),
		frequency,
		mcp.WithString("section", mcp.Enum("15.109", "15.207", "15.209", "all"), mcp.DefaultString("all"), mcp.Description("Section to query")),
		mcp.WithString("device_class", mcp.Enum("A", "B", "both"), mcp.DefaultString("both"), mcp.Description("Device class")),
	), mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in Part15Input) (*mcp.CallToolResult, error) {
		in.Section = defaultLower(in.Section, "all")
		in.DeviceClass = normalizeClass(in.DeviceClass, "both")
		if msg := validation.ValidateStruct(in); msg != "" {
			return invalid(msg), nil
		}
		return mcp.NewToolResultText(svc.Part15(*in.FrequencyMHz, in.Section, in.DeviceClass)), nil
	}))

	reg.Register(mcp.NewTool(ToolPart18,
		mcp.WithDescription("Get FCC Part 18 (ISM equipment) emission limits. Check ISM bands and limits for industrial/consumer ISM equipment."),
		mcp.WithReadOnlyHintAnnotation(true),
		frequency,
		mcp.WithString("equipment_type", mcp.Enum("consumer", "industrial"), mcp.DefaultString("consumer"), mcp.Description("ISM equipment type")),
	), mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in Part18Input) (*mcp.CallToolResult, error) {
		in.EquipmentType = defaultLower(in.EquipmentType, "consumer")
		if msg := validation.ValidateStruct(in); msg != "" {
			return invalid(msg), nil
		}
		return mcp.NewToolResultText(svc.Part18(*in.FrequencyMHz, in.EquipmentType)), nil
	}))

	reg.Register(mcp.NewTool(ToolRestricted,
		mcp.WithDescription("Check if a frequency falls within FCC Part 15.205 restricted bands."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("frequency_mhz", mcp.Required(), mcp.Description("Frequency in MHz to check")),
	), mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in FrequencyInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return invalid(msg), nil
		}
		return mcp.NewToolResultText(svc.RestrictedCheck(*in.FrequencyMHz)), nil
	}))

	reg.Register(mcp.NewTool(ToolRestrictedList,
		mcp.WithDescription("List all FCC Part 15.205 restricted frequency bands."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("freq_min_mhz", mcp.Description("Only show bands above this frequency")),
		mcp.WithNumber("freq_max_mhz", mcp.Description("Only show bands below this frequency")),
	), mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in RestrictedListInput) (*mcp.CallToolResult, error) {
		lo, hi := 0.0, math.Inf(1)
		if in.FreqMinMHz != nil {
			lo = *in.FreqMinMHz
		}
		if in.FreqMaxMHz != nil {
			hi = *in.FreqMaxMHz
		}
		return mcp.NewToolResultText(svc.RestrictedList(lo, hi)), nil
	}))

	reg.Register(mcp.NewTool(ToolISMList,
		mcp.WithDescription("List all ISM (Industrial, Scientific, Medical) frequency bands per ITU Radio Regulations."),
		mcp.WithReadOnlyHintAnnotation(true),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(svc.ISMList()), nil
	})

	reg.Register(mcp.NewTool(ToolCISPR,
		mcp.WithDescription("Get CISPR emission limits (CISPR 11, 22, 32, 14-1). Returns radiated or conducted limits for Class A or B."),
		mcp.WithReadOnlyHintAnnotation(true),
		frequency,
		mcp.WithString("standard", mcp.Required(), mcp.Enum("CISPR 11", "CISPR 22", "CISPR 32", "CISPR 14-1"), mcp.Description("CISPR standard")),
		mcp.WithString("device_class", mcp.Enum("A", "B"), mcp.DefaultString("B"), mcp.Description("Device class")),
		mcp.WithString("emission_type", mcp.Enum("radiated", "conducted"), mcp.DefaultString("radiated"), mcp.Description("Emission type")),
	), mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in CISPRInput) (*mcp.CallToolResult, error) {
		in.Standard = strings.TrimSpace(in.Standard)
		in.DeviceClass = normalizeClass(in.DeviceClass, "B")
		in.EmissionType = defaultLower(in.EmissionType, "radiated")
		if msg := validation.ValidateStruct(in); msg != "" {
			return invalid(msg), nil
		}
		return mcp.NewToolResultText(svc.CISPR(*in.FrequencyMHz, in.Standard, in.DeviceClass, in.EmissionType)), nil
	}))

	reg.Register(mcp.NewTool(ToolCompare,
		mcp.WithDescription("Compare emission limits between FCC and CISPR standards at a given frequency."),
		mcp.WithReadOnlyHintAnnotation(true),
		frequency,
		mcp.WithString("device_class", mcp.Enum("A", "B"), mcp.DefaultString("B"), mcp.Description("Device class")),
	), mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in CompareInput) (*mcp.CallToolResult, error) {
		in.DeviceClass = normalizeClass(in.DeviceClass, "B")
		if msg := validation.ValidateStruct(in); msg != "" {
			return invalid(msg), nil
		}
		return mcp.NewToolResultText(svc.Compare(*in.FrequencyMHz, in.DeviceClass)), nil
	}))

	reg.Register(mcp.NewTool(ToolLTEBand,
		mcp.WithDescription("Look up 3GPP LTE band information by band number. Returns frequencies, duplex mode, bandwidths."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("band", mcp.Required(), mcp.Description("LTE band number (e.g., 7, 12, 41)")),
	), mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in LTEBandInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return invalid(msg), nil
		}
		return mcp.NewToolResultText(svc.LTEBand(*in.Band)), nil
	}))

	reg.Register(mcp.NewTool(ToolLTEBandsList,
		mcp.WithDescription("List all LTE bands, optionally filtered by region or carrier. Long listings end with a cursor for the next page."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("region", mcp.Description("Filter by region (Americas, Europe, APAC, Global)")),
		mcp.WithString("carrier", mcp.Description("Filter by US carrier (att, verizon, tmobile)")),
		mcp.WithString("cursor", mcp.Description("Continuation cursor from a previous lte_bands_list call")),
	), mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in LTEBandsListInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return invalid(msg), nil
		}
		region, carrier := strings.TrimSpace(in.Region), strings.TrimSpace(in.Carrier)
		offset := 0
		if in.Cursor != "" {
			c, err := pagination.DecodeCursor(in.Cursor)
			if err != nil {
				return invalid(string(mcperr.CursorInvalid) + ": " + err.Error()), nil
			}
			region, carrier, offset = c.F, "", c.Off
		}
		page := svc.LTEBands(region, carrier, offset)
		return mcp.NewToolResultText(page.Text + lteTrailer(region, offset, page)), nil
	}))

	reg.Register(mcp.NewTool(ToolNRBand,
		mcp.WithDescription("Look up 3GPP 5G NR band information by band name (e.g., n77, n260)."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("band", mcp.Required(), mcp.Description("NR band name (e.g., 'n77', 'n260')")),
	), mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in NRBandInput) (*mcp.CallToolResult, error) {
		in.Band = normalizeNRBand(in.Band)
		if msg := validation.ValidateStruct(in); msg != "" {
			return invalid(msg), nil
		}
		return mcp.NewToolResultText(svc.NRBand(in.Band)), nil
	}))

	reg.Register(mcp.NewTool(ToolNRBandsList,
		mcp.WithDescription("List all 5G NR bands, optionally filtered by frequency range (FR1 sub-6GHz, FR2 mmWave)."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithString("frequency_range", mcp.Enum("FR1", "FR2", "all"), mcp.DefaultString("all"), mcp.Description("FR1 (sub-6), FR2 (mmWave), or all")),
		mcp.WithString("carrier", mcp.Description("Filter by US carrier (att, verizon, tmobile)")),
	), mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in NRBandsListInput) (*mcp.CallToolResult, error) {
		in.FrequencyRange = strings.TrimSpace(in.FrequencyRange)
		if in.FrequencyRange == "" || strings.EqualFold(in.FrequencyRange, "all") {
			in.FrequencyRange = "all"
		} else {
			in.FrequencyRange = strings.ToUpper(in.FrequencyRange)
		}
		if msg := validation.ValidateStruct(in); msg != "" {
			return invalid(msg), nil
		}
		return mcp.NewToolResultText(svc.NRBands(in.FrequencyRange, strings.TrimSpace(in.Carrier))), nil
	}))

	reg.Register(mcp.NewTool(ToolFrequencyToBand,
		mcp.WithDescription("Find which LTE/NR bands contain a given frequency."),
		mcp.WithReadOnlyHintAnnotation(true),
		frequency,
	), mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in FrequencyInput) (*mcp.CallToolResult, error) {
		if msg := validation.ValidateStruct(in); msg != "" {
			return invalid(msg), nil
		}
		return mcp.NewToolResultText(svc.FrequencyToBand(*in.FrequencyMHz)), nil
	}))

	reg.Register(mcp.NewTool(ToolStandardsList,
		mcp.WithDescription("List all available EMC standards and regulations in the database."),
		mcp.WithReadOnlyHintAnnotation(true),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(svc.StandardsList()), nil
	})

	reg.Register(mcp.NewTool(ToolECFRQuery,
		mcp.WithDescription("Query the eCFR API for specific CFR sections."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
		mcp.WithNumber("title", mcp.Required(), mcp.Description("CFR title (47 for FCC)")),
		mcp.WithNumber("part", mcp.Required(), mcp.Description("CFR part (15, 18, etc.)")),
		mcp.WithString("section", mcp.Description("Section number (e.g., '15.209')")),
	), mcp.NewTypedToolHandler(func(ctx context.Context, req mcp.CallToolRequest, in ECFRInput) (*mcp.CallToolResult, error) {
		in.Section = strings.TrimSpace(in.Section)
		if msg := validation.ValidateStruct(in); msg != "" {
			return invalid(msg), nil
		}
		if d.ECFR == nil {
			return mcperr.New(mcperr.DataUnavailable, "ecfr_query is disabled in offline mode"), nil
		}
		if d.Runtime != nil {
			limits := d.Runtime.LimitsSnapshot()
			acquireCtx, cancel := context.WithTimeout(ctx, limits.AcquireRequestTimeout)
			defer cancel()
			if err := d.Runtime.AcquireUpstream(acquireCtx); err != nil {
				return mcperr.Wrapf(mcperr.BusyResource, "eCFR call limit reached (max=%d)", limits.MaxUpstreamCalls), nil
			}
			defer d.Runtime.ReleaseUpstream()
		}
		return mcp.NewToolResultText(d.ECFR.Query(ctx, *in.Title, *in.Part, in.Section)), nil
	}))
}

// invalid renders a validation failure as ordinary text so the client can
// correct its arguments.
func invalid(msg string) *mcp.CallToolResult {
	return mcp.NewToolResultText(mcperr.Message(mcperr.Split(msg)))
}

func lteTrailer(region string, offset int, page emc.LTEPage) string {
	if page.Remaining <= 0 || page.Shown <= 0 {
		return ""
	}
	tok, err := pagination.EncodeCursor(pagination.Cursor{
		T:   pagination.ListingLTE,
		F:   region,
		Off: pagination.NextOffset(offset, page.Shown),
		Ps:  page.Shown,
	})
	if err != nil {
		return ""
	}
	return fmt.Sprintf("\n... %d more bands. Continue with cursor: %s", page.Remaining, tok)
}

func defaultLower(s, def string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return def
	}
	return s
}

// normalizeClass upper-cases a class letter and keeps "both" as is.
func normalizeClass(s, def string) string {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return def
	case strings.EqualFold(s, "both"):
		return "both"
	}
	return strings.ToUpper(s)
}

// normalizeNRBand turns "77" or "N77" into "n77".
func normalizeNRBand(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if strings.Trim(s, "0123456789") == "" {
		return "n" + s
	}
	if s[0] == 'N' {
		return "n" + s[1:]
	}
	return s
}
