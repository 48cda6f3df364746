package mosaic

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/perimeterx/marshmallow"
)

//go:embed profiles/*.json
var embeddedProfilesFS embed.FS

// Profile bundles the encode and extraction knobs of a run. Unknown keys in
// a profile file are rejected, absent keys fall back to their defaults.
type Profile struct {
	// Compression of the tile artifacts and the composite: "none" or "deflate".
	Compression string `default:"deflate" validate:"oneof=none deflate" json:"compression"`
	// Depth of the final composite: "byte" clamps to 8 bits, "uint16" keeps
	// the working depth.
	Depth string `default:"byte" validate:"oneof=byte uint16" json:"depth"`
	// Overviews are the reduced-resolution factors built after compositing.
	Overviews []int `default:"[2,4,8,16]" validate:"omitempty,dive,gte=2" json:"overviews"`
	// Resampling used for the overviews: "catmullrom", "bilinear" or "nearest".
	Resampling string `default:"catmullrom" validate:"oneof=catmullrom bilinear nearest" json:"resampling"`
	// Overscan is the extra tile read margin in pixels.
	Overscan int `default:"5" validate:"gte=0" json:"overscan"`
	// NoData is the sentinel assumed for sources that do not declare one.
	NoData float64 `default:"256" json:"nodata"`
	// SRSID is the EPSG code written to the GeoPackage outputs.
	SRSID int `default:"26912" validate:"gt=0" json:"epsg"`
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	if err := defaults.Set(p); err != nil {
		return err
	}
	unknown, err := marshmallow.Unmarshal(data, p, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		return fmt.Errorf("unknown profile keys: %v", keysOf(unknown))
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(p)
}

func keysOf(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// DefaultProfile loads the embedded default profile.
func DefaultProfile() Profile {
	data, err := embeddedProfilesFS.ReadFile("profiles/default.json")
	if err != nil {
		panic(fmt.Errorf("embedded default profile: %w", err))
	}
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		panic(fmt.Errorf("embedded default profile: %w", err))
	}
	return p
}

// LoadProfile reads a profile from disk, or the embedded default when path
// is empty.
func LoadProfile(path string) (Profile, error) {
	if path == "" {
		return DefaultProfile(), nil
	}
	var p Profile
	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("reading profile %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parsing profile %s: %w", path, err)
	}
	return p, nil
}
