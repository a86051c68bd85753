// Package config holds the generator settings: marker spellings, capability
// interface names, the source-to-target type tables and template/output file
// names. Defaults reproduce the C++ target; a TOML project file can extend or
// override any table.
package config

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"packet-generator/internal/diagnostic"
)

// DefaultFileName is looked up in the schema directory when no config is given.
const DefaultFileName = "packetgen.toml"

// Config is the complete generator configuration.
type Config struct {
	Marker       MarkerConfig      `toml:"marker"`
	Capabilities CapabilityConfig  `toml:"capabilities"`
	Prefixes     PrefixConfig      `toml:"prefixes"`
	Templates    FilePair          `toml:"templates"`
	Output       FilePair          `toml:"output"`
	FixedString  string            `toml:"fixed_string"`
	WideString   bool              `toml:"wide_string"`
	Types        map[string]string `toml:"types"`
	Includes     map[string]string `toml:"includes"`
	// OptionalInclude is the dependency pulled in by nullable fields.
	OptionalInclude string `toml:"optional_include"`
}

// MarkerConfig names the annotations recognized in schema sources.
type MarkerConfig struct {
	// Directive is the comment directive marking a declaration, without "//".
	Directive string `toml:"directive"`
	// TagKey is the struct tag key carrying field options.
	TagKey string `toml:"tag_key"`
}

// CapabilityConfig holds the qualified names of the capability interfaces.
type CapabilityConfig struct {
	Collection string `toml:"collection"`
	Map        string `toml:"map"`
}

// PrefixConfig holds the two-character packet name prefixes.
type PrefixConfig struct {
	Client string `toml:"client"`
	Server string `toml:"server"`
}

// FilePair names the definitions and dispatch files.
type FilePair struct {
	Definitions string `toml:"definitions"`
	Dispatch    string `toml:"dispatch"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Marker: MarkerConfig{
			Directive: "packet:message",
			TagKey:    "packet",
		},
		Capabilities: CapabilityConfig{
			Collection: "packetdef.Collection",
			Map:        "packetdef.Map",
		},
		Prefixes: PrefixConfig{
			Client: "Cs",
			Server: "Sc",
		},
		Templates: FilePair{
			Definitions: "definitions.tmpl",
			Dispatch:    "dispatch.tmpl",
		},
		Output: FilePair{
			Definitions: "packets.h",
			Dispatch:    "packet_handler.h",
		},
		FixedString: "FixedSizeString",
		Types: map[string]string{
			"int8":             "int8_t",
			"uint8":            "uint8_t",
			"byte":             "uint8_t",
			"int16":            "int16_t",
			"uint16":           "uint16_t",
			"int32":            "int32_t",
			"rune":             "int32_t",
			"uint32":           "uint32_t",
			"int":              "int32_t",
			"uint":             "uint32_t",
			"int64":            "int64_t",
			"uint64":           "uint64_t",
			"float32":          "float",
			"float64":          "double",
			"bool":             "bool",
			"List":             "std::vector",
			"LinkedList":       "std::list",
			"Tuple":            "std::tuple",
			"Dictionary":       "std::unordered_map",
			"SortedDictionary": "std::map",
			"FixedSizeString":  "FixedSizeString",
		},
		Includes: map[string]string{
			"std::vector":        "<vector>",
			"std::list":          "<list>",
			"std::tuple":         "<tuple>",
			"std::unordered_map": "<unordered_map>",
			"std::map":           "<map>",
			"std::string":        "<string>",
			"std::wstring":       "<string>",
		},
		OptionalInclude: "<optional>",
	}
}

// LoadFile loads a TOML config from path on top of the defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, diagnostic.Wrap(diagnostic.CodeInvalidConfig, err, "reading config file %s", path)
	}

	cfg, err := Parse(string(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes TOML data on top of the defaults. Table entries are merged
// into the default tables; unknown keys are rejected.
func Parse(data string) (Config, error) {
	cfg := Default()

	meta, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, diagnostic.Wrap(diagnostic.CodeInvalidConfig, err, "failed to parse TOML")
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}

		return Config{}, diagnostic.Errorf(diagnostic.CodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that every setting the pipeline depends on is present.
func (c *Config) Validate() error {
	required := []struct {
		name, value string
	}{
		{"marker.directive", c.Marker.Directive},
		{"marker.tag_key", c.Marker.TagKey},
		{"capabilities.collection", c.Capabilities.Collection},
		{"capabilities.map", c.Capabilities.Map},
		{"templates.definitions", c.Templates.Definitions},
		{"templates.dispatch", c.Templates.Dispatch},
		{"output.definitions", c.Output.Definitions},
		{"output.dispatch", c.Output.Dispatch},
		{"fixed_string", c.FixedString},
	}

	var ds diagnostic.Diagnostics
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			ds.AddError(diagnostic.Errorf(diagnostic.CodeInvalidConfig, "%s must not be empty", r.name))
		}
	}

	if len(c.Prefixes.Client) != 2 || len(c.Prefixes.Server) != 2 || c.Prefixes.Client == c.Prefixes.Server {
		ds.AddError(diagnostic.Errorf(diagnostic.CodeInvalidConfig,
			"prefixes must be two distinct two-character strings, got %q and %q", c.Prefixes.Client, c.Prefixes.Server))
	}

	if c.Output.Definitions == c.Output.Dispatch {
		ds.AddError(diagnostic.Errorf(diagnostic.CodeInvalidConfig,
			"output files must differ, both are %q", c.Output.Definitions))
	}

	return ds.Err()
}

// TypeNames returns the source-to-target type table including the string
// mapping selected by WideString. An explicit "string" entry wins.
func (c *Config) TypeNames() map[string]string {
	names := maps.Clone(c.Types)
	if names == nil {
		names = make(map[string]string)
	}

	if _, ok := names["string"]; !ok {
		names["string"] = "std::string"
		if c.WideString {
			names["string"] = "std::wstring"
		}
	}

	return names
}
