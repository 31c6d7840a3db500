// Package config implements the command surface named in spec.md §6: an
// Options struct parameterizing a compilation, a yaml.v3-backed on-disk
// loader, and a small line-oriented Proguard map parser. Grounded on the
// teacher's own flat, field-by-field Options-equivalent (tinyrange-rtg has
// no config file of its own; the yaml/pflag wiring below is grounded on the
// wider retrieval pack instead — see DESIGN.md).
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/corvid-dex/core/internal/diag"
)

// OutputFormat selects the container format a compilation emits.
type OutputFormat int

const (
	OutputDex OutputFormat = iota
	OutputClassFiles
)

// Options parameterizes one compilation run (spec.md §6 "command surface").
type Options struct {
	ClasspathSources []string `yaml:"classpath_sources"`
	ProgramSources   []string `yaml:"program_sources"`
	LibrarySources   []string `yaml:"library_sources"`

	MinAPILevel int          `yaml:"min_api_level"`
	Output      OutputFormat `yaml:"-"`
	OutputPath  string       `yaml:"output_path"`

	Desugar bool `yaml:"desugar"`

	ProguardMapPath string `yaml:"proguard_map_path"`

	// MainDexList names classes (descriptor form) that must land in the
	// primary classes.dex of a legacy-multidex output (spec.md §9
	// supplemented feature; original_source/ main-dex-list support).
	MainDexList []string `yaml:"main_dex_list"`

	// FeatureSplits maps a feature-split module name to the program class
	// descriptors it owns, letting the index assembly partition output
	// across more than one container.
	FeatureSplits map[string][]string `yaml:"feature_splits"`
}

// Validate applies the cross-field checks spec.md §6/§7 calls out as
// ConfigurationError conditions, returning a *diag.Diagnostic (not a plain
// error) so callers route it straight to a Reporter's FatalError.
func (o *Options) Validate() *diag.Diagnostic {
	if o.MinAPILevel <= 0 {
		return diag.New(diag.KindConfigurationError, "min_api_level must be positive", nil)
	}
	if o.Desugar && o.MinAPILevel <= 0 {
		return diag.New(diag.KindConfigurationError, "desugaring requires a known min-api level", nil)
	}
	if len(o.LibrarySources) == 0 && o.Desugar {
		return diag.New(diag.KindConfigurationError, "desugaring on library code with no min-api is unsupported", nil)
	}
	return nil
}

// Load reads an Options struct from a YAML file at path. A missing file is
// reported as a ConfigurationError, not a bare os error, so Reporter
// consumers don't need to type-switch on *os.PathError.
func Load(path string) (*Options, *diag.Diagnostic) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.New(diag.KindConfigurationError, "reading config file "+path, err)
	}
	var o Options
	if err := yaml.Unmarshal(raw, &o); err != nil {
		return nil, diag.New(diag.KindConfigurationError, "parsing config file "+path, err)
	}
	return &o, nil
}
