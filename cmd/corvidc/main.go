// Command corvidc is the CLI entry point named in spec.md §6's command
// surface: a cobra command tree (compile, version) whose flags, backed by
// pflag, populate an internal/config.Options and drive a
// internal/pipeline.Driver run.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/corvid-dex/core/internal/classdef"
	"github.com/corvid-dex/core/internal/config"
	"github.com/corvid-dex/core/internal/diag"
	"github.com/corvid-dex/core/internal/item"
	"github.com/corvid-dex/core/internal/pipeline"
)

// version is set at release time; left as a plain build-time constant since
// packaging/release tooling is out of scope (spec.md §1).
const version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "corvidc",
		Short:         "corvidc compiles Android bytecode (class files or DEX) into DEX output",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(newCompileCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print corvidc's version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}

// outputFormatFlag is a pflag.Value so --output-format validates against the
// two formats config.OutputFormat names instead of accepting any string.
type outputFormatFlag struct {
	format config.OutputFormat
}

func (f *outputFormatFlag) String() string {
	if f.format == config.OutputClassFiles {
		return "classfiles"
	}
	return "dex"
}

func (f *outputFormatFlag) Set(s string) error {
	switch s {
	case "dex":
		f.format = config.OutputDex
	case "classfiles":
		f.format = config.OutputClassFiles
	default:
		return fmt.Errorf("invalid output format %q (want \"dex\" or \"classfiles\")", s)
	}
	return nil
}

func (f *outputFormatFlag) Type() string { return "string" }

var _ pflag.Value = (*outputFormatFlag)(nil)

// compileFlags mirrors internal/config.Options field-by-field; pflag binds
// directly into it rather than into a separate intermediate struct, matching
// the teacher's flat options style.
type compileFlags struct {
	configPath   string
	classpath    []string
	program      []string
	library      []string
	minAPILevel  int
	outputPath   string
	outputFormat outputFormatFlag
	desugar      bool
	proguardMap  string
	mainDexList  []string
}

func newCompileCmd() *cobra.Command {
	var flags compileFlags

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "compile program classes into a DEX output",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, &flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "path to a YAML compilation-options file (overrides the flags below)")
	f.StringSliceVar(&flags.classpath, "classpath", nil, "classpath source paths")
	f.StringSliceVar(&flags.program, "program", nil, "program source paths (compiled and emitted)")
	f.StringSliceVar(&flags.library, "library", nil, "library source paths (assumed present at runtime)")
	f.IntVar(&flags.minAPILevel, "min-api", 21, "minimum Android API level to target")
	f.StringVar(&flags.outputPath, "output", "classes.dex", "output container path")
	f.Var(&flags.outputFormat, "output-format", `output container format: "dex" or "classfiles"`)
	f.BoolVar(&flags.desugar, "desugar", true, "run the desugaring collection")
	f.StringVar(&flags.proguardMap, "proguard-map", "", "path to a Proguard mapping file to apply")
	f.StringSliceVar(&flags.mainDexList, "main-dex-list", nil, "class descriptors that must land in the primary classes.dex")

	return cmd
}

func runCompile(cmd *cobra.Command, flags *compileFlags) error {
	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("constructing logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	opts, dg := resolveOptions(flags)
	if dg != nil {
		log.Error(dg.Message, zap.String("kind", dg.Kind.String()))
		return dg
	}

	// Reading class files/DEX input into a classdef.Graph is out of scope
	// for this core (spec.md §1); an embedder is expected to populate the
	// graph itself (e.g. via its own reader) and call pipeline.NewDriver
	// directly. The CLI still validates configuration and wires the driver
	// so the command surface is exercised end to end against an empty unit.
	pool := item.NewPool()
	graph := classdef.NewGraph()

	driver := pipeline.NewDriver(pool, graph, opts, log)
	result, dg := driver.Compile(cmd.Context())
	if dg != nil {
		return dg
	}
	log.Info("compilation finished", zap.Int("program_classes", len(graph.ProgramClasses())))
	_ = result
	return nil
}

func resolveOptions(flags *compileFlags) (*config.Options, *diag.Diagnostic) {
	if flags.configPath != "" {
		return config.Load(flags.configPath)
	}
	opts := &config.Options{
		ClasspathSources: flags.classpath,
		ProgramSources:   flags.program,
		LibrarySources:   flags.library,
		MinAPILevel:      flags.minAPILevel,
		Output:           flags.outputFormat.format,
		OutputPath:       flags.outputPath,
		Desugar:          flags.desugar,
		ProguardMapPath:  flags.proguardMap,
		MainDexList:      flags.mainDexList,
	}
	if dg := opts.Validate(); dg != nil {
		return nil, dg
	}
	return opts, nil
}
