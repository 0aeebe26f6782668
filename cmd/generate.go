package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/benn-herrera/xbind/gen"
)

var (
	genOutput      string
	genTargets     []string
	genDryRun      bool
	genClean       bool
	genFormat      bool
	genRustfmt     string
	genClangFormat string
)

var generateCmd = &cobra.Command{
	Use:   "generate [api-description.json]",
	Short: "Generate the flat ABI, C/C++ headers and owning wrappers",
	Args:  cobra.ExactArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "./generated", "Output directory (overrides [output] dir)")
	generateCmd.Flags().StringSliceVar(&genTargets, "targets", nil, "Override targets (comma-separated)")
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "Show what would be generated without writing")
	generateCmd.Flags().BoolVar(&genClean, "clean", false, "Remove previously generated files first")
	generateCmd.Flags().BoolVar(&genFormat, "format", false, "Run rustfmt and clang-format over the written files")
	generateCmd.Flags().StringVar(&genRustfmt, "rustfmt", "", "Path to rustfmt (default: XBIND_RUSTFMT, then PATH)")
	generateCmd.Flags().StringVar(&genClangFormat, "clang-format", "", "Path to clang-format (default: XBIND_CLANG_FORMAT, then PATH)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	descriptionPath := args[0]
	log.Noticef("generating from %s", descriptionPath)

	p, err := loadProject(descriptionPath)
	if err != nil {
		return err
	}
	cfg := p.Config

	ctx, err := gen.NewContext(p.API, p.Naming)
	if err != nil {
		return err
	}
	ctx.Rust.FlatCrate = cfg.Rust.FlatCrate
	if len(cfg.Rust.Prelude) > 0 {
		ctx.Rust.Prelude = cfg.Rust.Prelude
	}
	ctx.Go = gen.GoOptions{Package: cfg.Go.Package, Header: cfg.Go.Header, LDFlags: cfg.Go.LDFlags}
	for target, path := range cfg.Output.Paths {
		ctx.Paths[target] = path
	}
	ctx.Banner, err = gen.LoadBanner(cfg.ResolvePath(cfg.Banner.License), cfg.ResolvePath(cfg.Banner.Readme))
	if err != nil {
		return err
	}
	ctx.Verbose = verbose
	ctx.DryRun = genDryRun

	selection := cfg.Targets.Enabled
	if len(genTargets) > 0 {
		selection = genTargets
	}
	targets, err := gen.ResolveTargets(selection)
	if err != nil {
		return err
	}

	outputDir := genOutput
	if !cmd.Flags().Changed("output") {
		outputDir = cfg.OutputDir(genOutput)
	}

	files, err := gen.GenerateAll(ctx, targets)
	if err != nil {
		return err
	}

	var format *gen.FormatConfig
	if genFormat {
		if format, err = resolveFormatters(files); err != nil {
			return err
		}
		format.OutputDir = outputDir
		format.DryRun = genDryRun
	}

	written, err := gen.WriteAll(outputDir, files, gen.WriteOptions{DryRun: genDryRun, Clean: genClean})
	if err != nil {
		return err
	}

	formatted := 0
	if format != nil {
		if formatted, err = gen.RunFormatters(format); err != nil {
			return fmt.Errorf("format: %w", err)
		}
	}

	if !genDryRun {
		if formatted > 0 {
			log.Noticef("generated %d files in %s (%d formatted)", written, outputDir, formatted)
		} else {
			log.Noticef("generated %d files in %s", written, outputDir)
		}
	}
	return nil
}

// resolveFormatters finds the formatter binaries the generated languages
// need. Checked before anything is written so a missing tool aborts cleanly.
func resolveFormatters(files []*gen.OutputFile) (*gen.FormatConfig, error) {
	cfg := &gen.FormatConfig{Files: files}
	langs := map[string]bool{}
	for _, f := range files {
		langs[f.Lang] = true
	}
	var err error
	if langs["rust"] {
		if cfg.RustfmtPath, err = gen.ResolveTool(genRustfmt, "XBIND_RUSTFMT", "rustfmt"); err != nil {
			return nil, fmt.Errorf("--format: %w", err)
		}
	}
	if langs["c"] || langs["cpp"] {
		if cfg.ClangFormatPath, err = gen.ResolveTool(genClangFormat, "XBIND_CLANG_FORMAT", "clang-format"); err != nil {
			return nil, fmt.Errorf("--format: %w", err)
		}
	}
	return cfg, nil
}
