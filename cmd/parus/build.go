package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/parusbuild/parusc/internal/parlib"
)

// buildConfig is the one-shot build-options file `parus build` reads
// (spec SPEC_FULL §1: "parsed with gopkg.in/yaml.v3, mirroring the
// teacher's use of YAML for declarative config").
type buildConfig struct {
	Pcore        bool   `yaml:"pcore"`
	Prt          bool   `yaml:"prt"`
	Pstd         bool   `yaml:"pstd"`
	Debug        bool   `yaml:"debug"`
	TargetTriple string `yaml:"target_triple"`
	FeatureBits  uint64 `yaml:"feature_bits"`
}

func loadBuildConfig(path string) (buildConfig, error) {
	cfg := buildConfig{Pcore: true}
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("cannot read build config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("cannot parse build config %q: %w", path, err)
	}
	return cfg, nil
}

func newBuildCmd() *cobra.Command {
	var (
		configPath string
		outPath    string
	)

	cmd := &cobra.Command{
		Use:   "build <file> -o <out.parlib>",
		Short: "Compile a Parus source file down to a parlib archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			cfg, err := loadBuildConfig(configPath)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", red("Error"), err)
				return failTool()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Parsing %s...\n", cyan("→"), path)
			fe, err := runFrontend(path)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", red("Error"), err)
				return failTool()
			}

			if !fe.Bag.OK(false) {
				printDiagnostics(fe.Bag)
				return failDiagnostics()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Lowering to OIR...\n", cyan("→"))
			lowerToOIR(fe)
			if !fe.Bag.OK(false) {
				printDiagnostics(fe.Bag)
				return failDiagnostics()
			}

			out := outPath
			if out == "" {
				out = path + ".parlib"
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Packaging %s...\n", cyan("→"), out)
			res := parlib.Build(parlib.BuildOptions{
				OutputPath:   out,
				IncludePcore: cfg.Pcore,
				IncludePrt:   cfg.Prt,
				IncludePstd:  cfg.Pstd,
				IncludeDebug: cfg.Debug,
				TargetTriple: cfg.TargetTriple,
				FeatureBits:  cfg.FeatureBits,
			})
			for _, m := range res.Messages {
				fmt.Fprintln(cmd.OutOrStdout(), m.String())
			}
			if !res.OK {
				return failTool()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %s (%d bytes, %d chunks)\n",
				green("✓"), out, res.FileSize, len(res.Chunks))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output archive path (default: <file>.parlib)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "build-options YAML file (lanes, triple, feature bits)")
	return cmd
}
