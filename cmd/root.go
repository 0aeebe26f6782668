package cmd

import (
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var (
	verbose    bool
	quiet      bool
	configPath string
	apiVersion string
)

var log = commonlog.GetLogger("xbind")

var rootCmd = &cobra.Command{
	Use:   "xbind",
	Short: "FFI binding generator for opaque-pointer APIs",
	Long: "xbind generates a flat C ABI (Rust extern \"C\" definitions plus C and C++ headers) and owning " +
		"Rust and Go wrappers from a single API description.",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to xbind.toml (default: beside the API description)")
	rootCmd.PersistentFlags().StringVar(&apiVersion, "api-version", "", "API version key to generate (default: config api_version, else the last one)")
}

// configureLogging maps -q / -v onto commonlog verbosity: errors only,
// notices, or everything down to debug.
func configureLogging() {
	verbosity := 0
	switch {
	case quiet:
		verbosity = -2
	case verbose:
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)
}

func Execute() error {
	return rootCmd.Execute()
}
