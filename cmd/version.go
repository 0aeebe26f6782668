package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benn-herrera/xbind/gen"
)

// Version is stamped by the release build:
//
//	go build -ldflags "-X github.com/benn-herrera/xbind/cmd.Version=1.0.0"
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the xbind version and the registered targets",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "xbind %s\n", Version)
		fmt.Fprintf(out, "targets: %s\n", strings.Join(gen.All(), ", "))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
