package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/benn-herrera/xbind/resolver"
)

var importsCmd = &cobra.Command{
	Use:   "imports [api-description.json]",
	Short: "Print the resolved cross-module import table",
	Long:  "Prints, for every module, the classes it imports from each foreign module, as used by the Rust wrapper.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImports,
}

func init() {
	rootCmd.AddCommand(importsCmd)
}

func runImports(cmd *cobra.Command, args []string) error {
	p, err := loadProject(args[0])
	if err != nil {
		return err
	}
	table, err := resolver.ResolveAll(p.API)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, name := range p.API.ModuleNames() {
		set := table[name]
		if set == nil || len(set.Imports) == 0 {
			fmt.Fprintf(out, "%s: (none)\n", name)
			continue
		}
		fmt.Fprintf(out, "%s:\n", name)
		for _, imp := range set.Imports {
			fmt.Fprintf(out, "  %s: %s\n", imp.Module, strings.Join(imp.Classes, ", "))
		}
	}
	return nil
}
