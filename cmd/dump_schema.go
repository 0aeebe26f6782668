package cmd

import (
	"fmt"
	"os"

	"github.com/benn-herrera/xbind/loader"
	"github.com/spf13/cobra"
)

var dumpSchemaOutput string

var dumpSchemaCmd = &cobra.Command{
	Use:   "dump_schema",
	Short: "Print the built-in API description JSON Schema",
	Long:  "Prints the JSON Schema used to validate xbind API descriptions. Use -o to write to a file.",
	RunE: func(cmd *cobra.Command, args []string) error {
		schema := loader.SchemaJSON()
		if dumpSchemaOutput == "" {
			fmt.Fprintln(cmd.OutOrStdout(), schema)
			return nil
		}
		if err := os.WriteFile(dumpSchemaOutput, []byte(schema+"\n"), 0644); err != nil {
			return fmt.Errorf("writing schema to %s: %w", dumpSchemaOutput, err)
		}
		log.Noticef("schema written to %s", dumpSchemaOutput)
		return nil
	},
}

func init() {
	dumpSchemaCmd.Flags().StringVarP(&dumpSchemaOutput, "output", "o", "", "Write schema to file instead of stdout")
	rootCmd.AddCommand(dumpSchemaCmd)
}
