package cmd

import (
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [api-description.json]",
	Short: "Check an API description without generating",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	descriptionPath := args[0]
	log.Noticef("validating %s", descriptionPath)

	p, err := loadProject(descriptionPath)
	if err != nil {
		return err
	}

	log.Infof("API version: %s", p.API.Version)
	log.Infof("modules: %d", len(p.API.Modules))
	log.Infof("classes: %d", len(p.API.Classes()))
	log.Infof("callbacks in use: %d", len(p.API.UsedCallbacks()))

	log.Notice("validation passed")
	return nil
}
