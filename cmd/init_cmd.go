package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/benn-herrera/xbind/config"
)

var (
	initName   string
	initOutput string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Scaffold a starter API description and xbind.toml",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initName, "name", "n", "my_api", "API name (description file stem and Go package)")
	initCmd.Flags().StringVarP(&initOutput, "output", "o", ".", "Output directory")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	log.Noticef("initializing project %s in %s", initName, initOutput)

	if err := os.MkdirAll(initOutput, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	descriptionPath := filepath.Join(initOutput, initName+".api.json")
	description := `{
  "0.1.0": {
    "engine": {
      "Engine": {
        "doc": "Main engine instance",
        "constructors": [
          { "fn_name": "new", "fn_body": "Engine::new()" }
        ],
        "functions": [
          {
            "fn_name": "frame_count",
            "args": { "self": "ref" },
            "returns": "u64",
            "fn_body": "unsafe { &*(engine.ptr as *const Engine) }.frame_count()"
          },
          {
            "fn_name": "attach",
            "args": { "self": "refmut", "renderer": "Renderer" },
            "fn_body": "unsafe { &mut *(engine.ptr as *mut Engine) }.attach(*az_renderer_downcast(renderer))"
          }
        ]
      },
      "Renderer": {
        "constructors": [
          { "fn_name": "new", "fn_body": "Renderer::new()" }
        ]
      }
    }
  }
}
`

	configFile := filepath.Join(initOutput, config.FileName)
	configText := fmt.Sprintf(`# xbind project configuration
api_version = "0.1.0"

[naming]
prefix = "Az"
postfix = "Ptr"
fn_prefix = "az_"

[output]
dir = "generated"

[output.paths]
rust_flat = "%[1]s-dll/src/lib.rs"
cheader = "%[1]s/c/%[1]s.h"
cppheader = "%[1]s/cpp/%[1]s.h"
rust_wrapper = "%[1]s/rust/%[1]s.rs"
go_wrapper = "%[1]s/go/%[1]s.go"

[rust]
flat_crate = "%[1]s_dll"

[go]
package = "%[1]s"
header = "../c/%[1]s.h"
`, initName)

	files := []struct{ path, content string }{
		{descriptionPath, description},
		{configFile, configText},
	}
	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil {
			return fmt.Errorf("%s already exists", f.path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, []byte(f.content), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", f.path, err)
		}
		log.Infof("created %s", f.path)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created:\n  %s\n  %s\n\nNext: xbind validate %s\n", descriptionPath, configFile, descriptionPath)
	return nil
}
