package gen

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ResolveTool finds an external binary using the resolution order:
// 1. Explicit flag path (if non-empty)
// 2. The envVar environment variable
// 3. name in PATH
func ResolveTool(flagPath, envVar, name string) (string, error) {
	if flagPath != "" {
		if _, err := os.Stat(flagPath); err != nil {
			return "", fmt.Errorf("%s not found at specified path: %s", name, flagPath)
		}
		return flagPath, nil
	}

	if envPath := os.Getenv(envVar); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("%s not found at %s: %s", name, envVar, envPath)
		}
		return envPath, nil
	}

	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH; set %s", name, envVar)
	}
	return path, nil
}

// FormatConfig holds configuration for the formatter pass.
type FormatConfig struct {
	RustfmtPath     string // empty skips Rust files
	ClangFormatPath string // empty skips C and C++ files
	OutputDir       string
	Files           []*OutputFile
	DryRun          bool
}

// formatterFor returns the binary and arguments that reformat a file of
// lang in place. Go output is already gofmt'd when rendered.
func (cfg *FormatConfig) formatterFor(lang string) (string, []string) {
	switch lang {
	case "rust":
		return cfg.RustfmtPath, []string{"--edition", "2018"}
	case "c", "cpp":
		return cfg.ClangFormatPath, []string{"-i"}
	default:
		return "", nil
	}
}

// RunFormatters invokes the external formatter once per written file.
// Returns the number of formatter invocations run.
func RunFormatters(cfg *FormatConfig) (int, error) {
	count := 0
	for _, f := range cfg.Files {
		bin, args := cfg.formatterFor(f.Lang)
		if bin == "" {
			log.Debugf("no formatter for %s", f.Path)
			continue
		}
		args = append(args, filepath.Join(cfg.OutputDir, f.Path))

		if cfg.DryRun {
			log.Noticef("would run: %s %s", bin, strings.Join(args, " "))
			continue
		}
		log.Infof("running: %s %s", bin, strings.Join(args, " "))

		output, err := exec.Command(bin, args...).CombinedOutput()
		if err != nil {
			return count, fmt.Errorf("formatting %s failed: %w\n%s", f.Path, err, string(output))
		}
		count++
	}
	return count, nil
}
