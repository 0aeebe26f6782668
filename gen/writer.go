package gen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("xbind.gen")

// GenerateAll runs the named generators against one context. The first
// failure aborts the run and no files are returned.
func GenerateAll(ctx *Context, targets []string) ([]*OutputFile, error) {
	var all []*OutputFile
	for _, name := range targets {
		g, ok := Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown target %q (available: %v)", name, All())
		}
		log.Debugf("running generator: %s", g.Name())
		files, err := g.Generate(ctx)
		if err != nil {
			return nil, fmt.Errorf("generator %s failed: %w", name, err)
		}
		all = append(all, files...)
	}
	return all, nil
}

// WriteOptions controls WriteAll.
type WriteOptions struct {
	DryRun bool
	Clean  bool // remove outputDir before writing
}

// WriteAll writes every file below outputDir. Each file is first staged next
// to its destination and only renamed into place once every file has been
// staged. If a rename fails, the files already moved are removed and any
// file they replaced is restored, so a failure leaves no new artifact behind.
// Returns the number of files written.
func WriteAll(outputDir string, files []*OutputFile, opts WriteOptions) (int, error) {
	if opts.Clean {
		log.Noticef("cleaning %s", outputDir)
		if !opts.DryRun {
			if err := os.RemoveAll(outputDir); err != nil {
				return 0, fmt.Errorf("cleaning %s: %w", outputDir, err)
			}
		}
	}

	if opts.DryRun {
		for _, f := range files {
			log.Noticef("would write: %s", filepath.Join(outputDir, f.Path))
		}
		return 0, nil
	}

	type staged struct {
		tmp, dest string
		prev      string // backup of a replaced file, empty if dest was new
		done      bool
	}
	var pending []staged
	discard := func() {
		for _, s := range pending {
			os.Remove(s.tmp)
		}
	}
	// rollback undoes the renames of pending[:n] in reverse order and restores
	// every replaced file.
	rollback := func(n int) {
		for i := n - 1; i >= 0; i-- {
			s := pending[i]
			if s.done {
				os.Remove(s.dest)
			}
			if s.prev != "" {
				if err := os.Rename(s.prev, s.dest); err != nil {
					log.Errorf("restoring %s: %s", s.dest, err)
				}
			}
		}
		discard()
	}

	for _, f := range files {
		dest := filepath.Join(outputDir, f.Path)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			discard()
			return 0, fmt.Errorf("creating directory for %s: %w", dest, err)
		}
		tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
		if err != nil {
			discard()
			return 0, fmt.Errorf("staging %s: %w", dest, err)
		}
		pending = append(pending, staged{tmp: tmp.Name(), dest: dest})
		_, err = tmp.Write(f.Content)
		if cerr := tmp.Close(); err == nil {
			err = cerr
		}
		if err == nil {
			err = os.Chmod(tmp.Name(), 0644)
		}
		if err != nil {
			discard()
			return 0, fmt.Errorf("staging %s: %w", dest, err)
		}
	}

	for i := range pending {
		s := &pending[i]
		if info, err := os.Lstat(s.dest); err == nil && info.Mode().IsRegular() {
			if err := os.Rename(s.dest, s.tmp+".prev"); err != nil {
				rollback(i)
				return 0, fmt.Errorf("replacing %s: %w", s.dest, err)
			}
			s.prev = s.tmp + ".prev"
		}
		if err := os.Rename(s.tmp, s.dest); err != nil {
			rollback(i + 1)
			return 0, fmt.Errorf("writing %s: %w", s.dest, err)
		}
		s.done = true
	}
	for _, s := range pending {
		if s.prev != "" {
			os.Remove(s.prev)
		}
		log.Infof("wrote: %s", s.dest)
	}
	return len(pending), nil
}
