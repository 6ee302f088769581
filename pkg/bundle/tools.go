package bundle

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Helper tools embedded at build time and materialized into the tools/ cache.
// The version-qualified filenames are load-bearing: they pin the tool format
// the rest of the pipeline expects.
const (
	apktoolName    = "apktool-2.8.1.jar"
	bundletoolName = "bundletool-1.15.4.jar"
)

//go:embed tools/apktool-2.8.1.jar
var apktoolJAR []byte

//go:embed tools/bundletool-1.15.4.jar
var bundletoolJAR []byte

// materializeTools writes the embedded helper tools into the tools/ cache
// directory. Writes are unconditional; the content is a build-time constant,
// so rewriting leaves the cache byte-identical.
func (p *Pipeline) materializeTools() error {
	toolsDir := p.toolsDir()
	if err := os.MkdirAll(toolsDir, 0o750); err != nil {
		return fmt.Errorf("failed to create tools directory: %w", err)
	}

	var g errgroup.Group

	for name, data := range map[string][]byte{
		apktoolName:    apktoolJAR,
		bundletoolName: bundletoolJAR,
	} {
		g.Go(func() error {
			if err := os.WriteFile(filepath.Join(toolsDir, name), data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", name, err)
			}

			return nil
		})
	}

	return g.Wait()
}
