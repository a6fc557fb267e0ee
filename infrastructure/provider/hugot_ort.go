//go:build ORT

package provider

import (
	"os"
	"path/filepath"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/options"
)

func newHugotSession() (*hugot.Session, error) {
	var opts []options.WithOption
	if dir := ortLibraryDir(); dir != "" {
		opts = append(opts, options.WithOnnxLibraryPath(dir))
	}
	return hugot.NewORTSession(opts...)
}

// ortLibraryDir locates the ONNX Runtime library: ORT_LIB_DIR first, then a
// lib directory next to the binary or under the working directory. An empty
// result leaves the choice to hugot.
func ortLibraryDir() string {
	if dir := os.Getenv("ORT_LIB_DIR"); dir != "" {
		return dir
	}

	var roots []string
	if exe, err := os.Executable(); err == nil {
		roots = append(roots, filepath.Dir(exe))
	}
	if wd, err := os.Getwd(); err == nil {
		roots = append(roots, wd)
	}
	for _, root := range roots {
		lib := filepath.Join(root, "lib")
		if info, err := os.Stat(lib); err == nil && info.IsDir() {
			return lib
		}
	}
	return ""
}
