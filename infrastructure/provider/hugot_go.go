//go:build !ORT

package provider

import "github.com/knights-analytics/hugot"

// newHugotSession uses the pure Go backend. Build with -tags ORT to run on
// the ONNX Runtime shared library instead.
func newHugotSession() (*hugot.Session, error) {
	return hugot.NewGoSession()
}
