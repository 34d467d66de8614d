//go:build (linux || freebsd || openbsd || netbsd || dragonfly) && cgo

package clipboard

import (
	"golang.design/x/clipboard"
)

type designBackend struct{}

func openBackend() (backend, error) {
	if !hasDisplay() {
		return nil, errNoDisplay
	}
	if err := clipboard.Init(); err != nil {
		return nil, err
	}
	return designBackend{}, nil
}

func fmtOf(f format) clipboard.Format {
	if f == formatPNG {
		return clipboard.FmtImage
	}
	return clipboard.FmtText
}

func (designBackend) read(f format) ([]byte, error) {
	return clipboard.Read(fmtOf(f)), nil
}

func (designBackend) write(f format, data []byte) error {
	clipboard.Write(fmtOf(f), data)
	return nil
}
