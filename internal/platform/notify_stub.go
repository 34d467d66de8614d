//go:build !linux && !darwin && !windows

package platform

import "errors"

// ErrUnsupported is returned where no notification service is known.
var ErrUnsupported = errors.New("desktop notifications are not supported on this platform")

func Notify(title, body string, opts Options) error {
	return ErrUnsupported
}
