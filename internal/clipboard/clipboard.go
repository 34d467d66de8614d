// Package clipboard copies text, PNG previews and box lists to the desktop
// clipboard.
package clipboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"sync"

	"github.com/example/papermark/internal/boxes"
	"github.com/example/papermark/internal/geom"
)

type format int

const (
	formatText format = iota
	formatPNG
)

// backend is one platform clipboard implementation.
type backend interface {
	read(f format) ([]byte, error)
	write(f format, data []byte) error
}

var (
	initOnce     sync.Once
	initErr      error
	current      backend
	errNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")

	// open is replaced in tests.
	open = openBackend
)

func ensureInit() (backend, error) {
	initOnce.Do(func() {
		current, initErr = open()
	})
	return current, initErr
}

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// WriteImage encodes the provided image as PNG and publishes it to the clipboard.
func WriteImage(img image.Image) error {
	b, err := ensureInit()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return err
	}
	return b.write(formatPNG, buf.Bytes())
}

// ReadImage retrieves PNG image data from the clipboard and decodes it.
func ReadImage() (image.Image, error) {
	b, err := ensureInit()
	if err != nil {
		return nil, err
	}
	data, err := b.read(formatPNG)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("clipboard does not contain image data")
	}
	return png.Decode(bytes.NewReader(data))
}

// WriteText writes text data to the clipboard.
func WriteText(text string) error {
	b, err := ensureInit()
	if err != nil {
		return err
	}
	return b.write(formatText, []byte(text))
}

// ReadText returns UTF-8 text data from the clipboard.
func ReadText() (string, error) {
	b, err := ensureInit()
	if err != nil {
		return "", err
	}
	data, err := b.read(formatText)
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("clipboard does not contain text data")
	}
	return string(data), nil
}

// CopyBoxes writes bs as a JSON list of {page, bbox}.
func CopyBoxes(bs []boxes.PageBox) error {
	data, err := EncodeBoxes(bs)
	if err != nil {
		return err
	}
	return WriteText(string(data))
}

// PasteBoxes reads a box list written by CopyBoxes or by hand.
func PasteBoxes() ([]boxes.PageBox, error) {
	text, err := ReadText()
	if err != nil {
		return nil, err
	}
	return DecodeBoxes([]byte(text))
}

// EncodeBoxes drops draft tags and marshals bs.
func EncodeBoxes(bs []boxes.PageBox) ([]byte, error) {
	out := make([]boxes.PageBox, len(bs))
	for i, b := range bs {
		out[i] = b.Plain()
	}
	return json.Marshal(out)
}

// DecodeBoxes parses a box list. Boxes are normalized and entries with
// non-finite coordinates are skipped.
func DecodeBoxes(data []byte) ([]boxes.PageBox, error) {
	var in []boxes.PageBox
	if err := json.Unmarshal(bytes.TrimSpace(data), &in); err != nil {
		return nil, fmt.Errorf("clipboard does not contain boxes: %w", err)
	}
	out := make([]boxes.PageBox, 0, len(in))
	for _, b := range in {
		if !b.BBox.Valid() {
			continue
		}
		out = append(out, boxes.PageBox{Page: b.Page, BBox: geom.Normalize(b.BBox)})
	}
	return out, nil
}
