package clipboard

import (
	"image"
	"image/color"
	"reflect"
	"sync"
	"testing"

	"github.com/example/papermark/internal/boxes"
	"github.com/example/papermark/internal/geom"
)

type memBackend struct{ data map[format][]byte }

func (m *memBackend) read(f format) ([]byte, error) { return m.data[f], nil }

func (m *memBackend) write(f format, data []byte) error {
	m.data[f] = data
	return nil
}

func useMemory(t *testing.T) *memBackend {
	t.Helper()
	m := &memBackend{data: map[format][]byte{}}
	prev := open
	open = func() (backend, error) { return m, nil }
	initOnce = sync.Once{}
	current, initErr = nil, nil
	t.Cleanup(func() {
		open = prev
		initOnce = sync.Once{}
		current, initErr = nil, nil
	})
	return m
}

func TestCopyPasteBoxes(t *testing.T) {
	m := useMemory(t)
	in := []boxes.PageBox{
		{Page: 2, BBox: geom.Box{0.1, 0.2, 0.5, 0.3}, Source: boxes.SourceOCR, DraftIdx: 1, Label: "3"},
	}
	if err := CopyBoxes(in); err != nil {
		t.Fatal(err)
	}
	if got := string(m.data[formatText]); got != `[{"page":2,"bbox":[0.1,0.2,0.5,0.3]}]` {
		t.Fatalf("clipboard text %s", got)
	}
	out, err := PasteBoxes()
	if err != nil {
		t.Fatal(err)
	}
	want := []boxes.PageBox{{Page: 2, BBox: geom.Box{0.1, 0.2, 0.5, 0.3}}}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("got %+v want %+v", out, want)
	}
}

func TestDecodeBoxesNormalizes(t *testing.T) {
	out, err := DecodeBoxes([]byte(` [{"page":1,"bbox":[0.9,0.5,0.2,-1]}] `))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].BBox != (geom.Box{0.2, 0, 0.9, 0.5}) {
		t.Fatalf("got %+v", out)
	}
	if _, err := DecodeBoxes([]byte("hello")); err == nil {
		t.Fatal("expected error for plain text")
	}
}

func TestImageRoundTrip(t *testing.T) {
	useMemory(t)
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	if err := WriteImage(img); err != nil {
		t.Fatal(err)
	}
	got, err := ReadImage()
	if err != nil {
		t.Fatal(err)
	}
	if got.Bounds() != img.Bounds() {
		t.Fatalf("bounds %v", got.Bounds())
	}
	if r, _, _, _ := got.At(1, 1).RGBA(); r != 0xffff {
		t.Fatalf("pixel lost: %v", got.At(1, 1))
	}
}

func TestReadTextEmpty(t *testing.T) {
	useMemory(t)
	if _, err := ReadText(); err == nil {
		t.Fatal("expected error for empty clipboard")
	}
}
