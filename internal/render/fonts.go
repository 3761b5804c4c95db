package render

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontSet provides cached font faces at arbitrary sizes. The bundled Go
// fonts are used unless a TTF override is supplied, so rendering is
// deterministic across machines with no filesystem fonts involved.
type FontSet struct {
	regular *opentype.Font
	bold    *opentype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	size float64
	bold bool
}

// NewFontSet creates a font set from the bundled Go fonts
func NewFontSet() (*FontSet, error) {
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse regular font: %w", err)
	}
	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bold font: %w", err)
	}
	return &FontSet{
		regular: regular,
		bold:    bold,
		faces:   make(map[faceKey]font.Face),
	}, nil
}

// NewFontSetFromFile creates a font set from a TTF file, used for both
// weights. Falls back to the bundled fonts when path is empty.
func NewFontSetFromFile(path string) (*FontSet, error) {
	if path == "" {
		return NewFontSet()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font file %s: %w", path, err)
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font file %s: %w", path, err)
	}
	return &FontSet{
		regular: parsed,
		bold:    parsed,
		faces:   make(map[faceKey]font.Face),
	}, nil
}

// Face returns a cached face at the given size
func (f *FontSet) Face(size float64, bold bool) font.Face {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := faceKey{size: size, bold: bold}
	if face, ok := f.faces[key]; ok {
		return face
	}

	src := f.regular
	if bold {
		src = f.bold
	}

	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		// The bundled fonts parse at any positive size; reaching this
		// means a corrupt override file slipped past NewFontSetFromFile.
		panic(fmt.Sprintf("failed to create font face: %v", err))
	}

	f.faces[key] = face
	return face
}
