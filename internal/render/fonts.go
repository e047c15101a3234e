package render

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
)

var (
	parseOnce   sync.Once
	regularFont *truetype.Font
	boldFont    *truetype.Font
	parseErr    error
)

func loadFonts() error {
	parseOnce.Do(func() {
		if regularFont, parseErr = truetype.Parse(goregular.TTF); parseErr != nil {
			parseErr = fmt.Errorf("failed to parse regular font: %w", parseErr)
			return
		}
		if boldFont, parseErr = truetype.Parse(gobold.TTF); parseErr != nil {
			parseErr = fmt.Errorf("failed to parse bold font: %w", parseErr)
		}
	})
	return parseErr
}

type faceKey struct {
	bold bool
	size float64
}

// faceCache holds font faces for one scene. Faces are not safe for concurrent use,
// so every scene owns its cache.
type faceCache struct {
	faces map[faceKey]font.Face
}

func (c *faceCache) face(bold bool, size float64) (font.Face, error) {
	if err := loadFonts(); err != nil {
		return nil, err
	}
	key := faceKey{bold: bold, size: size}
	if f, ok := c.faces[key]; ok {
		return f, nil
	}
	if c.faces == nil {
		c.faces = make(map[faceKey]font.Face)
	}
	ttf := regularFont
	if bold {
		ttf = boldFont
	}
	f := truetype.NewFace(ttf, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	})
	c.faces[key] = f
	return f, nil
}
