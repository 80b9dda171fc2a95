package fonts

import (
	"sync"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/gomediumitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// Generic family names. They are always registered.
const (
	SansSerif = "sans-serif"
	Serif     = "serif"
)

type embeddedVariant struct {
	weight int
	italic bool
	data   []byte
}

// goVariants are the Go fonts compiled into the binary.
var goVariants = []embeddedVariant{
	{400, false, goregular.TTF},
	{400, true, goitalic.TTF},
	{500, false, gomedium.TTF},
	{500, true, gomediumitalic.TTF},
	{700, false, gobold.TTF},
	{700, true, gobolditalic.TTF},
}

// Parsed embedded variants are shared by every registry (computed once).
var (
	embedded     []*Variant
	embeddedErr  error
	embeddedOnce sync.Once
)

func embeddedGo() ([]*Variant, error) {
	embeddedOnce.Do(func() {
		for _, ev := range goVariants {
			v, err := ParseVariant(ev.data, ev.weight, ev.italic)
			if err != nil {
				embeddedErr = err
				return
			}
			v.Origin = "embedded:go"
			embedded = append(embedded, v)
		}
	})
	return embedded, embeddedErr
}
