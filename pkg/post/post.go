package post

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/matzehuels/postcraft/pkg/errors"
)

// CanvasSize is the fixed edge length of the rendered square, regardless of
// the dimensions carried in a spec.
const CanvasSize = 1080

// Role is the semantic class of a text block. It selects the font-size tier
// and the rendering style.
type Role string

const (
	RoleHeader Role = "header"
	RoleBody   Role = "body"
	RoleBanner Role = "banner"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleHeader, RoleBody, RoleBanner:
		return true
	}
	return false
}

// Alignment is the horizontal alignment of a text block inside the safe area.
type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// Valid reports whether a is a known alignment.
func (a Alignment) Valid() bool {
	switch a {
	case AlignLeft, AlignCenter, AlignRight:
		return true
	}
	return false
}

// ImageRole tags an image as the brand logo or ordinary content.
type ImageRole string

const (
	ImageContent ImageRole = "content"
	ImageLogo    ImageRole = "logo"
)

// BackgroundKind selects how the background is painted when no template
// raster is available.
type BackgroundKind string

const (
	BackgroundSolid  BackgroundKind = "solid"
	BackgroundLinear BackgroundKind = "linear"
	BackgroundRadial BackgroundKind = "radial"
)

// LayoutSpec is the abstract description of a post.
type LayoutSpec struct {
	Metadata   Metadata    `json:"metadata"`
	Background Background  `json:"background"`
	TextBlocks []TextBlock `json:"textBlocks"`
	Images     []ImageRef  `json:"images"`
}

// Metadata carries the template kind, nominal canvas size and brand.
type Metadata struct {
	TemplateKind string     `json:"templateKind"`
	Canvas       Dimensions `json:"canvasDimensions"`
	Brand        Brand      `json:"brand"`
}

// Dimensions is a width/height pair in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Brand is the brand metadata embedded in a spec.
type Brand struct {
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	FontFamily     string `json:"fontFamily"`
	CompanyName    string `json:"companyName"`
}

// Background describes a flat or gradient background.
type Background struct {
	Kind   BackgroundKind `json:"kind"`
	Colors []string       `json:"colors"`
	Angle  *float64       `json:"angle,omitempty"`
}

// TextBlock is one unit of text. Order defines the stacking sequence.
// MaxWidth of zero means "use the safe-area width".
type TextBlock struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Weight    int       `json:"weight,omitempty"`
	Color     string    `json:"color,omitempty"`
	Alignment Alignment `json:"alignment"`
	Order     int       `json:"order"`
	MaxWidth  float64   `json:"maxWidth,omitempty"`
	Role      Role      `json:"role"`
}

// Point is a canvas position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ImageRef references an image to composite onto the post.
type ImageRef struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Width    float64   `json:"width"`
	Height   float64   `json:"height"`
	Position Point     `json:"position"`
	Opacity  float64   `json:"opacity"`
	Role     ImageRole `json:"role"`
}

// IsLogo reports whether the image is the brand logo.
func (i ImageRef) IsLogo() bool { return i.Role == ImageLogo }

// Alpha returns the effective opacity. A zero opacity in a decoded spec
// means the field was omitted, so it is treated as fully opaque.
func (i ImageRef) Alpha() float64 {
	if i.Opacity <= 0 || i.Opacity > 1 {
		return 1
	}
	return i.Opacity
}

// Ordered returns a copy of the text blocks sorted by ascending Order.
func (s LayoutSpec) Ordered() []TextBlock { return SortByOrder(s.TextBlocks) }

// SortByOrder returns a copy of blocks sorted by ascending Order. Blocks
// sharing an order keep their submission order.
func SortByOrder(blocks []TextBlock) []TextBlock {
	out := slices.Clone(blocks)
	slices.SortStableFunc(out, func(a, b TextBlock) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return out
}

// Logo returns the first image tagged as logo, or nil.
func (s LayoutSpec) Logo() *ImageRef {
	for i := range s.Images {
		if s.Images[i].IsLogo() {
			logo := s.Images[i]
			return &logo
		}
	}
	return nil
}

// ContentImages returns the non-logo images in array order.
func (s LayoutSpec) ContentImages() []ImageRef {
	var out []ImageRef
	for _, img := range s.Images {
		if !img.IsLogo() {
			out = append(out, img)
		}
	}
	return out
}

// Validate checks the spec for malformed blocks, images and colors.
func (s LayoutSpec) Validate() error {
	seen := make(map[string]bool, len(s.TextBlocks))
	for i, b := range s.TextBlocks {
		if err := errors.ValidateID("text block", b.ID); err != nil {
			return err
		}
		if seen[b.ID] {
			return errors.New(errors.ErrCodeInvalidSpec, "duplicate text block id %q", b.ID)
		}
		seen[b.ID] = true
		if !b.Role.Valid() {
			return errors.New(errors.ErrCodeInvalidSpec, "text block %d (%s): unknown role %q", i, b.ID, b.Role)
		}
		if b.Alignment != "" && !b.Alignment.Valid() {
			return errors.New(errors.ErrCodeInvalidSpec, "text block %d (%s): unknown alignment %q", i, b.ID, b.Alignment)
		}
		if b.MaxWidth < 0 {
			return errors.New(errors.ErrCodeInvalidSpec, "text block %d (%s): negative maxWidth", i, b.ID)
		}
		if err := errors.ValidateColor(b.Color); err != nil {
			return err
		}
	}

	for i, img := range s.Images {
		if err := errors.ValidateID("image", img.ID); err != nil {
			return err
		}
		if err := errors.ValidateSource(img.Source); err != nil {
			return fmt.Errorf("image %d (%s): %w", i, img.ID, err)
		}
		if img.Width < 0 || img.Height < 0 {
			return errors.New(errors.ErrCodeInvalidSpec, "image %d (%s): negative size", i, img.ID)
		}
		if img.Role != "" && img.Role != ImageLogo && img.Role != ImageContent {
			return errors.New(errors.ErrCodeInvalidSpec, "image %d (%s): unknown role %q", i, img.ID, img.Role)
		}
	}

	switch s.Background.Kind {
	case "", BackgroundSolid, BackgroundLinear, BackgroundRadial:
	default:
		return errors.New(errors.ErrCodeInvalidSpec, "unknown background kind %q", s.Background.Kind)
	}
	for _, c := range s.Background.Colors {
		if err := errors.ValidateColor(c); err != nil {
			return err
		}
	}
	if err := errors.ValidateColor(s.Metadata.Brand.PrimaryColor); err != nil {
		return err
	}
	return errors.ValidateColor(s.Metadata.Brand.SecondaryColor)
}

// Decode parses a JSON layout spec and validates it.
func Decode(r io.Reader) (LayoutSpec, error) {
	var s LayoutSpec
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return LayoutSpec{}, errors.Wrap(errors.ErrCodeInvalidSpec, err, "decode layout spec")
	}
	if err := s.Validate(); err != nil {
		return LayoutSpec{}, err
	}
	return s, nil
}
