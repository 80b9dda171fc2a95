// Package render turns composited surfaces into deliverable images.
//
// The drawing itself lives in subpackages:
//
//   - [colorize]: template artwork recolored to a brand palette
//   - [layout]: positions of text blocks and the logo
//   - [composite]: background, text and images drawn onto a surface
//
// This package owns the surface and the output encoding. [NewSurface]
// sizes the surface so a tall template background is never cropped, and
// [EncodePNG] and [DataURL] produce the render result.
//
// [colorize]: github.com/matzehuels/postcraft/pkg/render/colorize
// [layout]: github.com/matzehuels/postcraft/pkg/render/layout
// [composite]: github.com/matzehuels/postcraft/pkg/render/composite
package render
