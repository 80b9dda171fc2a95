// Package colorize recolors template artwork to a brand palette and
// rasterizes it into a post background.
//
// Vector templates are rewritten by a [Strategy] chosen by the template's
// pattern family, then rasterized with oksvg. Raster templates are decoded
// and scaled to the canvas width. [Colorizer.Background] never fails: any
// fetch, parse or rasterize error is logged and replaced by a gradient
// drawn from the palette.
package colorize
