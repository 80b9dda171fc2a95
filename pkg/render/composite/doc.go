// Package composite draws a computed layout onto a raster surface.
//
// The draw order is fixed: the background (a template raster or the
// spec's solid or gradient fill), then text blocks in layout order, then
// images in array order with the logo last so nothing occludes it. A
// failed image load is logged and skipped. A panic while drawing is
// recovered into an ErrCodeComposite error and the surface must then be
// discarded.
//
// The debug overlay (safe area, logo bounds and block boxes) is drawn only
// when [DebugOptions.Overlay] is set.
package composite
