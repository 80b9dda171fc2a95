// Package resource loads the bytes behind a source reference and decodes
// them into images.
//
// Source references take four forms:
//
//	https://cdn.example.com/logo.png   fetched through an httputil.Client
//	data:image/png;base64,iVBORw0...   decoded inline
//	builtin:cross.svg                  read from the embedded asset FS
//	assets/logo.webp                   read from the local filesystem
//
// Raster images are decoded with imaging (PNG, JPEG, GIF, BMP, TIFF) plus
// WebP. SVG markup is rasterized with oksvg.
package resource
