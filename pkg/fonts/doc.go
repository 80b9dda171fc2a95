// Package fonts resolves font-family names to glyph sources and measures
// text with real glyph metrics.
//
// # Registry
//
// A [Registry] holds the font variants available to a process. The
// generic families "sans-serif" and "serif" are always present: they
// resolve to system fonts found with go-findfont, or to the Go fonts
// embedded in the binary. Families on the local allow-list
// ([LocalFamilies]) are registered by [Registry.Init]; until then the
// channel returned by [Registry.Ready] stays open.
//
//	reg := fonts.NewRegistry()
//	go reg.Init()
//	<-reg.Ready()
//
// # Remote Families
//
// Any other family is a webfont. [Loader.Load] fetches a CSS descriptor
// for it, extracts every @font-face variant, fetches the binaries and
// registers them. Families load in parallel; a failure in one never blocks
// another. A family with zero loaded variants is reported as failed and
// text falls back to [Fallback] of its name.
//
// # Measurement
//
// [Registry.Measure] implements the layout engine's Measurer with
// golang.org/x/image/font advance widths.
package fonts
