// Package templates provides the catalog of visual templates a post can be
// rendered onto.
//
// # Overview
//
// A [Definition] describes one template variant: where its artwork comes
// from, which rectangle movable content may occupy (the safe area), where
// the logo goes, how its colors are rewritten to a brand palette
// ([Pattern]), and who may use it.
//
// # Eligibility
//
// General-scope templates are visible to everyone. Business-scope templates
// are visible only to the businesses on their allow-list. A content type
// narrows the list to templates that declare it (a template without content
// types is eligible for all of them).
//
//	reg := templates.Default()
//	defs := reg.List("promo", "acme")
//	id, err := reg.PickRandom("promo", "acme", rng)
//
// [Registry.PickRandom] prefers business-specific matches and only falls
// back to general templates when none qualify. Unknown ids are reported as
// not found; the registry never substitutes a default.
//
// # Catalog Files
//
// Additional templates can be loaded from TOML with [LoadFile] and layered
// over the builtins with [Registry.Merge].
package templates
