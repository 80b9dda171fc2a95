// Package layout computes pixel positions for the text blocks and logo of
// a post.
//
// # Algorithm
//
// [Compute] works in a [Frame]: the canvas, the template's safe area and an
// optional logo placement override.
//
//  1. The logo rectangle comes from the override (image aspect fitted into
//     the bounds, scaled by the size boost, aligned, clamped to the canvas)
//     or from a default reservation in the safe area's top-right corner.
//  2. Blocks are processed in ascending order. The font size comes from
//     the role tier (header > banner > body, see [Sizes]); text is
//     word-wrapped against the block's max width, or the safe-area width,
//     with real glyph metrics from a [Measurer].
//  3. Blocks stack downwards from the safe area's top edge with a fixed
//     gap. The horizontal position follows the block's alignment.
//  4. A block whose padded box overlaps the logo is narrowed: left-aligned
//     blocks lose width on the logo side, right-aligned blocks move clear of
//     the logo and re-wrap, centered blocks shrink symmetrically or are
//     recentered into the free region beside the logo.
//  5. A block that would end up narrower than one em is relocated below
//     the logo at full width instead (see [WithoutRelocation]).
//  6. Banners are single pills sized to their text. They stack like other
//     blocks but do not avoid the logo.
//
// The output depends only on the inputs and the measurer, so identical
// inputs produce identical results.
package layout
