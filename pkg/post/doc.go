// Package post defines the pixel-independent description of a social post.
//
// A [LayoutSpec] is produced by an external generator or editor and handed
// to the render pipeline once per render. It carries ordered text blocks,
// images, a background description and brand metadata. The engine never
// mutates a spec; helpers such as [LayoutSpec.Ordered] return copies.
//
// A [BusinessProfile] supplies the brand palette, logo, font family and
// optional role-keyed styling overrides.
//
//	spec, err := post.Decode(r)
//	if err != nil {
//	    return err
//	}
//	for _, b := range spec.Ordered() {
//	    fmt.Println(b.Order, b.Role, b.Text)
//	}
package post
