package post_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/postcraft/pkg/post"
)

func ExampleDecode() {
	spec, err := post.Decode(strings.NewReader(`{
		"textBlocks": [
			{"id": "cta", "text": "Book now", "role": "banner", "order": 2},
			{"id": "title", "text": "Spring menu", "role": "header", "order": 1}
		]
	}`))
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, b := range spec.Ordered() {
		fmt.Println(b.ID, b.Role)
	}
	// Output:
	// title header
	// cta banner
}
