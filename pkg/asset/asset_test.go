package asset

import "testing"

func TestVariantURLsResolve(t *testing.T) {
	urls := VariantURLs{
		Original:  "https://cdn.example/or.jpg",
		Thumbnail: "https://cdn.example/th.jpg",
		Extra:     map[string]string{"hero": "https://cdn.example/hero.jpg"},
	}

	cases := []struct {
		variant string
		want    string
	}{
		{"", urls.Original},
		{"original", urls.Original},
		{"thumbnail", urls.Thumbnail},
		{"medium", urls.Original},
		{"large", urls.Original},
		{"hero", "https://cdn.example/hero.jpg"},
		{"unknown", urls.Original},
	}

	for _, tc := range cases {
		if got := urls.Resolve(tc.variant); got != tc.want {
			t.Fatalf("Resolve(%q) = %q, want %q", tc.variant, got, tc.want)
		}
	}
}
