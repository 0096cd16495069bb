package asset

// VariantURLs maps the known size variants of an uploaded asset to URLs.
// Original is the only variant guaranteed to resolve; the backend may add
// further variants under Extra.
type VariantURLs struct {
	Original  string            `json:"original"`
	Thumbnail string            `json:"thumbnail,omitempty"`
	Medium    string            `json:"medium,omitempty"`
	Large     string            `json:"large,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// Resolve returns the URL for the named variant, falling back to Original
// when the variant is absent.
func (v VariantURLs) Resolve(variant string) string {
	switch variant {
	case "original", "":
		return v.Original
	case "thumbnail":
		if v.Thumbnail != "" {
			return v.Thumbnail
		}
	case "medium":
		if v.Medium != "" {
			return v.Medium
		}
	case "large":
		if v.Large != "" {
			return v.Large
		}
	default:
		if url, ok := v.Extra[variant]; ok && url != "" {
			return url
		}
	}
	return v.Original
}

// Metadata carries server-computed file facts. Read-only on the client.
type Metadata struct {
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
	Format    string `json:"format,omitempty"`
	SizeBytes int64  `json:"sizeBytes,omitempty"`
}

// Record is one uploaded media item within a scope. Records are created
// only from server responses; the client never synthesizes ids.
type Record struct {
	ID           int64       `json:"id"`
	URLs         VariantURLs `json:"urls"`
	Metadata     Metadata    `json:"metadata"`
	AltText      string      `json:"altText,omitempty"`
	Caption      string      `json:"caption,omitempty"`
	Tags         []string    `json:"tags,omitempty"`
	IsPrimary    bool        `json:"isPrimary"`
	SortOrder    int         `json:"sortOrder"`
	FileName     string      `json:"fileName"`
	OriginalName string      `json:"originalName,omitempty"`
}
