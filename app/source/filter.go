package source

import (
	"regexp"
	"strings"
)

// Topical keyword presets used by the on-demand commands. Matching is
// case-insensitive over the concatenated title and body text.
var (
	FanartKeywords = regexp.MustCompile(`(?i)(fanart|artwork|drawing|sketch|handmade|traditional|arte|dibujo|drawn|illustration|sketchbook)`)
	MerchKeywords  = regexp.MustCompile(`(?i)(merch|store|shop|patreon|etsy|tienda|merchandise)`)
	NewsKeywords   = regexp.MustCompile(`(?i)(official|update|announcement|anuncio|importante)`)
)

// MatchesKeywords reports whether the post's title+body matches the preset.
func MatchesKeywords(post Post, keywords *regexp.Regexp) bool {
	return keywords.MatchString(post.Title + " " + post.Body)
}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Matches applies a source's configured include/exclude keyword lists to one
// post. Excludes win over includes; an empty filter matches everything.
func (f *Filterer) Matches(post Post, filter ConfigFilter) bool {
	text := strings.ToLower(post.Title + " " + post.Body)

	for _, exclude := range filter.Excludes {
		if strings.Contains(text, strings.ToLower(exclude)) {
			return false
		}
	}

	if len(filter.Includes) == 0 {
		return true
	}

	for _, include := range filter.Includes {
		if strings.Contains(text, strings.ToLower(include)) {
			return true
		}
	}

	return false
}

// Select applies a source's selection rule to a fetched sequence: "first"
// takes the most recent item, "keyword_first" the first item passing the
// configured filter. Returns false when no candidate survives.
func (f *Filterer) Select(posts []Post, sourceConfig *Config) (Post, bool) {
	if len(posts) == 0 {
		return Post{}, false
	}

	switch sourceConfig.Selection {
	case "keyword_first":
		for _, post := range posts {
			if f.Matches(post, sourceConfig.Filter) {
				return post, true
			}
		}
		return Post{}, false
	default:
		if !f.Matches(posts[0], sourceConfig.Filter) {
			return Post{}, false
		}
		return posts[0], true
	}
}

// TruncateTitle shortens a display string to limit runes, appending an
// ellipsis marker when truncated.
func TruncateTitle(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
