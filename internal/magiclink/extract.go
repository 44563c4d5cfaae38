package magiclink

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern names reported in Result.Pattern.
const (
	PatternSupabase = "supabase"
	PatternCustom   = "custom"
	PatternToken    = "token"
)

var (
	// https://{project}.supabase.co/auth/v1/verify?token=...&type=...
	supabasePattern = regexp.MustCompile(`(?i)https://[^/\s"<>]+\.supabase\.co/auth/v1/verify\?[^\s"<>]+`)

	// Any URL carrying a token query parameter.
	tokenPattern = regexp.MustCompile(`(?i)https?://[^\s"<>]*[?&]token=[^\s"<>]+`)
)

// Extractor finds a magic link in an email body. The zero value tries the
// Supabase verify URL first and then any URL with a token parameter.
type Extractor struct {
	// Extra patterns are tried, in order, between the two built-in ones.
	Extra []*regexp.Regexp
}

// NewExtractor compiles extra patterns. Patterns are case-insensitive
// unless they set their own flags.
func NewExtractor(patterns []string) (*Extractor, error) {
	e := &Extractor{}
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "(?") {
			p = "(?i)" + p
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid link pattern %q: %w", p, err)
		}
		e.Extra = append(e.Extra, re)
	}
	return e, nil
}

// Extract returns the first link in body and the name of the pattern that
// matched it. ok is false when nothing matched.
func (e *Extractor) Extract(body string) (link, pattern string, ok bool) {
	if m := supabasePattern.FindString(body); m != "" {
		return m, PatternSupabase, true
	}
	if e != nil {
		for _, re := range e.Extra {
			if m := re.FindString(body); m != "" {
				return m, PatternCustom, true
			}
		}
	}
	if m := tokenPattern.FindString(body); m != "" {
		return m, PatternToken, true
	}
	return "", "", false
}

// Extract applies the built-in patterns only.
func Extract(body string) (string, bool) {
	link, _, ok := (*Extractor)(nil).Extract(body)
	return link, ok
}
