// Package locale resolves coach language preferences against the set of
// languages insight content ships in.
package locale

import "golang.org/x/text/language"

// Default is the fallback for unrecognized or unsupported tags.
var Default = language.English

// supported lists the languages insight templates exist for. Order
// matters: the first entry is the matcher's fallback.
var supported = []language.Tag{
	language.English,
	language.Spanish,
	language.German,
	language.French,
}

var matcher = language.NewMatcher(supported)

// Match resolves a BCP-47 tag to the closest supported language. Regional
// variants collapse to their base ("es-MX" resolves to Spanish); anything
// unparseable or unsupported resolves to English.
func Match(tag string) language.Tag {
	if tag == "" {
		return Default
	}
	t, err := language.Parse(tag)
	if err != nil {
		return Default
	}
	_, idx, _ := matcher.Match(t)
	return supported[idx]
}

// FromAcceptLanguage resolves an Accept-Language header to the closest
// supported language. Empty or malformed headers resolve to English.
func FromAcceptLanguage(header string) language.Tag {
	if header == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

// Key returns the template-catalog key for a tag, e.g. "es".
func Key(tag string) string {
	base, _ := Match(tag).Base()
	return base.String()
}
