package ingest

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	titleCaser = cases.Title(language.English)

	initialDotRe = regexp.MustCompile(`\b([A-Z])\.`)
	jrRe         = regexp.MustCompile(`(?i)\bjr\.?\b`)
	srRe         = regexp.MustCompile(`(?i)\bsr\.?\b`)
	romanRe      = regexp.MustCompile(`(?i)\b(ii|iii|iv)\b`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// CleanName standardizes a raw name: collapsed whitespace, title case,
// bare initials, Jr/Sr without periods, upper-case roman suffixes.
func CleanName(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}
	name = spaceRe.ReplaceAllString(name, " ")
	name = titleCaser.String(name)
	name = initialDotRe.ReplaceAllString(name, "$1")
	name = jrRe.ReplaceAllString(name, "Jr")
	name = srRe.ReplaceAllString(name, "Sr")
	name = romanRe.ReplaceAllStringFunc(name, strings.ToUpper)
	return name
}
