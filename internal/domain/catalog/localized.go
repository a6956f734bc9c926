package catalog

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TraditionalChinese is the tag the remote catalog calls zh_HANT
var TraditionalChinese = language.MustParse("zh-Hant")

var nameMatcher = language.NewMatcher([]language.Tag{
	language.Und, // default name
	language.AmericanEnglish,
	TraditionalChinese,
})

// LocalizedName holds a product name in the languages the catalog provides
type LocalizedName struct {
	Default string `json:"product_name"`
	EnUS    string `json:"product_name_en_US,omitempty"`
	ZhHant  string `json:"product_name_zh_HANT,omitempty"`
}

// For returns the best name for the requested language, falling back to the
// default name when the localized one is empty.
func (n LocalizedName) For(tags ...language.Tag) string {
	if len(tags) == 0 {
		return n.Default
	}
	_, idx, conf := nameMatcher.Match(tags...)
	if conf == language.No {
		return n.Default
	}
	var name string
	switch idx {
	case 1:
		name = n.EnUS
	case 2:
		name = n.ZhHant
	}
	if name == "" {
		return n.Default
	}
	return name
}

// ParseLanguage parses an Accept-Language style value. Invalid input yields no tags.
func ParseLanguage(accept string) []language.Tag {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil {
		return nil
	}
	return tags
}

var folder = cases.Fold()

// ContainsFold reports whether substr is within s, ignoring case
func ContainsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(folder.String(s), folder.String(substr))
}
