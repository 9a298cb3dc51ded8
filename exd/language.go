package exd

import (
	"fmt"
	"strings"
)

// Language identifies a localized variant of a sheet.
type Language uint8

const (
	// LanguageNone is the neutral variant used by sheets that are not localized.
	LanguageNone Language = iota
	LanguageJapanese
	LanguageEnglish
	LanguageGerman
	LanguageFrench
	LanguageChineseSimplified
	LanguageChineseTraditional
	LanguageKorean
)

var languageInfo = [...]struct {
	name   string
	code   string
	suffix string
}{
	LanguageNone:               {"none", "", ""},
	LanguageJapanese:           {"japanese", "ja", "_ja"},
	LanguageEnglish:            {"english", "en", "_en"},
	LanguageGerman:             {"german", "de", "_de"},
	LanguageFrench:             {"french", "fr", "_fr"},
	LanguageChineseSimplified:  {"chinese-simplified", "chs", "_chs"},
	LanguageChineseTraditional: {"chinese-traditional", "cht", "_cht"},
	LanguageKorean:             {"korean", "kr", "_kr"},
}

// Valid reports whether l is a known language.
func (l Language) Valid() bool { return int(l) < len(languageInfo) }

// Suffix returns the page file suffix for l ("" for LanguageNone).
func (l Language) Suffix() string {
	if !l.Valid() {
		return ""
	}
	return languageInfo[l].suffix
}

// Code returns the short language code ("en", "ja", ...).
func (l Language) Code() string {
	if !l.Valid() {
		return ""
	}
	return languageInfo[l].code
}

func (l Language) String() string {
	if !l.Valid() {
		return fmt.Sprintf("language(%d)", uint8(l))
	}
	return languageInfo[l].name
}

// ParseLanguage accepts a language name or code, case-insensitively.
// The empty string parses as LanguageNone.
func ParseLanguage(s string) (Language, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, info := range languageInfo {
		if s == info.name || s == info.code {
			return Language(i), nil
		}
	}
	return LanguageNone, fmt.Errorf("%w: unknown language %q", ErrNotFound, s)
}
