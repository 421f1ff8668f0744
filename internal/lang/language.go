// Package lang validates, normalizes and detects the language of transcripts
// and chapter titles.
package lang

import (
	"fmt"
	"maps"
	"strings"

	"github.com/pemistahl/lingua-go"
)

// whisperOnly lists languages the transcriber accepts that the detector has
// no model for.
var whisperOnly = map[string]string{
	"kn": "Kannada",
	"ml": "Malayalam",
	"no": "Norwegian",
}

// names maps every accepted ISO 639-1 base code to its English name.
var names = func() map[string]string {
	all := lingua.AllLanguages()
	m := make(map[string]string, len(all)+len(whisperOnly))
	for _, l := range all {
		m[strings.ToLower(l.IsoCode639_1().String())] = l.String()
	}
	maps.Copy(m, whisperOnly)
	return m
}()

// regionalNames covers locales whose variant changes how titles are written.
var regionalNames = map[string]string{
	"en-us": "American English",
	"en-gb": "British English",
	"fr-ca": "Canadian French",
	"es-mx": "Mexican Spanish",
	"pt-br": "Brazilian Portuguese",
	"pt-pt": "European Portuguese",
	"zh-cn": "Simplified Chinese",
	"zh-tw": "Traditional Chinese",
}

// Normalize lowercases a code and uses "-" as the region separator:
// "pt_BR" -> "pt-br".
func Normalize(code string) string {
	return strings.ToLower(strings.ReplaceAll(code, "_", "-"))
}

// BaseCode strips the region: "pt-BR" -> "pt". The transcriber only accepts
// base codes.
func BaseCode(code string) string {
	base, _, _ := strings.Cut(Normalize(code), "-")
	return base
}

// Validate accepts "" (auto-detect), ISO 639-1 codes and locales whose base
// code is known. Anything else wraps ErrInvalid.
func Validate(code string) error {
	if code == "" {
		return nil
	}
	if _, ok := names[BaseCode(code)]; !ok {
		return fmt.Errorf("invalid language code %q (use ISO 639-1 codes like 'en', 'fr', 'pt-BR'): %w",
			code, ErrInvalid)
	}
	return nil
}

// DisplayName names a code in English for prompts, preferring the regional
// name. Unknown codes come back unchanged.
func DisplayName(code string) string {
	normalized := Normalize(code)
	if name, ok := regionalNames[normalized]; ok {
		return name
	}
	if name, ok := names[BaseCode(normalized)]; ok {
		return name
	}
	return code
}
