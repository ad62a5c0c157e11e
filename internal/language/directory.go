// Package language is the static directory of caption languages the server
// understands: short codes, the names handed to the translation engine and the
// speech-recognition locale the browser client uses.
package language

import "strings"

// Code is a short ISO 639-1 language code, e.g. "en".
type Code string

// Default is used whenever a participant declares nothing usable.
const Default Code = "en"

type Language struct {
	Code   Code   `json:"code"`
	Name   string `json:"name"`
	Locale string `json:"locale"`
}

var directory = []Language{
	{Code: "en", Name: "English", Locale: "en-US"},
	{Code: "es", Name: "Spanish", Locale: "es-ES"},
	{Code: "fr", Name: "French", Locale: "fr-FR"},
	{Code: "de", Name: "German", Locale: "de-DE"},
	{Code: "it", Name: "Italian", Locale: "it-IT"},
	{Code: "pt", Name: "Portuguese", Locale: "pt-BR"},
	{Code: "ru", Name: "Russian", Locale: "ru-RU"},
	{Code: "ja", Name: "Japanese", Locale: "ja-JP"},
	{Code: "ko", Name: "Korean", Locale: "ko-KR"},
	{Code: "zh", Name: "Chinese", Locale: "zh-CN"},
	{Code: "ar", Name: "Arabic", Locale: "ar-SA"},
	{Code: "hi", Name: "Hindi", Locale: "hi-IN"},
}

var byCode = func() map[Code]Language {
	m := make(map[Code]Language, len(directory))
	for _, l := range directory {
		m[l.Code] = l
	}
	return m
}()

// All returns every supported language in display order.
func All() []Language {
	out := make([]Language, len(directory))
	copy(out, directory)
	return out
}

// Lookup accepts bare codes as well as locales ("pt-BR", "en_US").
func Lookup(code string) (Language, bool) {
	l, ok := byCode[canonical(code)]
	return l, ok
}

func Supported(code string) bool {
	_, ok := Lookup(code)
	return ok
}

// Normalize maps anything unknown to Default.
func Normalize(code string) Code {
	return NormalizeOr(code, Default)
}

// NormalizeOr maps anything unknown to fallback, or to Default when fallback
// is itself unsupported.
func NormalizeOr(code string, fallback Code) Code {
	if l, ok := Lookup(code); ok {
		return l.Code
	}
	if l, ok := Lookup(string(fallback)); ok {
		return l.Code
	}
	return Default
}

// Name returns the engine-facing name, falling back to English.
func Name(code Code) string {
	if l, ok := byCode[code]; ok {
		return l.Name
	}
	return byCode[Default].Name
}

func canonical(code string) Code {
	c := strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(c, "-_"); i > 0 {
		c = c[:i]
	}
	return Code(c)
}
