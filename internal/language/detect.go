package language

import "github.com/abadojack/whatlanggo"

// Detect guesses the language of free text. It only answers when the detector
// is confident and the result is one of the supported codes.
func Detect(text string) (Code, bool) {
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "", false
	}
	l, ok := Lookup(info.Lang.Iso6391())
	if !ok {
		return "", false
	}
	return l.Code, true
}
