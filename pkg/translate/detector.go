package translate

import (
	"strings"
	"sync"

	lingua "github.com/pemistahl/lingua-go"
)

// LanguageDetector guesses the ISO 639-1 code of a text.
type LanguageDetector interface {
	DetectISO(text string) (string, bool)
}

// LinguaDetector is a LanguageDetector backed by lingua-go. The underlying
// detector is expensive to build, so it is created on first use and shared.
type LinguaDetector struct {
	once     sync.Once
	detector lingua.LanguageDetector
}

// NewLinguaDetector returns a detector over all languages lingua knows.
func NewLinguaDetector() *LinguaDetector {
	return &LinguaDetector{}
}

// DetectISO returns the lower-case ISO 639-1 code of text, or false when the
// language cannot be determined.
func (d *LinguaDetector) DetectISO(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}

	d.once.Do(func() {
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			Build()
	})

	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
