package translate

import (
	"context"
	"strings"
)

// AutoDetect is the source language sentinel asking the provider to detect
// the language of the input text.
const AutoDetect = "auto"

// Translator defines the interface for machine translation backends.
// This abstraction allows us to switch between different MT engines
// (Google, LibreTranslate, MyMemory) without changing the HTTP handler.
type Translator interface {
	// Translate translates text from source language to target language.
	// sourceLang may be AutoDetect; how codes are interpreted is up to the backend.
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)

	// CheckHealth verifies that the translation backend is ready and operational.
	CheckHealth(ctx context.Context) error

	// SupportedLanguages returns a list of language codes supported by this backend.
	SupportedLanguages(ctx context.Context) ([]string, error)
}

// LanguageMapper handles conversion between the codes clients send and the
// base ISO 639-1 codes some backends expect.
type LanguageMapper struct{}

// NewLanguageMapper creates a new language mapper instance.
func NewLanguageMapper() *LanguageMapper {
	return &LanguageMapper{}
}

// ToBackendCode converts a client language code to backend format.
// Examples:
//   - "EN" -> "en"
//   - "fr-CA" -> "fr"
//   - "pt_BR" -> "pt"
//   - "auto" -> "auto"
func (lm *LanguageMapper) ToBackendCode(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))

	// Extract base language (before any "-" or "_")
	if idx := strings.IndexAny(lang, "-_"); idx >= 0 {
		lang = lang[:idx]
	}

	return lang
}

// IsAuto reports whether lang asks for source detection.
func IsAuto(lang string) bool {
	lang = strings.TrimSpace(lang)
	return lang == "" || strings.EqualFold(lang, AutoDetect)
}
