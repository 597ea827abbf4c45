package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bregydoc/gtranslate"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

// googleLanguages lists the codes the public Google Translate endpoint accepts.
// Anything else is rejected before a call is made.
var googleLanguages = []string{
	"af", "sq", "am", "ar", "hy", "az", "eu", "be", "bn", "bs", "bg", "ca",
	"ceb", "ny", "zh-CN", "zh-TW", "co", "hr", "cs", "da", "nl", "en", "eo",
	"et", "tl", "fi", "fr", "fy", "gl", "ka", "de", "el", "gu", "ht", "ha",
	"haw", "iw", "hi", "hmn", "hu", "is", "ig", "id", "ga", "it", "ja", "jw",
	"kn", "kk", "km", "rw", "ko", "ku", "ky", "lo", "la", "lv", "lt", "lb",
	"mk", "mg", "ms", "ml", "mt", "mi", "mr", "mn", "my", "ne", "no", "or",
	"ps", "fa", "pl", "pt", "pa", "ro", "ru", "sm", "gd", "sr", "st", "sn",
	"sd", "si", "sk", "sl", "so", "es", "su", "sw", "sv", "tg", "ta", "tt",
	"te", "th", "tr", "tk", "uk", "ur", "ug", "uz", "vi", "cy", "xh", "yi",
	"yo", "zu",
}

// googleAliases maps canonical BCP 47 bases onto the legacy codes Google uses.
var googleAliases = map[string]string{
	"he":  "iw",
	"jv":  "jw",
	"fil": "tl",
	"nb":  "no",
}

// googleCodes indexes googleLanguages by lowercase code.
var googleCodes = func() map[string]string {
	m := make(map[string]string, len(googleLanguages))
	for _, code := range googleLanguages {
		m[strings.ToLower(code)] = code
	}
	return m
}()

// GoogleClient implements the Translator interface using the free Google
// Translate web endpoint. It needs no credentials.
type GoogleClient struct {
	logger *logrus.Logger
	// translateFn performs the actual call; replaced in tests.
	translateFn func(text string, params gtranslate.TranslationParams) (string, error)
}

// NewGoogleClient creates a new Google Translate client.
func NewGoogleClient(logger *logrus.Logger) *GoogleClient {
	if logger == nil {
		logger = logrus.New()
	}
	return &GoogleClient{
		logger:      logger,
		translateFn: gtranslate.TranslateWithParams,
	}
}

// Translate translates text from source language to target language.
// Codes outside googleLanguages are rejected here; gtranslate would otherwise
// quietly fall back to auto/en. "auto" is accepted for the source only.
func (c *GoogleClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text with Google")

	from := AutoDetect
	if !IsAuto(sourceLang) {
		code, err := googleLanguageCode(sourceLang)
		if err != nil {
			return "", err
		}
		from = code
	}
	to, err := googleLanguageCode(targetLang)
	if err != nil {
		return "", err
	}

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)

	startTime := time.Now()
	go func() {
		translated, err := c.translateFn(text, gtranslate.TranslationParams{
			From:  from,
			To:    to,
			Tries: 1,
		})
		done <- result{text: translated, err: err}
	}()

	select {
	case <-ctx.Done():
		c.logger.WithError(ctx.Err()).Warn("Google translation abandoned")
		return "", fmt.Errorf("request failed: %w", ctx.Err())
	case res := <-done:
		duration := time.Since(startTime)
		if res.err != nil {
			c.logger.WithError(res.err).WithFields(logrus.Fields{
				"duration_ms": duration.Milliseconds(),
			}).Error("Google translation failed")
			return "", res.err
		}

		c.logger.WithFields(logrus.Fields{
			"source_lang": from,
			"target_lang": to,
			"duration_ms": duration.Milliseconds(),
		}).Info("Translation completed successfully")
		return res.text, nil
	}
}

// CheckHealth always succeeds: the public endpoint has no probe that does not
// consume translation quota.
func (c *GoogleClient) CheckHealth(ctx context.Context) error {
	return nil
}

// SupportedLanguages returns the static Google language list.
func (c *GoogleClient) SupportedLanguages(ctx context.Context) ([]string, error) {
	out := make([]string, len(googleLanguages))
	copy(out, googleLanguages)
	return out, nil
}

// googleLanguageCode maps code onto its googleLanguages spelling. Matching is
// case-insensitive; a region or script is dropped when only the base
// language is listed (fr-CA becomes fr).
func googleLanguageCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("empty language code")
	}
	normalized := strings.ToLower(strings.ReplaceAll(code, "_", "-"))
	if known, ok := googleCodes[normalized]; ok {
		return known, nil
	}

	unsupported := fmt.Errorf("%s --> No support for the provided language.", code)
	tag, err := language.Parse(normalized)
	if err != nil {
		return "", unsupported
	}
	base, confidence := tag.Base()
	if confidence != language.Exact {
		return "", unsupported
	}
	name := base.String()
	if alias, ok := googleAliases[name]; ok {
		name = alias
	}
	if known, ok := googleCodes[name]; ok {
		return known, nil
	}
	return "", unsupported
}
