package translate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultMyMemoryURL is the public MyMemory API.
	DefaultMyMemoryURL = "https://api.mymemory.translated.net"
	// DefaultMyMemoryTimeout caps a single HTTP exchange.
	DefaultMyMemoryTimeout = 30 * time.Second
	// myMemoryFallbackSource is used when detection cannot decide; MyMemory
	// has no server-side auto detection.
	myMemoryFallbackSource = "en"
)

var myMemoryLanguages = []string{
	"en", "es", "fr", "de", "it", "pt", "ru", "ja", "ko", "zh",
	"ar", "nl", "pl", "tr", "sv", "da", "no", "fi", "el", "he",
	"th", "vi", "id", "ms", "cs", "hu", "ro", "uk", "bg", "ca",
}

// MyMemoryClient implements the Translator interface using the MyMemory API.
type MyMemoryClient struct {
	email    string
	http     *resty.Client
	detector LanguageDetector
	mapper   *LanguageMapper
	logger   *logrus.Logger
}

// NewMyMemoryClient creates a MyMemory client. email is optional and raises
// the anonymous daily quota. detector resolves "auto" sources; when nil,
// "auto" always maps to English.
func NewMyMemoryClient(baseURL, email string, detector LanguageDetector, logger *logrus.Logger) *MyMemoryClient {
	if baseURL == "" {
		baseURL = DefaultMyMemoryURL
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &MyMemoryClient{
		email:    email,
		http:     resty.New().SetBaseURL(baseURL).SetTimeout(DefaultMyMemoryTimeout),
		detector: detector,
		mapper:   NewLanguageMapper(),
		logger:   logger,
	}
}

type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string  `json:"translatedText"`
		Match          float64 `json:"match"`
	} `json:"responseData"`
	// responseStatus is a number on success and sometimes a string on error.
	ResponseStatus  any    `json:"responseStatus"`
	ResponseDetails string `json:"responseDetails"`
}

func (r myMemoryResponse) status() int {
	switch v := r.ResponseStatus.(type) {
	case float64:
		return int(v)
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err == nil {
			return n
		}
	}
	return 0
}

// Translate translates text from source language to target language.
func (c *MyMemoryClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	source := c.resolveSource(text, sourceLang)
	target := c.mapper.ToBackendCode(targetLang)

	c.logger.WithFields(logrus.Fields{
		"source_lang": source,
		"target_lang": target,
		"text_length": len(text),
	}).Debug("Translating text with MyMemory")

	params := map[string]string{
		"q":        text,
		"langpair": source + "|" + target,
	}
	if c.email != "" {
		params["de"] = c.email
	}

	var out myMemoryResponse
	startTime := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&out).
		Get("/get")
	duration := time.Since(startTime)
	if err != nil {
		c.logger.WithError(err).Error("MyMemory request failed")
		return "", fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"status_code": resp.StatusCode(),
			"response":    resp.String(),
		}).Error("MyMemory returned non-OK status")
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode(), resp.String())
	}

	if status := out.status(); status != http.StatusOK {
		return "", fmt.Errorf("mymemory: %s (%d)", out.ResponseDetails, status)
	}

	c.logger.WithFields(logrus.Fields{
		"source_lang": source,
		"target_lang": target,
		"match":       out.ResponseData.Match,
		"duration_ms": duration.Milliseconds(),
	}).Info("Translation completed successfully")

	return out.ResponseData.TranslatedText, nil
}

func (c *MyMemoryClient) resolveSource(text, sourceLang string) string {
	if !IsAuto(sourceLang) {
		return c.mapper.ToBackendCode(sourceLang)
	}
	if c.detector != nil {
		if detected, ok := c.detector.DetectISO(text); ok {
			c.logger.WithField("detected", detected).Debug("Detected source language")
			return detected
		}
	}
	return myMemoryFallbackSource
}

// CheckHealth always succeeds; MyMemory has no health endpoint and every
// request counts against the quota.
func (c *MyMemoryClient) CheckHealth(ctx context.Context) error {
	return nil
}

// SupportedLanguages returns the static MyMemory language list.
func (c *MyMemoryClient) SupportedLanguages(ctx context.Context) ([]string, error) {
	out := make([]string, len(myMemoryLanguages))
	copy(out, myMemoryLanguages)
	return out, nil
}
