package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dasmlab/translateapi/pkg/translate"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultSource asks the provider to detect the input language.
	DefaultSource = translate.AutoDetect
	// DefaultTarget is used when the request names no target language.
	DefaultTarget = "en"
	// DefaultProviderTimeout bounds a single provider call.
	DefaultProviderTimeout = 30 * time.Second
)

var errTranslatorMissing = errors.New("translator not configured")

// Request is a single translation request. Empty Source and Target receive
// their defaults.
type Request struct {
	Text   string
	Source string
	Target string
}

// TranslationService validates translation requests and forwards them to the
// configured Translator. It keeps no per-request state and is safe for
// concurrent use.
type TranslationService struct {
	// Translator is the translation backend.
	Translator translate.Translator

	// Timeout bounds each provider call.
	Timeout time.Duration

	// Logger for service operations.
	Logger *logrus.Logger
}

// NewTranslationService creates a new TranslationService instance.
func NewTranslationService(translator translate.Translator, timeout time.Duration, logger *logrus.Logger) *TranslationService {
	if logger == nil {
		logger = logrus.New()
	}
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}

	return &TranslationService{
		Translator: translator,
		Timeout:    timeout,
		Logger:     logger,
	}
}

// WithDefaults returns req with the default source and target applied.
func (req Request) WithDefaults() Request {
	if strings.TrimSpace(req.Source) == "" {
		req.Source = DefaultSource
	}
	if strings.TrimSpace(req.Target) == "" {
		req.Target = DefaultTarget
	}
	return req
}

// Translate returns the provider's translation of req.Text unmodified.
// Failures are either a *ValidationError (the provider was not called) or a
// *ProviderError. The provider is called at most once.
func (s *TranslationService) Translate(ctx context.Context, req Request) (string, error) {
	return s.translate(ctx, s.Logger.WithContext(ctx), req)
}

// TranslateWithLogger is Translate with a caller supplied log entry, so
// request-scoped fields end up on every line.
func (s *TranslationService) TranslateWithLogger(ctx context.Context, log *logrus.Entry, req Request) (string, error) {
	return s.translate(ctx, log, req)
}

func (s *TranslationService) translate(ctx context.Context, log *logrus.Entry, req Request) (string, error) {
	req = req.WithDefaults()

	if req.Text == "" {
		log.Debug("Translate: text is required")
		return "", &ValidationError{Message: ErrNoText}
	}

	log = log.WithFields(logrus.Fields{
		"source_lang": req.Source,
		"target_lang": req.Target,
		"text_length": len(req.Text),
	})

	if s.Translator == nil {
		log.Error("Translate: translator not configured")
		return "", &ProviderError{Err: errTranslatorMissing}
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	startTime := time.Now()
	translated, err := s.Translator.Translate(ctx, req.Text, req.Source, req.Target)
	duration := time.Since(startTime)
	if err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"duration_ms": duration.Milliseconds(),
		}).Error("Translation failed")
		return "", &ProviderError{Err: err}
	}

	log.WithFields(logrus.Fields{
		"duration_ms": duration.Milliseconds(),
	}).Info("Translation completed")

	return translated, nil
}

// CheckHealth reports whether the translation backend is usable.
func (s *TranslationService) CheckHealth(ctx context.Context) error {
	if s.Translator == nil {
		return errTranslatorMissing
	}
	return s.Translator.CheckHealth(ctx)
}

// SupportedLanguages lists the backend's language codes.
func (s *TranslationService) SupportedLanguages(ctx context.Context) ([]string, error) {
	if s.Translator == nil {
		return nil, errTranslatorMissing
	}
	return s.Translator.SupportedLanguages(ctx)
}
