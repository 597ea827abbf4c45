package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// EngineType represents the type of translation engine to use.
type EngineType string

const (
	// EngineGoogle uses the public Google Translate web endpoint.
	EngineGoogle EngineType = "google"
	// EngineGoogleCloud uses the Google Cloud Translation API.
	EngineGoogleCloud EngineType = "googlecloud"
	// EngineLibreTranslate uses LibreTranslate as the backend.
	EngineLibreTranslate EngineType = "libretranslate"
	// EngineMyMemory uses the MyMemory public API.
	EngineMyMemory EngineType = "mymemory"
)

// Config holds configuration for creating a Translator instance.
type Config struct {
	// Engine specifies which translation engine to use.
	Engine EngineType
	// BaseURL is the base URL for HTTP engines (libretranslate, mymemory).
	// Each engine falls back to its own default when empty.
	BaseURL string
	// APIKey is passed to engines that accept one.
	APIKey string
	// Credentials is a Google Cloud service account file.
	Credentials string
	// ProjectID is the Google Cloud project, optional.
	ProjectID string
	// Email is the MyMemory contact address, optional.
	Email string
	// Logger is the logger instance to use. If nil, a default logger is created.
	Logger *logrus.Logger
}

// NewTranslator creates a new Translator instance based on the configuration.
// The returned translator records Prometheus metrics for every call.
func NewTranslator(ctx context.Context, cfg Config) (Translator, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	cfg.Logger.WithFields(logrus.Fields{
		"engine":   cfg.Engine,
		"base_url": cfg.BaseURL,
	}).Info("Creating translator instance")

	var (
		backend Translator
		err     error
	)
	switch cfg.Engine {
	case EngineGoogle:
		backend = NewGoogleClient(cfg.Logger)
	case EngineGoogleCloud:
		backend, err = NewGoogleCloudClient(ctx, cfg.Credentials, cfg.ProjectID, cfg.Logger)
	case EngineLibreTranslate:
		backend = NewLibreTranslateClient(cfg.BaseURL, cfg.APIKey, cfg.Logger)
	case EngineMyMemory:
		backend = NewMyMemoryClient(cfg.BaseURL, cfg.Email, NewLinguaDetector(), cfg.Logger)
	default:
		cfg.Logger.WithFields(logrus.Fields{
			"engine": cfg.Engine,
		}).Error("Unknown translation engine")
		return nil, fmt.Errorf("unknown translation engine: %s", cfg.Engine)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s translator: %w", cfg.Engine, err)
	}

	return Instrument(backend, cfg.Engine), nil
}

// ParseEngineType parses a string into an EngineType.
// Returns an error if the string is not a valid engine type.
func ParseEngineType(s string) (EngineType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "google":
		return EngineGoogle, nil
	case "googlecloud", "google-cloud":
		return EngineGoogleCloud, nil
	case "libretranslate":
		return EngineLibreTranslate, nil
	case "mymemory":
		return EngineMyMemory, nil
	default:
		return "", fmt.Errorf("unknown engine type: %s (supported: google, googlecloud, libretranslate, mymemory)", s)
	}
}
