package translate

import (
	"context"
	"fmt"
	"time"

	cloudtranslate "cloud.google.com/go/translate"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
	"google.golang.org/api/option"
)

// GoogleCloudClient implements the Translator interface using the Google
// Cloud Translation API (v2). Credentials come from the given file or from
// Application Default Credentials.
type GoogleCloudClient struct {
	client *cloudtranslate.Client
	logger *logrus.Logger
}

// NewGoogleCloudClient creates a Cloud Translation client. credentialsFile
// and projectID are optional; extra options (endpoint, authentication) are
// applied after them.
func NewGoogleCloudClient(ctx context.Context, credentialsFile, projectID string, logger *logrus.Logger, extra ...option.ClientOption) (*GoogleCloudClient, error) {
	if logger == nil {
		logger = logrus.New()
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	if projectID != "" {
		opts = append(opts, option.WithQuotaProject(projectID))
	}
	opts = append(opts, extra...)

	client, err := cloudtranslate.NewClient(ctx, opts...)
	if err != nil {
		logger.WithError(err).Error("Failed to create Cloud Translation client")
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &GoogleCloudClient{client: client, logger: logger}, nil
}

// Translate translates text from source language to target language.
// An empty or "auto" source lets the API detect it.
func (c *GoogleCloudClient) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	c.logger.WithFields(logrus.Fields{
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"text_length": len(text),
	}).Debug("Translating text with Google Cloud")

	targetTag, err := language.Parse(targetLang)
	if err != nil {
		return "", fmt.Errorf("invalid target language %q: %w", targetLang, err)
	}

	var opts *cloudtranslate.Options
	if !IsAuto(sourceLang) {
		sourceTag, err := language.Parse(sourceLang)
		if err != nil {
			return "", fmt.Errorf("invalid source language %q: %w", sourceLang, err)
		}
		opts = &cloudtranslate.Options{Source: sourceTag, Format: cloudtranslate.Text}
	} else {
		opts = &cloudtranslate.Options{Format: cloudtranslate.Text}
	}

	startTime := time.Now()
	translations, err := c.client.Translate(ctx, []string{text}, targetTag, opts)
	duration := time.Since(startTime)
	if err != nil {
		c.logger.WithError(err).WithFields(logrus.Fields{
			"duration_ms": duration.Milliseconds(),
		}).Error("Cloud translation failed")
		return "", fmt.Errorf("translation failed: %w", err)
	}
	if len(translations) == 0 {
		return "", fmt.Errorf("no translation returned")
	}

	c.logger.WithFields(logrus.Fields{
		"source_lang": sourceLang,
		"target_lang": targetLang,
		"detected":    translations[0].Source.String(),
		"duration_ms": duration.Milliseconds(),
	}).Info("Translation completed successfully")

	return translations[0].Text, nil
}

// CheckHealth lists languages as a cheap authenticated round trip.
func (c *GoogleCloudClient) CheckHealth(ctx context.Context) error {
	if _, err := c.client.SupportedLanguages(ctx, language.English); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	return nil
}

// SupportedLanguages returns the codes reported by the Cloud Translation API.
func (c *GoogleCloudClient) SupportedLanguages(ctx context.Context) ([]string, error) {
	langs, err := c.client.SupportedLanguages(ctx, language.English)
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}

	codes := make([]string, 0, len(langs))
	for _, l := range langs {
		codes = append(codes, l.Tag.String())
	}
	return codes, nil
}

// Close releases the underlying API client.
func (c *GoogleCloudClient) Close() error {
	return c.client.Close()
}
