package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

var (
	serverAddr = flag.String("addr", "http://localhost:8080", "translateapi base URL")
	sourceLang = flag.String("source", "auto", "Source language code (e.g., en, fr, auto)")
	targetLang = flag.String("target", "en", "Target language code (e.g., en, fr)")
	textFile   = flag.String("file", "", "Path to text file to translate")
	text       = flag.String("text", "", "Text to translate (if file not provided)")
	timeout    = flag.Duration("timeout", 60*time.Second, "Request timeout")
)

type translateRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

func main() {
	flag.Parse()

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	// Read text to translate
	var textToTranslate string
	if *textFile != "" {
		data, err := os.ReadFile(*textFile)
		if err != nil {
			logger.WithError(err).Fatalf("Failed to read file: %s", *textFile)
		}
		textToTranslate = string(data)
	} else {
		// An empty -text is sent as-is to exercise server-side validation.
		textToTranslate = *text
	}

	logger.WithFields(logrus.Fields{
		"server":      *serverAddr,
		"source_lang": *sourceLang,
		"target_lang": *targetLang,
		"text_length": len(textToTranslate),
	}).Info("Sending translation request...")

	client := resty.New().
		SetBaseURL(strings.TrimRight(*serverAddr, "/")).
		SetTimeout(*timeout)

	var out translateResponse
	startTime := time.Now()
	resp, err := client.R().
		SetBody(translateRequest{
			Text:   textToTranslate,
			Source: *sourceLang,
			Target: *targetLang,
		}).
		SetResult(&out).
		SetError(&out).
		Post("/translate")
	if err != nil {
		logger.WithError(err).Fatal("Request failed")
	}

	logger.WithFields(logrus.Fields{
		"status":      resp.StatusCode(),
		"request_id":  resp.Header().Get("X-Request-ID"),
		"cors_origin": resp.Header().Get("Access-Control-Allow-Origin"),
		"duration_ms": time.Since(startTime).Milliseconds(),
	}).Info("Response received")

	if resp.IsError() {
		logger.WithFields(logrus.Fields{
			"status": resp.StatusCode(),
		}).Errorf("Translation failed: %s", out.Error)
		os.Exit(1)
	}

	fmt.Println(out.TranslatedText)
}
