//go:build ocr

// Package ocr extracts caption text from image attachments embedded in
// documents, so figures carried over during a merge can be indexed by
// their visible text.
//
// This package wraps the Tesseract OCR engine via gosseract. It requires
// Tesseract to be installed on the system. On macOS, install via:
//
//	brew install tesseract tesseract-lang
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr tesseract-ocr-kor
package ocr

import (
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/tsawler/hanmerge/model"
)

// Client wraps Tesseract for caption recognition.
type Client struct {
	client *gosseract.Client
}

// New creates a new OCR client. The client should be closed when no longer
// needed to release resources.
func New() (*Client, error) {
	client := gosseract.NewClient()
	return &Client{client: client}, nil
}

// Close releases OCR resources.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// SetLanguage sets the recognition language(s). Multiple languages can be
// given "+"-separated, e.g. "kor+eng". Default is "eng".
func (c *Client) SetLanguage(lang string) error {
	return c.client.SetLanguage(lang)
}

// RecognizeImage performs OCR on raw image data and returns the recognized
// text with surrounding whitespace trimmed.
func (c *Client) RecognizeImage(imageData []byte) (string, error) {
	if err := c.client.SetImageFromBytes(imageData); err != nil {
		return "", fmt.Errorf("setting image: %w", err)
	}

	text, err := c.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Caption recognizes the text of one attachment. Non-image attachments
// yield an empty caption without error.
func (c *Client) Caption(a *model.Attachment) (string, error) {
	if !strings.HasPrefix(a.MediaType, "image/") {
		return "", nil
	}
	return c.RecognizeImage(a.Data)
}
