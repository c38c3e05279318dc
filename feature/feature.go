// Package feature finds which product features a requirement document talks about.
package feature

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrNoFeatures is returned when none of the known feature keywords occur.
	ErrNoFeatures = errors.New("no features found")

	// ErrUnsupportedDocument is returned for document types that cannot be read.
	ErrUnsupportedDocument = errors.New("unsupported document type")
)

// DefaultKeywords is the built-in feature catalog.
var DefaultKeywords = []string{
	"login",
	"signup",
	"checkout",
	"payment",
	"profile",
	"order",
	"payroll",
	"attendance",
	"reports",
}

// MaxDocumentSize bounds how much of an uploaded document is read.
const MaxDocumentSize = 10 << 20

// Extractor matches text against a keyword catalog.
type Extractor struct {
	keywords []string
}

// NewExtractor creates an extractor for keywords. Keywords are lower-cased and
// blanks dropped; an empty catalog falls back to DefaultKeywords.
func NewExtractor(keywords []string) *Extractor {
	var cleaned []string
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			cleaned = append(cleaned, k)
		}
	}
	if len(cleaned) == 0 {
		cleaned = append(cleaned, DefaultKeywords...)
	}
	return &Extractor{keywords: cleaned}
}

// Keywords returns the catalog in match order.
func (e *Extractor) Keywords() []string {
	return append([]string(nil), e.keywords...)
}

// Extract returns the catalog keywords contained in text, case-insensitively, in
// catalog order. Matching is by substring, so "orders" matches "order".
func (e *Extractor) Extract(text string) ([]string, error) {
	lower := strings.ToLower(text)

	var found []string
	for _, k := range e.keywords {
		if strings.Contains(lower, k) {
			found = append(found, k)
		}
	}
	if len(found) == 0 {
		return nil, ErrNoFeatures
	}
	return found, nil
}

// ExtractDocument reads a document of the given content type and extracts its
// features. Plain text is read as is; HTML is reduced to its visible text.
func (e *Extractor) ExtractDocument(contentType string, r io.Reader) ([]string, error) {
	text, err := DocumentText(contentType, r)
	if err != nil {
		return nil, err
	}
	return e.Extract(text)
}

// DocumentText returns the readable text of a document.
func DocumentText(contentType string, r io.Reader) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDocument, contentType)
	}

	limited := io.LimitReader(r, MaxDocumentSize)
	switch mediaType {
	case "text/plain", "text/markdown":
		b, err := io.ReadAll(limited)
		if err != nil {
			return "", fmt.Errorf("failed to read document: %w", err)
		}
		return string(b), nil
	case "text/html", "application/xhtml+xml":
		doc, err := goquery.NewDocumentFromReader(limited)
		if err != nil {
			return "", fmt.Errorf("failed to parse html document: %w", err)
		}
		doc.Find("script, style, noscript").Remove()
		return strings.Join(strings.Fields(doc.Text()), " "), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedDocument, mediaType)
	}
}
