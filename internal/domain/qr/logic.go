package qr

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"image/png"
	"strings"
	"unicode/utf8"

	"github.com/boombuler/barcode"
	barcodeqr "github.com/boombuler/barcode/qr"
)

const (
	CategoryComplaint     = "complaint"
	CategorySuggestion    = "suggestion"
	CategorySafetyConcern = "safety_concern"

	DefaultTargetType = "general"
	ImageSize         = 256

	minMessage = 10
	maxMessage = 4000
	maxTitle   = 200
	maxExpiry  = 365

	AnonymousEmployeeCode = "ANONYMOUS"
)

var Categories = []string{CategoryComplaint, CategorySuggestion, CategorySafetyConcern}

// NewToken returns 32 random bytes encoded as unpadded base64url.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// PublicURL is the address encoded in the QR image.
func PublicURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/qr/" + token
}

// EncodePNG renders content as a square QR code PNG of size pixels.
func EncodePNG(content string, size int) ([]byte, error) {
	code, err := barcodeqr.Encode(content, barcodeqr.M, barcodeqr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("scale qr: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// NormalizeCategory lower-cases the category and applies the complaint default.
func NormalizeCategory(category string) (string, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return CategoryComplaint, nil
	}
	for _, c := range Categories {
		if c == category {
			return category, nil
		}
	}
	return "", ErrInvalidCategory
}

func validMessage(message string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(message))
	return n >= minMessage && n <= maxMessage
}

func CaseTitle(category, name string, token Token) string {
	submitter := strings.TrimSpace(name)
	if submitter == "" {
		submitter = "Anonymous"
	}
	place := token.Label
	if place == "" {
		place = token.TargetID
	}
	if place == "" {
		place = "QR"
	}
	title := fmt.Sprintf("[%s] %s - %s", strings.ToUpper(category), submitter, place)
	if utf8.RuneCountInString(title) > maxTitle {
		title = string([]rune(title)[:maxTitle])
	}
	return title
}

func CaseDescription(input SubmitInput) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(input.Message))
	contact := []struct{ label, value string }{
		{"Name", input.SubmitterName},
		{"Email", input.SubmitterEmail},
		{"Phone", input.SubmitterPhone},
	}
	wrote := false
	for _, c := range contact {
		v := strings.TrimSpace(c.value)
		if v == "" {
			continue
		}
		if !wrote {
			b.WriteString("\n\nSubmitter contact:")
			wrote = true
		}
		fmt.Fprintf(&b, "\n%s: %s", c.label, v)
	}
	if len(input.AttachmentURLs) > 0 {
		b.WriteString("\n\nAttachments:")
		for _, u := range input.AttachmentURLs {
			b.WriteString("\n" + u)
		}
	}
	return b.String()
}
