// Package ocr calls the external receipt/document OCR service and
// normalizes its response into plain text.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

var (
	// ErrExtractionFailed covers transport errors, non-2xx responses,
	// unparseable bodies and an explicit failure flag from the service.
	ErrExtractionFailed = errors.New("ocr extraction failed")

	// ErrEmptyExtraction means the service succeeded but produced no
	// usable text. Unprocessable input, not a server fault.
	ErrEmptyExtraction = errors.New("ocr returned empty text")
)

// textFieldPriority is the order in which known per-receipt text fields
// are tried.
var textFieldPriority = []string{"ocr_text", "text", "raw_text"}

type Client struct {
	endpoint   string
	apiKey     string
	recognizer string
	httpClient *http.Client
}

func NewClient(endpoint, apiKey, recognizer string, timeout time.Duration) *Client {
	if recognizer == "" {
		recognizer = "auto"
	}
	return &Client{
		endpoint:   endpoint,
		apiKey:     apiKey,
		recognizer: recognizer,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type response struct {
	Success  bool             `json:"success"`
	Receipts []map[string]any `json:"receipts"`
}

// Extract runs one document through the OCR service and returns its
// plain text. The reference number sent along is request-scoped only,
// for traceability on the remote side.
func (c *Client) Extract(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	if filename == "" {
		filename = "upload"
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("api_key", c.apiKey); err != nil {
		return "", fmt.Errorf("%w: building request: %v", ErrExtractionFailed, err)
	}
	if err := mw.WriteField("recognizer", c.recognizer); err != nil {
		return "", fmt.Errorf("%w: building request: %v", ErrExtractionFailed, err)
	}
	refNo := fmt.Sprintf("ocr_%s_%d", filename, time.Now().Unix())
	if err := mw.WriteField("ref_no", refNo); err != nil {
		return "", fmt.Errorf("%w: building request: %v", ErrExtractionFailed, err)
	}

	part, err := createFilePart(mw, "file", filename, contentType)
	if err != nil {
		return "", fmt.Errorf("%w: building request: %v", ErrExtractionFailed, err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("%w: building request: %v", ErrExtractionFailed, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: building request: %v", ErrExtractionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: service returned status %d", ErrExtractionFailed, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrExtractionFailed, err)
	}

	var parsed response
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("%w: response was not valid JSON", ErrExtractionFailed)
	}
	if !parsed.Success {
		return "", fmt.Errorf("%w: service reported success=false", ErrExtractionFailed)
	}

	text := collectText(parsed.Receipts)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyExtraction
	}
	return text, nil
}

// collectText pulls text out of every receipt entry, trying the known
// field names in priority order, and joins pages with a blank line.
func collectText(receipts []map[string]any) string {
	var pages []string
	for _, receipt := range receipts {
		for _, field := range textFieldPriority {
			if val, ok := receipt[field].(string); ok && strings.TrimSpace(val) != "" {
				pages = append(pages, strings.TrimSpace(val))
				break
			}
		}
	}
	return strings.Join(pages, "\n\n")
}

func createFilePart(mw *multipart.Writer, fieldName, filename, contentType string) (io.Writer, error) {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, filename))
	h.Set("Content-Type", contentType)
	return mw.CreatePart(h)
}
