// Package vapi is a thin HTTP client for the external voice platform:
// knowledge file uploads, assistant provisioning and lookup, phone
// numbers and call records.
package vapi

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
	"net/url"
	"path"
	"strings"
	"time"
)

var (
	// ErrUploadFailed covers transport errors and non-2xx responses on
	// knowledge file uploads. Usually transient.
	ErrUploadFailed = errors.New("file upload failed")

	// ErrMalformedResponse means the platform accepted an upload but the
	// response body had no file id. A contract break, not transient.
	ErrMalformedResponse = errors.New("upload response missing id")
)

// APIError is a non-2xx answer from the platform, with enough of the
// upstream response to diagnose. Never includes credentials.
type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vapi %s failed: status %d: %s", e.Operation, e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UploadText pushes extracted text to the platform's file store and
// returns the opaque file id. The filename is the suggested name's base
// with a .txt extension, falling back to kb.txt.
func (c *Client) UploadText(ctx context.Context, text, suggestedName string) (string, error) {
	txtName := "kb.txt"
	if suggestedName != "" {
		base := strings.TrimSuffix(suggestedName, path.Ext(suggestedName))
		if base != "" {
			txtName = base + ".txt"
		}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, txtName))
	h.Set("Content-Type", "text/plain; charset=utf-8")
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("%w: building request: %v", ErrUploadFailed, err)
	}
	if _, err := part.Write([]byte(text)); err != nil {
		return "", fmt.Errorf("%w: building request: %v", ErrUploadFailed, err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("%w: building request: %v", ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/file", &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: status %d", ErrUploadFailed, resp.StatusCode)
	}

	var parsed struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || parsed.ID == "" {
		return "", ErrMalformedResponse
	}
	return parsed.ID, nil
}

func (c *Client) CreateAssistant(ctx context.Context, req AssistantRequest) (Assistant, error) {
	var assistant Assistant
	if err := c.doJSON(ctx, http.MethodPost, "/assistant", nil, req, &assistant, "create assistant"); err != nil {
		return nil, err
	}
	return assistant, nil
}

func (c *Client) GetAssistant(ctx context.Context, id string) (Assistant, error) {
	var assistant Assistant
	if err := c.doJSON(ctx, http.MethodGet, "/assistant/"+url.PathEscape(id), nil, nil, &assistant, "get assistant"); err != nil {
		return nil, err
	}
	return assistant, nil
}

func (c *Client) DeleteAssistant(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/assistant/"+url.PathEscape(id), nil, nil, nil, "delete assistant")
}

func (c *Client) GetPhoneNumber(ctx context.Context, id string) (Phone, error) {
	var phone Phone
	if err := c.doJSON(ctx, http.MethodGet, "/phone-number/"+url.PathEscape(id), nil, nil, &phone, "get phone number"); err != nil {
		return nil, err
	}
	return phone, nil
}

// ListCalls queries the platform's call log. Filtering is the caller's
// responsibility; at least one of the ids should be set.
func (c *Client) ListCalls(ctx context.Context, assistantID, phoneNumberID string) ([]Call, error) {
	params := url.Values{}
	if assistantID != "" {
		params.Set("assistantId", assistantID)
	}
	if phoneNumberID != "" {
		params.Set("phoneNumberId", phoneNumberID)
	}

	var calls []Call
	if err := c.doJSON(ctx, http.MethodGet, "/call", params, nil, &calls, "list calls"); err != nil {
		return nil, err
	}
	return calls, nil
}

func (c *Client) GetCall(ctx context.Context, id string) (Call, error) {
	var call Call
	if err := c.doJSON(ctx, http.MethodGet, "/call/"+url.PathEscape(id), nil, nil, &call, "get call"); err != nil {
		return nil, err
	}
	return call, nil
}

// CreateCall places an outbound call from a platform phone number to a
// customer number, handled by the given assistant.
func (c *Client) CreateCall(ctx context.Context, assistantID, customerNumber, phoneNumberID string) (Call, error) {
	payload := map[string]any{
		"assistantId":   assistantID,
		"customer":      map[string]any{"number": customerNumber},
		"phoneNumberId": phoneNumberID,
	}

	var call Call
	if err := c.doJSON(ctx, http.MethodPost, "/call", nil, payload, &call, "create call"); err != nil {
		return nil, err
	}
	return call, nil
}

func (c *Client) doJSON(ctx context.Context, method, endpoint string, params url.Values, payload, out any, operation string) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("vapi %s: encoding request: %w", operation, err)
		}
		body = bytes.NewReader(encoded)
	}

	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("vapi %s: %w", operation, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vapi %s: %w", operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("vapi %s: reading response: %w", operation, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Operation: operation, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("vapi %s: decoding response: %w", operation, err)
		}
	}
	return nil
}
