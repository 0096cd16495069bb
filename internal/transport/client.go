package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/relistr/mediakit/pkg/asset"
	"github.com/relistr/mediakit/pkg/config"
	pkgerrors "github.com/relistr/mediakit/pkg/errors"
	"github.com/relistr/mediakit/pkg/scope"
)

const (
	requestIDHeader = "X-Request-Id"

	// DefaultTokenEnv is where the bearer token lives unless the caller
	// supplies a TokenSource.
	DefaultTokenEnv = "MEDIAKIT_API_TOKEN"
)

// TokenSource supplies the bearer token attached to every request. An
// empty token sends no Authorization header; the backend rejects through
// the normal error path rather than the client crashing.
type TokenSource interface {
	Token() string
}

// EnvTokenSource reads the token from ambient environment on every call.
type EnvTokenSource struct {
	Key string
}

func (s EnvTokenSource) Token() string {
	key := s.Key
	if key == "" {
		key = DefaultTokenEnv
	}
	return os.Getenv(key)
}

// StaticTokenSource wraps a fixed token, mainly for tests and the CLI.
type StaticTokenSource string

func (s StaticTokenSource) Token() string {
	return string(s)
}

// File is one candidate upload: name, declared mime type, size, content.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// ImageOrder is one (id, sortOrder) pair of a persisted ordering.
type ImageOrder struct {
	ImageID   int64 `json:"imageId"`
	SortOrder int   `json:"sortOrder"`
}

// Client talks to the marketplace media endpoints. One multipart request
// carries a whole upload batch.
type Client struct {
	baseURL   string
	http      *http.Client
	uploading *http.Client
	tokens    TokenSource
}

func NewClient(cfg config.APIConfig, tokens TokenSource) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "api base url required")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid api base url")
	}
	if tokens == nil {
		tokens = EnvTokenSource{}
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	uploadTimeout := cfg.UploadTimeout
	if uploadTimeout <= 0 {
		uploadTimeout = 5 * time.Minute
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: requestTimeout},
		uploading: &http.Client{Timeout: uploadTimeout},
		tokens:    tokens,
	}, nil
}

type imagesEnvelope struct {
	Images []asset.Record `json:"images"`
}

type errorPayload struct {
	Error string `json:"error"`
}

// FetchImages hydrates a scope from the backend.
func (c *Client) FetchImages(ctx context.Context, sc scope.Scope) ([]asset.Record, error) {
	endpoint := fmt.Sprintf("%s/upload/%s/%d/images?purpose=%s",
		c.baseURL, sc.EntityType, sc.EntityID, url.QueryEscape(sc.Purpose))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build fetch request")
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeFetch, err, "fetch images")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp, pkgerrors.CodeFetch, "fetch images failed")
	}

	var envelope imagesEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeFetch, err, "decode images response")
	}
	return envelope.Images, nil
}

// UploadBatch sends all files in one multipart request carrying the
// purpose field, reporting batch-level progress as the body drains.
// Returns only the newly created records.
func (c *Client) UploadBatch(ctx context.Context, sc scope.Scope, files []File, onProgress ProgressFunc) ([]asset.Record, error) {
	if len(files) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "upload batch is empty")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("purpose", sc.Purpose); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write purpose field")
	}
	for _, file := range files {
		part, err := writer.CreatePart(fileHeader(file))
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create multipart section")
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fmt.Sprintf("read file %s", file.Name))
		}
	}
	if err := writer.Close(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "finalize multipart body")
	}

	endpoint := fmt.Sprintf("%s/upload/%s/%d", c.baseURL, sc.EntityType, sc.EntityID)
	total := int64(body.Len())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, newProgressReader(body, total, onProgress))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build upload request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.ContentLength = total
	c.decorate(req)

	resp, err := c.uploading.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransfer, err, "Upload failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp, pkgerrors.CodeTransfer, "Upload failed")
	}

	var envelope imagesEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransfer, err, "decode upload response")
	}
	return envelope.Images, nil
}

// DeleteImage removes one uploaded asset by id.
func (c *Client) DeleteImage(ctx context.Context, id int64) error {
	endpoint := fmt.Sprintf("%s/upload/image/%d", c.baseURL, id)
	return c.doMutation(ctx, http.MethodDelete, endpoint, nil, "Failed to delete image")
}

// PersistOrder writes the full ordering for a scope.
func (c *Client) PersistOrder(ctx context.Context, sc scope.Scope, orders []ImageOrder) error {
	payload := struct {
		Purpose     string       `json:"purpose"`
		ImageOrders []ImageOrder `json:"imageOrders"`
	}{Purpose: sc.Purpose, ImageOrders: orders}

	raw, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode reorder payload")
	}

	endpoint := fmt.Sprintf("%s/upload/%s/%d/reorder", c.baseURL, sc.EntityType, sc.EntityID)
	return c.doMutation(ctx, http.MethodPut, endpoint, bytes.NewReader(raw), "Failed to save image order")
}

// SetPrimary flags one asset as the scope's primary.
func (c *Client) SetPrimary(ctx context.Context, id int64) error {
	endpoint := fmt.Sprintf("%s/upload/image/%d/set-primary", c.baseURL, id)
	return c.doMutation(ctx, http.MethodPut, endpoint, nil, "Failed to set primary image")
}

func (c *Client) doMutation(ctx context.Context, method, endpoint string, body io.Reader, fallback string) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeMutation, err, fallback)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp, pkgerrors.CodeMutation, fallback)
	}
	return nil
}

func (c *Client) decorate(req *http.Request) {
	req.Header.Set(requestIDHeader, uuid.NewString())
	req.Header.Set("Accept", "application/json")
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// decodeError prefers the server-supplied message and falls back to the
// operation default. 401s keep their own code so callers can tell auth
// failures apart.
func decodeError(resp *http.Response, code pkgerrors.Code, fallback string) error {
	if resp.StatusCode == http.StatusUnauthorized {
		code = pkgerrors.CodeUnauthorized
	}

	message := fallback
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil && len(raw) > 0 {
		var payload errorPayload
		if jsonErr := json.Unmarshal(raw, &payload); jsonErr == nil && strings.TrimSpace(payload.Error) != "" {
			message = payload.Error
		}
	}
	return pkgerrors.New(code, message).WithDetails(map[string]any{"status": resp.StatusCode})
}

func fileHeader(file File) textproto.MIMEHeader {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="files"; filename="%s"`, escapeQuotes(file.Name)))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)
	return header
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(value string) string {
	return quoteEscaper.Replace(value)
}
