// Package fetch downloads blobs such as PDF attachments referenced by a page.
package fetch

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kirillkom/invoice-autofill/internal/core/domain"
	"github.com/kirillkom/invoice-autofill/internal/infrastructure/resilience"
)

const DefaultMaxBytes = 25 << 20

// AuthWallMessage is returned when a webmail or viewer attachment needs the user's browser session.
const AuthWallMessage = "This PDF is protected by the mail or document viewer login. Download the file and open it directly, or drop it onto the extension."

var authWalledHosts = map[string]bool{
	"mail.google.com":              true,
	"docs.google.com":              true,
	"drive.google.com":             true,
	"drive.usercontent.google.com": true,
}

type Fetcher struct {
	httpClient *http.Client
	executor   *resilience.Executor
	maxBytes   int64
	authHosts  map[string]bool
}

func New(executor *resilience.Executor, maxBytes int64) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		executor:   executor,
		maxBytes:   maxBytes,
		authHosts:  authWalledHosts,
	}
}

// Fetch downloads rawURL. data: URLs are decoded in place; blob: URLs only exist inside
// the browser and are rejected.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (domain.Blob, error) {
	rawURL = strings.TrimSpace(rawURL)
	switch {
	case rawURL == "":
		return domain.Blob{}, domain.WrapError(domain.ErrInvalidInput, "fetch blob", errors.New("url is required"))
	case strings.HasPrefix(rawURL, "data:"):
		return decodeDataURL(rawURL)
	case strings.HasPrefix(rawURL, "blob:"):
		return domain.Blob{}, domain.WrapError(domain.ErrInvalidInput, "fetch blob", errors.New("blob: urls must be read by the browser and sent as data"))
	}

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return domain.Blob{}, domain.WrapError(domain.ErrInvalidInput, "fetch blob", fmt.Errorf("unsupported url %q", rawURL))
	}
	walled := f.authHosts[strings.ToLower(u.Hostname())]

	var blob domain.Blob
	err = f.executor.Execute(ctx, "fetch_blob", func(ctx context.Context) error {
		var err error
		blob, err = f.get(ctx, u.String(), walled)
		return err
	}, resilience.UpstreamFailure)
	if err != nil {
		if domain.IsKind(err, domain.ErrUnauthorized) || domain.IsKind(err, domain.ErrInvalidInput) {
			return domain.Blob{}, err
		}
		return domain.Blob{}, domain.WrapError(domain.ErrExtraction, "fetch blob", err)
	}
	return blob, nil
}

func (f *Fetcher) get(ctx context.Context, target string, walled bool) (domain.Blob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.Blob{}, fmt.Errorf("create fetch request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return domain.Blob{}, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if walled && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
		return domain.Blob{}, domain.WrapError(domain.ErrUnauthorized, "fetch blob", errors.New(AuthWallMessage))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.Blob{}, &resilience.HTTPStatusError{
			Service:    "fetch",
			Operation:  "get",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return domain.Blob{}, fmt.Errorf("read %s: %w", target, err)
	}
	if int64(len(data)) > f.maxBytes {
		return domain.Blob{}, domain.WrapError(domain.ErrInvalidInput, "fetch blob", fmt.Errorf("payload exceeds %d bytes", f.maxBytes))
	}

	contentType := resp.Header.Get("Content-Type")
	if walled && isLoginPage(contentType, data) {
		return domain.Blob{}, domain.WrapError(domain.ErrUnauthorized, "fetch blob", errors.New(AuthWallMessage))
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return domain.Blob{URL: target, ContentType: contentType, Data: data}, nil
}

// isLoginPage reports an HTML answer where a document was expected.
func isLoginPage(contentType string, data []byte) bool {
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return false
	}
	media, _, _ := mime.ParseMediaType(contentType)
	if media == "text/html" {
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(data[:min(len(data), 512)]))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

func decodeDataURL(raw string) (domain.Blob, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(raw, "data:"), ",")
	if !ok {
		return domain.Blob{}, domain.WrapError(domain.ErrInvalidInput, "decode data url", errors.New("missing payload separator"))
	}
	contentType := "text/plain;charset=US-ASCII"
	isBase64 := false
	if header != "" {
		params := strings.Split(header, ";")
		if params[len(params)-1] == "base64" {
			isBase64 = true
			params = params[:len(params)-1]
		}
		if len(params) > 0 && params[0] != "" {
			contentType = strings.Join(params, ";")
		}
	}

	var data []byte
	if isBase64 {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return domain.Blob{}, domain.WrapError(domain.ErrInvalidInput, "decode data url", err)
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(payload)
		if err != nil {
			return domain.Blob{}, domain.WrapError(domain.ErrInvalidInput, "decode data url", err)
		}
		data = []byte(unescaped)
	}
	return domain.Blob{URL: "data:", ContentType: contentType, Data: data}, nil
}
