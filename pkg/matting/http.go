package matting

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxErrorBody = 512

// HTTPService talks to a matting sidecar server.
//
// Protocol:
//
//	GET  {url}/health?device=D&mode=M  -> 2xx when the model is loadable on D
//	POST {url}/remove                  multipart: image (PNG), mode, device, type
//	                                   -> 200 with a PNG or WebP body
type HTTPService struct {
	baseURL    string
	httpClient *http.Client
	mode       string
	device     Device
	output     string
}

// NewHTTPService probes the server for the requested device and mode.
func NewHTTPService(ctx context.Context, opts Options) (*HTTPService, error) {
	opts = opts.withDefaults()
	raw := strings.TrimSpace(opts.HTTP.URL)
	if raw == "" {
		return nil, fmt.Errorf("http backend: url is required")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("http backend: invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("http backend: unsupported url scheme %q", parsed.Scheme)
	}

	s := &HTTPService{
		baseURL: strings.TrimSuffix(raw, "/"),
		httpClient: &http.Client{
			Timeout: opts.RequestTimeout,
		},
		mode:   opts.Mode,
		device: opts.Device,
		output: opts.Output,
	}
	if err := s.probe(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *HTTPService) probe(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	q := url.Values{}
	q.Set("device", string(s.device))
	q.Set("mode", s.mode)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("health check: HTTP %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Process uploads img and returns the server's RGBA result.
func (s *HTTPService) Process(ctx context.Context, img *image.RGBA) (*image.NRGBA, error) {
	data, err := encodeInput(img)
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "image.png")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	_ = writer.WriteField("mode", s.mode)
	_ = writer.WriteField("device", string(s.device))
	_ = writer.WriteField("type", s.output)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/remove", body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "image/png, image/webp")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return decodeResult(respBody, img.Bounds())
}

// Close releases idle connections.
func (s *HTTPService) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	msg := strings.TrimSpace(string(b))
	if msg == "" {
		return "(empty body)"
	}
	return msg
}
