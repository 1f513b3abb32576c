package convertapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	documents "billing-docs/internal/documents/domain"
)

const defaultTimeout = 60 * time.Second

// Options configures the converter client.
type Options struct {
	BaseURL     string
	Token       string
	Timeout     time.Duration
	ValidatePDF bool
}

// Client is a minimal ConvertAPI REST client.
type Client struct {
	baseURL     string
	token       string
	validatePDF bool
	client      *http.Client
}

// NewClient constructs a converter client.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("convertapi: empty base url")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		token:       opts.Token,
		validatePDF: opts.ValidatePDF,
		client:      &http.Client{Timeout: timeout},
	}, nil
}

type convertResponse struct {
	ConversionCost int          `json:"ConversionCost"`
	Files          []remoteFile `json:"Files"`
}

type remoteFile struct {
	FileName string `json:"FileName"`
	FileExt  string `json:"FileExt"`
	FileSize int64  `json:"FileSize"`
	URL      string `json:"Url"`
}

// Convert uploads the source file, then downloads the converted result to
// TargetPath. Every failure is reported as a ConversionServiceError.
func (c *Client) Convert(ctx context.Context, req documents.ConversionRequest) (*documents.Conversion, error) {
	from := strings.ToLower(strings.TrimPrefix(req.SourceFormat, "."))
	if from == "" {
		from = strings.ToLower(strings.TrimPrefix(filepath.Ext(req.SourcePath), "."))
	}
	to := strings.ToLower(strings.TrimPrefix(req.TargetFormat, "."))
	if from == "" || to == "" || req.TargetPath == "" {
		return nil, &documents.ConversionServiceError{Op: "request", Err: errors.New("source format, target format and target path are required")}
	}

	remote, err := c.upload(ctx, req.SourcePath, from, to)
	if err != nil {
		return nil, err
	}
	if err := c.download(ctx, remote.URL, req.TargetPath); err != nil {
		return nil, err
	}
	conversion := &documents.Conversion{RemoteURL: remote.URL, LocalPath: req.TargetPath}
	if c.validatePDF && to == "pdf" {
		pages, err := api.PageCountFile(req.TargetPath)
		if err != nil {
			_ = os.Remove(req.TargetPath)
			return nil, &documents.ConversionServiceError{Op: "validate", Err: err}
		}
		conversion.Pages = pages
	}
	return conversion, nil
}

func (c *Client) upload(ctx context.Context, sourcePath, from, to string) (remoteFile, error) {
	source, err := os.Open(sourcePath)
	if err != nil {
		return remoteFile{}, &documents.ConversionServiceError{Op: "upload", Err: err}
	}
	defer source.Close()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("File", filepath.Base(sourcePath))
	if err != nil {
		return remoteFile{}, &documents.ConversionServiceError{Op: "upload", Err: err}
	}
	if _, err := io.Copy(part, source); err != nil {
		return remoteFile{}, &documents.ConversionServiceError{Op: "upload", Err: err}
	}
	if err := form.WriteField("StoreFile", "true"); err != nil {
		return remoteFile{}, &documents.ConversionServiceError{Op: "upload", Err: err}
	}
	if err := form.Close(); err != nil {
		return remoteFile{}, &documents.ConversionServiceError{Op: "upload", Err: err}
	}

	path := fmt.Sprintf("/convert/%s/to/%s", from, to)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return remoteFile{}, &documents.ConversionServiceError{Op: "upload", Err: err}
	}
	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	httpReq.Header.Set("Accept", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return remoteFile{}, &documents.ConversionServiceError{Op: "upload", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return remoteFile{}, &documents.ConversionServiceError{Op: "upload", StatusCode: resp.StatusCode, Err: errorMessage(resp.Body)}
	}

	var out convertResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return remoteFile{}, &documents.ConversionServiceError{Op: "upload", StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if len(out.Files) == 0 || out.Files[0].URL == "" {
		return remoteFile{}, &documents.ConversionServiceError{Op: "upload", StatusCode: resp.StatusCode, Err: errors.New("response carries no file")}
	}
	return out.Files[0], nil
}

func (c *Client) download(ctx context.Context, url, target string) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &documents.ConversionServiceError{Op: "download", Err: err}
	}
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return &documents.ConversionServiceError{Op: "download", Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &documents.ConversionServiceError{Op: "download", StatusCode: resp.StatusCode, Err: errorMessage(resp.Body)}
	}

	tmp := filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+"."+uuid.NewString())
	f, err := os.Create(tmp)
	if err != nil {
		return &documents.ConversionServiceError{Op: "download", Err: err}
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return &documents.ConversionServiceError{Op: "download", Err: err}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return &documents.ConversionServiceError{Op: "download", Err: err}
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return &documents.ConversionServiceError{Op: "download", Err: err}
	}
	return nil
}

// errorMessage pulls the Message field ConvertAPI puts in error bodies.
func errorMessage(body io.Reader) error {
	raw, _ := io.ReadAll(io.LimitReader(body, 4096))
	var payload struct {
		Code    int    `json:"Code"`
		Message string `json:"Message"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Message != "" {
		return errors.New(payload.Message)
	}
	if text := strings.TrimSpace(string(raw)); text != "" {
		return errors.New(text)
	}
	return errors.New("empty response")
}
