package imagehost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"estate-market/internal/core/config"
)

const backendCloudinary = "cloudinary"

// Cloudinary performs unsigned uploads against an upload preset.
type Cloudinary struct {
	BaseURL      string
	CloudName    string
	UploadPreset string
	HTTP         *http.Client
}

func NewCloudinary(c config.Cloudinary, timeout time.Duration) *Cloudinary {
	base := c.BaseURL
	if base == "" {
		base = "https://api.cloudinary.com"
	}
	return &Cloudinary{
		BaseURL:      strings.TrimRight(base, "/"),
		CloudName:    c.CloudName,
		UploadPreset: c.UploadPreset,
		HTTP:         &http.Client{Timeout: timeout},
	}
}

func (c *Cloudinary) endpoint() string {
	return fmt.Sprintf("%s/v1_1/%s/image/upload", c.BaseURL, c.CloudName)
}

type cloudinaryResp struct {
	URL       string `json:"url"`
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Bytes     int64  `json:"bytes"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Cloudinary) Upload(ctx context.Context, f File, progress ProgressFunc) (res Result, err error) {
	defer func() { observe(backendCloudinary, res.Bytes, err) }()

	body, contentType, err := c.form(f)
	if err != nil {
		return Result{}, &UploadError{Backend: backendCloudinary, Name: f.Name, Err: err}
	}
	pr := newProgressReader(bytes.NewReader(body), f.Name, int64(len(body)), progress)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), pr)
	if err != nil {
		return Result{}, &UploadError{Backend: backendCloudinary, Name: f.Name, Err: err}
	}
	req.ContentLength = int64(len(body))
	req.Header.Set("Content-Type", contentType)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Result{}, &UploadError{Backend: backendCloudinary, Name: f.Name, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, &UploadError{Backend: backendCloudinary, Name: f.Name, Status: resp.StatusCode, Err: err}
	}
	var out cloudinaryResp
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode != http.StatusOK {
		ue := &UploadError{Backend: backendCloudinary, Name: f.Name, Status: resp.StatusCode, Err: decodeErr}
		if out.Error != nil {
			ue.Msg = out.Error.Message
		}
		return Result{}, ue
	}
	url := out.URL
	if url == "" {
		url = out.SecureURL
	}
	if url == "" {
		if decodeErr != nil {
			return Result{}, &UploadError{Backend: backendCloudinary, Name: f.Name, Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", decodeErr)}
		}
		return Result{}, &UploadError{Backend: backendCloudinary, Name: f.Name, Status: resp.StatusCode, Msg: "response carried no url"}
	}
	n := out.Bytes
	if n == 0 {
		n = int64(len(f.Data))
	}
	return Result{URL: url, Key: out.PublicID, Bytes: n}, nil
}

func (c *Cloudinary) form(f File) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := WriteFilePart(mw, "file", f); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("upload_preset", c.UploadPreset); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("cloud_name", c.CloudName); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
