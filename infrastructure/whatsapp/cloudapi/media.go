package cloudapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path"
	"strings"

	domainMedia "github.com/AzielCF/az-funnel/domains/media"
	"github.com/buger/jsonparser"
	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

// UploadMedia posts the bytes to /media and returns the platform media id.
func (c *Client) UploadMedia(ctx context.Context, upload domainMedia.UploadRequest) (string, error) {
	if len(upload.Data) == 0 {
		return "", fmt.Errorf("refusing to upload empty media")
	}

	mimeType := upload.MimeType
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = mimetype.Detect(upload.Data).String()
	}
	filename := upload.Filename
	if filename == "" {
		filename = "media" + mimetype.Detect(upload.Data).Extension()
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, strings.ReplaceAll(filename, "\"", "_")))
	h.Set("Content-Type", mimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(upload.Data); err != nil {
		return "", fmt.Errorf("failed to copy media into form: %w", err)
	}
	if err := w.WriteField("messaging_product", "whatsapp"); err != nil {
		return "", err
	}
	if err := w.WriteField("type", mimeType); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("media"), &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	data, err := c.do(req)
	if err != nil {
		return "", fmt.Errorf("media upload failed: %w", err)
	}

	id, err := jsonparser.GetString(data, "id")
	if err != nil || id == "" {
		return "", fmt.Errorf("media upload returned no id: %s", truncate(string(data), 256))
	}

	logrus.WithFields(logrus.Fields{
		"media_id":  id,
		"mime_type": mimeType,
		"size":      humanize.Bytes(uint64(len(upload.Data))),
	}).Info("[GRAPH] media uploaded")
	return id, nil
}

// Download fetches url without Graph credentials. Bodies larger than limit are rejected.
func (c *Client) Download(ctx context.Context, url string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error building media request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching media %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("error fetching media %s: status=%d", url, resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if limit > 0 {
		reader = io.LimitReader(resp.Body, limit+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("error reading media %s: %w", url, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("media %s exceeds %s", url, humanize.Bytes(uint64(limit)))
	}

	logrus.Debugf("[GRAPH] downloaded %s (%s)", path.Base(url), humanize.Bytes(uint64(len(data))))
	return data, nil
}
