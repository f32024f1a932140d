package classify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// maxResponseBytes caps how much of a backend reply is read.
const maxResponseBytes = 64 << 10

// HTTPClassifier posts the photo to the wellness backend's analyze endpoint
// as multipart form field "file".
type HTTPClassifier struct {
	endpoint string
	client   *http.Client
}

// NewHTTP creates a classifier for a backend base URL such as
// http://localhost:8000. A URL that already names a path is used as is.
func NewHTTP(baseURL string, timeout time.Duration) *HTTPClassifier {
	endpoint := strings.TrimRight(baseURL, "/")
	if !strings.Contains(strings.TrimPrefix(strings.TrimPrefix(endpoint, "http://"), "https://"), "/") {
		endpoint += "/analyze-food"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClassifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (h *HTTPClassifier) Classify(ctx context.Context, image []byte) (Classification, error) {
	if len(image) == 0 {
		return Classification{}, fmt.Errorf("classify: empty image")
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="meal"`)
	header.Set("Content-Type", http.DetectContentType(image))
	part, err := mw.CreatePart(header)
	if err != nil {
		return Classification{}, fmt.Errorf("build form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return Classification{}, fmt.Errorf("build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Classification{}, fmt.Errorf("build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, &body)
	if err != nil {
		return Classification{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return Classification{}, fmt.Errorf("post %s: %w", h.endpoint, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Classification{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Classification{}, fmt.Errorf("classify: backend returned %s: %s",
			resp.Status, truncate(strings.TrimSpace(string(data)), 120))
	}
	return Parse(data)
}
