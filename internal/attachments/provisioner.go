package attachments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/jimsug/jolly-roger/pkg/errors"
)

// HTTPProvisioner requests signed upload parameters from the external
// storage-provisioning service.
type HTTPProvisioner struct {
	endpoint string
	client   *http.Client
}

// NewHTTPProvisioner constructs a provisioner against the given endpoint.
func NewHTTPProvisioner(endpoint string, client *http.Client) *HTTPProvisioner {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPProvisioner{endpoint: endpoint, client: client}
}

type provisionRequest struct {
	HuntID   string `json:"huntId"`
	PuzzleID string `json:"puzzleId"`
	Filename string `json:"filename"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

type provisionResponse struct {
	UploadURL string            `json:"uploadUrl"`
	PublicURL string            `json:"publicUrl"`
	Fields    map[string]string `json:"fields"`
}

// RequestUploadParams asks the provisioning service to sign one upload
// scoped to its hunt and puzzle.
func (p *HTTPProvisioner) RequestUploadParams(ctx context.Context, scope UploadScope, filename, mimeType string, size int64) (*UploadParams, error) {
	payload, err := json.Marshal(provisionRequest{
		HuntID:   scope.HuntID,
		PuzzleID: scope.PuzzleID,
		Filename: filename,
		MimeType: mimeType,
		Size:     size,
	})
	if err != nil {
		return nil, apperrors.ErrUpload.WithInternal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.ErrUpload.WithInternal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, apperrors.ErrUpload.WithInternal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ErrUpload.WithInternal(fmt.Errorf("provisioner returned %d", resp.StatusCode))
	}

	var decoded provisionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, apperrors.ErrUpload.WithInternal(err)
	}
	if decoded.UploadURL == "" {
		return nil, apperrors.ErrUpload.WithInternal(fmt.Errorf("provisioner response missing uploadUrl"))
	}

	return &UploadParams{
		UploadURL: decoded.UploadURL,
		PublicURL: decoded.PublicURL,
		Fields:    decoded.Fields,
	}, nil
}
