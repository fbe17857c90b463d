// Package attachments implements the two-phase upload protocol for chat
// attachments: signed parameters are requested from a storage provisioner,
// then each file is posted directly to storage. All files of one outgoing
// message succeed together or the whole send is aborted.
package attachments

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jimsug/jolly-roger/internal/models"
	apperrors "github.com/jimsug/jolly-roger/pkg/errors"
)

// DefaultMaxFileSize caps a single attachment at 30 MiB.
const DefaultMaxFileSize = 30 << 20

// UploadParams are the signed parameters returned by the provisioner for
// one file. Fields are posted ahead of the file content.
type UploadParams struct {
	UploadURL string
	PublicURL string
	Fields    map[string]string
}

// UploadScope names the hunt and puzzle an upload belongs to, so the
// provisioner can partition storage per channel.
type UploadScope struct {
	HuntID   string
	PuzzleID string
}

// Provisioner issues signed upload parameters. Storage itself is an
// external collaborator; only the handshake lives here.
type Provisioner interface {
	RequestUploadParams(ctx context.Context, scope UploadScope, filename, mimeType string, size int64) (*UploadParams, error)
}

// PendingAttachment is a file the user has staged but not yet uploaded. A
// pending file may still be removed from the outgoing message; an upload in
// flight cannot be cancelled.
type PendingAttachment struct {
	Filename string
	MimeType string
	Content  []byte
}

// Uploader performs the storage side of attachment sends.
type Uploader struct {
	provisioner Provisioner
	client      *http.Client
	maxFileSize int64
}

// UploaderOption customises uploader construction.
type UploaderOption func(*Uploader)

// WithHTTPClient overrides the HTTP client used for storage posts.
func WithHTTPClient(client *http.Client) UploaderOption {
	return func(u *Uploader) {
		if client != nil {
			u.client = client
		}
	}
}

// WithMaxFileSize overrides the per-file size cap.
func WithMaxFileSize(limit int64) UploaderOption {
	return func(u *Uploader) {
		if limit > 0 {
			u.maxFileSize = limit
		}
	}
}

// NewUploader constructs an uploader over the given provisioner.
func NewUploader(provisioner Provisioner, opts ...UploaderOption) (*Uploader, error) {
	if provisioner == nil {
		return nil, errors.New("attachments: provisioner is required")
	}
	u := &Uploader{
		provisioner: provisioner,
		client:      &http.Client{Timeout: 2 * time.Minute},
		maxFileSize: DefaultMaxFileSize,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// UploadAll uploads every staged file concurrently and returns the stored
// attachment records in input order. Any single failure aborts the whole
// batch with no partial result.
func (u *Uploader) UploadAll(ctx context.Context, scope UploadScope, files []PendingAttachment) ([]models.Attachment, error) {
	if len(files) == 0 {
		return nil, nil
	}

	results := make([]models.Attachment, len(files))
	group, ctx := errgroup.WithContext(ctx)
	for i, file := range files {
		i, file := i, file
		group.Go(func() error {
			attachment, err := u.Upload(ctx, scope, file)
			if err != nil {
				return err
			}
			results[i] = *attachment
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperrors.ErrUpload.WithInternal(err)
	}
	return results, nil
}

// Upload performs the two-phase protocol for one file.
func (u *Uploader) Upload(ctx context.Context, scope UploadScope, file PendingAttachment) (*models.Attachment, error) {
	size := int64(len(file.Content))
	if size == 0 {
		return nil, apperrors.NewValidation("attachment is empty")
	}
	if size > u.maxFileSize {
		return nil, apperrors.NewValidation(fmt.Sprintf("attachment %q exceeds the %d byte limit", file.Filename, u.maxFileSize))
	}

	params, err := u.provisioner.RequestUploadParams(ctx, scope, file.Filename, file.MimeType, size)
	if err != nil {
		return nil, apperrors.ErrUpload.WithInternal(err)
	}

	if err := u.post(ctx, params, file); err != nil {
		return nil, err
	}

	return &models.Attachment{
		URL:      params.PublicURL,
		Filename: file.Filename,
		MimeType: file.MimeType,
		Size:     size,
	}, nil
}

func (u *Uploader) post(ctx context.Context, params *UploadParams, file PendingAttachment) error {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	// Signed fields must precede the file part.
	for key, value := range params.Fields {
		if err := writer.WriteField(key, value); err != nil {
			return apperrors.ErrUpload.WithInternal(err)
		}
	}
	part, err := writer.CreateFormFile("file", file.Filename)
	if err != nil {
		return apperrors.ErrUpload.WithInternal(err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return apperrors.ErrUpload.WithInternal(err)
	}
	if err := writer.Close(); err != nil {
		return apperrors.ErrUpload.WithInternal(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, params.UploadURL, &body)
	if err != nil {
		return apperrors.ErrUpload.WithInternal(err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return apperrors.ErrUpload.WithInternal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.ErrUpload.WithInternal(fmt.Errorf("storage returned %d: %s", resp.StatusCode, detail))
	}
	return nil
}
