package attachments

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

var testScope = UploadScope{HuntID: "hunt-1", PuzzleID: "puzzle-1"}

type staticProvisioner struct {
	uploadURL string
	publicURL string
	fields    map[string]string
	err       error

	lastScope UploadScope
}

func (p *staticProvisioner) RequestUploadParams(_ context.Context, scope UploadScope, filename, _ string, _ int64) (*UploadParams, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.lastScope = scope
	return &UploadParams{
		UploadURL: p.uploadURL,
		PublicURL: p.publicURL + "/" + filename,
		Fields:    p.fields,
	}, nil
}

func TestUploaderPostsSignedFields(t *testing.T) {
	var gotKey, gotFilename string
	var gotContent []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotKey = r.FormValue("key")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		gotFilename = header.Filename
		buf, err := io.ReadAll(file)
		require.NoError(t, err)
		gotContent = buf
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	provisioner := &staticProvisioner{
		uploadURL: server.URL,
		publicURL: "https://files.example.com",
		fields:    map[string]string{"key": "uploads/abc"},
	}
	uploader, err := NewUploader(provisioner)
	require.NoError(t, err)

	attachment, err := uploader.Upload(context.Background(), testScope, PendingAttachment{
		Filename: "grid.png",
		MimeType: "image/png",
		Content:  []byte("pixels"),
	})
	require.NoError(t, err)
	require.Equal(t, "https://files.example.com/grid.png", attachment.URL)
	require.Equal(t, int64(6), attachment.Size)
	require.Equal(t, "uploads/abc", gotKey)
	require.Equal(t, "grid.png", gotFilename)
	require.Equal(t, []byte("pixels"), gotContent)
	require.Equal(t, testScope, provisioner.lastScope)
}

func TestProvisionerSendsChannelScope(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"uploadUrl": "https://storage.example.com/put",
			"publicUrl": "https://files.example.com/grid.png",
		})
	}))
	defer server.Close()

	provisioner := NewHTTPProvisioner(server.URL, server.Client())
	params, err := provisioner.RequestUploadParams(context.Background(), testScope, "grid.png", "image/png", 6)
	require.NoError(t, err)
	require.Equal(t, "https://storage.example.com/put", params.UploadURL)
	require.Equal(t, "hunt-1", got["huntId"])
	require.Equal(t, "puzzle-1", got["puzzleId"])
	require.Equal(t, "grid.png", got["filename"])
}

func TestUploaderAllOrNothing(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1 << 20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		hits.Add(1)
		if header.Filename == "bad.bin" {
			http.Error(w, "denied", http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	uploader, err := NewUploader(&staticProvisioner{uploadURL: server.URL, publicURL: "https://files.example.com"})
	require.NoError(t, err)

	results, err := uploader.UploadAll(context.Background(), testScope, []PendingAttachment{
		{Filename: "ok.txt", MimeType: "text/plain", Content: []byte("fine")},
		{Filename: "bad.bin", MimeType: "application/octet-stream", Content: []byte("nope")},
	})
	require.Error(t, err)
	require.Nil(t, results)
}

func TestUploaderRejectsOversizedFile(t *testing.T) {
	uploader, err := NewUploader(
		&staticProvisioner{uploadURL: "http://unused.invalid", publicURL: "http://unused.invalid"},
		WithMaxFileSize(4),
	)
	require.NoError(t, err)

	_, err = uploader.Upload(context.Background(), testScope, PendingAttachment{
		Filename: "big.bin",
		MimeType: "application/octet-stream",
		Content:  []byte("too big"),
	})
	require.Error(t, err)
}

func TestUploaderProvisionerFailureAbortsBatch(t *testing.T) {
	uploader, err := NewUploader(&staticProvisioner{err: errors.New("storage unavailable")})
	require.NoError(t, err)

	results, err := uploader.UploadAll(context.Background(), testScope, []PendingAttachment{
		{Filename: "a.txt", MimeType: "text/plain", Content: []byte("a")},
	})
	require.Error(t, err)
	require.Nil(t, results)
}

func TestUploaderEmptyBatch(t *testing.T) {
	uploader, err := NewUploader(&staticProvisioner{})
	require.NoError(t, err)

	results, err := uploader.UploadAll(context.Background(), testScope, nil)
	require.NoError(t, err)
	require.Nil(t, results)
}
