package drive

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	files    []*File
	contents map[string]string
}

func (f *fakeSource) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	return f.files, nil
}

func (f *fakeSource) DownloadFile(ctx context.Context, file *File, w io.Writer) error {
	_, err := io.WriteString(w, f.contents[file.ID])
	return err
}

func TestDownloadFolder(t *testing.T) {
	src := &fakeSource{
		files: []*File{
			{ID: "1", Name: "stock.csv", MimeType: "text/csv"},
			{ID: "2", Name: "notes.txt", MimeType: "text/plain"},
			{ID: "3", Name: "Weekly Plan", MimeType: googleSheetMimeType},
			{ID: "4", Name: "../escape.XLSX", MimeType: xlsxMimeType},
		},
		contents: map[string]string{"1": "sku\nA\n", "3": "sheet", "4": "book"},
	}
	dir := t.TempDir()

	paths, err := NewDownloader(src).DownloadFolder(context.Background(), DownloadOptions{DownloadDir: dir})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "stock.csv"),
		filepath.Join(dir, "Weekly Plan.xlsx"),
		filepath.Join(dir, "escape.XLSX"),
	}, paths)

	body, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Equal(t, "sku\nA\n", string(body))
}

func TestDownloadFolderRequiresDir(t *testing.T) {
	_, err := NewDownloader(&fakeSource{}).DownloadFolder(context.Background(), DownloadOptions{})
	assert.Error(t, err)
}

func TestDownloadFolderCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{files: []*File{{ID: "1", Name: "a.csv"}}}
	_, err := NewDownloader(src).DownloadFolder(ctx, DownloadOptions{DownloadDir: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
}
