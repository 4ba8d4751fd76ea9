package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/cheggaaa/pb/v3"

	"songlist-downloader/internal/shared"
)

// copyBufferSize bounds memory per fetch independent of file size.
const copyBufferSize = 32 * 1024

// Fetcher streams resolved media to local files.
type Fetcher struct {
	client *http.Client
	retry  shared.RetryPolicy
	debug  bool
}

func NewFetcher(client *http.Client, retry shared.RetryPolicy, debug bool) *Fetcher {
	return &Fetcher{client: client, retry: retry, debug: debug}
}

// Fetch downloads media.SourceURL to dest. On a non-200 status no file is
// created. Any failure after the file was created removes it again, so a
// returned error never leaves a partial file behind. bar may be nil.
func (f *Fetcher) Fetch(ctx context.Context, media *shared.ResolvedMedia, dest string, bar *pb.ProgressBar) (*shared.LocalMediaFile, error) {
	var written int64
	err := shared.Retry(ctx, f.retry, func() error {
		var err error
		written, err = f.fetchOnce(ctx, media.SourceURL, dest, bar)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &shared.LocalMediaFile{Path: dest, Size: written}, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, sourceURL, dest string, bar *pb.ProgressBar) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return 0, &shared.FetchError{Err: fmt.Errorf("error creating request: %w", err)}
	}
	req.Header.Set("User-Agent", shared.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, &shared.FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &shared.FetchError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	expectedSize := resp.ContentLength
	shared.DebugPrint(f.debug && expectedSize > 0, "Expected file size for %s: %d bytes", filepath.Base(dest), expectedSize)

	body := io.Reader(resp.Body)
	if bar != nil {
		if expectedSize <= 0 {
			bar.Set("indeterminate", true)
		} else {
			bar.SetTotal(expectedSize)
		}
		body = bar.NewProxyReader(resp.Body)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}

	written, copyErr := io.CopyBuffer(out, body, make([]byte, copyBufferSize))
	closeErr := out.Close()

	switch {
	case copyErr != nil:
		os.Remove(dest)
		return 0, &shared.FetchError{StatusCode: 0, Err: fmt.Errorf("failed to write audio file: %w", copyErr)}
	case closeErr != nil:
		os.Remove(dest)
		return 0, fmt.Errorf("failed to close audio file: %w", closeErr)
	case expectedSize > 0 && written != expectedSize:
		os.Remove(dest)
		return 0, &shared.FetchError{Err: fmt.Errorf("incomplete download: expected %d bytes, got %d bytes", expectedSize, written)}
	}

	shared.DebugPrint(f.debug, "Downloaded %s - %d bytes", filepath.Base(dest), written)
	return written, nil
}
