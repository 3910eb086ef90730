package parameters

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/Manta-Network/cli/internal/tempdir"
)

// maxArtifactSize caps a single download.
const maxArtifactSize int64 = 2 << 30

// fetcher reads artifact bytes. Downloads land in the scratch directory and
// are read back from there.
type fetcher struct {
	client   *http.Client
	embedded fs.FS
	scratch  *tempdir.Dir
	metrics  *Metrics
}

func (f *fetcher) fetch(ctx context.Context, e Entry) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		data []byte
		err  error
	)
	switch e.Source {
	case SourceEmbedded:
		data, err = fs.ReadFile(f.embedded, e.Location)
	case SourceDownload:
		path := f.scratch.Join(string(e.Name) + ".dat")
		if err = f.download(ctx, e, path); err == nil {
			data, err = os.ReadFile(path)
		}
	default:
		err = fmt.Errorf("unknown source %q", e.Source)
	}
	if err != nil {
		return nil, err
	}
	f.metrics.recordBytes(e.Source, len(data))
	return data, nil
}

func (f *fetcher) download(ctx context.Context, e Entry, dst string) error {
	src, err := f.open(ctx, e)
	if err != nil {
		return err
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, io.LimitReader(src, maxArtifactSize+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	if n > maxArtifactSize {
		return fmt.Errorf("%s exceeds %d bytes", e.Location, maxArtifactSize)
	}
	return nil
}

func (f *fetcher) open(ctx context.Context, e Entry) (io.ReadCloser, error) {
	u, err := e.url()
	if err != nil {
		return nil, err
	}

	if u.Scheme == "file" {
		return os.Open(e.filePath(u))
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %s", u.Redacted(), resp.Status)
	}
	return resp.Body, nil
}
