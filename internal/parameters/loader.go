package parameters

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	dserrors "github.com/Manta-Network/cli/internal/errors"
	"github.com/Manta-Network/cli/internal/logging"
	"github.com/Manta-Network/cli/internal/tempdir"
)

// Pipeline stages an artifact passes through, in order.
const (
	StageFetch    = "fetch"
	StageChecksum = "checksum"
	StageDecode   = "decode"
)

// DefaultConcurrency bounds how many artifacts are loaded at once.
const DefaultConcurrency = 4

const loadStage = "parameter load"

// ArtifactError reports which artifact failed and at which stage.
type ArtifactError struct {
	Artifact Name
	Stage    string
	Err      error
}

func (e *ArtifactError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Artifact, e.Stage, e.Err)
}

func (e *ArtifactError) Unwrap() error {
	return e.Err
}

// Loader builds a Bundle from a catalog.
type Loader struct {
	catalog     *Catalog
	client      *http.Client
	embedded    fs.FS
	metrics     *Metrics
	logger      *logging.Logger
	concurrency int
	timeout     time.Duration
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient sets the client used for http(s) downloads.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) { l.client = client }
}

// WithMetrics records stage outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// WithLogger sets the loader's logger.
func WithLogger(logger *logging.Logger) Option {
	return func(l *Loader) { l.logger = logger }
}

// WithConcurrency bounds the number of artifacts in flight.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithTimeout bounds the whole load. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(l *Loader) { l.timeout = d }
}

// NewLoader creates a loader for catalog.
func NewLoader(catalog *Catalog, opts ...Option) *Loader {
	l := &Loader{
		catalog:     catalog,
		client:      http.DefaultClient,
		embedded:    embeddedArtifacts,
		logger:      logging.NewNop(),
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches, verifies and decodes every artifact. The catalog is
// validated before anything is fetched. Downloads go to a scratch directory
// that is removed before Load returns. On any failure no Bundle is returned
// and the error names the artifact and stage that failed first.
func (l *Loader) Load(ctx context.Context) (*Bundle, error) {
	if err := l.catalog.Validate(); err != nil {
		return nil, err
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	var bundle *Bundle
	err := tempdir.With("manta-parameters-*", func(dir *tempdir.Dir) error {
		f := &fetcher{
			client:   l.client,
			embedded: l.embedded,
			scratch:  dir,
			metrics:  l.metrics,
		}

		staged := &Bundle{}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(l.concurrency)
		for _, name := range Names {
			entry, _ := l.catalog.Lookup(name)
			g.Go(func() error {
				return l.loadOne(gctx, f, entry, staged)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		bundle = staged
		return nil
	})
	if err != nil {
		var artErr *ArtifactError
		if errors.As(err, &artErr) || dserrors.KindOf(err) == 0 {
			return nil, dserrors.Wrap(dserrors.IO, loadStage, err, "unable to fetch SDK parameters")
		}
		return nil, err
	}

	l.logger.Debug("Loaded %d parameter artifacts", len(Names))
	return bundle, nil
}

func (l *Loader) loadOne(ctx context.Context, f *fetcher, e Entry, staged *Bundle) error {
	start := time.Now()
	data, err := f.fetch(ctx, e)
	l.metrics.recordStage(e.Name, StageFetch, start, err)
	if err != nil {
		return &ArtifactError{
			Artifact: e.Name,
			Stage:    StageFetch,
			Err:      dserrors.Wrap(dserrors.IO, "", err, "unable to read %s", e.Location),
		}
	}
	l.logger.Debug("Fetched %s (%d bytes from %s)", e.Name, len(data), e.Source)

	start = time.Now()
	want, err := ParseChecksum(e.Checksum)
	if err == nil && !want.Matches(data) {
		err = dserrors.New(dserrors.Integrity, "", "checksum mismatch (expected %s, got %s)", want, Sum(data))
	}
	l.metrics.recordStage(e.Name, StageChecksum, start, err)
	if err != nil {
		if dserrors.KindOf(err) == 0 {
			err = dserrors.Wrap(dserrors.Integrity, "", err, "unusable pinned checksum")
		}
		return &ArtifactError{Artifact: e.Name, Stage: StageChecksum, Err: err}
	}

	start = time.Now()
	decode, ok := decoders[e.Name]
	if !ok {
		err = fmt.Errorf("no decoder")
	} else {
		err = decode(data, staged)
	}
	l.metrics.recordStage(e.Name, StageDecode, start, err)
	if err != nil {
		return &ArtifactError{
			Artifact: e.Name,
			Stage:    StageDecode,
			Err:      dserrors.Wrap(dserrors.Decode, "", err, "unable to decode %s", e.Name),
		}
	}
	return nil
}
