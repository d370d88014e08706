package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"gocloud.dev/blob"

	tallyhttp "github.com/ligustah/tally/internal/http"
	"github.com/ligustah/tally/internal/progress"
	"github.com/ligustah/tally/pkg/cache"
	"github.com/ligustah/tally/pkg/manifest"
)

// Options configures the fetcher.
type Options struct {
	// HTTPOptions configures the HTTP client.
	HTTPOptions tallyhttp.Options

	// Mirror is an optional bucket consulted before HTTP and populated after
	// verified downloads.
	Mirror *blob.Bucket

	// RequireChecksums rejects manifest entries without checksums.
	RequireChecksums bool

	// Progress is an optional progress reporter.
	Progress *progress.Reporter

	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Fetcher ensures manifest entries are present and verified in a cache
// bucket.
type Fetcher struct {
	cache    *blob.Bucket
	mirror   *blob.Bucket
	client   *tallyhttp.Client
	opts     Options
	logger   *zap.Logger
	progress *progress.Reporter
}

// New creates a Fetcher writing into cacheBucket.
func New(cacheBucket *blob.Bucket, opts Options) *Fetcher {
	if opts.HTTPOptions == (tallyhttp.Options{}) {
		opts.HTTPOptions = tallyhttp.DefaultOptions()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fetcher{
		cache:    cacheBucket,
		mirror:   opts.Mirror,
		client:   tallyhttp.NewClient(opts.HTTPOptions),
		opts:     opts,
		logger:   logger,
		progress: opts.Progress,
	}
}

// Ensure makes every wanted entry of m available in the cache. A nil wanted
// selects every entry. It stops at the first failure.
func (f *Fetcher) Ensure(ctx context.Context, m manifest.Manifest, wanted manifest.Groups) error {
	if err := m.Validate(f.opts.RequireChecksums); err != nil {
		return err
	}

	for _, name := range m.Names() {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry := m[name]
		if !wanted.Wanted(entry) {
			f.logger.Debug("skipping entry outside requested groups",
				zap.String("file", name), zap.String("state", entry.State))
			f.progress.Skipped(name)
			continue
		}

		if err := f.ensure(ctx, name, entry); err != nil {
			return err
		}
	}

	return nil
}

func (f *Fetcher) ensure(ctx context.Context, name string, e manifest.Entry) error {
	log := f.logger.With(zap.String("file", name))

	ok, actual, err := cache.Matches(ctx, f.cache, name, e.SHA256)
	if err != nil {
		return err
	}
	if ok {
		log.Info("cache hit")
		f.progress.CacheHit(name)
		return nil
	}
	if actual != "" {
		log.Warn("cached file failed verification, fetching again",
			zap.String("expected", e.SHA256), zap.String("actual", actual))
	}

	if !e.Zipped {
		return f.download(ctx, name, name, e.URL, e.SHA256, KindFile)
	}

	archive := manifest.ArchiveName(name)
	ok, actual, err = cache.Matches(ctx, f.cache, archive, e.ZipSHA256)
	if err != nil {
		return err
	}
	switch {
	case ok:
		log.Info("archive cache hit, extracting", zap.String("archive", archive))
	default:
		if actual != "" {
			log.Warn("cached archive failed verification, fetching again",
				zap.String("archive", archive),
				zap.String("expected", e.ZipSHA256), zap.String("actual", actual))
		}
		if err := f.download(ctx, name, archive, e.URL, e.ZipSHA256, KindArchive); err != nil {
			return err
		}
	}

	if err := f.extract(ctx, name, archive, e.InnerFile); err != nil {
		return err
	}

	ok, actual, err = cache.Matches(ctx, f.cache, name, e.SHA256)
	if err != nil {
		return err
	}
	if !ok {
		if actual == "" {
			return &ExtractionError{Name: name, Archive: archive, Inner: e.InnerFile, Err: ErrInnerFileMissing}
		}
		return &ChecksumError{Name: name, Key: name, Kind: KindExtracted, Expected: e.SHA256, Actual: actual}
	}

	log.Info("extracted", zap.String("archive", archive), zap.String("inner_file", e.InnerFile))
	f.progress.Extracted(name, archive)
	return nil
}

// download streams the object for key into the cache, hashing as it goes.
// The write is only committed when the digest matches want.
func (f *Fetcher) download(ctx context.Context, name, key, url, want string, kind ChecksumKind) error {
	src, err := f.open(ctx, name, key, url)
	if err != nil {
		return err
	}
	defer src.body.Close()

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := f.cache.NewWriter(wctx, key, nil)
	if err != nil {
		return fmt.Errorf("fetch: %s: open cache writer: %w", name, err)
	}

	h := sha256.New()
	n, err := io.Copy(w, io.TeeReader(src.body, h))
	if err != nil {
		cancel()
		w.Close()
		if src.fromMirror {
			return fmt.Errorf("fetch: %s: read from mirror: %w", name, err)
		}
		return &DownloadError{Name: name, URL: url, Err: err}
	}

	actual := hex.EncodeToString(h.Sum(nil))
	if want != "" && !strings.EqualFold(actual, want) {
		cancel()
		w.Close()
		return &ChecksumError{Name: name, Key: key, Kind: kind, Expected: want, Actual: actual}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("fetch: %s: write %s: %w", name, key, err)
	}

	f.logger.Info("downloaded",
		zap.String("file", name),
		zap.String("key", key),
		zap.String("source", src.label),
		zap.Int64("bytes", n),
		zap.Int64("content_length", src.size),
		zap.String("etag", src.etag),
		zap.String("sha256", actual))
	f.progress.Downloaded(name, src.label, n, src.fromMirror)

	if !src.fromMirror && f.mirror != nil {
		f.publish(ctx, key)
	}
	return nil
}

type source struct {
	body       io.ReadCloser
	label      string
	fromMirror bool
	// size is -1 when the origin did not announce a length.
	size int64
	etag string
}

// open returns the bytes for key from the mirror when available, or from url.
func (f *Fetcher) open(ctx context.Context, name, key, url string) (*source, error) {
	if f.mirror != nil {
		r, err := f.mirror.NewReader(ctx, key, nil)
		if err == nil {
			return &source{body: r, label: "mirror", fromMirror: true, size: r.Size()}, nil
		}
		if !cache.IsNotExist(err) {
			f.logger.Warn("mirror unavailable, falling back to HTTP",
				zap.String("file", name), zap.Error(err))
		}
	}

	resp, err := f.client.Get(ctx, url)
	if err != nil {
		return nil, &DownloadError{Name: name, URL: url, Err: err}
	}
	return &source{body: resp.Body, label: url, size: resp.ContentLength, etag: resp.ETag}, nil
}

// publish copies a verified cache object to the mirror. Failures are logged
// and do not fail the fetch.
func (f *Fetcher) publish(ctx context.Context, key string) {
	r, err := f.cache.NewReader(ctx, key, nil)
	if err != nil {
		f.logger.Warn("mirror publish: read cache", zap.String("key", key), zap.Error(err))
		return
	}
	defer r.Close()

	if err := f.mirror.Upload(ctx, key, r, nil); err != nil {
		f.logger.Warn("mirror publish failed", zap.String("key", key), zap.Error(err))
		return
	}
	f.logger.Debug("published to mirror", zap.String("key", key))
}
