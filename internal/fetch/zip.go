package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
	"gocloud.dev/blob"

	"github.com/ligustah/tally/pkg/manifest"
)

// extract unpacks every regular file of archive into the cache and moves
// inner to name.
func (f *Fetcher) extract(ctx context.Context, name, archive, inner string) error {
	fail := func(err error) error {
		return &ExtractionError{Name: name, Archive: archive, Inner: inner, Err: err}
	}

	attrs, err := f.cache.Attributes(ctx, archive)
	if err != nil {
		return fail(err)
	}

	zr, err := zip.NewReader(&bucketReaderAt{ctx: ctx, bucket: f.cache, key: archive}, attrs.Size)
	if err != nil {
		return fail(err)
	}

	found := false
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		if err := manifest.ValidateKey(zf.Name); err != nil {
			return fail(fmt.Errorf("%w: %s", ErrUnsafePath, zf.Name))
		}
		if err := f.extractFile(ctx, zf); err != nil {
			return fail(err)
		}
		f.logger.Debug("extracted member", zap.String("archive", archive), zap.String("member", zf.Name))
		if zf.Name == inner {
			found = true
		}
	}
	if !found {
		return fail(ErrInnerFileMissing)
	}

	if inner != name {
		if err := f.cache.Copy(ctx, name, inner, nil); err != nil {
			return fail(fmt.Errorf("move to %s: %w", name, err))
		}
		if err := f.cache.Delete(ctx, inner); err != nil {
			return fail(fmt.Errorf("remove %s: %w", inner, err))
		}
	}
	return nil
}

func (f *Fetcher) extractFile(ctx context.Context, zf *zip.File) error {
	rc, err := zf.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", zf.Name, err)
	}
	defer rc.Close()

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := f.cache.NewWriter(wctx, zf.Name, nil)
	if err != nil {
		return fmt.Errorf("create %s: %w", zf.Name, err)
	}
	if _, err := io.Copy(w, rc); err != nil {
		cancel()
		w.Close()
		return fmt.Errorf("write %s: %w", zf.Name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("write %s: %w", zf.Name, err)
	}
	return nil
}

// bucketReaderAt serves random reads from a bucket object with range reads,
// so archives never have to be loaded into memory.
type bucketReaderAt struct {
	ctx    context.Context
	bucket *blob.Bucket
	key    string
}

func (r *bucketReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	rr, err := r.bucket.NewRangeReader(r.ctx, r.key, off, int64(len(p)), nil)
	if err != nil {
		return 0, err
	}
	defer rr.Close()

	n, err := io.ReadFull(rr, p)
	if errors.Is(err, io.ErrUnexpectedEOF) {
		err = io.EOF
	}
	return n, err
}
