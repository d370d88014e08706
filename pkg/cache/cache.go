package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/gcerrors"
)

// DirMode is the permission used when creating the cache directory.
const DirMode os.FileMode = 0o700

// OpenDir opens dir as a bucket, creating it if needed. Objects map one to
// one onto files in dir; no attribute sidecars are written.
func OpenDir(dir string) (*blob.Bucket, error) {
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return nil, fmt.Errorf("cache: create %s: %w", dir, err)
	}
	bucket, err := fileblob.OpenBucket(dir, &fileblob.Options{
		NoTempDir: true,
		Metadata:  fileblob.MetadataDontWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", dir, err)
	}
	return bucket, nil
}

// Digest returns the hex SHA-256 of the object at key.
func Digest(ctx context.Context, bucket *blob.Bucket, key string) (string, error) {
	r, err := bucket.NewReader(ctx, key, nil)
	if err != nil {
		return "", err
	}
	defer r.Close()

	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("cache: hash %s: %w", key, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Matches reports whether key exists and, when want is non-empty, whether
// its digest equals want, ignoring case. The computed digest is returned
// when the object exists and want is non-empty.
func Matches(ctx context.Context, bucket *blob.Bucket, key, want string) (ok bool, actual string, err error) {
	exists, err := bucket.Exists(ctx, key)
	if err != nil {
		return false, "", fmt.Errorf("cache: stat %s: %w", key, err)
	}
	if !exists {
		return false, "", nil
	}
	if want == "" {
		return true, "", nil
	}
	actual, err = Digest(ctx, bucket, key)
	if err != nil {
		if IsNotExist(err) {
			return false, "", nil
		}
		return false, "", err
	}
	return strings.EqualFold(actual, want), actual, nil
}

// IsNotExist reports whether err is a blob not-found error.
func IsNotExist(err error) bool {
	return gcerrors.Code(err) == gcerrors.NotFound
}
