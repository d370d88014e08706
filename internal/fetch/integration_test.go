//go:build integration

package fetch

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	_ "gocloud.dev/blob/s3blob"

	"github.com/ligustah/tally/internal/progress"
	"github.com/ligustah/tally/internal/testutils"
	"github.com/ligustah/tally/pkg/cache"
	"github.com/ligustah/tally/pkg/manifest"
)

func TestIntegrationMirror(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	minio := testutils.StartMinioContainer(t, ctx, "fetch-mirror")
	defer func() {
		if err := minio.Close(ctx); err != nil {
			t.Logf("failed to terminate minio container: %v", err)
		}
	}()

	mirror, err := minio.OpenBucket(ctx)
	if err != nil {
		t.Fatalf("open mirror: %v", err)
	}
	defer mirror.Close()

	file := testutils.File{Name: "QLD.csv", Data: testutils.GenerateTestData(4 * 1024 * 1024)}
	server := testutils.StartFileServer(t, file)

	m := manifest.Manifest{
		"QLD.csv": {URL: server.FileURL(file.Name), SHA256: file.SHA256(), State: "QLD"},
	}

	t.Run("download_and_publish", func(t *testing.T) {
		bucket, err := cache.OpenDir(filepath.Join(t.TempDir(), "data"))
		if err != nil {
			t.Fatalf("open cache: %v", err)
		}
		defer bucket.Close()

		f := New(bucket, Options{Mirror: mirror})
		if err := f.Ensure(ctx, m, nil); err != nil {
			t.Fatalf("Ensure: %v", err)
		}

		r, err := mirror.NewReader(ctx, "QLD.csv", nil)
		if err != nil {
			t.Fatalf("read mirror: %v", err)
		}
		defer r.Close()
		got, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("read mirror: %v", err)
		}
		if len(got) != len(file.Data) {
			t.Fatalf("mirror object has %d bytes, want %d", len(got), len(file.Data))
		}
	})

	t.Run("served_from_mirror", func(t *testing.T) {
		before := server.Requests()

		bucket, err := cache.OpenDir(filepath.Join(t.TempDir(), "data"))
		if err != nil {
			t.Fatalf("open cache: %v", err)
		}
		defer bucket.Close()

		reporter := progress.NewReporter(progress.Options{Output: io.Discard})
		f := New(bucket, Options{Mirror: mirror, Progress: reporter})
		if err := f.Ensure(ctx, m, nil); err != nil {
			t.Fatalf("Ensure: %v", err)
		}

		if got := server.Requests(); got != before {
			t.Fatalf("expected no HTTP requests, got %d", got-before)
		}
		if s := reporter.Summary(); s.MirrorHits != 1 {
			t.Fatalf("expected 1 mirror hit, got %d", s.MirrorHits)
		}
	})

	t.Run("corrupt_mirror_rejected", func(t *testing.T) {
		if err := mirror.WriteAll(ctx, "QLD.csv", []byte("corrupt"), nil); err != nil {
			t.Fatalf("corrupt mirror: %v", err)
		}

		bucket, err := cache.OpenDir(filepath.Join(t.TempDir(), "data"))
		if err != nil {
			t.Fatalf("open cache: %v", err)
		}
		defer bucket.Close()

		err = New(bucket, Options{Mirror: mirror}).Ensure(ctx, m, nil)
		var checksumErr *ChecksumError
		if !errors.As(err, &checksumErr) {
			t.Fatalf("expected ChecksumError, got %v", err)
		}
		if ok, _ := bucket.Exists(ctx, "QLD.csv"); ok {
			t.Fatal("corrupt mirror content was committed to the cache")
		}
	})
}
