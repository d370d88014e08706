// Package fetch makes the files listed in a manifest available in the local
// cache.
//
// # Usage
//
//	f := fetch.New(cacheBucket, fetch.Options{
//	    Logger:   logger,
//	    Progress: reporter,
//	})
//	err := f.Ensure(ctx, m, manifest.NewGroups("NSW", "VIC"))
//
// # Pipeline
//
// Entries are processed one at a time in name order:
//
//   - Tagged entries outside the wanted groups are skipped.
//   - A cached file that matches its checksum is left alone.
//   - A zipped entry whose archive is cached and verified is re-extracted
//     without touching the network.
//   - Otherwise the file (or archive) is streamed into the cache while being
//     hashed. Bytes that fail verification are never committed.
//   - Archives are verified, fully extracted, the inner file is moved to
//     the entry name, and the result is verified again.
//
// The first failure aborts Ensure. Errors are [*DownloadError],
// [*ChecksumError] or [*ExtractionError].
//
// # Mirror
//
// When Options.Mirror is set, misses are served from the mirror bucket
// before falling back to HTTP, and verified HTTP downloads are published
// to it. Mirror content is verified like any other download.
package fetch
