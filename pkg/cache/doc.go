// Package cache provides checksum helpers over the local data cache.
//
// The cache is a gocloud.dev/blob bucket, normally a directory opened with
// [OpenDir]. Each manifest entry is stored under its own name; zipped
// entries keep their archive alongside under name + ".zip".
//
// [Validate] compares the cache with a manifest without downloading
// anything, which is what `tally verify` reports.
package cache
