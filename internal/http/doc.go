// Package http provides the HTTP client used to fetch data files.
//
// This package handles:
//   - Mapping error statuses onto sentinel errors
//   - Optional retry with exponential backoff (off by default)
//   - Optional response size limits
//
// # Usage
//
//	client := http.NewClient(http.DefaultOptions())
//
//	resp, err := client.Get(ctx, url)
//	if err != nil {
//	    return err
//	}
//	defer resp.Body.Close()
package http
