// Package manifest describes the remote data files a run depends on.
//
// A manifest maps a logical file name (the name the file has in the cache)
// to the URL it is fetched from and the checksums it must match. Manifests
// are YAML or JSON documents:
//
//	{
//	  "candidate_ordering.csv": {
//	    "url": "https://example.com/ordering.csv",
//	    "sha256": "9f86d0...",
//	    "state": null
//	  },
//	  "NSW.csv": {
//	    "url": "https://example.com/nsw.zip",
//	    "zipped": true,
//	    "zip-sha256": "2c26b4...",
//	    "inner-file": "aec-senate-formalpreferences-NSW.csv",
//	    "sha256": "fcde2b...",
//	    "state": "NSW"
//	  }
//	}
//
// # Checksums
//
// An entry without a checksum is trusted unconditionally. Set
// require-checksum on the entry (or pass requireAll to [Manifest.Validate])
// to turn a missing checksum into a validation error instead.
//
// # Groups
//
// Entries tagged with a state belong to that group. [Groups] selects which
// tagged entries a run needs; untagged entries are always wanted.
package manifest
