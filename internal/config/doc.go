// Package config defines configuration structures for the tally CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (TALLY_ prefix)
//   - YAML configuration file
//
// Later sources override earlier ones: defaults, file, environment, flags.
//
// # Example
//
//	manifest: data_sources.json
//	regions: states.json
//	cache_dir: data
//	mirror: s3://election-data?region=ap-southeast-2
//	require_checksums: true
//	http:
//	  timeout: 10m
//	  max_size: 2GB
//	  retry:
//	    attempts: 0
//	program:
//	  command: [./target/release/election2016]
//	  candidates: candidate_ids.csv
//	  ordering: candidate_ordering.csv
//	  region_file: "{region}.csv"
//	  timeout: 1h
package config
