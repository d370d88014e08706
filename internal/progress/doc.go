// Package progress provides human-readable progress output for tally.
//
// The reporter prints one line per fetched entry, a summary once the
// fetch pipeline is done, and timestamped start and completion lines for
// each region run. A nil *Reporter is valid and prints nothing.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{Output: os.Stdout})
//
//	reporter.CacheHit("candidate_ordering.csv")
//	reporter.PrintSummary()
//
//	reporter.RegionStarted("NSW")
//	reporter.RegionCompleted("NSW")
//
// # Output Format
//
//	[tally] candidate_ordering.csv: cached
//	[tally] NSW.csv: fetched 212.41 MB from https://example.com/nsw.zip
//	[tally] NSW.csv: extracted from NSW.csv.zip
//	[tally] Data: 1 cached, 1 downloaded, 1 extracted | 212.41 MB transferred | 41s
//	Running election for NSW at 2016-07-20T10:00:00+10:00
//	Completed election for NSW at 2016-07-20T10:03:12+10:00 (3m 12s)
package progress
