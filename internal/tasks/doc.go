// Package tasks runs the playlist export pipeline with real-time progress reporting.
//
// # Worker Pool
//
// [WorkerPool] runs [Task] closures on a fixed number of goroutines fed by a bounded queue.
// Work is grouped in batches: [WorkerPool.Wait] returns once every task submitted since the
// previous Wait has finished, whether it succeeded, failed, or panicked, along with a
// [BatchResult]. Task errors are logged and counted, never propagated.
//
// # Export Pipeline
//
// [Exporter.Run] walks the pages from a [PageLister]. For each page it submits one task per
// playlist (fetch with a [Fetcher], write with a [Saver]) and waits for the batch before asking
// for the next page. An optional [Recorder] stores the run and each playlist's outcome.
//
// # Progress Reporting
//
// Run accepts a channel for [ProgressUpdate] values. Updates are sent with select/default so a
// slow or absent reader never blocks the export.
package tasks
