// Package models defines the data shapes passed between the export stages.
//
// The package contains two categories of types:
//
// 1. Pipeline values: created and discarded during one export run
//   - [AccessToken] : bearer secret that redacts itself when formatted
//   - [PlaylistRef] : one item of a playlist listing page
//   - [Page] : a batch of [PlaylistRef] with its request offset
//   - [Job] : one fetch-and-persist unit handed to a pool worker
//   - [Playlist] / [Song] : the normalized document written to disk
//
// 2. History records: persisted in the run history database
//   - [ExportRun] : one pipeline run with its aggregate counts
//   - [ExportRecord] : the outcome for one playlist within a run
//
// Neither history type carries the access token.
package models
