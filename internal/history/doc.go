// Package history keeps a local record of recipe operations.
//
// Runs are stored in a SQLite database (pure Go, no cgo) under the user's
// state directory. The store is append-only from the service's point of
// view; [Store.List] returns the most recent runs first.
package history
