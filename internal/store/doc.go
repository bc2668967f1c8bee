// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic. It also owns the listing vocabulary
// (sort fields, sort orders, page windows) so that nothing outside the
// allow-list can ever reach a query engine.
package store
