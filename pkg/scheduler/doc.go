// Package scheduler drives the route computation pipeline: it selects the
// remaining work from the record store, dispatches bounded-concurrency
// routing queries, persists every classified outcome, and keeps the
// progress ledger and event stream current.
//
// A run is resumable by construction. Work selection always starts from
// the record store's status counts, so a run interrupted at any point
// picks up exactly the records still pending. The ledger is written as a
// resume hint but never trusted over the store.
package scheduler
