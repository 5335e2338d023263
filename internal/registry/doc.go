// Package registry records replica lifecycle events in per-store JSONL files.
//
// # Overview
//
// A [Registry] owns a state directory, ".replicas" under a base directory.
// Each store is one append-only file in that directory, named from the store
// name and the registry's optional instance name:
//
//	{store}_store
//	{instance}_{store}_store
//
// The file is the store: nothing is cached in memory between calls.
//
// # Concurrency
//
// [Registry.AppendEvent] serializes appends to the same store through an
// in-process mutex per lock key. Appends to different stores run in parallel.
// [Registry.Events] and [Registry.DeleteStore] take no lock; a read racing an
// append sees whatever bytes are on disk. There is no cross-process locking.
//
// # Lifecycle
//
// The state directory is created by the first append. [Registry.Close] removes
// it with everything in it, logging but never returning failures.
package registry
