// Package export downloads rendered icon assets from the Figma API with
// deduplication, batching, bounded-concurrency downloads and retry.
//
// Icons that alias the same export id resolve to a single network
// download whose buffer is fanned out into one record per icon id.
// Export-URL requests run in sequential batches against a per-minute
// request budget; asset downloads inside a batch run concurrently under
// a fixed ceiling. Per-asset failures are collected as data and the run
// only errors when every asset fails.
package export
