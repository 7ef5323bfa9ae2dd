// Package batch contains pure planning helpers that split a quantity of
// remaining work across parallel slots. The planners are deterministic and
// perform no I/O; orchestrators use them to size per-worker requests and
// to walk flat item lists batch by batch.
package batch
