// Package pool implements the bounded worker pool that executes generation
// tasks. A fixed set of execution units processes tasks concurrently;
// excess submissions wait in a FIFO queue until a unit frees up, which
// bounds how many calls are ever in flight against the external provider.
// Dispatch prefers the idle unit with the fewest completed tasks. A
// background health check logs units that stay busy past a threshold.
package pool
