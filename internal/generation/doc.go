// Package generation contains the orchestrators that drive bulk content
// generation for a region: the question convergence loop and the batch-wise
// answer loop. Orchestrators dispatch tasks to a worker pool, filter and
// merge the returns, persist progress at batch boundaries, and emit a run
// event when they finish. They never talk to a provider directly; the
// ProviderExecutor adapts provider calls to pool tasks.
package generation
