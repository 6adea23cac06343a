// Package queue implements the durable four-lane job queue backing the
// swarm scheduler's background lane and any work submitted outside a live
// request. Each lane drains through its own worker pool, highest priority
// first, honoring per-job delays. Jobs optionally persist through a store
// so pending work survives restarts.
package queue
