// Package health runs periodic worker health checks and trips per-worker
// circuit breakers on repeated failure. The monitor tick is independent of
// request traffic; the router and the swarm scheduler consult it before
// dispatching to a worker.
package health
