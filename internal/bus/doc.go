// Package bus provides best-effort pub/sub between workers. Messages
// carry a coarse category; a static routing table maps each category to
// the worker kinds that receive it, and unhealthy workers are skipped at
// delivery time. Async messages are buffered by message id for later
// draining instead of delivered inline.
package bus
