// Package agents contains the specialized workers behind the shot analysis
// pipeline: ingest, transcribe, normalize, the three parallel analysis
// workers (score, equipment comparison, validate), presentation adaptation,
// feed publishing, and the simulator bridge.
//
// Every worker exposes the Agent contract (Name + HealthCheck) so the health
// monitor can poll it and the message router can check its eligibility.
// Workers that accept free-form roadmap tasks additionally implement
// Executor; the pipeline workers are invoked through their typed stage
// methods instead.
package agents
