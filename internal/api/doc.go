// Package api implements the HTTP handlers and request/response models
// for shot uploads, roadmap execution, and worker status. Handlers
// translate between the wire shapes and the pipeline/swarm contracts and
// never leak internal error details to clients.
package api
