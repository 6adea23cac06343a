// Package pipeline contains the coordinator that drives one shot upload
// through the analysis stages: ingest, transcribe, normalize, the parallel
// analysis fan-out, the validation gate, presentation adaptation, and the
// fire-and-forget feed publish.
//
// Failure isolation is the point of the design: collaborator failures are
// recovered at the stage that observed them and replaced with documented
// low-confidence defaults, so one failing analysis never aborts the upload.
package pipeline
