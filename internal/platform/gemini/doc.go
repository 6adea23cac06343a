// Package gemini implements the generation.Inferencer interface using
// Google's Gemini API. It handles client construction, per-call timeouts,
// retry with exponential backoff for transient failures, and sanitized
// error reporting.
package gemini
