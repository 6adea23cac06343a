// Package generation provides the interface boundary for the external
// vision/language inference service. It abstracts the details of the LLM
// API integration (Gemini), allowing the transcribe stage to read golf
// telemetry out of images without coupling to a specific provider.
package generation
