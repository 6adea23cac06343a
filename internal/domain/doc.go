// Package domain contains the core business entities, value objects, and
// domain logic of the application: media payloads, transcripts, normalized
// shots, roadmap tasks, and worker health records. It is independent of any
// specific infrastructure or delivery mechanism.
package domain
