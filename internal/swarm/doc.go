// Package swarm classifies roadmap tasks into priority lanes and executes
// them with bounded concurrency. The scheduler shares one global semaphore
// across all lanes, routes tasks to workers by task type, serves
// performance-lane tasks through the result cache, and hands background
// work to the durable queue instead of executing it inline.
package swarm
