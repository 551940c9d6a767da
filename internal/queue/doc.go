// Package queue persists content items and their lifecycle in SQLite.
//
// Each item moves through paired processing/done statuses (scripting/scripted,
// synthesizing/synthesized, and so on) until it completes, fails, or is parked
// for review. The store is safe for concurrent use by the daemon's workers and
// the CLI; in-flight items carry heartbeats so a crashed worker's claim can be
// reclaimed.
package queue
