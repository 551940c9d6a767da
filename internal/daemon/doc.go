// Package daemon coordinates background processing, enforces
// single-instance execution via a lock file, and exposes queue
// operations to the HTTP API and CLI.
package daemon
