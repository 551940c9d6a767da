// Package notifications delivers push notifications for pipeline milestones
// via ntfy. When no topic is configured the service degrades to a noop so
// callers never need nil checks.
package notifications
