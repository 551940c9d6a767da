// Package api exposes daemon control and queue inspection over HTTP.
// All endpoints speak JSON and authenticate with a bearer token when one
// is configured.
package api
