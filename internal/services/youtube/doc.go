// Package youtube uploads finished videos through the YouTube Data API
// resumable upload protocol. Credentials come from a token file on disk;
// obtaining and refreshing that token is the operator's concern.
package youtube
