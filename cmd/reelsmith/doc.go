// Command reelsmith is the CLI for managing the reelsmith queue, the
// caption engine, and the background daemon.
package main
