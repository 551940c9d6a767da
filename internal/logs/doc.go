// Package logs reads the daemon log file for the CLI: it returns the last
// N lines with bounded memory and can follow the file for new lines as the
// pipeline writes them.
package logs
