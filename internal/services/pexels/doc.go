// Package pexels wraps the Pexels video search API for sourcing vertical
// stock footage. Downloads land in a local asset cache so repeated runs
// with overlapping keywords do not refetch the same clip.
package pexels
