// Package naming computes destination paths for conversion jobs and keeps
// the per-run registry of claimed destinations.
//
// Paths are a pure function of the source path, the scan root, the optional
// output root and the target subdirectory, so two runs over the same tree
// plan identical destinations.
package naming
