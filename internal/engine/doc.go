// Package engine contains the core scanning logic for SafePush. It runs the
// rule registry over a resolved change set with a worker pool and returns
// structured findings and notes. This package is internal; external
// consumers should use the stable facade in pkg/core.
package engine
