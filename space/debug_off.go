//go:build !debugchecks

package space

// DebugChecks turns on the expensive consistency checks in the traversal
// code. Build with -tags debugchecks to enable them.
const DebugChecks = false
