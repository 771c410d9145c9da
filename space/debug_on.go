//go:build debugchecks

package space

// DebugChecks turns on the expensive consistency checks in the traversal
// code.
const DebugChecks = true
