// Package ordering implements the pure ranking rules of the board: the
// append policy for new tasks, drag-and-drop reconciliation into a minimal set
// of (status, order) changes, re-normalization of lanes, and the before/after
// diff sent to the batch reorder endpoint.
//
// Every function here is total. Degenerate input (no tasks, a self drop, a
// move that does not change position) produces an empty result, never an error.
// Inputs are never modified; results are fresh copies.
package ordering
