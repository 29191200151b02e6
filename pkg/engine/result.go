package engine

import "github.com/JayabrataBasu/VeridicalDB/pkg/catalog"

// Result is the outcome of executing one statement: either a projected row
// set (SELECT) or a bare status message (every other statement kind).
// Diagnostics holds the optional `[Info] Iteration order: ...` / `[Info]
// Index use: ...` lines the N-table planner emits ahead of the row set.
type Result struct {
	Headers     []string
	Rows        [][]catalog.Value
	Diagnostics []string
	Message     string
}
