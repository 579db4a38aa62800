// Package domain holds the board's entities (Task, User), the fixed set of
// lanes, and the validation rules shared by the server and the client core.
// It has no dependencies on storage or transport.
package domain
