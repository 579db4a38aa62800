// Package service implements the board's use cases on top of the store
// interfaces.
//
// TaskService owns the ordering rules the server enforces: new tasks are
// appended to the TODO lane, a lane change without an explicit order appends
// to the destination lane, and a reorder batch is checked for ownership and
// applied in a single transaction. Every successful write emits an
// events.TaskEvent after commit.
//
// UserService registers users and checks credentials.
package service
