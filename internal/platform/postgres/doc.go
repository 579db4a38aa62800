// Package postgres implements the store interfaces on PostgreSQL and owns the
// schema. Migrations are embedded in the binary and applied with goose.
//
// Every task query is filtered by user_id, so a task owned by someone else
// is indistinguishable from a missing one.
package postgres
