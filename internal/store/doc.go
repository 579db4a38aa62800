// Package store defines the persistence interfaces for users and tasks and
// the errors every implementation maps its failures onto.
package store
