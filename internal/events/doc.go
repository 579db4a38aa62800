// Package events carries notifications about committed board changes.
//
// The task service emits a TaskEvent after every successful write; handlers
// such as the task list cache react to it without the service knowing about
// them.
package events
