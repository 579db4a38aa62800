// Package api exposes the task board over HTTP: auth endpoints, task CRUD,
// and the batch reorder endpoint. Handlers decode and validate requests,
// call the services, and map service errors onto status codes and safe
// messages.
package api
