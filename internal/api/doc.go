// Package api handles incoming HTTP requests, routing, and response
// formatting for the read-only admin surface: region progress, stored
// question and answer sets, dataset export, run history, and provider
// discovery. Handlers translate store errors into sanitized HTTP
// responses; raw error details go to the logs only.
package api
