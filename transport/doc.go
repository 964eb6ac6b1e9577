// Package transport contains broadcast channels for voting sessions: an
// in-memory Hub for voters in one process, a line-oriented Stream for voters
// connected through pipes or standard streams, and a Relay that fans the lines
// of n streams out to all of them.
package transport
