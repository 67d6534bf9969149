/*
Package client drives a remote command-execution server over a single TCP
connection using the chunked wire protocol: the client sends argument,
environment, working-directory and command chunks, then reads stdout and
stderr chunks until an exit chunk ends the session. A background heartbeat
goroutine keeps the session alive during long-running commands.

A connection carries exactly one command execution at a time. A Client is
not safe for concurrent Execute calls; callers needing concurrent sessions
use one Client per session.
*/
package client
