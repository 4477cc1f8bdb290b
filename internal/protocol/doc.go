// Package protocol defines the messages exchanged between the recipes CLI
// and the daemon.
//
// Every message is a single line of JSON holding an [Envelope]: a command
// name and a command-specific payload. A client opens a connection, writes
// one request envelope, and reads one response envelope whose command is
// [CmdOK] or [CmdError]. Closing the connection early cancels the request.
package protocol
