// Package socket creates the non-blocking listening socket, accepts and tunes
// client sockets, and adapts raw descriptors to io.Reader.
//
// Everything here works on raw descriptors through golang.org/x/sys/unix so
// that the reactor can hand them straight to the poller.
package socket
