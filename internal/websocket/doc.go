// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

/*
Package websocket pushes catalog and rating changes to connected clients.

A Hub owns the set of connections and fans out every Message to all of them.
Each Client runs a read pump (pings, close detection) and a write pump
(messages, keepalive pings) on its own goroutines:

	handler write ──► Hub.BroadcastChange ──► broadcast chan
	                                              │
	                       ┌──────────────────────┼──────────────────┐
	                       ▼                      ▼                  ▼
	                    Client 1               Client 2           Client N
	                  (writePump)            (writePump)        (writePump)

Messages are JSON:

	{"type":"change","data":{"resource":"book","action":"created","id":42,"timestamp":"..."}}

Rating changes carry the book id and never the user, so the feed does not
reveal who rated what.

A client whose send buffer is full is dropped rather than blocking the hub.
RunWithContext closes every client when its context ends; the supervisor
tree runs it as the "change-feed" service.
*/
package websocket
