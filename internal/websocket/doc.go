// Package websocket pushes live updates to dashboard clients. A Hub owns the
// connected clients and is registered as a dataset listener, so every
// successful upload is broadcast as a dataset:replaced message.
package websocket
