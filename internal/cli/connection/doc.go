// Package connection provides the device-side transports for ndep-device.
//
//   - udp.go: one-shot datagram sender for enrollment tokens
//   - socket_unix.go: SO_BROADCAST on the sending socket
//   - http.go: client for the enrollment server's ops endpoints
//
// The sender has no retry and no acknowledgement. A datagram that leaves
// the host counts as sent.
package connection
