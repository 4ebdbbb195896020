// Package main provides the entry point for ndep-device.
//
// ndep-device runs once on a device's first boot. It mints a fresh
// time-ordered enrollment token, saves it for later provisioning steps and
// sends it in a single UDP datagram to the enrollment server.
//
// Usage:
//
//	ndep-device [--token-file PATH] [--timeout D] <serverAddress> <port>
//	ndep-device check --ops 10.0.0.5:9998
//
// The exit status is 0 when the datagram was sent and 1 otherwise.
package main
