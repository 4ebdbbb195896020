// Package command provides the ndep-device command line.
//
//   - root.go: App, global flags, shared environment
//   - enroll.go: default action and its enroll alias; mint, persist and send a token
//   - check.go: query the server's ops endpoints and compare clocks
package command
