// Package tests holds end-to-end tests that run the device command line
// against a live enrollment listener and ops router.
package tests
