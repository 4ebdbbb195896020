// Package output renders ndep-device results.
//
// Two formats are supported: aligned key/value text for terminals and
// indented JSON for provisioning scripts. Both preserve field order.
package output
