// Package tlsroots builds client TLS settings for network replay stores.
//
// A ClientOptions value names an optional CA bundle and an optional client
// key pair. The CA bundle is added on top of the system roots unless
// SkipSystemRoots is set.
package tlsroots
