// Package ndepserver provides the UDP enrollment listener.
//
// Each datagram carries one token in canonical text form. The listener
// moves it through:
//
//	Received -> Decoded -> TemporallyValid? -> RegistrationAttempted -> Outcome
//
// Per-datagram failures never stop the read loop. With Workers > 1 the
// read loop hands datagrams to a bounded queue and drops them when it is
// full. An optional per-source token bucket rejects floods before they
// reach the replay store.
package ndepserver
