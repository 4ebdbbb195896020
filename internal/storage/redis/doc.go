// Package redis provides a replay store backed by a Redis server.
//
// Each accepted token is written with SET <key> used NX PX <ttl>. Because
// the server performs the check-and-set, several listeners may share one
// database.
//
// Endpoints use the standard URL form:
//
//	redis://[:password@]host:port[/db]
//	rediss://...   (TLS)
package redis
