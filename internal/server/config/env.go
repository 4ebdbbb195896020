package config

// EnvAliases returns the bare environment variables the enrollment scripts
// were deployed with, keyed to their config paths. NDEP_* variables using
// the nested form take precedence.
func EnvAliases() map[string]string {
	return map[string]string{
		"NDEP_PORT":           "ndep.listen_port",
		"REDIS_URL":           "replay_store.endpoint",
		"DRIFT_LIMIT_MS":      "enrollment.drift_limit_ms",
		"REGISTRATION_TTL_MS": "enrollment.registration_ttl_ms",
	}
}
