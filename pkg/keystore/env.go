package keystore

import "os"

// OSEnv reads the real process environment.
type OSEnv struct{}

func (OSEnv) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapEnv is an [Env] backed by a map, for tests and synthetic environments.
type MapEnv map[string]string

func (m MapEnv) Lookup(key string) (string, bool) {
	v, ok := m[key]

	return v, ok
}
