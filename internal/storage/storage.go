package storage

import "strings"

// Storage is a string key-value store with the semantics of browser local
// storage: Get reports whether a key exists, Set overwrites, Delete is a no-op
// for missing keys.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

const namespaceSeparator = "/"

// scoped prefixes every key with a namespace so that one backend can hold the
// state of many browser sessions.
type scoped struct {
	backend   Storage
	namespace string
}

// Scoped returns a Storage whose keys live under namespace in backend.
func Scoped(backend Storage, namespace string) Storage {
	return &scoped{
		backend:   backend,
		namespace: strings.TrimSuffix(namespace, namespaceSeparator),
	}
}

func (s *scoped) key(k string) string {
	return s.namespace + namespaceSeparator + k
}

func (s *scoped) Get(key string) (string, bool, error) {
	return s.backend.Get(s.key(key))
}

func (s *scoped) Set(key, value string) error {
	return s.backend.Set(s.key(key), value)
}

func (s *scoped) Delete(key string) error {
	return s.backend.Delete(s.key(key))
}
