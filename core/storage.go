package core

// Storage is the keyed blob store backing the entity store and the session
// manager. The entity store is the sole legitimate writer of the data key;
// no cross-process coordination exists, so implementations are only safe
// under the single-process, single-writer assumption.
type Storage interface {
	// Get returns the value under key; ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}
