package models

// CacheEntry is an opaque serialized payload cached per actor. Entries are
// evicted by age and cascade-deleted with the owning ActorState.
type CacheEntry struct {
	ActorID  string
	Payload  []byte
	CachedAt int64
}
