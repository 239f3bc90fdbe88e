package texcache

import (
	"hash/fnv"
	"sync"

	"github.com/gogpu/layercomp/device"
)

// shardCount is the number of store shards. Must be a power of 2 for fast
// modulo via bitwise AND.
const (
	shardCount = 16
	shardMask  = shardCount - 1
)

// hashID computes the FNV-1a hash of a source identifier.
func hashID(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id)) // fnv.Write never returns an error
	return h.Sum64()
}

// store is a sharded map from source identifier to device image.
//
// Images replaced by a later upload of the same identifier are kept as
// orphans rather than released, since layers may still be drawing them.
// Orphans are released by purge.
type store struct {
	shards [shardCount]*storeShard

	orphanMu sync.Mutex
	orphans  []device.Image
}

type storeShard struct {
	mu      sync.RWMutex
	entries map[string]device.Image
}

func newStore() *store {
	s := &store{}
	for i := range s.shards {
		s.shards[i] = &storeShard{entries: make(map[string]device.Image)}
	}
	return s
}

func (s *store) shard(id string) *storeShard {
	return s.shards[hashID(id)&shardMask]
}

// get returns the live image for id. Released images are dropped and
// reported as missing.
func (s *store) get(id string) (device.Image, bool) {
	sh := s.shard(id)

	sh.mu.RLock()
	img, ok := sh.entries[id]
	sh.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !img.Released() {
		return img, true
	}

	sh.mu.Lock()
	if cur, ok := sh.entries[id]; ok && cur == img {
		delete(sh.entries, id)
	}
	sh.mu.Unlock()
	return nil, false
}

// set stores img under id. A different live image already stored under id
// becomes an orphan.
func (s *store) set(id string, img device.Image) {
	sh := s.shard(id)

	sh.mu.Lock()
	prev, had := sh.entries[id]
	sh.entries[id] = img
	sh.mu.Unlock()

	if had && prev != img && !prev.Released() {
		s.orphanMu.Lock()
		s.orphans = append(s.orphans, prev)
		s.orphanMu.Unlock()
	}
}

// remove deletes id and returns the image it held.
func (s *store) remove(id string) (device.Image, bool) {
	sh := s.shard(id)

	sh.mu.Lock()
	defer sh.mu.Unlock()
	img, ok := sh.entries[id]
	if ok {
		delete(sh.entries, id)
	}
	return img, ok
}

// purge removes every entry and orphan and returns them.
func (s *store) purge() []device.Image {
	var out []device.Image
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, img := range sh.entries {
			out = append(out, img)
			delete(sh.entries, id)
		}
		sh.mu.Unlock()
	}

	s.orphanMu.Lock()
	out = append(out, s.orphans...)
	s.orphans = nil
	s.orphanMu.Unlock()
	return out
}

// len returns the number of entries, including released ones not yet
// dropped.
func (s *store) len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.entries)
		sh.mu.RUnlock()
	}
	return total
}

// ids returns the stored identifiers.
func (s *store) ids() []string {
	var out []string
	for _, sh := range s.shards {
		sh.mu.RLock()
		for id := range sh.entries {
			out = append(out, id)
		}
		sh.mu.RUnlock()
	}
	return out
}
