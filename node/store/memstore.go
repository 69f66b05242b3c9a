package store

import (
	"sync"

	"litepeer.dev/client/consensus"
)

// MemStore is the in-memory variant spec.md §4.6 requires, holding
// everything in a mapping from hash to StoredBlock.
type MemStore struct {
	mu     sync.RWMutex
	blocks map[consensus.Hash]StoredBlock
	head   consensus.Hash
	hasHead bool
}

func NewMemStore() *MemStore {
	return &MemStore{blocks: make(map[consensus.Hash]StoredBlock)}
}

func (m *MemStore) Put(sb StoredBlock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks[sb.Hash()] = sb
	return nil
}

func (m *MemStore) Get(hash consensus.Hash) (StoredBlock, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sb, ok := m.blocks[hash]
	return sb, ok, nil
}

func (m *MemStore) GetChainHead() (StoredBlock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.hasHead {
		return StoredBlock{}, ErrNoChainHead
	}
	return m.blocks[m.head], nil
}

func (m *MemStore) SetChainHead(sb StoredBlock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks[sb.Hash()] = sb
	m.head = sb.Hash()
	m.hasHead = true
	return nil
}

func (m *MemStore) Close() error { return nil }
