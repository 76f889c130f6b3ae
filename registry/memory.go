package registry

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Memory is an in-process sponsor/requester relationship registry. The
// production registry lives outside this system; this one serves tests and
// local wiring.
type Memory struct {
	lock  sync.RWMutex
	pairs map[common.Address]map[common.Address]bool
}

func NewMemory() *Memory {
	return &Memory{
		pairs: make(map[common.Address]map[common.Address]bool),
	}
}

// Authorize records that sponsor pays for requester's operations.
func (m *Memory) Authorize(sponsor common.Address, requester common.Address) {
	m.lock.Lock()
	defer m.lock.Unlock()

	requesters, ok := m.pairs[sponsor]
	if !ok {
		requesters = make(map[common.Address]bool)
		m.pairs[sponsor] = requesters
	}
	requesters[requester] = true
}

// Revoke removes a sponsor/requester pair.
func (m *Memory) Revoke(sponsor common.Address, requester common.Address) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if requesters, ok := m.pairs[sponsor]; ok {
		delete(requesters, requester)
	}
}

func (m *Memory) IsAuthorized(sponsor common.Address, requester common.Address) (bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.pairs[sponsor][requester], nil
}
