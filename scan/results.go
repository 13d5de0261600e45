package scan

import (
	"slices"
	"sync"

	"pdash/types"
)

// Results collects open ports. Inserts are safe from many goroutines.
type Results struct {
	mu    sync.Mutex
	ports map[uint16]string
}

func NewResults() *Results {
	return &Results{ports: make(map[uint16]string)}
}

func (r *Results) Insert(port uint16, service string) {
	r.mu.Lock()
	r.ports[port] = service
	r.mu.Unlock()
}

func (r *Results) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ports)
}

// Snapshot returns the collected ports in ascending order.
func (r *Results) Snapshot() []types.PortService {
	r.mu.Lock()
	out := make([]types.PortService, 0, len(r.ports))
	for port, service := range r.ports {
		out = append(out, types.PortService{Port: port, Service: service})
	}
	r.mu.Unlock()

	slices.SortFunc(out, func(a, b types.PortService) int {
		return int(a.Port) - int(b.Port)
	})
	return out
}
