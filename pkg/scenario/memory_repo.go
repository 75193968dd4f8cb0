package scenario

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo 内存场景仓库（CLI 内置场景、测试）
type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]Scenario
}

// NewMemoryRepo 创建内存仓库并预置场景
func NewMemoryRepo(seed ...Scenario) *MemoryRepo {
	r := &MemoryRepo{items: make(map[string]Scenario, len(seed))}
	for _, s := range seed {
		r.items[s.Name] = s
	}
	return r
}

func (r *MemoryRepo) Get(_ context.Context, name string) (*Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.items[name]
	if !ok {
		return nil, ErrScenarioNotFound
	}
	return &s, nil
}

func (r *MemoryRepo) Save(_ context.Context, s *Scenario) error {
	if err := s.Params().Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if old, ok := r.items[s.Name]; ok {
		s.CreatedAt = old.CreatedAt
	} else {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	r.items[s.Name] = *s
	return nil
}

func (r *MemoryRepo) List(_ context.Context) ([]Scenario, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Scenario, 0, len(r.items))
	for _, s := range r.items {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
