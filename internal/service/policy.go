package service

import (
	"shikkha_backend/internal/config"
	"sync"
)

// PolicyStore 运行时可热更新的考试策略
type PolicyStore struct {
	mu     sync.RWMutex
	policy config.ExamPolicy
}

func NewPolicyStore(p config.ExamPolicy) *PolicyStore {
	return &PolicyStore{policy: p}
}

func (s *PolicyStore) Get() config.ExamPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.policy
}

// Update 校验失败时保留旧策略
func (s *PolicyStore) Update(p config.ExamPolicy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.policy = p
	s.mu.Unlock()
	return nil
}
