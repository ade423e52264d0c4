// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package service

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/entity"
)

func TestCreateState_StoresSingleUseRecord(t *testing.T) {
	var created entity.OauthStateEntity
	repo := &mockOauthStateRepository{
		CreateStateFunc: func(stateEntity entity.OauthStateEntity) error {
			created = stateEntity
			return nil
		},
	}
	store := NewAuthorizationStateStore(repo)

	state, err := store.CreateState("user-1", "github", "verifier-1", "https://flowhub.example.com/settings")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state == "" {
		t.Fatal("expected non-empty state")
	}
	assert.Equal(t, state, created.State)
	assert.Equal(t, "user-1", created.UserId)
	assert.Equal(t, "github", created.Service)
	assert.Equal(t, "verifier-1", created.CodeVerifier)
	assert.Equal(t, "https://flowhub.example.com/settings", created.RedirectUri)
	assert.Equal(t, stateTtl, created.ExpiresAt.Sub(created.CreatedAt))
}

func TestCreateState_DistinctPerRequest(t *testing.T) {
	repo := &mockOauthStateRepository{
		CreateStateFunc: func(stateEntity entity.OauthStateEntity) error { return nil },
	}
	store := NewAuthorizationStateStore(repo)

	first, err := store.CreateState("user-1", "github", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := store.CreateState("user-1", "github", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == second {
		t.Errorf("expected distinct states, got %q twice", first)
	}
}

func TestConsumeState_EmptyStateSkipsRepository(t *testing.T) {
	consumeCalls := 0
	repo := &mockOauthStateRepository{
		ConsumeStateFunc: func(state string) (*entity.OauthStateEntity, error) {
			consumeCalls++
			return nil, nil
		},
	}
	store := NewAuthorizationStateStore(repo)

	stateEntity, err := store.ConsumeState("")
	assert.NoError(t, err)
	assert.Nil(t, stateEntity)
	assert.Equal(t, 0, consumeCalls)
}

func TestConsumeState_ExpiredStateRejected(t *testing.T) {
	repo := &mockOauthStateRepository{
		ConsumeStateFunc: func(state string) (*entity.OauthStateEntity, error) {
			return &entity.OauthStateEntity{
				State:     state,
				UserId:    "user-1",
				Service:   "github",
				CreatedAt: time.Now().Add(-stateTtl - time.Minute),
				ExpiresAt: time.Now().Add(-time.Minute),
			}, nil
		},
	}
	store := NewAuthorizationStateStore(repo)

	stateEntity, err := store.ConsumeState("expired-state")
	assert.NoError(t, err)
	assert.Nil(t, stateEntity)
}

func TestConsumeState_ValidStateReturned(t *testing.T) {
	repo := newInMemoryStateRepository()
	store := NewAuthorizationStateStore(repo)

	state, err := store.CreateState("user-1", "gitlab", "verifier-2", "/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	stateEntity, err := store.ConsumeState(state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stateEntity == nil {
		t.Fatal("expected state entity, got nil")
	}
	assert.Equal(t, "user-1", stateEntity.UserId)
	assert.Equal(t, "gitlab", stateEntity.Service)
	assert.Equal(t, "verifier-2", stateEntity.CodeVerifier)
}

// Replayed callbacks race for one state, only a single consumer may win.
func TestConsumeState_ExactlyOnce(t *testing.T) {
	repo := newInMemoryStateRepository()
	store := NewAuthorizationStateStore(repo)

	state, err := store.CreateState("user-1", "github", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const attempts = 20
	var winners int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			stateEntity, err := store.ConsumeState(state)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if stateEntity != nil {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners)
}

type mockOauthStateRepository struct {
	CreateStateFunc         func(stateEntity entity.OauthStateEntity) error
	ConsumeStateFunc        func(state string) (*entity.OauthStateEntity, error)
	DeleteExpiredStatesFunc func() (int, error)
}

func (m mockOauthStateRepository) CreateState(stateEntity entity.OauthStateEntity) error {
	return m.CreateStateFunc(stateEntity)
}

func (m mockOauthStateRepository) ConsumeState(state string) (*entity.OauthStateEntity, error) {
	return m.ConsumeStateFunc(state)
}

func (m mockOauthStateRepository) DeleteExpiredStates() (int, error) {
	if m.DeleteExpiredStatesFunc == nil {
		return 0, nil
	}
	return m.DeleteExpiredStatesFunc()
}

// inMemoryStateRepository mirrors the delete-returning contract of the pg
// implementation, a state row can be consumed by exactly one caller.
type inMemoryStateRepository struct {
	mutex  sync.Mutex
	states map[string]entity.OauthStateEntity
}

func newInMemoryStateRepository() *inMemoryStateRepository {
	return &inMemoryStateRepository{states: make(map[string]entity.OauthStateEntity)}
}

func (r *inMemoryStateRepository) CreateState(stateEntity entity.OauthStateEntity) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.states[stateEntity.State] = stateEntity
	return nil
}

func (r *inMemoryStateRepository) ConsumeState(state string) (*entity.OauthStateEntity, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	stateEntity, exists := r.states[state]
	if !exists {
		return nil, nil
	}
	delete(r.states, state)
	return &stateEntity, nil
}

func (r *inMemoryStateRepository) DeleteExpiredStates() (int, error) {
	return 0, nil
}

func (r *inMemoryStateRepository) peek(state string) *entity.OauthStateEntity {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	stateEntity, exists := r.states[state]
	if !exists {
		return nil
	}
	return &stateEntity
}
