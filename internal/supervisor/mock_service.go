// Bookshelf - Book Catalog and Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bookshelf

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// errSimulated is returned by a MockService while it has failures left.
var errSimulated = errors.New("simulated failure")

// MockService is a suture.Service for supervisor tests. It fails a set
// number of times, then runs until its context is canceled.
type MockService struct {
	name      string
	failures  atomic.Int32
	starts    atomic.Int32
	stops     atomic.Int32
	runningCh chan struct{}
}

// NewMockService creates a mock service that fails the first failures
// times it is started.
func NewMockService(name string, failures int) *MockService {
	m := &MockService{name: name, runningCh: make(chan struct{})}
	m.failures.Store(int32(failures))
	return m
}

// Serve implements suture.Service.
func (m *MockService) Serve(ctx context.Context) error {
	m.starts.Add(1)
	defer m.stops.Add(1)

	if m.failures.Add(-1) >= 0 {
		return errSimulated
	}

	select {
	case <-m.runningCh:
	default:
		close(m.runningCh)
	}

	<-ctx.Done()
	return ctx.Err()
}

// Running is closed the first time Serve gets past its failures.
func (m *MockService) Running() <-chan struct{} {
	return m.runningCh
}

// StartCount returns how many times Serve was called.
func (m *MockService) StartCount() int32 {
	return m.starts.Load()
}

// StopCount returns how many times Serve returned.
func (m *MockService) StopCount() int32 {
	return m.stops.Load()
}

func (m *MockService) String() string {
	return m.name
}
