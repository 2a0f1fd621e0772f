// Package mocks provides testify mocks for the outbound ports.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/acoshift/neppage/internal/boundaries/out"
	"github.com/acoshift/neppage/internal/domain"
)

// MockPageRepository is a mock implementation of out.PageRepository.
type MockPageRepository struct {
	mock.Mock
}

func (m *MockPageRepository) ListPages(ctx context.Context, etag string) (out.PageList, error) {
	args := m.Called(ctx, etag)
	return args.Get(0).(out.PageList), args.Error(1)
}

// MockRouteTable is a mock implementation of out.RouteTable.
type MockRouteTable struct {
	mock.Mock
}

func (m *MockRouteTable) ListRoutes(ctx context.Context, etag string) (out.RouteList, error) {
	args := m.Called(ctx, etag)
	return args.Get(0).(out.RouteList), args.Error(1)
}

func (m *MockRouteTable) CreateRoute(ctx context.Context, route domain.RouteEntry) error {
	args := m.Called(ctx, route)
	return args.Error(0)
}

func (m *MockRouteTable) UpdateRoute(ctx context.Context, id string, route domain.RouteEntry) error {
	args := m.Called(ctx, id, route)
	return args.Error(0)
}

func (m *MockRouteTable) DeleteRoutes(ctx context.Context, ids []string) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

// MockFileQueue is a mock implementation of out.FileQueue.
type MockFileQueue struct {
	mock.Mock
}

func (m *MockFileQueue) PendingFileOps(ctx context.Context) ([]domain.FileOp, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FileOp), args.Error(1)
}

func (m *MockFileQueue) MarkDone(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFileQueue) MarkError(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFileQueue) Remove(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockPageFiles is a mock implementation of out.PageFiles.
type MockPageFiles struct {
	mock.Mock
}

func (m *MockPageFiles) WriteFile(pageName, dir, name string, data []byte) error {
	args := m.Called(pageName, dir, name, data)
	return args.Error(0)
}

func (m *MockPageFiles) RemoveFile(pageName, dir, name string) error {
	args := m.Called(pageName, dir, name)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of out.EventPublisher.
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(eventType domain.EventType, payload any) error {
	args := m.Called(eventType, payload)
	return args.Error(0)
}

var (
	_ out.PageRepository = (*MockPageRepository)(nil)
	_ out.RouteTable     = (*MockRouteTable)(nil)
	_ out.FileQueue      = (*MockFileQueue)(nil)
	_ out.PageFiles      = (*MockPageFiles)(nil)
	_ out.EventPublisher = (*MockEventPublisher)(nil)
)
