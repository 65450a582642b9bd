/*
Copyright 2025 Velora Payments Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/velorapay/velora/database"
	"github.com/velorapay/velora/model"
)

// MockDataSource is a mock implementation of the IDataSource interface
type MockDataSource struct {
	mock.Mock
}

func (m *MockDataSource) CreateTransfer(ctx context.Context, transfer *model.Transfer) (*model.Transfer, error) {
	args := m.Called(ctx, transfer)
	return args.Get(0).(*model.Transfer), args.Error(1)
}

func (m *MockDataSource) UpdateTransferStatus(ctx context.Context, transferID, expectedStatus, newStatus string, details database.CorrelationDetails) (bool, error) {
	args := m.Called(ctx, transferID, expectedStatus, newStatus, details)
	return args.Bool(0), args.Error(1)
}

func (m *MockDataSource) AppendTimelineEvent(ctx context.Context, event model.TimelineEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockDataSource) GetTransferByID(ctx context.Context, transferID string) (*model.Transfer, error) {
	args := m.Called(ctx, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transfer), args.Error(1)
}

func (m *MockDataSource) GetTransferByExternalID(ctx context.Context, category, externalID string) (*model.Transfer, error) {
	args := m.Called(ctx, category, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transfer), args.Error(1)
}

func (m *MockDataSource) ListTransfersByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Transfer, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]*model.Transfer), args.Error(1)
}
