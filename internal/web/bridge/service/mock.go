package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/officeours/drive-airtable-bridge/library/drive"
)

// MockStorageClient is a mock implementation of StorageClient
type MockStorageClient struct {
	mock.Mock
}

func (m *MockStorageClient) Fetch(ctx context.Context, fileID string) (*drive.File, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*drive.File), args.Error(1)
}

func (m *MockStorageClient) Rename(ctx context.Context, fileID, newName string) (string, error) {
	args := m.Called(ctx, fileID, newName)
	return args.String(0), args.Error(1)
}

func (m *MockStorageClient) Trash(ctx context.Context, fileID string) error {
	args := m.Called(ctx, fileID)
	return args.Error(0)
}

func (m *MockStorageClient) Upload(ctx context.Context, name, mimeType string, content []byte, folderID string) (*drive.UploadedFile, error) {
	args := m.Called(ctx, name, mimeType, content, folderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*drive.UploadedFile), args.Error(1)
}

// MockRecordClient is a mock implementation of RecordClient
type MockRecordClient struct {
	mock.Mock
}

func (m *MockRecordClient) GetRecord(ctx context.Context, recordID string) (map[string]any, error) {
	args := m.Called(ctx, recordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]any), args.Error(1)
}

func (m *MockRecordClient) UpdateField(ctx context.Context, recordID, field string, value any) error {
	args := m.Called(ctx, recordID, field, value)
	return args.Error(0)
}

// MockTextExtractor is a mock implementation of TextExtractor
type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) Extract(ctx context.Context, name, mimeType string, content []byte) (string, error) {
	args := m.Called(ctx, name, mimeType, content)
	return args.String(0), args.Error(1)
}
