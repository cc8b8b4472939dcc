package iocache

import (
	"time"

	"github.com/huangsam/devhealth/internal/contract"
	"github.com/huangsam/devhealth/schema"
	"github.com/stretchr/testify/mock"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetRunStore implements the StoreManager interface.
func (m *MockStoreManager) GetRunStore() contract.RunStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunStore)
	return store
}

// MockRunStore is a mock implementation of RunStore for testing.
type MockRunStore struct {
	mock.Mock
}

var _ contract.RunStore = &MockRunStore{} // Compile-time check

// BeginRun implements the RunStore interface.
func (m *MockRunStore) BeginRun(startTime time.Time, configParams map[string]any) (int64, error) {
	args := m.Called(startTime, configParams)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the RunStore interface.
func (m *MockRunStore) EndRun(runID int64, endTime time.Time, projectsTotal, projectsFailed int) error {
	args := m.Called(runID, endTime, projectsTotal, projectsFailed)
	return args.Error(0)
}

// RecordRepoRating implements the RunStore interface.
func (m *MockRunStore) RecordRepoRating(record schema.RepoRatingRecord) error {
	args := m.Called(record)
	return args.Error(0)
}

// GetStatus implements the RunStore interface.
func (m *MockRunStore) GetStatus() (schema.RunStoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.RunStoreStatus), args.Error(1)
}

// GetAllRuns implements the RunStore interface.
func (m *MockRunStore) GetAllRuns() ([]schema.ScrapeRunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.ScrapeRunRecord)
	return runs, args.Error(1)
}

// GetAllRepoRatings implements the RunStore interface.
func (m *MockRunStore) GetAllRepoRatings() ([]schema.RepoRatingRecord, error) {
	args := m.Called()
	ratings, _ := args.Get(0).([]schema.RepoRatingRecord)
	return ratings, args.Error(1)
}

// GetRepoRatings implements the RunStore interface.
func (m *MockRunStore) GetRepoRatings(runID int64) ([]schema.RepoRatingRecord, error) {
	args := m.Called(runID)
	ratings, _ := args.Get(0).([]schema.RepoRatingRecord)
	return ratings, args.Error(1)
}

// LatestRunID implements the RunStore interface.
func (m *MockRunStore) LatestRunID() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// Close implements the RunStore interface.
func (m *MockRunStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
