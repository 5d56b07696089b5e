package department

import (
	"context"
	"testing"

	"github.com/grievance-portal/api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) Put(ctx context.Context, d *domain.Department) error {
	return m.Called(ctx, d).Error(0)
}
func (m *mockStore) Get(ctx context.Context, departmentID string) (*domain.Department, error) {
	args := m.Called(ctx, departmentID)
	if d, _ := args.Get(0).(*domain.Department); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) GetByCode(ctx context.Context, code string) (*domain.Department, error) {
	args := m.Called(ctx, code)
	if d, _ := args.Get(0).(*domain.Department); d != nil {
		return d, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockStore) ListActive(ctx context.Context) ([]domain.Department, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]domain.Department)
	return list, args.Error(1)
}
func (m *mockStore) Update(ctx context.Context, departmentID string, updates map[string]interface{}) error {
	return m.Called(ctx, departmentID, updates).Error(0)
}
func (m *mockStore) SoftDelete(ctx context.Context, departmentID string) error {
	return m.Called(ctx, departmentID).Error(0)
}

func TestCreate_UppercasesCodeAndDefaultsCapacity(t *testing.T) {
	store := &mockStore{}
	store.On("GetByCode", mock.Anything, "WTR").Return(nil, domain.ErrNotFound)
	store.On("Put", mock.Anything, mock.Anything).Return(nil)

	d, err := NewService(store, nil).Create(context.Background(), domain.DepartmentInput{
		Name: "Water Supply", Code: "wtr", Categories: []string{"Water Supply"},
	})
	require.NoError(t, err)
	assert.Equal(t, "WTR", d.Code)
	assert.Equal(t, defaultWorkloadCapacity, d.WorkloadCapacity)
	assert.True(t, d.Active)
}

func TestCreate_DuplicateCode(t *testing.T) {
	store := &mockStore{}
	store.On("GetByCode", mock.Anything, "WTR").Return(&domain.Department{DepartmentID: "d1", Code: "WTR"}, nil)

	_, err := NewService(store, nil).Create(context.Background(), domain.DepartmentInput{
		Name: "Water Supply", Code: "WTR", Categories: []string{"Water Supply"},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	store.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestCreate_UnknownCategory(t *testing.T) {
	store := &mockStore{}
	_, err := NewService(store, nil).Create(context.Background(), domain.DepartmentInput{
		Name: "X", Code: "X", Categories: []string{"Telepathy"},
	})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestUpdate_CodeChangeCheckedForConflict(t *testing.T) {
	store := &mockStore{}
	store.On("Get", mock.Anything, "d1").Return(&domain.Department{DepartmentID: "d1", Code: "WTR"}, nil)
	store.On("GetByCode", mock.Anything, "ELC").Return(&domain.Department{DepartmentID: "d2", Code: "ELC"}, nil)

	_, err := NewService(store, nil).Update(context.Background(), "d1", domain.DepartmentInput{
		Name: "Water Supply", Code: "elc", Categories: []string{"Water Supply"},
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDeactivate_UnknownDepartment(t *testing.T) {
	store := &mockStore{}
	store.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	err := NewService(store, nil).Deactivate(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	store.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}
