package department

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grievance-portal/api/internal/domain"
	"github.com/grievance-portal/api/internal/pkg/id"
)

const defaultWorkloadCapacity = 50

type Service interface {
	Create(ctx context.Context, req domain.DepartmentInput) (*domain.Department, error)
	Get(ctx context.Context, departmentID string) (*domain.Department, error)
	List(ctx context.Context) ([]domain.Department, error)
	Update(ctx context.Context, departmentID string, req domain.DepartmentInput) (*domain.Department, error)
	Deactivate(ctx context.Context, departmentID string) error
}

type store interface {
	Put(ctx context.Context, d *domain.Department) error
	Get(ctx context.Context, departmentID string) (*domain.Department, error)
	GetByCode(ctx context.Context, code string) (*domain.Department, error)
	ListActive(ctx context.Context) ([]domain.Department, error)
	Update(ctx context.Context, departmentID string, updates map[string]interface{}) error
	SoftDelete(ctx context.Context, departmentID string) error
}

type service struct {
	departments store
	now         func() time.Time
}

func NewService(departments store, now func() time.Time) Service {
	if now == nil {
		now = time.Now
	}
	return &service{departments: departments, now: now}
}

func (s *service) Create(ctx context.Context, req domain.DepartmentInput) (*domain.Department, error) {
	for _, c := range req.Categories {
		if !domain.ValidCategory(c) {
			return nil, fmt.Errorf("unknown category %q: %w", c, domain.ErrBadRequest)
		}
	}
	code := strings.ToUpper(req.Code)
	if _, err := s.departments.GetByCode(ctx, code); err == nil {
		return nil, fmt.Errorf("department code %s already in use: %w", code, domain.ErrConflict)
	}

	capacity := defaultWorkloadCapacity
	if req.WorkloadCapacity != nil {
		capacity = *req.WorkloadCapacity
	}
	now := s.now().UTC()
	d := &domain.Department{
		DepartmentID:     id.New(),
		Name:             req.Name,
		Code:             code,
		Description:      req.Description,
		Categories:       req.Categories,
		ContactEmail:     req.ContactEmail,
		ContactPhone:     req.ContactPhone,
		HeadUserID:       req.HeadUserID,
		WorkloadCapacity: capacity,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.departments.Put(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *service) Get(ctx context.Context, departmentID string) (*domain.Department, error) {
	return s.departments.Get(ctx, departmentID)
}

func (s *service) List(ctx context.Context) ([]domain.Department, error) {
	return s.departments.ListActive(ctx)
}

func (s *service) Update(ctx context.Context, departmentID string, req domain.DepartmentInput) (*domain.Department, error) {
	d, err := s.departments.Get(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	for _, c := range req.Categories {
		if !domain.ValidCategory(c) {
			return nil, fmt.Errorf("unknown category %q: %w", c, domain.ErrBadRequest)
		}
	}
	updates := map[string]interface{}{
		"name":        req.Name,
		"description": req.Description,
		"categories":  req.Categories,
		"updated_at":  s.now().UTC().Format(time.RFC3339Nano),
	}
	if code := strings.ToUpper(req.Code); code != d.Code {
		if _, err := s.departments.GetByCode(ctx, code); err == nil {
			return nil, fmt.Errorf("department code %s already in use: %w", code, domain.ErrConflict)
		}
		updates["code"] = code
	}
	if req.ContactEmail != "" {
		updates["contact_email"] = req.ContactEmail
	}
	if req.ContactPhone != "" {
		updates["contact_phone"] = req.ContactPhone
	}
	if req.HeadUserID != "" {
		updates["head_user_id"] = req.HeadUserID
	}
	if req.WorkloadCapacity != nil {
		updates["workload_capacity"] = *req.WorkloadCapacity
	}
	if err := s.departments.Update(ctx, departmentID, updates); err != nil {
		return nil, err
	}
	return s.departments.Get(ctx, departmentID)
}

func (s *service) Deactivate(ctx context.Context, departmentID string) error {
	if _, err := s.departments.Get(ctx, departmentID); err != nil {
		return err
	}
	return s.departments.SoftDelete(ctx, departmentID)
}
