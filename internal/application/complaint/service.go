package complaint

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/grievance-portal/api/internal/domain"
	s3infra "github.com/grievance-portal/api/internal/infrastructure/s3"
	"github.com/grievance-portal/api/internal/pkg/id"
)

// presignTTL bounds how long a generated attachment link stays valid.
const presignTTL = 15 * time.Minute

var statusTransitions = map[string][]string{
	domain.ComplaintPending:    {domain.ComplaintAssigned, domain.ComplaintClosed},
	domain.ComplaintAssigned:   {domain.ComplaintInProgress, domain.ComplaintClosed},
	domain.ComplaintInProgress: {domain.ComplaintResolved, domain.ComplaintClosed},
	domain.ComplaintResolved:   {domain.ComplaintClosed},
	domain.ComplaintClosed:     {},
}

func validTransition(from, to string) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type Service interface {
	Create(ctx context.Context, userID string, req domain.CreateComplaintRequest) (*domain.Complaint, error)
	Get(ctx context.Context, actor *Actor, complaintID string) (*domain.Complaint, error)
	ListMine(ctx context.Context, userID string) ([]domain.Complaint, error)
	ListByDepartment(ctx context.Context, actor *Actor, departmentID string) ([]domain.Complaint, error)
	UpdateStatus(ctx context.Context, actor *Actor, complaintID string, req domain.UpdateComplaintStatusRequest) (*domain.Complaint, error)
	AddComment(ctx context.Context, actor *Actor, complaintID string, req domain.AddCommentRequest) (*domain.Comment, error)
	ListComments(ctx context.Context, actor *Actor, complaintID string) ([]domain.Comment, error)
	UploadAttachment(ctx context.Context, actor *Actor, complaintID, filename string, r io.Reader) (string, error)
	AttachmentURL(ctx context.Context, actor *Actor, complaintID, objectKey string) (string, error)
	DownloadAttachment(ctx context.Context, actor *Actor, complaintID, objectKey string) (io.ReadCloser, string, error)
	DeleteAttachment(ctx context.Context, actor *Actor, complaintID, objectKey string) error
}

// Actor identifies the caller for access checks. Officers act within their
// department; admins act everywhere.
type Actor struct {
	UserID       string
	Role         string
	DepartmentID string
}

func (a *Actor) staff() bool {
	return a.Role == domain.RoleOfficer || a.Role == domain.RoleAdmin
}

type complaintStore interface {
	Put(ctx context.Context, c *domain.Complaint) error
	Get(ctx context.Context, complaintID string) (*domain.Complaint, error)
	Update(ctx context.Context, complaintID string, updates map[string]interface{}) error
	AppendAttachment(ctx context.Context, complaintID, objectKey string) error
	ListByUser(ctx context.Context, userID string) ([]domain.Complaint, error)
	ListByDepartment(ctx context.Context, departmentID string) ([]domain.Complaint, error)
}

type commentStore interface {
	Put(ctx context.Context, c *domain.Comment) error
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.Comment, error)
}

type departmentStore interface {
	ListActive(ctx context.Context) ([]domain.Department, error)
	AdjustWorkload(ctx context.Context, departmentID string, delta int) error
}

type notifier interface {
	Notify(ctx context.Context, userID, typ, title, message, complaintID string)
}

type attachmentStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	complaints  complaintStore
	comments    commentStore
	departments departmentStore
	notifier    notifier
	attachments attachmentStore
	now         func() time.Time
}

type ServiceDeps struct {
	ComplaintRepo  complaintStore
	CommentRepo    commentStore
	DepartmentRepo departmentStore
	Notifier       notifier
	// AttachmentStore is optional; nil disables attachment endpoints.
	AttachmentStore attachmentStore
	Now             func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		complaints:  deps.ComplaintRepo,
		comments:    deps.CommentRepo,
		departments: deps.DepartmentRepo,
		notifier:    deps.Notifier,
		attachments: deps.AttachmentStore,
		now:         now,
	}
}

func (s *service) Create(ctx context.Context, userID string, req domain.CreateComplaintRequest) (*domain.Complaint, error) {
	if !domain.ValidCategory(req.Category) {
		return nil, fmt.Errorf("unknown category %q: %w", req.Category, domain.ErrBadRequest)
	}
	priority := req.Priority
	switch priority {
	case "":
		priority = domain.PriorityMedium
	case domain.PriorityLow, domain.PriorityMedium, domain.PriorityHigh, domain.PriorityCritical:
	default:
		return nil, fmt.Errorf("unknown priority %q: %w", req.Priority, domain.ErrBadRequest)
	}

	now := s.now().UTC()
	c := &domain.Complaint{
		ComplaintID: id.New(),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Status:      domain.ComplaintPending,
		Priority:    priority,
		Address:     req.Address,
		Location:    req.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if dept := s.routeDepartment(ctx, req.Category); dept != nil {
		c.DepartmentID = dept.DepartmentID
		c.Status = domain.ComplaintAssigned
	}

	if err := s.complaints.Put(ctx, c); err != nil {
		return nil, err
	}
	if c.DepartmentID != "" {
		if err := s.departments.AdjustWorkload(ctx, c.DepartmentID, 1); err != nil {
			slog.Warn("failed to bump department workload", "department_id", c.DepartmentID, "err", err)
		}
	}
	s.notifier.Notify(ctx, userID, domain.NotifyComplaintUpdate,
		"Complaint registered",
		fmt.Sprintf("Your complaint %q has been registered.", c.Title), c.ComplaintID)
	return c, nil
}

// routeDepartment picks the active department with the lowest current
// workload among those handling the category. Returns nil when no
// department covers it; the complaint then stays pending for manual triage.
func (s *service) routeDepartment(ctx context.Context, category string) *domain.Department {
	depts, err := s.departments.ListActive(ctx)
	if err != nil {
		slog.Warn("failed to list departments for routing", "err", err)
		return nil
	}
	var best *domain.Department
	for i := range depts {
		d := &depts[i]
		if !handlesCategory(d, category) {
			continue
		}
		if best == nil || d.CurrentWorkload < best.CurrentWorkload {
			best = d
		}
	}
	return best
}

func handlesCategory(d *domain.Department, category string) bool {
	for _, c := range d.Categories {
		if c == category {
			return true
		}
	}
	return false
}

func (s *service) Get(ctx context.Context, actor *Actor, complaintID string) (*domain.Complaint, error) {
	c, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if err := s.canView(actor, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) canView(actor *Actor, c *domain.Complaint) error {
	if c.UserID == actor.UserID || actor.Role == domain.RoleAdmin {
		return nil
	}
	if actor.Role == domain.RoleOfficer && actor.DepartmentID != "" && actor.DepartmentID == c.DepartmentID {
		return nil
	}
	return fmt.Errorf("not allowed to access this complaint: %w", domain.ErrForbidden)
}

func (s *service) ListMine(ctx context.Context, userID string) ([]domain.Complaint, error) {
	return s.complaints.ListByUser(ctx, userID)
}

func (s *service) ListByDepartment(ctx context.Context, actor *Actor, departmentID string) ([]domain.Complaint, error) {
	if actor.Role == domain.RoleOfficer && actor.DepartmentID != departmentID {
		return nil, fmt.Errorf("not allowed to access this department: %w", domain.ErrForbidden)
	}
	if !actor.staff() {
		return nil, fmt.Errorf("staff access required: %w", domain.ErrForbidden)
	}
	return s.complaints.ListByDepartment(ctx, departmentID)
}

func (s *service) UpdateStatus(ctx context.Context, actor *Actor, complaintID string, req domain.UpdateComplaintStatusRequest) (*domain.Complaint, error) {
	if !actor.staff() {
		return nil, fmt.Errorf("staff access required: %w", domain.ErrForbidden)
	}
	c, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleOfficer && actor.DepartmentID != c.DepartmentID {
		return nil, fmt.Errorf("not allowed to access this complaint: %w", domain.ErrForbidden)
	}
	if !validTransition(c.Status, req.Status) {
		return nil, fmt.Errorf("cannot move complaint from %s to %s: %w", c.Status, req.Status, domain.ErrBadRequest)
	}

	now := s.now().UTC()
	updates := map[string]interface{}{
		"status":     req.Status,
		"updated_at": now.Format(time.RFC3339Nano),
	}
	if req.AssignedToID != "" {
		updates["assigned_to_id"] = req.AssignedToID
	}
	if req.Status == domain.ComplaintResolved {
		if req.ResolutionNote != "" {
			updates["resolution_note"] = req.ResolutionNote
		}
		updates["resolved_at"] = now.Format(time.RFC3339Nano)
	}
	if err := s.complaints.Update(ctx, complaintID, updates); err != nil {
		return nil, err
	}

	// Resolving or closing releases the department slot.
	if c.DepartmentID != "" &&
		(req.Status == domain.ComplaintResolved || req.Status == domain.ComplaintClosed) &&
		c.Status != domain.ComplaintResolved {
		if err := s.departments.AdjustWorkload(ctx, c.DepartmentID, -1); err != nil {
			slog.Warn("failed to release department workload", "department_id", c.DepartmentID, "err", err)
		}
	}

	typ := domain.NotifyComplaintUpdate
	if req.Status == domain.ComplaintResolved {
		typ = domain.NotifyResolved
	}
	s.notifier.Notify(ctx, c.UserID, typ,
		"Complaint status updated",
		fmt.Sprintf("Your complaint %q is now %s.", c.Title, req.Status), c.ComplaintID)
	if req.AssignedToID != "" && req.AssignedToID != actor.UserID {
		s.notifier.Notify(ctx, req.AssignedToID, domain.NotifyAssignment,
			"Complaint assigned to you",
			fmt.Sprintf("Complaint %q has been assigned to you.", c.Title), c.ComplaintID)
	}

	return s.complaints.Get(ctx, complaintID)
}

func (s *service) AddComment(ctx context.Context, actor *Actor, complaintID string, req domain.AddCommentRequest) (*domain.Comment, error) {
	c, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if err := s.canView(actor, c); err != nil {
		return nil, err
	}
	if req.IsInternal && !actor.staff() {
		return nil, fmt.Errorf("internal comments are staff only: %w", domain.ErrForbidden)
	}
	cm := &domain.Comment{
		CommentID:   id.New(),
		ComplaintID: complaintID,
		UserID:      actor.UserID,
		Text:        req.Text,
		IsInternal:  req.IsInternal,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.comments.Put(ctx, cm); err != nil {
		return nil, err
	}
	if !req.IsInternal && actor.UserID != c.UserID {
		s.notifier.Notify(ctx, c.UserID, domain.NotifyComment,
			"New comment on your complaint",
			fmt.Sprintf("A new comment was added to %q.", c.Title), c.ComplaintID)
	}
	return cm, nil
}

func (s *service) ListComments(ctx context.Context, actor *Actor, complaintID string) ([]domain.Comment, error) {
	c, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if err := s.canView(actor, c); err != nil {
		return nil, err
	}
	all, err := s.comments.ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	if actor.staff() {
		return all, nil
	}
	visible := make([]domain.Comment, 0, len(all))
	for _, cm := range all {
		if !cm.IsInternal {
			visible = append(visible, cm)
		}
	}
	return visible, nil
}

func (s *service) UploadAttachment(ctx context.Context, actor *Actor, complaintID, filename string, r io.Reader) (string, error) {
	if s.attachments == nil {
		return "", fmt.Errorf("attachment storage is not configured: %w", domain.ErrBadRequest)
	}
	c, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		return "", err
	}
	if c.UserID != actor.UserID && !actor.staff() {
		return "", fmt.Errorf("not allowed to access this complaint: %w", domain.ErrForbidden)
	}
	key := fmt.Sprintf("complaints/%s/%s-%s", complaintID, id.New(), filename)
	if _, err := s.attachments.Upload(ctx, key, r, s3infra.DetectContentType(filename)); err != nil {
		return "", err
	}
	if err := s.complaints.AppendAttachment(ctx, complaintID, key); err != nil {
		return "", err
	}
	return key, nil
}

func (s *service) AttachmentURL(ctx context.Context, actor *Actor, complaintID, objectKey string) (string, error) {
	if s.attachments == nil {
		return "", fmt.Errorf("attachment storage is not configured: %w", domain.ErrBadRequest)
	}
	c, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		return "", err
	}
	if err := s.canView(actor, c); err != nil {
		return "", err
	}
	if !hasAttachment(c, objectKey) {
		return "", fmt.Errorf("attachment not found on this complaint: %w", domain.ErrNotFound)
	}
	return s.attachments.PresignedURL(ctx, objectKey, presignTTL)
}

// DownloadAttachment streams an attachment through the API instead of
// handing out a presigned URL. The content type is derived from the
// original filename embedded in the object key.
func (s *service) DownloadAttachment(ctx context.Context, actor *Actor, complaintID, objectKey string) (io.ReadCloser, string, error) {
	if s.attachments == nil {
		return nil, "", fmt.Errorf("attachment storage is not configured: %w", domain.ErrBadRequest)
	}
	c, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		return nil, "", err
	}
	if err := s.canView(actor, c); err != nil {
		return nil, "", err
	}
	if !hasAttachment(c, objectKey) {
		return nil, "", fmt.Errorf("attachment not found on this complaint: %w", domain.ErrNotFound)
	}
	rc, err := s.attachments.Download(ctx, objectKey)
	if err != nil {
		return nil, "", err
	}
	return rc, s3infra.DetectContentType(objectKey), nil
}

func (s *service) DeleteAttachment(ctx context.Context, actor *Actor, complaintID, objectKey string) error {
	if s.attachments == nil {
		return fmt.Errorf("attachment storage is not configured: %w", domain.ErrBadRequest)
	}
	c, err := s.complaints.Get(ctx, complaintID)
	if err != nil {
		return err
	}
	if c.UserID != actor.UserID && !actor.staff() {
		return fmt.Errorf("not allowed to access this complaint: %w", domain.ErrForbidden)
	}
	if !hasAttachment(c, objectKey) {
		return fmt.Errorf("attachment not found on this complaint: %w", domain.ErrNotFound)
	}
	if err := s.attachments.Delete(ctx, objectKey); err != nil {
		return err
	}
	kept := make([]string, 0, len(c.Attachments)-1)
	for _, k := range c.Attachments {
		if k != objectKey {
			kept = append(kept, k)
		}
	}
	return s.complaints.Update(ctx, complaintID, map[string]interface{}{
		"attachments": kept,
		"updated_at":  s.now().UTC().Format(time.RFC3339Nano),
	})
}

func hasAttachment(c *domain.Complaint, objectKey string) bool {
	for _, k := range c.Attachments {
		if k == objectKey {
			return true
		}
	}
	return false
}
