package complaint

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/grievance-portal/api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockComplaintStore struct{ mock.Mock }

func (m *mockComplaintStore) Put(ctx context.Context, c *domain.Complaint) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockComplaintStore) Get(ctx context.Context, complaintID string) (*domain.Complaint, error) {
	args := m.Called(ctx, complaintID)
	if c, _ := args.Get(0).(*domain.Complaint); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockComplaintStore) Update(ctx context.Context, complaintID string, updates map[string]interface{}) error {
	return m.Called(ctx, complaintID, updates).Error(0)
}
func (m *mockComplaintStore) AppendAttachment(ctx context.Context, complaintID, objectKey string) error {
	return m.Called(ctx, complaintID, objectKey).Error(0)
}
func (m *mockComplaintStore) ListByUser(ctx context.Context, userID string) ([]domain.Complaint, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]domain.Complaint)
	return list, args.Error(1)
}
func (m *mockComplaintStore) ListByDepartment(ctx context.Context, departmentID string) ([]domain.Complaint, error) {
	args := m.Called(ctx, departmentID)
	list, _ := args.Get(0).([]domain.Complaint)
	return list, args.Error(1)
}

type mockCommentStore struct{ mock.Mock }

func (m *mockCommentStore) Put(ctx context.Context, c *domain.Comment) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockCommentStore) ListByComplaint(ctx context.Context, complaintID string) ([]domain.Comment, error) {
	args := m.Called(ctx, complaintID)
	list, _ := args.Get(0).([]domain.Comment)
	return list, args.Error(1)
}

type mockDepartmentStore struct{ mock.Mock }

func (m *mockDepartmentStore) ListActive(ctx context.Context) ([]domain.Department, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]domain.Department)
	return list, args.Error(1)
}
func (m *mockDepartmentStore) AdjustWorkload(ctx context.Context, departmentID string, delta int) error {
	return m.Called(ctx, departmentID, delta).Error(0)
}

type noopNotifier struct{ sent []string }

func (n *noopNotifier) Notify(ctx context.Context, userID, typ, title, message, complaintID string) {
	n.sent = append(n.sent, userID+":"+typ)
}

type fixture struct {
	complaints *mockComplaintStore
	comments   *mockCommentStore
	depts      *mockDepartmentStore
	notes      *noopNotifier
}

func newFixture() *fixture {
	return &fixture{
		complaints: &mockComplaintStore{},
		comments:   &mockCommentStore{},
		depts:      &mockDepartmentStore{},
		notes:      &noopNotifier{},
	}
}

func (f *fixture) service() Service {
	return NewService(ServiceDeps{
		ComplaintRepo:  f.complaints,
		CommentRepo:    f.comments,
		DepartmentRepo: f.depts,
		Notifier:       f.notes,
		Now:            func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
}

func citizen() *Actor  { return &Actor{UserID: "u1", Role: domain.RoleCitizen} }
func officer() *Actor  { return &Actor{UserID: "o1", Role: domain.RoleOfficer, DepartmentID: "d1"} }
func admin() *Actor    { return &Actor{UserID: "adm", Role: domain.RoleAdmin} }
func stranger() *Actor { return &Actor{UserID: "u2", Role: domain.RoleCitizen} }

func waterDept(id string, workload int) domain.Department {
	return domain.Department{
		DepartmentID:    id,
		Name:            "Water Supply",
		Code:            "WTR",
		Categories:      []string{"Water Supply"},
		CurrentWorkload: workload,
		Active:          true,
	}
}

func TestCreate_RoutesToLeastLoadedDepartment(t *testing.T) {
	f := newFixture()
	f.depts.On("ListActive", mock.Anything).Return([]domain.Department{
		waterDept("d-busy", 9),
		waterDept("d-idle", 2),
	}, nil)
	f.depts.On("AdjustWorkload", mock.Anything, "d-idle", 1).Return(nil)
	f.complaints.On("Put", mock.Anything, mock.Anything).Return(nil)

	c, err := f.service().Create(context.Background(), "u1", domain.CreateComplaintRequest{
		Title: "No water", Description: "Dry taps since Monday", Category: "Water Supply",
	})
	require.NoError(t, err)
	assert.Equal(t, "d-idle", c.DepartmentID)
	assert.Equal(t, domain.ComplaintAssigned, c.Status)
	assert.Equal(t, domain.PriorityMedium, c.Priority)
	f.depts.AssertExpectations(t)
	assert.Contains(t, f.notes.sent, "u1:"+domain.NotifyComplaintUpdate)
}

func TestCreate_NoMatchingDepartment_StaysPending(t *testing.T) {
	f := newFixture()
	f.depts.On("ListActive", mock.Anything).Return([]domain.Department{waterDept("d1", 0)}, nil)
	f.complaints.On("Put", mock.Anything, mock.Anything).Return(nil)

	c, err := f.service().Create(context.Background(), "u1", domain.CreateComplaintRequest{
		Title: "Pothole", Description: "Large pothole on main road", Category: "Roads & Transportation",
	})
	require.NoError(t, err)
	assert.Empty(t, c.DepartmentID)
	assert.Equal(t, domain.ComplaintPending, c.Status)
	f.depts.AssertNotCalled(t, "AdjustWorkload", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreate_UnknownCategory(t *testing.T) {
	f := newFixture()
	_, err := f.service().Create(context.Background(), "u1", domain.CreateComplaintRequest{
		Title: "x", Description: "y", Category: "Time Travel",
	})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestGet_AccessControl(t *testing.T) {
	f := newFixture()
	c := &domain.Complaint{ComplaintID: "c1", UserID: "u1", DepartmentID: "d1", Status: domain.ComplaintAssigned}
	f.complaints.On("Get", mock.Anything, "c1").Return(c, nil)
	svc := f.service()

	for _, a := range []*Actor{citizen(), officer(), admin()} {
		got, err := svc.Get(context.Background(), a, "c1")
		require.NoError(t, err, "role %s should see the complaint", a.Role)
		assert.Equal(t, "c1", got.ComplaintID)
	}

	_, err := svc.Get(context.Background(), stranger(), "c1")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	otherDept := &Actor{UserID: "o2", Role: domain.RoleOfficer, DepartmentID: "d2"}
	_, err = svc.Get(context.Background(), otherDept, "c1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateStatus_ValidTransition_Resolved(t *testing.T) {
	f := newFixture()
	c := &domain.Complaint{ComplaintID: "c1", UserID: "u1", Title: "No water", DepartmentID: "d1", Status: domain.ComplaintInProgress}
	f.complaints.On("Get", mock.Anything, "c1").Return(c, nil)
	f.complaints.On("Update", mock.Anything, "c1", mock.MatchedBy(func(u map[string]interface{}) bool {
		_, hasResolvedAt := u["resolved_at"]
		return u["status"] == domain.ComplaintResolved && hasResolvedAt
	})).Return(nil)
	f.depts.On("AdjustWorkload", mock.Anything, "d1", -1).Return(nil)

	_, err := f.service().UpdateStatus(context.Background(), officer(), "c1", domain.UpdateComplaintStatusRequest{
		Status: domain.ComplaintResolved, ResolutionNote: "Valve replaced",
	})
	require.NoError(t, err)
	f.depts.AssertExpectations(t)
	assert.Contains(t, f.notes.sent, "u1:"+domain.NotifyResolved)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	f := newFixture()
	c := &domain.Complaint{ComplaintID: "c1", UserID: "u1", DepartmentID: "d1", Status: domain.ComplaintPending}
	f.complaints.On("Get", mock.Anything, "c1").Return(c, nil)

	_, err := f.service().UpdateStatus(context.Background(), officer(), "c1", domain.UpdateComplaintStatusRequest{
		Status: domain.ComplaintResolved,
	})
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	f.complaints.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_CitizenForbidden(t *testing.T) {
	f := newFixture()
	_, err := f.service().UpdateStatus(context.Background(), citizen(), "c1", domain.UpdateComplaintStatusRequest{
		Status: domain.ComplaintClosed,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAddComment_CitizenCannotPostInternal(t *testing.T) {
	f := newFixture()
	c := &domain.Complaint{ComplaintID: "c1", UserID: "u1", Status: domain.ComplaintAssigned}
	f.complaints.On("Get", mock.Anything, "c1").Return(c, nil)

	_, err := f.service().AddComment(context.Background(), citizen(), "c1", domain.AddCommentRequest{
		Text: "secret", IsInternal: true,
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAddComment_OfficerNotifiesOwner(t *testing.T) {
	f := newFixture()
	c := &domain.Complaint{ComplaintID: "c1", UserID: "u1", Title: "No water", DepartmentID: "d1", Status: domain.ComplaintAssigned}
	f.complaints.On("Get", mock.Anything, "c1").Return(c, nil)
	f.comments.On("Put", mock.Anything, mock.Anything).Return(nil)

	cm, err := f.service().AddComment(context.Background(), officer(), "c1", domain.AddCommentRequest{
		Text: "Crew dispatched",
	})
	require.NoError(t, err)
	assert.Equal(t, "o1", cm.UserID)
	assert.Contains(t, f.notes.sent, "u1:"+domain.NotifyComment)
}

func TestListComments_InternalHiddenFromCitizens(t *testing.T) {
	f := newFixture()
	c := &domain.Complaint{ComplaintID: "c1", UserID: "u1", DepartmentID: "d1", Status: domain.ComplaintAssigned}
	f.complaints.On("Get", mock.Anything, "c1").Return(c, nil)
	f.comments.On("ListByComplaint", mock.Anything, "c1").Return([]domain.Comment{
		{CommentID: "m1", Text: "public"},
		{CommentID: "m2", Text: "internal note", IsInternal: true},
	}, nil)
	svc := f.service()

	mine, err := svc.ListComments(context.Background(), citizen(), "c1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "m1", mine[0].CommentID)

	staff, err := svc.ListComments(context.Background(), officer(), "c1")
	require.NoError(t, err)
	assert.Len(t, staff, 2)
}

func TestListByDepartment_OfficerBoundToOwnDepartment(t *testing.T) {
	f := newFixture()
	f.complaints.On("ListByDepartment", mock.Anything, "d1").Return([]domain.Complaint{{ComplaintID: "c1"}}, nil)
	svc := f.service()

	list, err := svc.ListByDepartment(context.Background(), officer(), "d1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.ListByDepartment(context.Background(), officer(), "d2")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.ListByDepartment(context.Background(), citizen(), "d1")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAttachmentURL_UnknownKey(t *testing.T) {
	f := newFixture()
	c := &domain.Complaint{ComplaintID: "c1", UserID: "u1", Attachments: []string{"complaints/c1/a.png"}}
	f.complaints.On("Get", mock.Anything, "c1").Return(c, nil)

	svc := NewService(ServiceDeps{
		ComplaintRepo:   f.complaints,
		CommentRepo:     f.comments,
		DepartmentRepo:  f.depts,
		Notifier:        f.notes,
		AttachmentStore: &stubAttachments{},
	})
	_, err := svc.AttachmentURL(context.Background(), citizen(), "c1", "complaints/c1/other.png")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	url, err := svc.AttachmentURL(context.Background(), citizen(), "c1", "complaints/c1/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://signed/complaints/c1/a.png", url)
}

func TestDownloadAttachment_StreamsStoredObject(t *testing.T) {
	f := newFixture()
	c := &domain.Complaint{ComplaintID: "c1", UserID: "u1", Attachments: []string{"complaints/c1/a.png"}}
	f.complaints.On("Get", mock.Anything, "c1").Return(c, nil)

	svc := NewService(ServiceDeps{
		ComplaintRepo:   f.complaints,
		CommentRepo:     f.comments,
		DepartmentRepo:  f.depts,
		Notifier:        f.notes,
		AttachmentStore: &stubAttachments{},
	})

	_, _, err := svc.DownloadAttachment(context.Background(), citizen(), "c1", "complaints/c1/other.png")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	rc, contentType, err := svc.DownloadAttachment(context.Background(), citizen(), "c1", "complaints/c1/a.png")
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "image/png", contentType)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "object complaints/c1/a.png", string(body))
}

func TestDownloadAttachment_StrangerForbidden(t *testing.T) {
	f := newFixture()
	c := &domain.Complaint{ComplaintID: "c1", UserID: "u1", DepartmentID: "d2", Attachments: []string{"complaints/c1/a.png"}}
	f.complaints.On("Get", mock.Anything, "c1").Return(c, nil)

	svc := NewService(ServiceDeps{
		ComplaintRepo:   f.complaints,
		CommentRepo:     f.comments,
		DepartmentRepo:  f.depts,
		Notifier:        f.notes,
		AttachmentStore: &stubAttachments{},
	})

	_, _, err := svc.DownloadAttachment(context.Background(), officer(), "c1", "complaints/c1/a.png")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDeleteAttachment_RemovesObjectAndRecord(t *testing.T) {
	f := newFixture()
	c := &domain.Complaint{ComplaintID: "c1", UserID: "u1", Attachments: []string{"complaints/c1/a.png", "complaints/c1/b.pdf"}}
	f.complaints.On("Get", mock.Anything, "c1").Return(c, nil)
	f.complaints.On("Update", mock.Anything, "c1", mock.MatchedBy(func(updates map[string]interface{}) bool {
		kept, ok := updates["attachments"].([]string)
		return ok && len(kept) == 1 && kept[0] == "complaints/c1/b.pdf"
	})).Return(nil)

	store := &stubAttachments{}
	svc := NewService(ServiceDeps{
		ComplaintRepo:   f.complaints,
		CommentRepo:     f.comments,
		DepartmentRepo:  f.depts,
		Notifier:        f.notes,
		AttachmentStore: store,
	})

	require.NoError(t, svc.DeleteAttachment(context.Background(), citizen(), "c1", "complaints/c1/a.png"))
	assert.Equal(t, []string{"complaints/c1/a.png"}, store.deleted)
	f.complaints.AssertExpectations(t)

	err := svc.DeleteAttachment(context.Background(), citizen(), "c1", "complaints/c1/missing.png")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

type stubAttachments struct {
	deleted []string
}

func (s *stubAttachments) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	return key, nil
}
func (s *stubAttachments) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("object " + key)), nil
}
func (s *stubAttachments) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://signed/" + key, nil
}
func (s *stubAttachments) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}
