package domain

import "time"

// Complaint statuses. A complaint moves pending → assigned → in_progress →
// resolved → closed; reopening is not supported.
const (
	ComplaintPending    = "pending"
	ComplaintAssigned   = "assigned"
	ComplaintInProgress = "in_progress"
	ComplaintResolved   = "resolved"
	ComplaintClosed     = "closed"
)

const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Categories a complaint (and a department) can be filed under.
var Categories = []string{
	"Roads & Transportation",
	"Water Supply",
	"Electricity",
	"Sanitation",
	"Street Lighting",
	"Public Safety",
	"Healthcare",
	"Education",
	"Others",
}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

type Complaint struct {
	ComplaintID    string     `json:"id" dynamodbav:"complaint_id"`
	UserID         string     `json:"user_id" dynamodbav:"user_id"`
	Title          string     `json:"title" dynamodbav:"title"`
	Description    string     `json:"description" dynamodbav:"description"`
	Category       string     `json:"category" dynamodbav:"category"`
	Status         string     `json:"status" dynamodbav:"status"`
	Priority       string     `json:"priority" dynamodbav:"priority"`
	DepartmentID   string     `json:"department_id,omitempty" dynamodbav:"department_id"`
	AssignedToID   string     `json:"assigned_to_id,omitempty" dynamodbav:"assigned_to_id"`
	Address        string     `json:"address,omitempty" dynamodbav:"address"`
	Location       *GeoPoint  `json:"location,omitempty" dynamodbav:"location"`
	Attachments    []string   `json:"attachments,omitempty" dynamodbav:"attachments"`
	ResolutionNote string     `json:"resolution_note,omitempty" dynamodbav:"resolution_note"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty" dynamodbav:"resolved_at"`
	CreatedAt      time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// Comment is a message on a complaint. Internal comments are visible to
// officers and admins only.
type Comment struct {
	CommentID   string    `json:"id" dynamodbav:"comment_id"`
	ComplaintID string    `json:"complaint_id" dynamodbav:"complaint_id"`
	UserID      string    `json:"user_id" dynamodbav:"user_id"`
	Text        string    `json:"text" dynamodbav:"text"`
	IsInternal  bool      `json:"is_internal" dynamodbav:"is_internal"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
}

type CreateComplaintRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"required,max=2000"`
	Category    string    `json:"category" validate:"required"`
	Priority    string    `json:"priority"`
	Address     string    `json:"address"`
	Location    *GeoPoint `json:"location"`
}

type UpdateComplaintStatusRequest struct {
	Status         string `json:"status" validate:"required"`
	AssignedToID   string `json:"assigned_to_id"`
	ResolutionNote string `json:"resolution_note"`
}

type AddCommentRequest struct {
	Text       string `json:"text" validate:"required,max=500"`
	IsInternal bool   `json:"is_internal"`
}
