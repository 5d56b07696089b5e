package http

import (
	"github.com/grievance-portal/api/internal/infrastructure/dynamo"
	jwtinfra "github.com/grievance-portal/api/internal/infrastructure/jwt"
	s3infra "github.com/grievance-portal/api/internal/infrastructure/s3"
	"github.com/grievance-portal/api/internal/infrastructure/smtp"
	"github.com/grievance-portal/api/internal/infrastructure/sns"
	"github.com/grievance-portal/api/internal/pkg/otp"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         *dynamo.UserRepo
	ComplaintRepo    *dynamo.ComplaintRepo
	CommentRepo      *dynamo.CommentRepo
	DepartmentRepo   *dynamo.DepartmentRepo
	NotificationRepo *dynamo.NotificationRepo
	AttachmentStore  *s3infra.Store
	OTPRegistry      *otp.Registry
	Mailer           smtp.Mailer
	SMSSender        sns.SMSSender
	JWTProvider      *jwtinfra.Provider
}
