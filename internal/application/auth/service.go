package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/grievance-portal/api/internal/domain"
	"github.com/grievance-portal/api/internal/pkg/id"
	"github.com/grievance-portal/api/internal/pkg/otp"
	"github.com/grievance-portal/api/internal/pkg/password"
	"github.com/grievance-portal/api/internal/pkg/resettoken"
)

// otpTTL is how long an emailed verification code stays valid.
const otpTTL = 10 * time.Minute

type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
}

type VerifyOTPRequest struct {
	OTP string `json:"otp" validate:"required,len=6,numeric"`
}

// AuthResult is returned by every flow that ends with a fresh session token.
type AuthResult struct {
	Token string
	User  *domain.User
}

// Profile is a user together with the resolved department, for /me.
type Profile struct {
	User       *domain.User       `json:"user"`
	Department *domain.Department `json:"department,omitempty"`
}

type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req domain.LoginRequest) (*AuthResult, error)
	VerifyEmail(ctx context.Context, userID, code string) error
	ResendOTP(ctx context.Context, userID string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, plaintextToken, newPassword string) (*AuthResult, error)
	UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) (*AuthResult, error)
	Me(ctx context.Context, userID string) (*Profile, error)
	UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error)

	// Admin surface.
	ListUsers(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	UpdateUserRole(ctx context.Context, userID, role, departmentID string) (*domain.User, error)
	SetUserActive(ctx context.Context, userID string, active bool) (*domain.User, error)
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	SetResetToken(ctx context.Context, userID, tokenHash string, expiresAt int64) error
	ConsumeResetToken(ctx context.Context, tokenHash, newPasswordHash string, now int64) (*domain.User, error)
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
}

type departmentStore interface {
	Get(ctx context.Context, departmentID string) (*domain.Department, error)
}

type mailer interface {
	SendEmail(to, subject, htmlBody string) error
}

type smsSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

type jwtSigner interface {
	Sign(userID, role string) (string, error)
}

// signToken guards against a service wired without signing keys. The
// server can boot in that degraded state, so the failure has to surface
// as an error rather than a nil dereference.
func (s *service) signToken(u *domain.User) (string, error) {
	if s.jwtProvider == nil {
		return "", errors.New("session token signing is not configured")
	}
	return s.jwtProvider.Sign(u.UserID, u.Role)
}

// codeRegistry is the OTP store. Its Verify is an atomic check-and-consume.
type codeRegistry interface {
	Issue(identifier, code string, ttl time.Duration)
	Verify(identifier, code string) otp.Result
}

type service struct {
	users       userStore
	departments departmentStore
	otps        codeRegistry
	mailer      mailer
	sms         smsSender
	jwtProvider jwtSigner
	clientURL   string
	now         func() time.Time
}

type ServiceDeps struct {
	UserRepo       userStore
	DepartmentRepo departmentStore
	OTPRegistry    codeRegistry
	Mailer         mailer
	SMSSender      smsSender // optional; nil disables SMS delivery
	JWTProvider    jwtSigner
	ClientURL      string
	Now            func() time.Time // defaults to time.Now
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users:       deps.UserRepo,
		departments: deps.DepartmentRepo,
		otps:        deps.OTPRegistry,
		mailer:      deps.Mailer,
		sms:         deps.SMSSender,
		jwtProvider: deps.JWTProvider,
		clientURL:   deps.ClientURL,
		now:         now,
	}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*AuthResult, error) {
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("user with this email or phone already exists: %w", domain.ErrConflict)
	}
	if _, err := s.users.GetByPhone(ctx, req.Phone); err == nil {
		return nil, fmt.Errorf("user with this email or phone already exists: %w", domain.ErrConflict)
	}
	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &domain.User{
		UserID:       id.New(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         domain.RoleCitizen,
		Address:      req.Address,
		Location:     req.Location,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Put(ctx, u); err != nil {
		return nil, err
	}

	// The account is created either way; verification email delivery is
	// best-effort and the user can ask for a resend.
	s.issueAndSendOTP(ctx, u)

	token, err := s.signToken(u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}

func (s *service) Login(ctx context.Context, req domain.LoginRequest) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, req.EmailOrPhone)
	if err != nil {
		u, err = s.users.GetByPhone(ctx, req.EmailOrPhone)
		if err != nil {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
	}
	ok, err := password.Verify(req.Password, u.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if !u.Active {
		return nil, fmt.Errorf("your account has been deactivated: %w", domain.ErrForbidden)
	}
	token, err := s.signToken(u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}

func (s *service) VerifyEmail(ctx context.Context, userID, code string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	res := s.otps.Verify(u.Email, code)
	if !res.Valid {
		return fmt.Errorf("%s: %w", res.Reason, domain.ErrInvalidOrExpired)
	}
	return s.users.Update(ctx, userID, map[string]interface{}{"verified": true})
}

func (s *service) ResendOTP(ctx context.Context, userID string) error {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.Verified {
		return fmt.Errorf("email is already verified: %w", domain.ErrBadRequest)
	}
	s.issueAndSendOTP(ctx, u)
	return nil
}

// ForgotPassword rejects unknown emails outright. This mirrors the portal's
// existing behavior and does reveal account existence; see DESIGN.md.
func (s *service) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("no user found with this email: %w", domain.ErrNotFound)
	}

	plaintext, hash, err := resettoken.Generate()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(resettoken.TTL).Unix()
	if err := s.users.SetResetToken(ctx, u.UserID, hash, expiresAt); err != nil {
		return err
	}

	resetURL := fmt.Sprintf("%s/reset-password/%s", s.clientURL, plaintext)
	body := fmt.Sprintf(`<h1>Password Reset Request</h1>
<p>Hi %s,</p>
<p>Click the link below to reset your password:</p>
<a href="%s" target="_blank">Reset Password</a>
<p>This link is valid for 30 minutes.</p>`, u.Name, resetURL)
	if err := s.mailer.SendEmail(u.Email, "Password Reset Request - Grievance Portal", body); err != nil {
		slog.Warn("failed to send password reset email", "user_id", u.UserID, "err", err)
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, plaintextToken, newPassword string) (*AuthResult, error) {
	newHash, err := password.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	u, err := s.users.ConsumeResetToken(ctx, resettoken.Hash(plaintextToken), newHash, s.now().Unix())
	if err != nil {
		return nil, err
	}
	token, err := s.signToken(u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}

func (s *service) UpdatePassword(ctx context.Context, userID, currentPassword, newPassword string) (*AuthResult, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	ok, err := password.Verify(currentPassword, u.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("current password is incorrect: %w", domain.ErrUnauthorized)
	}
	hash, err := password.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, userID, map[string]interface{}{"password_hash": hash}); err != nil {
		return nil, err
	}
	token, err := s.signToken(u)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: u}, nil
}

func (s *service) Me(ctx context.Context, userID string) (*Profile, error) {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := &Profile{User: u}
	if u.DepartmentID != "" {
		d, err := s.departments.Get(ctx, u.DepartmentID)
		if err != nil {
			slog.Warn("failed to resolve user department", "user_id", userID, "department_id", u.DepartmentID, "err", err)
		} else {
			p.Department = d
		}
	}
	return p, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID string, req domain.UpdateProfileRequest) (*domain.User, error) {
	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		if existing, err := s.users.GetByPhone(ctx, *req.Phone); err == nil && existing.UserID != userID {
			return nil, fmt.Errorf("phone already in use: %w", domain.ErrConflict)
		}
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.Location != nil {
		updates["location"] = req.Location
	}
	if len(updates) == 0 {
		return s.users.Get(ctx, userID)
	}
	if err := s.users.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.users.Get(ctx, userID)
}

func (s *service) ListUsers(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.users.ScanPage(ctx, limit, cursor)
}

// UpdateUserRole changes a user's role. Officers must be attached to an
// existing department; any other role clears the department link.
func (s *service) UpdateUserRole(ctx context.Context, userID, role, departmentID string) (*domain.User, error) {
	switch role {
	case domain.RoleCitizen, domain.RoleOfficer, domain.RoleAdmin:
	default:
		return nil, fmt.Errorf("unknown role %q: %w", role, domain.ErrBadRequest)
	}
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{"role": role}
	if role == domain.RoleOfficer {
		if departmentID == "" {
			return nil, fmt.Errorf("officers require a department: %w", domain.ErrBadRequest)
		}
		if _, err := s.departments.Get(ctx, departmentID); err != nil {
			return nil, err
		}
		updates["department_id"] = departmentID
	} else {
		updates["department_id"] = ""
	}
	if err := s.users.Update(ctx, userID, updates); err != nil {
		return nil, err
	}
	return s.users.Get(ctx, userID)
}

func (s *service) SetUserActive(ctx context.Context, userID string, active bool) (*domain.User, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, userID, map[string]interface{}{"active": active}); err != nil {
		return nil, err
	}
	return s.users.Get(ctx, userID)
}

// issueAndSendOTP generates a fresh code, overwrites any outstanding one for
// the user's email, and attempts delivery. Delivery failure is logged, never
// propagated: the state transition has already committed.
func (s *service) issueAndSendOTP(ctx context.Context, u *domain.User) {
	code, err := otp.Generate()
	if err != nil {
		slog.Error("failed to generate OTP", "user_id", u.UserID, "err", err)
		return
	}
	s.otps.Issue(u.Email, code, otpTTL)

	body := fmt.Sprintf(`<h1>Email Verification</h1>
<p>Hi %s,</p>
<p>Your OTP for email verification is: <strong>%s</strong></p>
<p>This OTP is valid for 10 minutes.</p>`, u.Name, code)
	if err := s.mailer.SendEmail(u.Email, "Email Verification - Grievance Portal", body); err != nil {
		slog.Warn("failed to send verification email", "user_id", u.UserID, "err", err)
	}
	if s.sms != nil && u.Phone != "" {
		msg := fmt.Sprintf("Grievance Portal verification code: %s (valid 10 minutes)", code)
		if err := s.sms.SendSMS(ctx, u.Phone, msg); err != nil {
			slog.Warn("failed to send verification SMS", "user_id", u.UserID, "err", err)
		}
	}
}
