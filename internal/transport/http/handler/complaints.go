package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/grievance-portal/api/internal/application/complaint"
	"github.com/grievance-portal/api/internal/domain"
	jwtinfra "github.com/grievance-portal/api/internal/infrastructure/jwt"
	"github.com/grievance-portal/api/internal/pkg/validate"
	"github.com/grievance-portal/api/internal/transport/http/middleware"
)

// maxAttachmentSize caps multipart uploads at 5 MiB per file.
const maxAttachmentSize = 5 << 20

// userDirectory resolves a caller's stored profile. Officer department
// membership lives in the user record, not the token, so it is looked up
// server-side on every scoped request.
type userDirectory interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
}

// ComplaintHandler handles complaint, comment and attachment endpoints.
type ComplaintHandler struct {
	svc   complaint.Service
	users userDirectory
}

func NewComplaintHandler(svc complaint.Service, users userDirectory) *ComplaintHandler {
	return &ComplaintHandler{svc: svc, users: users}
}

func (h *ComplaintHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.CreateComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := h.svc.Create(r.Context(), claims.UserID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	c, err := h.svc.Get(r.Context(), h.actor(r, claims), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ComplaintHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	list, err := h.svc.ListMine(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ComplaintHandler) ListByDepartment(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	deptID := chi.URLParam(r, "departmentID")
	list, err := h.svc.ListByDepartment(r.Context(), h.actor(r, claims), deptID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ComplaintHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.UpdateComplaintStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	c, err := h.svc.UpdateStatus(r.Context(), h.actor(r, claims), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ComplaintHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cm, err := h.svc.AddComment(r.Context(), h.actor(r, claims), chi.URLParam(r, "id"), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cm)
}

func (h *ComplaintHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	list, err := h.svc.ListComments(r.Context(), h.actor(r, claims), chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ComplaintHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := r.ParseMultipartForm(maxAttachmentSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	key, err := h.svc.UploadAttachment(r.Context(), h.actor(r, claims), chi.URLParam(r, "id"), header.Filename, file)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, struct {
		Key string `json:"key"`
	}{Key: key})
}

func (h *ComplaintHandler) AttachmentURL(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing key parameter")
		return
	}
	url, err := h.svc.AttachmentURL(r.Context(), h.actor(r, claims), chi.URLParam(r, "id"), key)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		URL string `json:"url"`
	}{URL: url})
}

func (h *ComplaintHandler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing key parameter")
		return
	}
	rc, contentType, err := h.svc.DownloadAttachment(r.Context(), h.actor(r, claims), chi.URLParam(r, "id"), key)
	if err != nil {
		httpError(w, err)
		return
	}
	defer rc.Close()
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("attachment stream interrupted", "key", key, "err", err)
	}
}

func (h *ComplaintHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	key := r.URL.Query().Get("key")
	if key == "" {
		writeError(w, http.StatusBadRequest, "missing key parameter")
		return
	}
	if err := h.svc.DeleteAttachment(r.Context(), h.actor(r, claims), chi.URLParam(r, "id"), key); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "attachment deleted"})
}

func (h *ComplaintHandler) actor(r *http.Request, claims *jwtinfra.Claims) *complaint.Actor {
	a := &complaint.Actor{UserID: claims.UserID, Role: claims.Role}
	if claims.Role == domain.RoleOfficer {
		if u, err := h.users.Get(r.Context(), claims.UserID); err == nil {
			a.DepartmentID = u.DepartmentID
		}
	}
	return a
}
