// internal/web/handlers.go
//
// JSON route handlers for the platform API surface.
//
// Context
// -------
// Handlers never query the grant table themselves; every decision goes
// through the ACL facade, and the one bulk query (visible-project listing)
// goes through AccessibleProjectIDs.  Handler code therefore stays thin:
// enforce, fetch, encode.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package web

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/taskgrid/taskgrid/internal/acl"
	"github.com/taskgrid/taskgrid/internal/project"
	"github.com/taskgrid/taskgrid/internal/requestinfo"
	"github.com/taskgrid/taskgrid/internal/secret"
)

// Handler bundles the dependencies the route handlers need.
type Handler struct {
	db          *sqlx.DB
	guard       *acl.Guard
	creatorRole acl.Role // granted to project creators, from config
}

// New builds the handler set.
func New(db *sqlx.DB, guard *acl.Guard, creatorRole acl.Role) *Handler {
	return &Handler{db: db, guard: guard, creatorRole: creatorRole}
}

// Routes returns the API router.  Project deletion is gated at the router
// level via RequireProjectRole; everything else enforces inline because the
// handler also needs the caller's identity token.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/projects", h.listProjects)
	r.Post("/projects", h.createProject)
	r.Get("/projects/{projectID}", h.getProject)
	r.With(acl.RequireProjectRole(h.guard, acl.RoleOwner)).
		Delete("/projects/{projectID}", h.deleteProject)
	r.Post("/projects/{projectID}/grants", h.createGrant)
	r.Delete("/projects/{projectID}/grants", h.deleteGrant)
	r.Get("/secrets/{secretID}", h.getSecret)
	return r
}

/*──────────────────────────── projects ────────────────────────────────────*/

// listProjects returns the projects visible to the caller.  Users see the
// projects they hold any grant on, API keys see their bound project, and
// internal services see everything.
func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	p, _ := acl.PrincipalFrom(r.Context())

	var (
		rows []project.Record
		err  error
	)
	switch pr := p.(type) {
	case acl.ServicePrincipal:
		rows, err = project.All(r.Context(), h.db)
	case acl.APIKeyPrincipal:
		rows, err = project.ByIDs(r.Context(), h.db, []string{pr.ProjectID})
	case acl.UserPrincipal:
		var ids []string
		ids, err = acl.AccessibleProjectIDs(r.Context(), h.db, pr.UserID)
		if err == nil {
			rows, err = project.ByIDs(r.Context(), h.db, ids)
		}
	default:
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	if err != nil {
		serverError(w, "list projects", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": rows})
}

// createProject inserts a project and auto-grants the creator.
func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	p, _ := acl.PrincipalFrom(r.Context())
	user, ok := p.(acl.UserPrincipal)
	if !ok {
		// Only humans own projects; keys and services do not create them.
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	rec := &project.Record{
		ID:        uuid.NewString(),
		Name:      body.Name,
		CreatedBy: user.UserID,
	}
	if err := project.Insert(r.Context(), h.db, rec); err != nil {
		serverError(w, "insert project", err)
		return
	}

	grant := acl.AccessGrant{
		UserID:     user.UserID,
		EntityType: acl.EntityProject,
		EntityID:   rec.ID,
		Role:       h.creatorRole,
		GrantedBy:  user.UserID,
	}
	if err := acl.UpsertGrant(r.Context(), h.db, grant); err != nil {
		serverError(w, "grant creator", err)
		return
	}

	auditGrant(r, "granted", grant)
	writeJSON(w, http.StatusCreated, rec)
}

// getProject requires viewer and decorates the response with what else the
// caller could do, for the UI.
func (h *Handler) getProject(w http.ResponseWriter, r *http.Request) {
	pid := chi.URLParam(r, "projectID")

	if _, err := h.guard.Project(pid).Viewer().Require(r); err != nil {
		denied(w, err)
		return
	}

	rec, err := project.ByID(r.Context(), h.db, pid)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	if err != nil {
		serverError(w, "get project", err)
		return
	}

	canAdmin, err := h.guard.Project(pid).Admin().Check(r)
	if err != nil {
		serverError(w, "admin check", err)
		return
	}
	ownerToken, err := h.guard.Project(pid).Owner().Optional(r)
	if err != nil {
		serverError(w, "owner check", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"project":   rec,
		"can_admin": canAdmin,
		"is_owner":  ownerToken != "",
	})
}

// deleteProject soft-deletes; the owner gate already ran in middleware.
func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	pid := chi.URLParam(r, "projectID")

	n, err := project.SoftDelete(r.Context(), h.db, pid)
	if err != nil {
		serverError(w, "delete project", err)
		return
	}
	if n == 0 {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

/*──────────────────────────── grants ──────────────────────────────────────*/

// grantBody is the payload for grant and revoke calls.
type grantBody struct {
	UserID     string     `json:"user_id"`
	EntityType string     `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Role       string     `json:"role"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// parse validates the payload against the closed vocabularies and checks the
// target entity actually belongs to the project being administered, so an
// admin of one project cannot mint grants into another.
func (h *Handler) parseGrantBody(r *http.Request, pid string) (acl.AccessGrant, int, error) {
	var body grantBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return acl.AccessGrant{}, http.StatusBadRequest, errors.New("malformed payload")
	}
	if body.UserID == "" || body.EntityID == "" {
		return acl.AccessGrant{}, http.StatusBadRequest, errors.New("user_id and entity_id are required")
	}

	et, err := acl.ParseEntityType(body.EntityType)
	if err != nil {
		return acl.AccessGrant{}, http.StatusBadRequest, err
	}
	role, err := acl.ParseRole(body.Role)
	if err != nil {
		return acl.AccessGrant{}, http.StatusBadRequest, err
	}
	if et == acl.EntityProject && !role.IsProjectRole() {
		return acl.AccessGrant{}, http.StatusBadRequest, errors.New("resource roles never apply to projects")
	}
	if et != acl.EntityProject && !role.IsResourceRole() {
		return acl.AccessGrant{}, http.StatusBadRequest, errors.New("project roles never apply to resources")
	}

	owner, found, err := acl.ResolveProjectID(r.Context(), h.db, et, body.EntityID)
	if err != nil {
		return acl.AccessGrant{}, http.StatusInternalServerError, err
	}
	if !found || owner != pid {
		return acl.AccessGrant{}, http.StatusBadRequest, errors.New("entity does not belong to this project")
	}

	return acl.AccessGrant{
		UserID:     body.UserID,
		EntityType: et,
		EntityID:   body.EntityID,
		Role:       role,
		ExpiresAt:  body.ExpiresAt,
	}, 0, nil
}

func (h *Handler) createGrant(w http.ResponseWriter, r *http.Request) {
	pid := chi.URLParam(r, "projectID")

	adminToken, err := h.guard.Project(pid).Admin().Require(r)
	if err != nil {
		denied(w, err)
		return
	}

	grant, status, err := h.parseGrantBody(r, pid)
	if err != nil {
		if status == http.StatusInternalServerError {
			serverError(w, "resolve grant target", err)
			return
		}
		http.Error(w, err.Error(), status)
		return
	}
	grant.GrantedBy = adminToken

	if err := acl.UpsertGrant(r.Context(), h.db, grant); err != nil {
		serverError(w, "upsert grant", err)
		return
	}
	auditGrant(r, "granted", grant)
	writeJSON(w, http.StatusCreated, map[string]any{"status": "granted"})
}

func (h *Handler) deleteGrant(w http.ResponseWriter, r *http.Request) {
	pid := chi.URLParam(r, "projectID")

	if _, err := h.guard.Project(pid).Admin().Require(r); err != nil {
		denied(w, err)
		return
	}

	grant, status, err := h.parseGrantBody(r, pid)
	if err != nil {
		if status == http.StatusInternalServerError {
			serverError(w, "resolve revoke target", err)
			return
		}
		http.Error(w, err.Error(), status)
		return
	}

	role := grant.Role
	n, err := acl.DeleteGrant(r.Context(), h.db, grant.UserID, grant.EntityType,
		grant.EntityID, &role)
	if err != nil {
		serverError(w, "delete grant", err)
		return
	}
	auditGrant(r, "revoked", grant)
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}

/*──────────────────────────── secrets ─────────────────────────────────────*/

func (h *Handler) getSecret(w http.ResponseWriter, r *http.Request) {
	sid := chi.URLParam(r, "secretID")

	if _, err := h.guard.Secret(sid).Read().Require(r); err != nil {
		denied(w, err)
		return
	}

	rec, err := secret.ByID(r.Context(), h.db, sid)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	if err != nil {
		serverError(w, "get secret", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

// denied maps a facade error onto the response: 401/403 pass through with
// their message, anything else is an infrastructure failure.
func denied(w http.ResponseWriter, err error) {
	status := acl.StatusOf(err)
	if status == http.StatusInternalServerError {
		serverError(w, "access check", err)
		return
	}
	http.Error(w, err.Error(), status)
}

func serverError(w http.ResponseWriter, msg string, err error) {
	zap.L().Error(msg, zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

// auditGrant records who changed which grant, from where, with what client.
func auditGrant(r *http.Request, action string, g acl.AccessGrant) {
	info := requestinfo.FromRequest(r)
	zap.L().Info("grant "+action,
		zap.String("user_id", g.UserID),
		zap.String("entity_type", string(g.EntityType)),
		zap.String("entity_id", g.EntityID),
		zap.String("role", string(g.Role)),
		zap.String("granted_by", g.GrantedBy),
		zap.String("ip", info.IP.String()),
		zap.String("browser", info.UA.Browser),
		zap.Bool("bot", info.UA.IsBot),
	)
}
