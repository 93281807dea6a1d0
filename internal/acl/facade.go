// internal/acl/facade.go
//
// Enforcement facade: the only surface route handlers talk to.
//
// Context
// -------
// Handlers describe a check by fixing the entity and the required role, then
// pick one of three terminal conventions:
//
//	uid, err := guard.Project(id).Admin().Require(r)   // 401/403 on denial
//	uid, err := guard.Secret(id).Read().Optional(r)    // "" on denial
//	ok,  err := guard.Task(id).Use().Check(r)          // plain boolean
//
// The builders are ergonomic sugar over one explicit Access value; every
// terminal funnels through the same evaluate call into the decision engine,
// so the three conventions can never disagree on what counts as granted.
// Infrastructure errors propagate from all three terminals unchanged; only
// Require converts policy denials into errors.
//
// Notes
// -----
// • Role selectors are typed per entity class: Owner/Admin/Developer/Viewer
//   on projects, Read/Write/Use on resources.  Selecting a role from the
//   wrong vocabulary is a programming error and panics at call time, the
//   same way a bad RequireProjectRole registration does.
// • Oxford commas, two spaces after periods.
package acl

import (
	"net/http"

	"github.com/taskgrid/taskgrid/internal/metrics"
)

// Guard wires the principal resolver to the decision engine.  Construct once
// at boot and share; it is stateless per request.
type Guard struct {
	engine   *Engine
	resolver *Resolver
}

// NewGuard builds the enforcement facade.
func NewGuard(engine *Engine, resolver *Resolver) *Guard {
	return &Guard{engine: engine, resolver: resolver}
}

// Access is one fully-described check: entity, id, and required role.  Built
// by the entity helpers below; immutable once a terminal is called.
type Access struct {
	guard      *Guard
	entityType EntityType
	entityID   string
	role       Role
}

/*──────────────────────── entity builders ─────────────────────────────────*/

// Project fixes the check on a project.  Select a project role next.
func (g *Guard) Project(id string) *Access {
	return &Access{guard: g, entityType: EntityProject, entityID: id}
}

// TaskSource fixes the check on a task source.  Select a resource role next.
func (g *Guard) TaskSource(id string) *Access {
	return &Access{guard: g, entityType: EntityTaskSource, entityID: id}
}

// FileSpace fixes the check on a file space.
func (g *Guard) FileSpace(id string) *Access {
	return &Access{guard: g, entityType: EntityFileSpace, entityID: id}
}

// Secret fixes the check on a secret.
func (g *Guard) Secret(id string) *Access {
	return &Access{guard: g, entityType: EntitySecret, entityID: id}
}

// Task fixes the check on a task.
func (g *Guard) Task(id string) *Access {
	return &Access{guard: g, entityType: EntityTask, entityID: id}
}

// Session fixes the check on a task run session.
func (g *Guard) Session(id string) *Access {
	return &Access{guard: g, entityType: EntitySession, entityID: id}
}

// Execution fixes the check on a pipeline execution.
func (g *Guard) Execution(id string) *Access {
	return &Access{guard: g, entityType: EntityExecution, entityID: id}
}

/*──────────────────────── role selectors ──────────────────────────────────*/

func (a *Access) withProjectRole(r Role) *Access {
	if a.entityType != EntityProject {
		panic("acl: project role selected on a non-project entity")
	}
	a.role = r
	return a
}

func (a *Access) withResourceRole(r Role) *Access {
	if a.entityType == EntityProject {
		panic("acl: resource role selected on a project")
	}
	a.role = r
	return a
}

// Owner requires the owner project role.
func (a *Access) Owner() *Access { return a.withProjectRole(RoleOwner) }

// Admin requires at least the admin project role.
func (a *Access) Admin() *Access { return a.withProjectRole(RoleAdmin) }

// Developer requires at least the developer project role.
func (a *Access) Developer() *Access { return a.withProjectRole(RoleDeveloper) }

// Viewer requires at least the viewer project role.
func (a *Access) Viewer() *Access { return a.withProjectRole(RoleViewer) }

// Read requires read on the resource (viewer equivalent).
func (a *Access) Read() *Access { return a.withResourceRole(RoleRead) }

// Write requires write on the resource (developer equivalent).
func (a *Access) Write() *Access { return a.withResourceRole(RoleWrite) }

// Use requires use on the resource (developer equivalent).
func (a *Access) Use() *Access { return a.withResourceRole(RoleUse) }

/*──────────────────────── terminals ───────────────────────────────────────*/

// evaluate resolves the principal (reusing one stored on the context by the
// middleware, if present) and runs the decision engine exactly once.  Every
// terminal goes through here.
func (a *Access) evaluate(r *http.Request) (Principal, bool, error) {
	if a.role == "" {
		panic("acl: no role selected before terminal call")
	}

	p, ok := PrincipalFrom(r.Context())
	if !ok {
		p = a.guard.resolver.Resolve(r)
	}

	kind := "anonymous"
	if p != nil {
		kind = p.Kind()
	}

	granted, err := a.guard.engine.HasAccess(r.Context(), p, a.entityType, a.entityID, a.role)
	if err != nil {
		metrics.AccessCheckErrorsTotal.Inc()
		return p, false, err
	}

	outcome := "deny"
	if granted {
		outcome = "allow"
	}
	metrics.AccessDecisionsTotal.WithLabelValues(kind, outcome).Inc()
	return p, granted, nil
}

// Require returns the principal's identity token, or a *Error carrying 401
// when no principal resolved and 403 when the principal lacks the role.
func (a *Access) Require(r *http.Request) (string, error) {
	p, granted, err := a.evaluate(r)
	if err != nil {
		return "", err
	}
	if p == nil {
		return "", errUnauthenticated()
	}
	if !granted {
		return "", errForbidden(a.role, a.entityType)
	}
	return p.Token(), nil
}

// Optional returns the identity token, or "" when the check is denied for
// any policy reason.  Infrastructure errors still propagate.
func (a *Access) Optional(r *http.Request) (string, error) {
	p, granted, err := a.evaluate(r)
	if err != nil {
		return "", err
	}
	if p == nil || !granted {
		return "", nil
	}
	return p.Token(), nil
}

// Check returns the bare decision, swallowing the 401/403 distinction.  Used
// for "can I show this button" style queries.
func (a *Access) Check(r *http.Request) (bool, error) {
	_, granted, err := a.evaluate(r)
	if err != nil {
		return false, err
	}
	return granted, nil
}
