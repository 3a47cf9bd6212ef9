// Package auth is the authorization layer over the entity store and the
// session manager: role membership checks plus a default-deny entity access
// matrix evaluated against the current session.
package auth

import (
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/session"
)

// Entity type names accepted by CanAccessEntity.
const (
	EntityStudent        = "student"
	EntityParent         = "parent"
	EntityTeacher        = "teacher"
	EntityAttendance     = "attendance"
	EntityMarks          = "marks"
	EntityFee            = "fee"
	EntityComplaint      = "complaint"
	EntityBehaviorRemark = "behaviorRemark"
	EntityCertificate    = "certificate"
	EntityMessage        = "message"
)

// Guard answers permission questions for the logged-in user.
type Guard struct {
	store    *school.Store
	sessions *session.Manager
	log      core.Logger
}

func NewGuard(store *school.Store, sessions *session.Manager, log core.Logger) *Guard {
	return &Guard{store: store, sessions: sessions, log: log}
}

// Login authenticates against the store and, on success, starts a session.
func (g *Guard) Login(email, password string) (school.AuthResult, error) {
	res, err := g.store.Authenticate(email, password)
	if err != nil {
		return school.AuthResult{}, err
	}
	if !res.Success {
		return res, nil
	}
	if err = g.sessions.Start(*res.User); err != nil {
		return school.AuthResult{}, errors.Wrap(err, "starting session")
	}
	return res, nil
}

func (g *Guard) Logout() error {
	return g.sessions.End()
}

// HasPermission reports whether the current user's role is one of the given
// roles. No session means no permissions.
func (g *Guard) HasPermission(roles ...string) bool {
	usr, ok := g.sessions.CurrentUser()
	if !ok {
		return false
	}
	for _, role := range roles {
		if usr.Role == role {
			return true
		}
	}
	return false
}

// CanAccessEntity reports whether the current user may access the entity
// identified by entityID: a student ID for student-scoped types, a Parent or
// Teacher record ID for those types (self-access only). Unknown entity types
// and lookup failures deny.
//
// Messages are always allowed for any authenticated user; per-participant
// scoping for messages is not enforced here.
func (g *Guard) CanAccessEntity(entityType, entityID string) bool {
	usr, ok := g.sessions.CurrentUser()
	if !ok {
		return false
	}
	if usr.Role == school.RoleAdmin {
		return true
	}
	if entityType == EntityMessage {
		return true
	}

	// parent and teacher records are only reachable by their owner
	switch entityType {
	case EntityParent:
		if usr.Role != school.RoleParent {
			return false
		}
		par, err := g.store.ParentByUserID(usr.ID)
		if err != nil {
			g.deny(err)
			return false
		}
		return par.ID == entityID
	case EntityTeacher:
		if usr.Role != school.RoleTeacher {
			return false
		}
		tch, err := g.store.TeacherByUserID(usr.ID)
		if err != nil {
			g.deny(err)
			return false
		}
		return tch.ID == entityID
	}

	switch entityType {
	case EntityStudent, EntityAttendance, EntityMarks, EntityFee,
		EntityComplaint, EntityBehaviorRemark, EntityCertificate:
	default:
		return false
	}

	switch usr.Role {
	case school.RoleStudent:
		st, err := g.store.StudentByUserID(usr.ID)
		if err != nil {
			g.deny(err)
			return false
		}
		return st.ID == entityID

	case school.RoleParent:
		par, err := g.store.ParentByUserID(usr.ID)
		if err != nil {
			g.deny(err)
			return false
		}
		return par.HasChild(entityID)

	case school.RoleTeacher:
		tch, err := g.store.TeacherByUserID(usr.ID)
		if err != nil {
			g.deny(err)
			return false
		}
		st, err := g.store.StudentByID(entityID)
		if err != nil {
			g.deny(err)
			return false
		}
		return tch.IsAssigned(st.ClassSection())
	}
	return false
}

func (g *Guard) deny(err error) {
	if !errors.Is(err, school.ErrNotFound) {
		g.log.Error("entity access check", err)
	}
}
