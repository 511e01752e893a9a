// internal/app/policy/grouppolicy/grouppolicy.go
package grouppolicy

import (
	"context"
	"errors"

	groupstore "github.com/dalemusser/eduledger/internal/app/store/groups"
	teacherstore "github.com/dalemusser/eduledger/internal/app/store/teachers"
	"github.com/dalemusser/eduledger/internal/app/system/authz"
	"github.com/dalemusser/eduledger/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// TeacherProfileID resolves the teaching profile of a user. ok is false when
// the user has no profile.
func TeacherProfileID(ctx context.Context, db *mongo.Database, userID primitive.ObjectID) (primitive.ObjectID, bool, error) {
	t, err := teacherstore.New(db).GetByUserID(ctx, userID)
	if errors.Is(err, teacherstore.ErrNotFound) {
		return primitive.NilObjectID, false, nil
	}
	if err != nil {
		return primitive.NilObjectID, false, err
	}
	return t.ID, true, nil
}

// CanActOnGroup reports whether a caller granted a capability at scope may
// use it on g:
//   - ScopeAll reaches every group
//   - ScopeOwnGroups reaches only groups whose teacher profile belongs to the caller
//
// Returns an error if the profile lookup fails, so callers can tell
// "not authorized" (false, nil) from "database error" (false, err).
func CanActOnGroup(ctx context.Context, db *mongo.Database, caller authz.Caller, scope authz.Scope, g models.Group) (bool, error) {
	switch scope {
	case authz.ScopeAll:
		return true, nil
	case authz.ScopeOwnGroups:
		tid, ok, err := TeacherProfileID(ctx, db, caller.UserID)
		if err != nil || !ok {
			return false, err
		}
		return g.TeacherID == tid, nil
	}
	return false, nil
}

// VisibleGroupIDs returns the groups a scoped caller may see. A nil slice
// means "no restriction"; an empty non-nil slice means "none".
func VisibleGroupIDs(ctx context.Context, db *mongo.Database, caller authz.Caller, scope authz.Scope) ([]primitive.ObjectID, error) {
	if scope == authz.ScopeAll {
		return nil, nil
	}
	tid, ok, err := TeacherProfileID(ctx, db, caller.UserID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []primitive.ObjectID{}, nil
	}
	ids, err := groupstore.New(db).IDsByTeacher(ctx, tid)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []primitive.ObjectID{}
	}
	return ids, nil
}

// CanSeeStudent reports whether the caller may see st: at ScopeAll always,
// at ScopeOwnGroups when st is in one of the caller's groups by either link.
func CanSeeStudent(ctx context.Context, db *mongo.Database, caller authz.Caller, scope authz.Scope, st models.Student) (bool, error) {
	ids, err := VisibleGroupIDs(ctx, db, caller, scope)
	if err != nil {
		return false, err
	}
	if ids == nil {
		return true, nil
	}
	gs := groupstore.New(db)
	for _, id := range ids {
		if id == st.GroupID {
			return true, nil
		}
		g, err := gs.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, groupstore.ErrNotFound) {
				continue
			}
			return false, err
		}
		if g.HasStudent(st.ID) {
			return true, nil
		}
	}
	return false, nil
}
