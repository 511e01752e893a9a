package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/eduledger/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestUser represents the caller injected into handler tests.
type TestUser struct {
	ID   string
	Name string
	Role string
}

func roleUser(name, role string) TestUser {
	return TestUser{ID: primitive.NewObjectID().Hex(), Name: name, Role: role}
}

func DirectorUser() TestUser   { return roleUser("Test Director", "Director") }
func AdminUser() TestUser      { return roleUser("Test Admin", "Admin") }
func ManagerUser() TestUser    { return roleUser("Test Manager", "Manager") }
func AccountantUser() TestUser { return roleUser("Test Accountant", "Accountant") }
func StudentUser() TestUser    { return roleUser("Test Student", "Student") }

// TeacherUser returns a caller for an existing Teacher user, so that group
// ownership checks resolve through the teachers collection.
func TeacherUser(userID primitive.ObjectID) TestUser {
	return TestUser{ID: userID.Hex(), Name: "Test Teacher", Role: "Teacher"}
}

// WithUser injects user as the authenticated caller.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithUser(r, &auth.User{ID: user.ID, Name: user.Name, Role: user.Role})
}

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that call handler methods directly.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	return WithChiURLParams(r, map[string]string{key: value})
}

// WithChiURLParams adds several chi URL parameters at once.
func WithChiURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// NewJSONRequest builds a request whose body is body encoded as JSON.
// A string body is sent verbatim.
func NewJSONRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		buf, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		rd = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// DecodeJSON unmarshals the recorder body into v.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response %q: %v", rec.Body.String(), err)
	}
}

// AssertStatus fails the test when the recorder's status differs.
func AssertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}
