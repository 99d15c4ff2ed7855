package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mchalk/repset/internal/auth"
	"github.com/mchalk/repset/internal/database"
	"github.com/mchalk/repset/internal/model"
	"github.com/mchalk/repset/internal/store"
)

func setupAuthMiddlewareDB(t *testing.T) (*store.SessionStore, *store.StaffStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewSessionStore(db), store.NewStaffStore(db)
}

func TestRequireStaffNoCookie(t *testing.T) {
	ss, sf := setupAuthMiddlewareDB(t)

	handler := RequireStaff(ss, sf)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/api/members", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireStaffInvalidToken(t *testing.T) {
	ss, sf := setupAuthMiddlewareDB(t)

	handler := RequireStaff(ss, sf)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/api/members", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "invalid-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireStaffValidSession(t *testing.T) {
	ss, sf := setupAuthMiddlewareDB(t)

	staff, err := sf.Create("front@example.com", "Front Desk", "hash", model.RoleStaff)
	if err != nil {
		t.Fatalf("create staff: %v", err)
	}
	sess, err := ss.Create(staff.ID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var gotSC auth.StaffContext
	handler := RequireStaff(ss, sf)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sc, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected StaffContext in request context")
		}
		gotSC = sc
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/api/members", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotSC.StaffID != staff.ID {
		t.Errorf("StaffID = %d, want %d", gotSC.StaffID, staff.ID)
	}
	if gotSC.Role != model.RoleStaff {
		t.Errorf("Role = %q, want %q", gotSC.Role, model.RoleStaff)
	}
}

func TestRequireAdmin(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	adminReq := httptest.NewRequest("POST", "/api/retention/run", nil)
	adminCtx := auth.WithStaff(adminReq.Context(), auth.StaffContext{StaffID: 1, Role: model.RoleAdmin})
	rec := httptest.NewRecorder()
	RequireAdmin(next).ServeHTTP(rec, adminReq.WithContext(adminCtx))
	if rec.Code != http.StatusOK {
		t.Errorf("admin: status = %d, want %d", rec.Code, http.StatusOK)
	}

	staffReq := httptest.NewRequest("POST", "/api/retention/run", nil)
	staffCtx := auth.WithStaff(staffReq.Context(), auth.StaffContext{StaffID: 2, Role: model.RoleStaff})
	rec = httptest.NewRecorder()
	RequireAdmin(next).ServeHTTP(rec, staffReq.WithContext(staffCtx))
	if rec.Code != http.StatusForbidden {
		t.Errorf("staff: status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
