package middleware

import (
	"net/http"

	"github.com/mchalk/repset/internal/auth"
	"github.com/mchalk/repset/internal/store"
)

const sessionCookieName = "repset_session"

// RequireStaff validates the session cookie and populates the staff context.
// API consumers get a plain 401; there is no browser login page to redirect to.
func RequireStaff(sessionStore *store.SessionStore, staffStore *store.StaffStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			sess, err := sessionStore.GetByToken(cookie.Value)
			if err != nil || sess == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			staff, err := staffStore.GetByID(sess.StaffID)
			if err != nil || staff == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			sc := auth.StaffContext{
				StaffID:   staff.ID,
				Role:      staff.Role,
				SessionID: sess.ID,
			}

			ctx := auth.WithStaff(r.Context(), sc)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin checks that the authenticated staff user has the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAdmin(r.Context()) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
