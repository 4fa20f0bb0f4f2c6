package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHeaderResolver(t *testing.T) {
	cases := []struct {
		name     string
		headers  map[string]string
		fallback User
		want     User
		wantErr  error
	}{
		{
			name:    "full headers",
			headers: map[string]string{HeaderUser: "u-1", HeaderEmail: "ada@example.com", HeaderUsername: "Ada"},
			want:    User{ID: "u-1", Email: "ada@example.com", DisplayName: "Ada"},
		},
		{
			name:    "email only",
			headers: map[string]string{HeaderEmail: "ada@example.com"},
			want:    User{ID: "ada@example.com", Email: "ada@example.com"},
		},
		{
			name:     "fallback user",
			fallback: User{ID: "dev", Email: "dev@localhost"},
			want:     User{ID: "dev", Email: "dev@localhost"},
		},
		{
			name:    "no identity",
			wantErr: ErrUnauthenticated,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			got, err := HeaderResolver{Fallback: tc.fallback}.CurrentUser(req)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Fatalf("user = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestUserName(t *testing.T) {
	if got := (User{ID: "x", Email: "ada@example.com"}).Name(); got != "ada" {
		t.Fatalf("Name() = %q", got)
	}
	if got := (User{ID: "x", DisplayName: "Ada L"}).Name(); got != "Ada L" {
		t.Fatalf("Name() = %q", got)
	}
	if got := (User{ID: "x"}).Name(); got != "x" {
		t.Fatalf("Name() = %q", got)
	}
}

func TestMiddleware(t *testing.T) {
	var seen User
	h := Middleware(HeaderResolver{}, "/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUser, "u-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent || seen.ID != "u-1" {
		t.Fatalf("authenticated: code=%d user=%+v", rr.Code, seen)
	}

	req = httptest.NewRequest(http.MethodGet, "/expenses", nil)
	req.Header.Set("Accept", "text/html")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusSeeOther || rr.Header().Get("Location") != "/login" {
		t.Fatalf("page redirect: code=%d loc=%q", rr.Code, rr.Header().Get("Location"))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	req.Header.Set("Accept", "text/html")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("api: code=%d", rr.Code)
	}
}

func TestFromContextEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := FromContext(req.Context()); ok {
		t.Fatal("expected no user")
	}
}
