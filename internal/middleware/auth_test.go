package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/bugtrack/internal/model"
)

// mockVerifier はTokenVerifierのモック実装。
type mockVerifier struct {
	verifyFn func(tokenString string) (*model.Identity, error)
}

func (m *mockVerifier) Verify(tokenString string) (*model.Identity, error) {
	if m.verifyFn != nil {
		return m.verifyFn(tokenString)
	}
	return nil, errors.New("not implemented")
}

func TestAuthMiddleware_MissingToken_ReturnsUnauthorized(t *testing.T) {
	mw := NewAuthMiddleware(&mockVerifier{})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/bugs/mybugs", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_InvalidToken_ReturnsBadRequest(t *testing.T) {
	verifier := &mockVerifier{
		verifyFn: func(tokenString string) (*model.Identity, error) {
			return nil, errors.New("signature is invalid")
		},
	}
	mw := NewAuthMiddleware(verifier)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/bugs/mybugs", nil)
	req.Header.Set("Authorization", "Bearer tampered-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAuthMiddleware_ValidToken_InjectsIdentity(t *testing.T) {
	want := model.Identity{
		UserID:        "user-1",
		Role:          model.RoleManager,
		DeveloperType: model.DeveloperTypeNone,
	}
	verifier := &mockVerifier{
		verifyFn: func(tokenString string) (*model.Identity, error) {
			if tokenString != "valid-token" {
				t.Errorf("token = %q, want %q", tokenString, "valid-token")
			}
			return &want, nil
		},
	}

	called := false
	mw := NewAuthMiddleware(verifier)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		identity, err := IdentityFromContext(r.Context())
		if err != nil {
			t.Fatalf("IdentityFromContext() error = %v", err)
		}
		if identity != want {
			t.Errorf("identity = %+v, want %+v", identity, want)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/bugs/mybugs", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !called {
		t.Error("expected handler to be called")
	}
}

func TestManagerOnlyMiddleware_DeveloperForbidden(t *testing.T) {
	mw := NewManagerOnlyMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodPost, "/projects/create", nil)
	ctx := ContextWithIdentity(req.Context(), model.Identity{
		UserID: "user-1",
		Role:   model.RoleDeveloper,
	})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req.WithContext(ctx))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestManagerOnlyMiddleware_ManagerPasses(t *testing.T) {
	called := false
	mw := NewManagerOnlyMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodPost, "/projects/create", nil)
	ctx := ContextWithIdentity(req.Context(), model.Identity{
		UserID: "user-1",
		Role:   model.RoleManager,
	})
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req.WithContext(ctx))

	if !called {
		t.Error("expected handler to be called for manager")
	}
}

func TestManagerOnlyMiddleware_NoIdentity_ReturnsUnauthorized(t *testing.T) {
	mw := NewManagerOnlyMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodPost, "/projects/create", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestBearerToken_Parsing(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc123", "abc123"},
		{"bearer abc123", "abc123"}, // スキームは大文字小文字を区別しない
		{"Basic dXNlcjpwYXNz", ""},
		{"Bearer", ""},
		{"Bearer  abc123", "abc123"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		if got := bearerToken(req); got != tt.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestIdentityFromContext_MissingIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := IdentityFromContext(req.Context()); err == nil {
		t.Error("expected error when identity is missing")
	}
}
