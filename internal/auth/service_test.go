package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgAuth "github.com/angelmondragon/sweetshop-backend/pkg/auth"
	"github.com/angelmondragon/sweetshop-backend/pkg/auth/session"
	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	"github.com/angelmondragon/sweetshop-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
	redisclient "github.com/angelmondragon/sweetshop-backend/pkg/redis"
)

var fastArgon = config.PasswordConfig{
	ArgonMemoryKB:    64,
	ArgonTime:        1,
	ArgonParallelism: 1,
	ArgonSaltLen:     16,
	ArgonKeyLen:      32,
}

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "sweetshop",
	ExpirationMinutes: 30,
}

type recordingCarts struct {
	cleared []string
	err     error
}

func (r *recordingCarts) ClearSession(ctx context.Context, sessionID string) error {
	r.cleared = append(r.cleared, sessionID)
	return r.err
}

func buildTestService(t *testing.T) (Service, *session.Manager, *recordingCarts) {
	t.Helper()
	dir, err := NewDirectory(DefaultCredentials(), fastArgon)
	if err != nil {
		t.Fatalf("directory: %v", err)
	}
	manager, err := session.NewManager(redisclient.NewMemory(), testJWT)
	if err != nil {
		t.Fatalf("session manager: %v", err)
	}
	carts := &recordingCarts{}
	svc, err := NewService(ServiceParams{
		Directory:      dir,
		SessionManager: manager,
		Carts:          carts,
		JWTConfig:      testJWT,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, manager, carts
}

func TestServiceLoginMintsTokenBoundToSession(t *testing.T) {
	svc, manager, _ := buildTestService(t)
	ctx := context.Background()

	for _, tc := range []struct {
		username, password, id string
		role                   enums.Role
	}{
		{"admin", "admin123", "1", enums.RoleAdmin},
		{"staff", "staff123", "2", enums.RoleStaff},
	} {
		resp, err := svc.Login(ctx, LoginRequest{Username: tc.username, Password: tc.password})
		if err != nil {
			t.Fatalf("login %s: %v", tc.username, err)
		}
		claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
		if err != nil {
			t.Fatalf("parse token: %v", err)
		}
		if claims.Role != tc.role || claims.Subject != tc.id || claims.Username != tc.username {
			t.Fatalf("unexpected claims %+v", claims)
		}
		if claims.ID != resp.Session.ID {
			t.Fatalf("expected jti %q, got %q", resp.Session.ID, claims.ID)
		}
		if resp.ExpiresAt.Before(time.Now().Add(29 * time.Minute)) {
			t.Fatalf("unexpected expiry %v", resp.ExpiresAt)
		}
		ok, err := manager.HasSession(ctx, resp.Session.ID)
		if err != nil || !ok {
			t.Fatalf("expected stored session, ok=%v err=%v", ok, err)
		}
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := buildTestService(t)
	ctx := context.Background()

	cases := []LoginRequest{
		{Username: "admin", Password: "wrong"},
		{Username: "staff", Password: "admin123"},
		{Username: "ghost", Password: "admin123"},
		{Username: "", Password: ""},
	}
	for _, req := range cases {
		_, err := svc.Login(ctx, req)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized for %q, got %v", req.Username, err)
		}
		if typed.Message() != invalidCredentialsMessage {
			t.Fatalf("unexpected message %q", typed.Message())
		}
	}
}

func TestServiceLoginMatchesUsernameExactly(t *testing.T) {
	svc, _, _ := buildTestService(t)
	for _, username := range []string{"ADMIN", " Admin ", "admin "} {
		_, err := svc.Login(context.Background(), LoginRequest{Username: username, Password: "admin123"})
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("%q: expected unauthorized, got %v", username, err)
		}
	}
	resp, err := svc.Login(context.Background(), LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Session.Username != "admin" {
		t.Fatalf("unexpected username %q", resp.Session.Username)
	}
}

func TestServiceLogoutRevokesSessionAndClearsCart(t *testing.T) {
	svc, manager, carts := buildTestService(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, LoginRequest{Username: "staff", Password: "staff123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	actor := pkgAuth.Actor{SessionID: resp.Session.ID, UserID: "2", Username: "staff", Role: enums.RoleStaff}

	rec, err := svc.Session(ctx, actor)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if rec.UserID != "2" || rec.Role != enums.RoleStaff {
		t.Fatalf("unexpected session %+v", rec)
	}

	if err := svc.Logout(ctx, actor); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(carts.cleared) != 1 || carts.cleared[0] != resp.Session.ID {
		t.Fatalf("expected cart cleared for session, got %v", carts.cleared)
	}
	ok, err := manager.HasSession(ctx, resp.Session.ID)
	if err != nil || ok {
		t.Fatalf("expected revoked session, ok=%v err=%v", ok, err)
	}
	if _, err := svc.Session(ctx, actor); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized after logout, got %v", err)
	}
}

func TestServiceLogoutPropagatesCartFailure(t *testing.T) {
	svc, _, carts := buildTestService(t)
	carts.err = pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("down"), "clear cart")
	err := svc.Logout(context.Background(), pkgAuth.Actor{SessionID: "sess-1", Role: enums.RoleStaff})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if err := svc.Logout(context.Background(), pkgAuth.Actor{}); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for blank session, got %v", err)
	}
}

func TestNewDirectoryValidates(t *testing.T) {
	if _, err := NewDirectory([]Credential{{ID: "1", Username: " ", Password: "x", Role: enums.RoleAdmin}}, fastArgon); err == nil {
		t.Fatal("expected error for blank username")
	}
	if _, err := NewDirectory([]Credential{{ID: "1", Username: "admin ", Password: "x", Role: enums.RoleAdmin}}, fastArgon); err == nil {
		t.Fatal("expected error for padded username")
	}
	if _, err := NewDirectory([]Credential{{ID: "1", Username: "a", Password: "x", Role: "owner"}}, fastArgon); err == nil {
		t.Fatal("expected error for invalid role")
	}
	dup := []Credential{
		{ID: "1", Username: "a", Password: "x", Role: enums.RoleAdmin},
		{ID: "2", Username: "a", Password: "y", Role: enums.RoleStaff},
	}
	if _, err := NewDirectory(dup, fastArgon); err == nil {
		t.Fatal("expected error for duplicate username")
	}
	if _, err := NewDirectory([]Credential{{ID: "1", Username: "a", Role: enums.RoleAdmin}}, fastArgon); err == nil {
		t.Fatal("expected error for empty password")
	}
}
