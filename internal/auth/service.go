package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgAuth "github.com/angelmondragon/sweetshop-backend/pkg/auth"
	"github.com/angelmondragon/sweetshop-backend/pkg/auth/session"
	"github.com/angelmondragon/sweetshop-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/sweetshop-backend/pkg/errors"
)

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, actor pkgAuth.Actor) error
	Session(ctx context.Context, actor pkgAuth.Actor) (*session.Record, error)
}

type sessionManager interface {
	Create(ctx context.Context, rec session.Record) (session.Record, error)
	Get(ctx context.Context, sessionID string) (session.Record, error)
	Revoke(ctx context.Context, sessionID string) error
}

type cartClearer interface {
	ClearSession(ctx context.Context, sessionID string) error
}

type authenticator interface {
	Authenticate(username, password string) (*User, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Directory      authenticator
	SessionManager sessionManager
	Carts          cartClearer
	JWTConfig      config.JWTConfig
}

type service struct {
	directory authenticator
	sessions  sessionManager
	carts     cartClearer
	jwtCfg    config.JWTConfig
	now       func() time.Time
}

// NewService constructs the login/logout service.
func NewService(params ServiceParams) (Service, error) {
	if params.Directory == nil {
		return nil, fmt.Errorf("credential directory is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service is required")
	}
	return &service{
		directory: params.Directory,
		sessions:  params.SessionManager,
		carts:     params.Carts,
		jwtCfg:    params.JWTConfig,
		now:       time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.directory.Authenticate(req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	rec, err := s.sessions.Create(ctx, session.Record{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}

	token, expiresAt, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now().UTC(), pkgAuth.Actor{
		SessionID: rec.ID,
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
	})
	if err != nil {
		_ = s.sessions.Revoke(ctx, rec.ID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &LoginResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Session:     rec,
	}, nil
}

func (s *service) Logout(ctx context.Context, actor pkgAuth.Actor) error {
	if actor.SessionID == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session required")
	}
	if err := s.sessions.Revoke(ctx, actor.SessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	if err := s.carts.ClearSession(ctx, actor.SessionID); err != nil {
		return err
	}
	return nil
}

func (s *service) Session(ctx context.Context, actor pkgAuth.Actor) (*session.Record, error) {
	rec, err := s.sessions.Get(ctx, actor.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
	}
	return &rec, nil
}
