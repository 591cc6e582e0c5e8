package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"caixa-senhas-backend/internal/apperr"
	"caixa-senhas-backend/internal/models"
	"caixa-senhas-backend/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

var errSessionInvalid = apperr.New(apperr.KindInvalidCredentials, "Sessão inválida ou expirada.")

// Session is what a successful login hands back to the client.
type Session struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expira_em"`
	Actor     models.Actor `json:"usuario"`
}

type Service struct {
	store  *repository.Store
	tokens *TokenIssuer
	now    func() time.Time

	// Compared against when the login does not exist, so both failure paths
	// cost one bcrypt comparison.
	dummyHash []byte
}

func NewService(store *repository.Store, tokens *TokenIssuer) *Service {
	random := make([]byte, 32)
	_, _ = rand.Read(random)
	dummy, err := bcrypt.GenerateFromPassword(random[:32], bcrypt.DefaultCost)
	if err != nil {
		panic("auth: gerar hash de referência: " + err.Error())
	}
	return &Service{store: store, tokens: tokens, now: time.Now, dummyHash: dummy}
}

// Authenticate checks a login/password pair. Unknown login, wrong password
// and inactive account all return the same ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, login, password string) (models.Actor, error) {
	user, err := s.store.Users().GetByLogin(ctx, login)
	if err != nil {
		if !errors.Is(err, apperr.ErrNotFound) {
			return models.Actor{}, err
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return models.Actor{}, apperr.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil || !user.Active {
		return models.Actor{}, apperr.ErrInvalidCredentials
	}

	if err := s.store.Users().TouchLastLogin(ctx, user.Login, s.now().UTC()); err != nil {
		return models.Actor{}, err
	}
	return user.Actor(), nil
}

// Login authenticates and issues a session token.
func (s *Service) Login(ctx context.Context, login, password string) (Session, error) {
	actor, err := s.Authenticate(ctx, login, password)
	if err != nil {
		return Session{}, err
	}
	token, claims, err := s.tokens.Issue(actor)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, Actor: actor}, nil
}

// Resolve turns a token into the current identity. The user is reloaded so
// role, unit and active changes apply to sessions already issued.
func (s *Service) Resolve(ctx context.Context, token string) (models.Actor, *Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return models.Actor{}, nil, apperr.Wrap(apperr.KindInvalidCredentials, errSessionInvalid.Message, err)
	}

	revoked, err := s.store.Tokens().IsRevoked(ctx, claims.ID)
	if err != nil {
		return models.Actor{}, nil, err
	}
	if revoked {
		return models.Actor{}, nil, errSessionInvalid
	}

	user, err := s.store.Users().GetByLogin(ctx, claims.Login)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.Actor{}, nil, errSessionInvalid
		}
		return models.Actor{}, nil, err
	}
	if !user.Active {
		return models.Actor{}, nil, errSessionInvalid
	}
	return user.Actor(), claims, nil
}

// Logout revokes the token until its natural expiry.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil {
		return nil
	}
	expires := s.now().UTC()
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time.UTC()
	}
	return s.store.Transaction(ctx, func(tx *repository.Store) error {
		if err := tx.Tokens().Revoke(ctx, claims.ID, claims.Login, expires); err != nil {
			return err
		}
		_, err := tx.Tokens().PurgeExpired(ctx, s.now().UTC())
		return err
	})
}
