package loot

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Login authenticates against the billing provider and issues a local session.
func (service *Service) Login(ctx context.Context, login string, password string) (Session, Profile, error) {
	if strings.TrimSpace(login) == "" || password == "" {
		return Session{}, Profile{}, ErrInvalidCredentials
	}
	credential, err := service.billing.Authenticate(ctx, login, password)
	if err != nil {
		return Session{}, Profile{}, err
	}
	profile, err := service.billing.FetchProfile(ctx, credential)
	if err != nil {
		return Session{}, Profile{}, err
	}
	session, err := service.CreateSession(ctx, profile, credential)
	if err != nil {
		return Session{}, Profile{}, err
	}
	return session, profile, nil
}

// CreateSession replaces every session of the user with a fresh one.
func (service *Service) CreateSession(ctx context.Context, profile Profile, credential BillingCredential) (Session, error) {
	if profile.UserID.IsZero() {
		return Session{}, ErrInvalidUserID
	}
	now := service.nowFn().UTC()
	session := Session{
		Token:      uuid.NewString(),
		UserID:     profile.UserID,
		Nickname:   profile.Nickname,
		Credential: credential,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(service.sessionTTL),
	}
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if err := transactionStore.DeleteUserSessions(ctx, profile.UserID); err != nil {
			return err
		}
		return transactionStore.CreateSession(ctx, session)
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationCreateSession,
		UserID:    profile.UserID,
		Error:     operationError,
	})
	if operationError != nil {
		return Session{}, WrapError(errorOperationService, errorSubjectSession, errorCodeIssue, operationError)
	}
	return session, nil
}

// LookupSession resolves a bearer token and refreshes its last-seen time.
// Expired sessions are removed and reported as ErrSessionExpired.
func (service *Service) LookupSession(ctx context.Context, token string) (Session, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return Session{}, ErrSessionNotFound
	}
	session, err := service.store.GetSession(ctx, trimmed)
	if err != nil {
		return Session{}, err
	}
	now := service.nowFn().UTC()
	if session.Expired(now) {
		if deleteErr := service.store.DeleteSession(ctx, trimmed); deleteErr != nil {
			return Session{}, deleteErr
		}
		return Session{}, ErrSessionExpired
	}
	if err := service.store.TouchSession(ctx, trimmed, now); err != nil {
		return Session{}, err
	}
	session.LastSeenAt = now
	return session, nil
}

// InvalidateUserSessions removes every session of the user.
func (service *Service) InvalidateUserSessions(ctx context.Context, userID UserID) error {
	return service.store.DeleteUserSessions(ctx, userID)
}

// Logout removes a single session.
func (service *Service) Logout(ctx context.Context, session Session) error {
	operationError := service.store.DeleteSession(ctx, session.Token)
	service.logOperation(ctx, OperationLog{
		Operation: operationLogout,
		UserID:    session.UserID,
		Error:     operationError,
	})
	return operationError
}

// CurrentProfile refreshes the billing profile for a session, falling back to a zero balance.
func (service *Service) CurrentProfile(ctx context.Context, session Session) Profile {
	fallback := Profile{UserID: session.UserID, Nickname: session.Nickname, Deposit: decimal.Zero}
	requestCtx, cancel := context.WithTimeout(ctx, service.progressTimeout)
	defer cancel()
	profile, err := service.billing.FetchProfile(requestCtx, session.Credential)
	if err != nil {
		service.reportDegraded(ctx, "profile", err)
		return fallback
	}
	if profile.UserID.IsZero() {
		profile.UserID = session.UserID
	}
	if profile.UserID != session.UserID {
		service.reportDegraded(ctx, "profile", errors.New("profile belongs to another user"))
		return fallback
	}
	if profile.Nickname == "" {
		profile.Nickname = session.Nickname
	}
	return profile
}
