package gormstore

import (
	"context"
	"time"

	"github.com/MarkoPoloResearchLab/lootcase/pkg/loot"
)

func (store *Store) CreateSession(ctx context.Context, session loot.Session) error {
	var credentialExpiresAt *time.Time
	if !session.Credential.ExpiresAt.IsZero() {
		value := session.Credential.ExpiresAt.UTC()
		credentialExpiresAt = &value
	}
	model := Session{
		Token:               session.Token,
		UserUUID:            session.UserID.String(),
		Nickname:            session.Nickname,
		AccessToken:         session.Credential.AccessToken,
		RefreshToken:        session.Credential.RefreshToken,
		CredentialExpiresAt: credentialExpiresAt,
		CreatedAt:           session.CreatedAt.UTC(),
		LastSeenAt:          session.LastSeenAt.UTC(),
		ExpiresAt:           session.ExpiresAt.UTC(),
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectSession, errorCodeCreate, err)
	}
	return nil
}

func (store *Store) GetSession(ctx context.Context, token string) (loot.Session, error) {
	var model Session
	err := store.db.WithContext(ctx).Where("token = ?", token).Take(&model).Error
	if isNotFound(err) {
		return loot.Session{}, wrapStoreError(errorSubjectSession, errorCodeGet, loot.ErrSessionNotFound)
	}
	if err != nil {
		return loot.Session{}, wrapStoreError(errorSubjectSession, errorCodeGet, err)
	}
	userID, err := loot.NewUserID(model.UserUUID)
	if err != nil {
		return loot.Session{}, wrapStoreError(errorSubjectSession, errorCodeInvalid, err)
	}
	credential := loot.BillingCredential{
		AccessToken:  model.AccessToken,
		RefreshToken: model.RefreshToken,
	}
	if model.CredentialExpiresAt != nil {
		credential.ExpiresAt = model.CredentialExpiresAt.UTC()
	}
	return loot.Session{
		Token:      model.Token,
		UserID:     userID,
		Nickname:   model.Nickname,
		Credential: credential,
		CreatedAt:  model.CreatedAt.UTC(),
		LastSeenAt: model.LastSeenAt.UTC(),
		ExpiresAt:  model.ExpiresAt.UTC(),
	}, nil
}

func (store *Store) TouchSession(ctx context.Context, token string, at time.Time) error {
	err := store.db.WithContext(ctx).
		Model(&Session{}).
		Where("token = ?", token).
		Update("last_seen_at", at.UTC()).Error
	if err != nil {
		return wrapStoreError(errorSubjectSession, errorCodeTouch, err)
	}
	return nil
}

func (store *Store) DeleteSession(ctx context.Context, token string) error {
	if err := store.db.WithContext(ctx).Where("token = ?", token).Delete(&Session{}).Error; err != nil {
		return wrapStoreError(errorSubjectSession, errorCodeDelete, err)
	}
	return nil
}

func (store *Store) DeleteUserSessions(ctx context.Context, userID loot.UserID) error {
	if err := store.db.WithContext(ctx).Where("user_uuid = ?", userID.String()).Delete(&Session{}).Error; err != nil {
		return wrapStoreError(errorSubjectSession, errorCodeDelete, err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry and reports how many were removed.
func (store *Store) DeleteExpiredSessions(ctx context.Context, at time.Time) (int64, error) {
	result := store.db.WithContext(ctx).Where("expires_at <= ?", at.UTC()).Delete(&Session{})
	if result.Error != nil {
		return 0, wrapStoreError(errorSubjectSession, errorCodeDelete, result.Error)
	}
	return result.RowsAffected, nil
}
