package loot

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// UserSettings returns stored settings, or zero settings for a new user.
func (service *Service) UserSettings(ctx context.Context, userID UserID) (UserSettings, error) {
	return service.store.GetUserSettings(ctx, userID)
}

// SetTradeLink stores the user's trade offer link.
func (service *Service) SetTradeLink(ctx context.Context, userID UserID, tradeLink string) (UserSettings, error) {
	settings, operationError := service.setTradeLink(ctx, userID, tradeLink)
	service.logOperation(ctx, OperationLog{
		Operation: operationSetTradeLink,
		UserID:    userID,
		Error:     operationError,
	})
	return settings, operationError
}

func (service *Service) setTradeLink(ctx context.Context, userID UserID, tradeLink string) (UserSettings, error) {
	normalized, err := NormalizeTradeLink(tradeLink)
	if err != nil {
		return UserSettings{}, err
	}
	return service.store.SaveTradeLink(ctx, userID, normalized)
}

// NormalizeTradeLink trims and validates an absolute http(s) trade link.
func NormalizeTradeLink(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty value", ErrInvalidTradeLink)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTradeLink, err)
	}
	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return "", fmt.Errorf("%w: scheme must be http or https", ErrInvalidTradeLink)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("%w: host is required", ErrInvalidTradeLink)
	}
	return trimmed, nil
}
