package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/lootcase/pkg/loot"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultTimeout       = 4 * time.Second
	defaultPaymentsLimit = 100
	defaultTokenLifetime = 15 * time.Minute
	maxResponseBytes     = 4 << 20

	errorOperationBilling = "billing"
	errorSubjectLogin     = "login"
	errorSubjectProfile   = "profile"
	errorSubjectService   = "service_token"
	errorSubjectPayments  = "payments"
	errorCodeRequest      = "request"
	errorCodeRejected     = "rejected"
	errorCodeDecode       = "decode"
)

const (
	clientLoginMutation = `mutation ClientLogin($login: String!, $password: String!) {
  clientLogin(login: $login, password: $password) { accessToken refreshToken expiresIn }
}`
	serviceLoginMutation = `mutation ServiceLogin($login: String!, $password: String!) {
  serviceLogin(login: $login, password: $password) { accessToken expiresIn }
}`
	profileQuery = `query Me {
  me { uuid nickname balance }
}`
	paymentsQuery = `query ClientPayments($uuid: ID!, $limit: Int!) {
  clientPayments(clientUuid: $uuid, limit: $limit) { createdAt title itemType amount status isReversed }
}`
)

var (
	errUnauthorized = errors.New("unauthorized")

	reversedStatuses = map[string]struct{}{
		"reversed":  {},
		"cancelled": {},
		"canceled":  {},
		"refunded":  {},
	}
	credentialErrorCodes = map[string]struct{}{
		"UNAUTHENTICATED":     {},
		"INVALID_CREDENTIALS": {},
		"FORBIDDEN":           {},
	}
)

// Config describes how to reach the billing GraphQL endpoint.
type Config struct {
	Endpoint        string
	ServiceLogin    string
	ServicePassword string
	Timeout         time.Duration
	PaymentsLimit   int
	Location        *time.Location
	HTTPClient      *http.Client
	Now             func() time.Time
	Logger          *zap.Logger
}

// Client talks to the billing provider's GraphQL API.
type Client struct {
	endpoint        string
	serviceLogin    string
	servicePassword string
	timeout         time.Duration
	paymentsLimit   int
	location        *time.Location
	httpClient      *http.Client
	now             func() time.Time
	logger          *zap.Logger
	serviceTokens   *TokenCache
}

// NewClient validates cfg and builds a Client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, fmt.Errorf("billing endpoint is required")
	}
	if cfg.Location == nil {
		return nil, fmt.Errorf("billing location is required")
	}
	client := &Client{
		endpoint:        cfg.Endpoint,
		serviceLogin:    cfg.ServiceLogin,
		servicePassword: cfg.ServicePassword,
		timeout:         cfg.Timeout,
		paymentsLimit:   cfg.PaymentsLimit,
		location:        cfg.Location,
		httpClient:      cfg.HTTPClient,
		now:             cfg.Now,
		logger:          cfg.Logger,
	}
	if client.timeout <= 0 {
		client.timeout = defaultTimeout
	}
	if client.paymentsLimit <= 0 {
		client.paymentsLimit = defaultPaymentsLimit
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{}
	}
	if client.now == nil {
		client.now = time.Now
	}
	if client.logger == nil {
		client.logger = zap.NewNop()
	}
	client.serviceTokens = NewTokenCache(client.fetchServiceToken, client.now, defaultExpiryMargin)
	return client, nil
}

// Authenticate exchanges client credentials for a token pair.
func (client *Client) Authenticate(ctx context.Context, login string, password string) (loot.BillingCredential, error) {
	var payload struct {
		ClientLogin *tokenPayload `json:"clientLogin"`
	}
	err := client.do(ctx, "", clientLoginMutation, map[string]any{"login": login, "password": password}, &payload)
	if err != nil {
		if errors.Is(err, errUnauthorized) {
			return loot.BillingCredential{}, loot.WrapError(errorOperationBilling, errorSubjectLogin, errorCodeRejected, loot.ErrInvalidCredentials)
		}
		return loot.BillingCredential{}, loot.WrapError(errorOperationBilling, errorSubjectLogin, errorCodeRequest, fmt.Errorf("%w: %v", loot.ErrUpstream, err))
	}
	if payload.ClientLogin == nil || payload.ClientLogin.AccessToken == "" {
		return loot.BillingCredential{}, loot.WrapError(errorOperationBilling, errorSubjectLogin, errorCodeRejected, loot.ErrInvalidCredentials)
	}
	return loot.BillingCredential{
		AccessToken:  payload.ClientLogin.AccessToken,
		RefreshToken: payload.ClientLogin.RefreshToken,
		ExpiresAt:    client.expiry(payload.ClientLogin.ExpiresIn),
	}, nil
}

// FetchProfile returns the client profile for an access token.
func (client *Client) FetchProfile(ctx context.Context, credential loot.BillingCredential) (loot.Profile, error) {
	var payload struct {
		Me *struct {
			UUID     string          `json:"uuid"`
			Nickname string          `json:"nickname"`
			Balance  decimal.Decimal `json:"balance"`
		} `json:"me"`
	}
	if err := client.do(ctx, credential.AccessToken, profileQuery, nil, &payload); err != nil {
		return loot.Profile{}, loot.WrapError(errorOperationBilling, errorSubjectProfile, errorCodeRequest, fmt.Errorf("%w: %v", loot.ErrUpstream, err))
	}
	if payload.Me == nil {
		return loot.Profile{}, loot.WrapError(errorOperationBilling, errorSubjectProfile, errorCodeDecode, fmt.Errorf("%w: empty profile", loot.ErrUpstream))
	}
	userID, err := loot.NewUserID(payload.Me.UUID)
	if err != nil {
		return loot.Profile{}, loot.WrapError(errorOperationBilling, errorSubjectProfile, errorCodeDecode, fmt.Errorf("%w: %v", loot.ErrUpstream, err))
	}
	return loot.Profile{
		UserID:   userID,
		Nickname: payload.Me.Nickname,
		Deposit:  payload.Me.Balance.Round(2),
	}, nil
}

// FetchServiceToken returns the cached service token, refreshing it when close to expiry.
func (client *Client) FetchServiceToken(ctx context.Context) (string, error) {
	return client.serviceTokens.Token(ctx)
}

// RecentPayments lists the client's latest payments, normalized for progress bucketing.
func (client *Client) RecentPayments(ctx context.Context, userID loot.UserID) ([]loot.Payment, error) {
	records, err := client.fetchPayments(ctx, userID)
	if errors.Is(err, errUnauthorized) {
		client.serviceTokens.Invalidate()
		records, err = client.fetchPayments(ctx, userID)
	}
	if err != nil {
		return nil, loot.WrapError(errorOperationBilling, errorSubjectPayments, errorCodeRequest, fmt.Errorf("%w: %v", loot.ErrUpstream, err))
	}
	payments := make([]loot.Payment, 0, len(records))
	for _, record := range records {
		dateKey, err := NormalizeDateKey(record.CreatedAt, client.location)
		if err != nil {
			client.logger.Debug("skipping payment with unrecognized date", zap.String("created_at", record.CreatedAt))
			continue
		}
		_, reversedStatus := reversedStatuses[strings.ToLower(strings.TrimSpace(record.Status))]
		payments = append(payments, loot.Payment{
			DateKey:  dateKey,
			Title:    record.Title,
			ItemType: record.ItemType,
			Amount:   record.Amount,
			Reversed: record.IsReversed || reversedStatus,
		})
	}
	return payments, nil
}

func (client *Client) fetchPayments(ctx context.Context, userID loot.UserID) ([]paymentRecord, error) {
	token, err := client.serviceTokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	var payload struct {
		ClientPayments []paymentRecord `json:"clientPayments"`
	}
	variables := map[string]any{"uuid": userID.String(), "limit": client.paymentsLimit}
	if err := client.do(ctx, token, paymentsQuery, variables, &payload); err != nil {
		return nil, err
	}
	return payload.ClientPayments, nil
}

func (client *Client) fetchServiceToken(ctx context.Context) (string, time.Time, error) {
	var payload struct {
		ServiceLogin *tokenPayload `json:"serviceLogin"`
	}
	variables := map[string]any{"login": client.serviceLogin, "password": client.servicePassword}
	if err := client.do(ctx, "", serviceLoginMutation, variables, &payload); err != nil {
		return "", time.Time{}, loot.WrapError(errorOperationBilling, errorSubjectService, errorCodeRequest, err)
	}
	if payload.ServiceLogin == nil || payload.ServiceLogin.AccessToken == "" {
		return "", time.Time{}, loot.WrapError(errorOperationBilling, errorSubjectService, errorCodeDecode, errors.New("empty service token"))
	}
	return payload.ServiceLogin.AccessToken, client.expiry(payload.ServiceLogin.ExpiresIn), nil
}

func (client *Client) expiry(expiresInSeconds int64) time.Time {
	if expiresInSeconds <= 0 {
		return client.now().Add(defaultTokenLifetime)
	}
	return client.now().Add(time.Duration(expiresInSeconds) * time.Second)
}

// do posts a GraphQL operation and decodes its data into out.
// HTTP 401/403 and credential error codes map to errUnauthorized.
func (client *Client) do(ctx context.Context, bearer string, query string, variables map[string]any, out any) error {
	requestCtx, cancel := context.WithTimeout(ctx, client.timeout)
	defer cancel()

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return err
	}
	request, err := http.NewRequestWithContext(requestCtx, http.MethodPost, client.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}
	response, err := client.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return err
	}
	if response.StatusCode == http.StatusUnauthorized || response.StatusCode == http.StatusForbidden {
		return errUnauthorized
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", response.StatusCode)
	}
	var envelope graphQLResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		for _, graphQLErr := range envelope.Errors {
			if _, ok := credentialErrorCodes[strings.ToUpper(graphQLErr.Extensions.Code)]; ok {
				return errUnauthorized
			}
		}
		return fmt.Errorf("graphql: %s", envelope.Errors[0].Message)
	}
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type graphQLError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

type tokenPayload struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

type paymentRecord struct {
	CreatedAt  string          `json:"createdAt"`
	Title      string          `json:"title"`
	ItemType   string          `json:"itemType"`
	Amount     decimal.Decimal `json:"amount"`
	Status     string          `json:"status"`
	IsReversed bool            `json:"isReversed"`
}
