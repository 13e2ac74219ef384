package loot

import (
	"context"
	"fmt"
	"time"
)

// EngineConfig toggles case-opening behaviors that differ between deployments.
type EngineConfig struct {
	// DecrementStock decrements finite stock on grant and hides depleted items.
	DecrementStock bool
	// RequireActiveItems hides inactive items from case draws.
	RequireActiveItems bool
	// AutoCreditMoney grants money prizes directly as credited.
	AutoCreditMoney bool
}

// DefaultEngineConfig returns the production defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{DecrementStock: true, RequireActiveItems: true}
}

// Service contains the loyalty domain logic over a Store and a BillingGateway.
type Service struct {
	store           Store
	billing         BillingGateway
	nowFn           func() time.Time
	location        *time.Location
	random          RandomSource
	logger          OperationLogger
	creditor        CreditRequester
	engine          EngineConfig
	sessionTTL      time.Duration
	progressTimeout time.Duration
	degradedFn      func(ctx context.Context, operation string, err error)
}

// ServiceOption configures a Service instance.
type ServiceOption func(*Service)

// WithOperationLogger wires a logger that receives callbacks for every state-changing operation.
func WithOperationLogger(logger OperationLogger) ServiceOption {
	return func(service *Service) {
		service.logger = logger
	}
}

// WithCreditRequester wires the wallet credit side effect.
func WithCreditRequester(creditor CreditRequester) ServiceOption {
	return func(service *Service) {
		if creditor != nil {
			service.creditor = creditor
		}
	}
}

// WithRandomSource overrides the draw randomness.
func WithRandomSource(source RandomSource) ServiceOption {
	return func(service *Service) {
		if source != nil {
			service.random = source
		}
	}
}

// WithLocation sets the zone used for day and month boundaries.
func WithLocation(location *time.Location) ServiceOption {
	return func(service *Service) {
		if location != nil {
			service.location = location
		}
	}
}

// WithEngineConfig sets the case-opening flags.
func WithEngineConfig(config EngineConfig) ServiceOption {
	return func(service *Service) {
		service.engine = config
	}
}

// WithSessionTTL sets how long a session stays valid after login.
func WithSessionTTL(ttl time.Duration) ServiceOption {
	return func(service *Service) {
		if ttl > 0 {
			service.sessionTTL = ttl
		}
	}
}

// WithProgressTimeout bounds the billing lookup behind progress computation.
func WithProgressTimeout(timeout time.Duration) ServiceOption {
	return func(service *Service) {
		if timeout > 0 {
			service.progressTimeout = timeout
		}
	}
}

// WithDegradationHook receives upstream failures that were replaced by safe defaults.
func WithDegradationHook(hook func(ctx context.Context, operation string, err error)) ServiceOption {
	return func(service *Service) {
		service.degradedFn = hook
	}
}

// NewService wires a Service.
func NewService(store Store, billing BillingGateway, now func() time.Time, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if billing == nil {
		return nil, fmt.Errorf("%w: billing dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	location, err := LoadLocation(defaultZone)
	if err != nil {
		return nil, err
	}
	service := &Service{
		store:           store,
		billing:         billing,
		nowFn:           now,
		location:        location,
		random:          defaultRandomSource{},
		creditor:        noopCreditRequester{},
		engine:          DefaultEngineConfig(),
		sessionTTL:      defaultSessionTTL,
		progressTimeout: defaultProgressTimeout,
	}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// Location returns the zone used for period boundaries.
func (service *Service) Location() *time.Location {
	return service.location
}

// Now returns the service clock reading.
func (service *Service) Now() time.Time {
	return service.nowFn()
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}

func (service *Service) reportDegraded(ctx context.Context, operation string, err error) {
	if service.degradedFn == nil || err == nil {
		return
	}
	service.degradedFn(ctx, operation, err)
}
