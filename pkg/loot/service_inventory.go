package loot

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/shopspring/decimal"
)

// ClaimResult is the outcome of a redemption claim.
type ClaimResult struct {
	Entry   InventoryEntry
	Request *RedemptionRequest
}

// ListInventory returns the user's entries that still need attention.
func (service *Service) ListInventory(ctx context.Context, userID UserID) ([]InventoryEntry, error) {
	return service.store.ListInventory(ctx, userID, []InventoryStatus{InventoryStatusAvailable, InventoryStatusProcessing})
}

// Sell converts an available non-money prize into its sell price.
func (service *Service) Sell(ctx context.Context, userID UserID, inventoryID int64) (decimal.Decimal, error) {
	entry, operationError := service.sell(ctx, userID, inventoryID)
	service.logOperation(ctx, OperationLog{
		Operation:   operationSell,
		UserID:      userID,
		ItemID:      entry.ItemID,
		InventoryID: inventoryID,
		Amount:      entry.SellPrice,
		Error:       operationError,
	})
	if operationError != nil {
		return decimal.Zero, operationError
	}
	service.requestCredit(ctx, userID, entry.SellPrice, creditReasonSell)
	return entry.SellPrice, nil
}

func (service *Service) sell(ctx context.Context, userID UserID, inventoryID int64) (InventoryEntry, error) {
	entry, err := service.store.GetInventoryEntry(ctx, userID, inventoryID)
	if err != nil {
		return InventoryEntry{}, err
	}
	if entry.ItemType == ItemTypeMoney {
		return entry, ErrCannotSellMoney
	}
	if entry.Status != InventoryStatusAvailable {
		return entry, ErrNotAvailable
	}
	if err := service.store.UpdateInventoryStatus(ctx, inventoryID, []InventoryStatus{InventoryStatusAvailable}, InventoryStatusSold); err != nil {
		return entry, err
	}
	entry.Status = InventoryStatusSold
	return entry, nil
}

// Claim starts fulfilment of an available prize. Money prizes are credited at once;
// skin and physical prizes become a pending redemption request.
func (service *Service) Claim(ctx context.Context, userID UserID, nickname string, inventoryID int64) (ClaimResult, error) {
	result, operationError := service.claim(ctx, userID, nickname, inventoryID)
	requestID := ""
	if result.Request != nil {
		requestID = result.Request.ID
	}
	service.logOperation(ctx, OperationLog{
		Operation:   operationClaim,
		UserID:      userID,
		ItemID:      result.Entry.ItemID,
		InventoryID: inventoryID,
		RequestID:   requestID,
		Amount:      result.Entry.DisplayPrice,
		Error:       operationError,
	})
	if operationError != nil {
		return ClaimResult{}, operationError
	}
	if result.Entry.Status == InventoryStatusCredited {
		service.requestCredit(ctx, userID, result.Entry.DisplayPrice, creditReasonClaim)
	}
	return result, nil
}

func (service *Service) claim(ctx context.Context, userID UserID, nickname string, inventoryID int64) (ClaimResult, error) {
	entry, err := service.store.GetInventoryEntry(ctx, userID, inventoryID)
	if err != nil {
		return ClaimResult{}, err
	}
	if entry.Status != InventoryStatusAvailable {
		return ClaimResult{Entry: entry}, ErrNotAvailable
	}
	if entry.ItemType == ItemTypeMoney {
		if err := service.store.UpdateInventoryStatus(ctx, inventoryID, []InventoryStatus{InventoryStatusAvailable}, InventoryStatusCredited); err != nil {
			return ClaimResult{Entry: entry}, err
		}
		entry.Status = InventoryStatusCredited
		return ClaimResult{Entry: entry}, nil
	}
	settings, err := service.store.GetUserSettings(ctx, userID)
	if err != nil {
		return ClaimResult{Entry: entry}, err
	}
	if settings.TradeLink == "" {
		return ClaimResult{Entry: entry}, ErrTradeLinkMissing
	}
	now := service.nowFn().UTC()
	request := RedemptionRequest{
		UserID:      userID,
		InventoryID: entry.ID,
		ItemTitle:   entry.Title,
		ItemType:    entry.ItemType,
		TradeLink:   settings.TradeLink,
		Status:      RequestStatusPending,
		Snapshot: RequestSnapshot{
			ImageURL:     entry.ImageURL,
			Rarity:       entry.Rarity,
			DisplayPrice: entry.DisplayPrice.StringFixed(currencyDP),
			Nickname:     nickname,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for attempt := 0; attempt < requestIDMaxAttempts; attempt++ {
		request.ID = newRequestID()
		err := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
			if err := transactionStore.UpdateInventoryStatus(ctx, entry.ID, []InventoryStatus{InventoryStatusAvailable}, InventoryStatusProcessing); err != nil {
				return err
			}
			return transactionStore.CreateRedemptionRequest(ctx, request)
		})
		if errors.Is(err, ErrDuplicateRequest) {
			continue
		}
		if err != nil {
			return ClaimResult{Entry: entry}, err
		}
		entry.Status = InventoryStatusProcessing
		return ClaimResult{Entry: entry, Request: &request}, nil
	}
	return ClaimResult{Entry: entry}, WrapError(errorOperationService, errorSubjectRequest, errorCodeIDExhausted, ErrDuplicateRequest)
}

// ListRequests returns redemption requests, optionally filtered by status.
func (service *Service) ListRequests(ctx context.Context, status RequestStatus) ([]RedemptionRequest, error) {
	return service.store.ListRedemptionRequests(ctx, status)
}

// ApproveRequest marks a pending request fulfilled and the prize received.
func (service *Service) ApproveRequest(ctx context.Context, requestID string) (RedemptionRequest, error) {
	return service.resolveRequest(ctx, operationApproveRequest, requestID, requestTransition{
		from:          []RequestStatus{RequestStatusPending},
		to:            RequestStatusApproved,
		inventoryFrom: []InventoryStatus{InventoryStatusProcessing},
		inventoryTo:   InventoryStatusReceived,
	})
}

// DenyRequest rejects a pending request with an operator comment and frees the prize.
func (service *Service) DenyRequest(ctx context.Context, requestID string, comment string) (RedemptionRequest, error) {
	return service.resolveRequest(ctx, operationDenyRequest, requestID, requestTransition{
		from:          []RequestStatus{RequestStatusPending},
		to:            RequestStatusDenied,
		comment:       comment,
		inventoryFrom: []InventoryStatus{InventoryStatusProcessing},
		inventoryTo:   InventoryStatusAvailable,
	})
}

// ReturnRequest hands a pending or approved prize back to the user's inventory.
func (service *Service) ReturnRequest(ctx context.Context, requestID string) (RedemptionRequest, error) {
	return service.resolveRequest(ctx, operationReturnRequest, requestID, requestTransition{
		from:          []RequestStatus{RequestStatusPending, RequestStatusApproved},
		to:            RequestStatusReturned,
		inventoryFrom: []InventoryStatus{InventoryStatusProcessing, InventoryStatusReceived},
		inventoryTo:   InventoryStatusAvailable,
	})
}

type requestTransition struct {
	from          []RequestStatus
	to            RequestStatus
	comment       string
	inventoryFrom []InventoryStatus
	inventoryTo   InventoryStatus
}

func (service *Service) resolveRequest(ctx context.Context, operation string, requestID string, transition requestTransition) (RedemptionRequest, error) {
	var resolved RedemptionRequest
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		request, err := transactionStore.GetRedemptionRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if !containsRequestStatus(transition.from, request.Status) {
			return fmt.Errorf("%w: request is %s", ErrRequestClosed, request.Status)
		}
		if err := transactionStore.UpdateRedemptionRequest(ctx, requestID, transition.from, transition.to, transition.comment); err != nil {
			return err
		}
		if err := transactionStore.UpdateInventoryStatus(ctx, request.InventoryID, transition.inventoryFrom, transition.inventoryTo); err != nil {
			return err
		}
		resolved, err = transactionStore.GetRedemptionRequest(ctx, requestID)
		return err
	})
	service.logOperation(ctx, OperationLog{
		Operation:   operation,
		UserID:      resolved.UserID,
		InventoryID: resolved.InventoryID,
		RequestID:   requestID,
		Error:       operationError,
	})
	if operationError != nil {
		return RedemptionRequest{}, operationError
	}
	return resolved, nil
}

func containsRequestStatus(statuses []RequestStatus, status RequestStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

func newRequestID() string {
	return fmt.Sprintf("%s%0*d", requestIDPrefix, requestIDDigits, rand.IntN(1_000_000))
}
