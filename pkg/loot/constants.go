package loot

import "time"

const (
	operationCreateSession  = "create_session"
	operationLogout         = "logout"
	operationOpenCase       = "open_case"
	operationSell           = "sell"
	operationClaim          = "claim"
	operationApproveRequest = "approve_request"
	operationDenyRequest    = "deny_request"
	operationReturnRequest  = "return_request"
	operationUpsertItem     = "upsert_item"
	operationDeleteItem     = "delete_item"
	operationUpsertCase     = "upsert_case"
	operationDeleteCase     = "delete_case"
	operationSetTradeLink   = "set_trade_link"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	errorOperationService = "service"
	errorSubjectCase      = "case"
	errorSubjectSession   = "session"
	errorSubjectRequest   = "request"
	errorCodeDraw         = "draw"
	errorCodeIssue        = "issue"
	errorCodeIDExhausted  = "id_exhausted"

	creditReasonSell  = "inventory_sell"
	creditReasonClaim = "inventory_claim"
	creditReasonOpen  = "case_open"

	requestIDPrefix      = "REQ-"
	requestIDDigits      = 6
	requestIDMaxAttempts = 5

	xpPerOpen   int64 = 10
	xpPerLevel  int64 = 100
	currencyDP  int32 = 2
	defaultZone       = "Europe/Riga"

	defaultSessionTTL      = 30 * 24 * time.Hour
	defaultProgressTimeout = 4 * time.Second
)
