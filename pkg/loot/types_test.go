package loot

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewUserIDTrimsAndRejectsEmpty(test *testing.T) {
	test.Parallel()
	userID, err := NewUserID("  abc  ")
	if err != nil || userID.String() != "abc" {
		test.Fatalf("expected abc, got %q (%v)", userID.String(), err)
	}
	if _, err := NewUserID("   "); !errors.Is(err, ErrInvalidUserID) {
		test.Fatalf("expected ErrInvalidUserID, got %v", err)
	}
}

func TestParseEnums(test *testing.T) {
	test.Parallel()
	if itemType, err := ParseItemType(" Skin "); err != nil || itemType != ItemTypeSkin {
		test.Fatalf("expected skin, got %q (%v)", itemType, err)
	}
	if _, err := ParseItemType("crate"); !errors.Is(err, ErrInvalidItemType) {
		test.Fatalf("expected ErrInvalidItemType, got %v", err)
	}
	if _, err := ParseCaseType("weekly"); !errors.Is(err, ErrInvalidCaseType) {
		test.Fatalf("expected ErrInvalidCaseType, got %v", err)
	}
	if status, err := ParseRequestStatus("DENIED"); err != nil || status != RequestStatusDenied {
		test.Fatalf("expected denied, got %q (%v)", status, err)
	}
	if _, err := ParseInventoryStatus("lost"); !errors.Is(err, ErrInvalidInventoryStatus) {
		test.Fatalf("expected ErrInvalidInventoryStatus, got %v", err)
	}
}

func TestItemValidate(test *testing.T) {
	test.Parallel()
	valid := Item{Type: ItemTypePhysical, Title: "Headset", DisplayPrice: decimal.NewFromInt(20), Stock: UnlimitedStock}
	if err := valid.Validate(); err != nil {
		test.Fatalf("expected valid item, got %v", err)
	}
	cases := []Item{
		{Type: ItemTypePhysical, Title: " ", Stock: 1},
		{Type: ItemTypePhysical, Title: "x", SellPrice: decimal.NewFromInt(-1)},
		{Type: ItemTypePhysical, Title: "x", Stock: -2},
	}
	for _, item := range cases {
		if err := item.Validate(); !errors.Is(err, ErrInvalidItem) {
			test.Fatalf("expected ErrInvalidItem for %+v, got %v", item, err)
		}
	}
}

func TestSessionExpired(test *testing.T) {
	test.Parallel()
	expiresAt := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	session := Session{ExpiresAt: expiresAt}
	if session.Expired(expiresAt.Add(-time.Second)) {
		test.Fatalf("session expired too early")
	}
	if !session.Expired(expiresAt) {
		test.Fatalf("session should expire at ExpiresAt")
	}
	if (Session{}).Expired(expiresAt) {
		test.Fatalf("session without expiry never expires")
	}
}
