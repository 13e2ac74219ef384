package loot

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func mustRiga(test *testing.T) *time.Location {
	test.Helper()
	location, err := LoadLocation("Europe/Riga")
	if err != nil {
		test.Fatalf("load location: %v", err)
	}
	return location
}

func TestPeriodKeysFollowRigaMidnight(test *testing.T) {
	test.Parallel()
	riga := mustRiga(test)
	beforeMidnight := time.Date(2026, time.March, 9, 23, 59, 59, 0, riga)
	atMidnight := time.Date(2026, time.March, 10, 0, 0, 0, 0, riga)

	if key := PeriodKey(CaseTypeDaily, beforeMidnight, riga); key != "2026-03-09" {
		test.Fatalf("expected 2026-03-09, got %s", key)
	}
	if key := PeriodKey(CaseTypeDaily, atMidnight, riga); key != "2026-03-10" {
		test.Fatalf("expected 2026-03-10, got %s", key)
	}
	// 22:30 UTC is already the next day in Riga.
	utcEvening := time.Date(2026, time.March, 9, 22, 30, 0, 0, time.UTC)
	if key := DayKey(utcEvening, riga); key != "2026-03-10" {
		test.Fatalf("expected Riga date 2026-03-10, got %s", key)
	}
}

func TestMonthlyPeriodRollsOver(test *testing.T) {
	test.Parallel()
	riga := mustRiga(test)
	lastSecond := time.Date(2026, time.January, 31, 23, 59, 59, 0, riga)
	if key := PeriodKey(CaseTypeMonthly, lastSecond, riga); key != "2026-01" {
		test.Fatalf("expected 2026-01, got %s", key)
	}
	if key := PeriodKey(CaseTypeMonthly, lastSecond.Add(time.Second), riga); key != "2026-02" {
		test.Fatalf("expected 2026-02, got %s", key)
	}
	resets := PeriodResetsAt(CaseTypeMonthly, time.Date(2026, time.December, 15, 12, 0, 0, 0, riga), riga)
	if !resets.Equal(time.Date(2027, time.January, 1, 0, 0, 0, 0, riga)) {
		test.Fatalf("unexpected monthly reset %s", resets)
	}
	daily := PeriodResetsAt(CaseTypeDaily, lastSecond, riga)
	if !daily.Equal(time.Date(2026, time.February, 1, 0, 0, 0, 0, riga)) {
		test.Fatalf("unexpected daily reset %s", daily)
	}
}

func TestLoadLocationRejectsUnknownZone(test *testing.T) {
	test.Parallel()
	if _, err := LoadLocation("Mars/Olympus"); err == nil {
		test.Fatalf("expected error for unknown zone")
	}
}

func TestSumProgressRespectsMidnightBoundary(test *testing.T) {
	test.Parallel()
	riga := mustRiga(test)
	now := time.Date(2026, time.March, 10, 0, 0, 0, 0, riga)
	payments := []Payment{
		{DateKey: "2026-03-09", Title: "Deposit", Amount: decimal.NewFromInt(7)},
		{DateKey: "2026-03-10", Title: "Deposit", Amount: decimal.NewFromInt(3)},
	}
	progress := SumProgress(payments, DayKey(now, riga), MonthKey(now, riga))
	if !progress.Daily.Equal(decimal.NewFromInt(3)) {
		test.Fatalf("expected daily 3, got %s", progress.Daily)
	}
	if !progress.Monthly.Equal(decimal.NewFromInt(10)) {
		test.Fatalf("expected monthly 10, got %s", progress.Monthly)
	}
}
