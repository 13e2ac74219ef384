package loot

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

const (
	dayKeyLayout   = "2006-01-02"
	monthKeyLayout = "2006-01"
)

// LoadLocation resolves the named zone used for day and month boundaries.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = defaultZone
	}
	location, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidServiceConfig, name, err)
	}
	return location, nil
}

// DayKey formats the calendar date of at in location as YYYY-MM-DD.
func DayKey(at time.Time, location *time.Location) string {
	return at.In(location).Format(dayKeyLayout)
}

// MonthKey formats the calendar month of at in location as YYYY-MM.
func MonthKey(at time.Time, location *time.Location) string {
	return at.In(location).Format(monthKeyLayout)
}

// PeriodKey returns the eligibility window identifier for a case type.
func PeriodKey(caseType CaseType, at time.Time, location *time.Location) string {
	if caseType == CaseTypeMonthly {
		return MonthKey(at, location)
	}
	return DayKey(at, location)
}

// PeriodResetsAt returns the start of the next period after at.
func PeriodResetsAt(caseType CaseType, at time.Time, location *time.Location) time.Time {
	local := at.In(location)
	if caseType == CaseTypeMonthly {
		return time.Date(local.Year(), local.Month()+1, 1, 0, 0, 0, 0, location)
	}
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, location)
}

// DayStart returns local midnight of the day containing at.
func DayStart(at time.Time, location *time.Location) time.Time {
	local := at.In(location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, location)
}
