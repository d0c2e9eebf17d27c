package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveTimestamp(t *testing.T) {
	// 2024-03-10 at UTC midnight plus the breakfast hour.
	want := time.Date(2024, 3, 10, 7, 0, 0, 0, time.UTC).UnixMilli()
	assert.Equal(t, want, DeriveTimestamp("2024-03-10", PeriodBreakfast))

	// Same date sorts by period hour.
	breakfast := DeriveTimestamp("2024-03-10", PeriodBreakfast)
	lunch := DeriveTimestamp("2024-03-10", PeriodLunch)
	snack := DeriveTimestamp("2024-03-10", PeriodSnack)
	dinner := DeriveTimestamp("2024-03-10", PeriodDinner)
	bedtime := DeriveTimestamp("2024-03-10", PeriodBedtime)
	assert.Less(t, breakfast, lunch)
	assert.Less(t, lunch, snack)
	assert.Less(t, snack, dinner)
	assert.Less(t, dinner, bedtime)

	// An earlier date always sorts before a later one, whatever the periods.
	assert.Less(t, DeriveTimestamp("2024-03-09", PeriodBedtime), DeriveTimestamp("2024-03-10", PeriodBreakfast))
}

func TestDeriveTimestampBadDate(t *testing.T) {
	assert.Zero(t, DeriveTimestamp("not-a-date", PeriodLunch))
	assert.Zero(t, DeriveTimestamp("", PeriodLunch))
	assert.Zero(t, DeriveTimestamp("10/03/2024", PeriodLunch))
}

func TestNormalizeTimestamp(t *testing.T) {
	r := GlucoseRecord{Date: "2024-03-10", Period: PeriodDinner}
	r.NormalizeTimestamp()
	assert.Equal(t, DeriveTimestamp("2024-03-10", PeriodDinner), r.Timestamp)

	// An explicit timestamp is never overwritten.
	r2 := GlucoseRecord{Date: "2024-03-10", Period: PeriodDinner, Timestamp: 42}
	r2.NormalizeTimestamp()
	assert.Equal(t, int64(42), r2.Timestamp)
}

func TestValidDose(t *testing.T) {
	valid := []string{"", "10ui", "10 UI", "10UI", "2.5 mg", "1ml", "3 co", "0.5Mg"}
	for _, dose := range valid {
		assert.True(t, ValidDose(dose), "expected %q to be valid", dose)
	}

	invalid := []string{"10", "abcUI", "UI", "ten ui", "10 units", "10 ui extra", "-5ui"}
	for _, dose := range invalid {
		assert.False(t, ValidDose(dose), "expected %q to be invalid", dose)
	}
}

func TestMealPeriodValid(t *testing.T) {
	for _, p := range []MealPeriod{PeriodBreakfast, PeriodLunch, PeriodSnack, PeriodDinner, PeriodBedtime} {
		assert.True(t, p.Valid())
	}
	assert.False(t, MealPeriod("brunch").Valid())
	assert.False(t, MealPeriod("").Valid())
}
