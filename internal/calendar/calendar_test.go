package calendar

import (
	"testing"
	"time"
)

func d(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dailyCalendar() Calendar {
	return Calendar{
		OrderWeekdays: map[time.Weekday]bool{
			time.Monday: true, time.Tuesday: true, time.Wednesday: true,
			time.Thursday: true, time.Friday: true, time.Saturday: true, time.Sunday: true,
		},
	}
}

// S1 from spec.md §8: asof 2026-02-18 (Wed), STANDARD lane, lead 7.
// Expect r1 = 2026-02-25, P = 7.
func TestResolveReceiptAndProtection_S1(t *testing.T) {
	c := dailyCalendar()
	r1, p, err := c.ResolveReceiptAndProtection(d("2026-02-18"), LaneStandard, 7, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !r1.Equal(d("2026-02-25")) {
		t.Errorf("r1 = %v, want 2026-02-25", r1)
	}
	if p != 7 {
		t.Errorf("P = %d, want 7", p)
	}
}

func TestResolveReceiptAndProtection_PAlwaysAtLeastOne(t *testing.T) {
	c := dailyCalendar()
	for day := 0; day < 14; day++ {
		orderDate := d("2026-02-18").AddDate(0, 0, day)
		if !c.IsOrderDay(orderDate) {
			continue
		}
		_, p, err := c.ResolveReceiptAndProtection(orderDate, LaneStandard, 3, nil)
		if err != nil {
			t.Fatalf("unexpected error on %v: %v", orderDate, err)
		}
		if p < 1 {
			t.Errorf("P = %d on %v, want >= 1", p, orderDate)
		}
	}
}

func TestResolveReceiptAndProtection_OverridePredatesPlanningDate(t *testing.T) {
	c := dailyCalendar()
	override := d("2026-02-01")
	_, _, err := c.ResolveReceiptAndProtection(d("2026-02-18"), LaneStandard, 7, &override)
	if err == nil {
		t.Fatal("expected InvalidCalendarError for override before planning date")
	}
}

func TestNextReceiptDate_SaturdayLaneRequiresFriday(t *testing.T) {
	c := dailyCalendar()
	// 2026-02-18 is a Wednesday.
	_, err := c.NextReceiptDate(d("2026-02-18"), LaneSaturday, 7)
	if err == nil {
		t.Fatal("expected error requesting SATURDAY lane on a non-Friday order date")
	}
}

func TestNextReceiptDate_SaturdayLaneOnFriday(t *testing.T) {
	c := dailyCalendar()
	friday := d("2026-02-20") // 2026-02-20 is a Friday
	if friday.Weekday() != time.Friday {
		t.Fatalf("test fixture error: %v is not a Friday", friday)
	}
	receipt, err := c.NextReceiptDate(friday, LaneSaturday, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.Weekday() != time.Saturday {
		t.Errorf("receipt weekday = %v, want Saturday", receipt.Weekday())
	}
}

func TestNextOrderOpportunity_CalendarExhausted(t *testing.T) {
	c := Calendar{OrderWeekdays: map[time.Weekday]bool{}}
	_, err := c.NextOrderOpportunity(d("2026-02-18"))
	if err == nil {
		t.Fatal("expected InvalidCalendarError when no weekday is ever a valid order day")
	}
}

func TestHoliday_NoReceiptShiftsForward(t *testing.T) {
	c := dailyCalendar()
	c.Holidays = []Holiday{
		{Type: HolidaySingleDate, Scope: ScopeReceipts, Effect: EffectNoReceipt, Date: d("2026-02-25")},
	}
	receipt, err := c.NextReceiptDate(d("2026-02-18"), LaneStandard, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.Equal(d("2026-02-25")) {
		t.Error("receipt date should have shifted past the no_receipt holiday")
	}
	if !receipt.Equal(d("2026-02-26")) {
		t.Errorf("receipt = %v, want 2026-02-26", receipt)
	}
}
