// Package calendar resolves order days, receipt dates and protection
// periods against a logistics calendar, per spec.md §4.2.
package calendar

import (
	"time"

	"github.com/pinggolf/reorder-engine/internal/domain"
)

// Lane names the supplier delivery schedule rule in effect for an order.
type Lane string

const (
	LaneStandard Lane = "STANDARD"
	LaneSaturday Lane = "SATURDAY"
	LaneMonday   Lane = "MONDAY"
)

// HolidayType enumerates how a holiday's date range is specified.
type HolidayType string

const (
	HolidaySingleDate   HolidayType = "single_date"
	HolidayDateRange    HolidayType = "date_range"
	HolidayMonthlyFixed HolidayType = "monthly_fixed_day"
)

// HolidayScope names which calendar a holiday applies to.
type HolidayScope string

const (
	ScopeLogistics HolidayScope = "logistics"
	ScopeOrders    HolidayScope = "orders"
	ScopeReceipts  HolidayScope = "receipts"
)

// HolidayEffect names what a holiday blocks.
type HolidayEffect string

const (
	EffectNoOrder   HolidayEffect = "no_order"
	EffectNoReceipt HolidayEffect = "no_receipt"
	EffectBoth      HolidayEffect = "both"
)

// Holiday is one calendar exception.
type Holiday struct {
	Type      HolidayType
	Scope     HolidayScope
	Effect    HolidayEffect
	Date      time.Time // for single_date
	StartDate time.Time // for date_range
	EndDate   time.Time // for date_range (inclusive)
	Month     time.Month // for monthly_fixed_day
	Day       int         // for monthly_fixed_day
}

// blocksOrders reports whether this holiday blocks ordering on date.
func (h Holiday) blocksOrders(date time.Time) bool {
	if h.Effect != EffectNoOrder && h.Effect != EffectBoth {
		return false
	}
	if h.Scope != ScopeLogistics && h.Scope != ScopeOrders {
		return false
	}
	return h.matches(date)
}

// blocksReceipts reports whether this holiday blocks receiving on date.
func (h Holiday) blocksReceipts(date time.Time) bool {
	if h.Effect != EffectNoReceipt && h.Effect != EffectBoth {
		return false
	}
	if h.Scope != ScopeLogistics && h.Scope != ScopeReceipts {
		return false
	}
	return h.matches(date)
}

func (h Holiday) matches(date time.Time) bool {
	d := truncateToDay(date)
	switch h.Type {
	case HolidaySingleDate:
		return d.Equal(truncateToDay(h.Date))
	case HolidayDateRange:
		return !d.Before(truncateToDay(h.StartDate)) && !d.After(truncateToDay(h.EndDate))
	case HolidayMonthlyFixed:
		return d.Month() == h.Month && d.Day() == h.Day
	default:
		return false
	}
}

// Calendar holds the logistics weekday set and holiday list the resolver
// consumes. Weekdays uses time.Weekday (0=Sunday ... 6=Saturday); spec.md's
// settings schema lists order_days as 0=Monday-indexed integers, so callers
// building a Calendar from settings must translate via FromSettingWeekdays.
type Calendar struct {
	OrderWeekdays map[time.Weekday]bool
	Holidays      []Holiday
}

// FromSettingWeekdays converts the settings-tree representation
// (0=Monday..6=Sunday per spec.md §6 calendar.order_days) into the
// time.Weekday-keyed set Calendar uses internally.
func FromSettingWeekdays(days []int) map[time.Weekday]bool {
	out := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		out[time.Weekday((d+1)%7)] = true
	}
	return out
}

// IsOrderDay reports whether date is a valid order day: its weekday is in
// the order-day set and no holiday with a no_order effect blocks it.
func (c Calendar) IsOrderDay(date time.Time) bool {
	if !c.OrderWeekdays[date.Weekday()] {
		return false
	}
	for _, h := range c.Holidays {
		if h.blocksOrders(date) {
			return false
		}
	}
	return true
}

// isReceiptDay reports whether date is valid for receiving (no no_receipt
// holiday blocks it). Unlike order days, receipt validity does not depend
// on the logistics weekday set — receiving can happen any day the supplier
// is not on holiday.
func (c Calendar) isReceiptDay(date time.Time) bool {
	for _, h := range c.Holidays {
		if h.blocksReceipts(date) {
			return false
		}
	}
	return true
}

// NextOrderOpportunity returns the smallest valid order day strictly
// greater than after.
func (c Calendar) NextOrderOpportunity(after time.Time) (time.Time, error) {
	d := truncateToDay(after).AddDate(0, 0, 1)
	for i := 0; i < 730; i++ {
		if c.IsOrderDay(d) {
			return d, nil
		}
		d = d.AddDate(0, 0, 1)
	}
	return time.Time{}, domain.InvalidCalendarError("no future order opportunity within 2 years: calendar exhausted", nil)
}

// NextReceiptDate applies the supplier commitment rule (spec.md §4.2):
// STANDARD delivers lead_time_days later; SATURDAY/MONDAY are only valid
// when orderDate is a Friday. Holidays with a no_receipt effect shift the
// receipt forward to the next receipt-valid day.
func (c Calendar) NextReceiptDate(orderDate time.Time, lane Lane, leadTimeDays int) (time.Time, error) {
	if (lane == LaneSaturday || lane == LaneMonday) && truncateToDay(orderDate).Weekday() != time.Friday {
		return time.Time{}, domain.InvalidCalendarError(
			string(lane)+" lane requested on a non-Friday order date; caller must downgrade to STANDARD", nil)
	}

	var receipt time.Time
	switch lane {
	case LaneSaturday:
		receipt = nextWeekday(orderDate, time.Saturday)
	case LaneMonday:
		receipt = nextWeekday(orderDate, time.Monday)
	default:
		receipt = truncateToDay(orderDate).AddDate(0, 0, leadTimeDays)
	}

	for i := 0; i < 365 && !c.isReceiptDay(receipt); i++ {
		receipt = receipt.AddDate(0, 0, 1)
	}
	return receipt, nil
}

// ResolveReceiptAndProtection is the authoritative calendar operation
// (spec.md §4.2). It returns (r1, P) where P is the number of days from
// orderDate (exclusive) through the day before the next delivery
// opportunity after r1 (inclusive); P >= 1 always.
//
// When override is non-nil, r1 = *override (validated to be on or after
// orderDate) and P is recomputed against the next natural receipt after it.
func (c Calendar) ResolveReceiptAndProtection(orderDate time.Time, lane Lane, leadTimeDays int, override *time.Time) (time.Time, int, error) {
	var r1 time.Time
	if override != nil {
		if truncateToDay(*override).Before(truncateToDay(orderDate)) {
			return time.Time{}, 0, domain.InvalidCalendarError(
				"receipt override predates the planning date", nil)
		}
		r1 = truncateToDay(*override)
	} else {
		receipt, err := c.NextReceiptDate(orderDate, lane, leadTimeDays)
		if err != nil {
			return time.Time{}, 0, err
		}
		r1 = receipt
	}

	nextOrder, err := c.NextOrderOpportunity(orderDate)
	if err != nil {
		return time.Time{}, 0, err
	}
	nextReceipt, err := c.NextReceiptDate(nextOrder, lane, leadTimeDays)
	if err != nil {
		return time.Time{}, 0, err
	}
	// if the override pushed r1 past the naturally-next receipt, keep
	// advancing the "next delivery opportunity" search forward from r1.
	for !nextReceipt.After(r1) {
		nextOrder, err = c.NextOrderOpportunity(nextOrder)
		if err != nil {
			return time.Time{}, 0, err
		}
		nextReceipt, err = c.NextReceiptDate(nextOrder, lane, leadTimeDays)
		if err != nil {
			return time.Time{}, 0, err
		}
	}

	protectionEnd := nextReceipt.AddDate(0, 0, -1)
	p := daysBetweenExclusive(orderDate, protectionEnd)
	if p < 1 {
		p = 1
	}
	return r1, p, nil
}

func daysBetweenExclusive(from, to time.Time) int {
	f := truncateToDay(from)
	t := truncateToDay(to)
	return int(t.Sub(f).Hours() / 24)
}

func nextWeekday(from time.Time, wd time.Weekday) time.Time {
	d := truncateToDay(from)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
