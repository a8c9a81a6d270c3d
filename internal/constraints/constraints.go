// Package constraints rounds a raw reorder quantity to pack/MOQ multiples,
// caps it by max-stock and shelf-life carrying capacity, and applies waste
// penalties for perishable SKUs, per spec.md §4.6.
package constraints

import (
	"math"
	"time"

	"github.com/pinggolf/reorder-engine/internal/domain"
)

// Lot is a tracked quantity of stock with a known expiry date, used for
// FEFO usable-stock computation when a SKU carries expiry labels.
type Lot struct {
	Qty        int
	ExpiryDate time.Time
}

// InTransitReceipt is one open incoming order arriving on ReceiptDate.
type InTransitReceipt struct {
	Qty         int
	ReceiptDate time.Time
}

// Settings bundles the shelf_life_policy and related tunables spec.md §6
// places on constraint application.
type Settings struct {
	WasteRiskThreshold   float64 // 0-100
	WastePenaltyMode     string  // soft | hard
	WastePenaltyFactor   float64 // [0,1]
	WasteHorizonDays     int
	MinShelfLifeGlobal   int
}

// NewSettings returns the spec.md §6 defaults.
func NewSettings() Settings {
	return Settings{
		WasteRiskThreshold: 20,
		WastePenaltyMode:   "soft",
		WastePenaltyFactor: 0.5,
		WasteHorizonDays:   0,
		MinShelfLifeGlobal: 0,
	}
}

// InventoryPositionInput bundles spec.md §4.6's inventory-position inputs.
type InventoryPositionInput struct {
	OnHand          int
	InTransit       []InTransitReceipt
	UnfulfilledQty  int
	DailyDemand     float64 // mu_daily, for the demand-to-subtract term over [asof+1, r1]
	AsofDate        time.Time
	R1              time.Time
}

// InventoryPositionResult is the IP computation's contribution to
// OrderExplain.
type InventoryPositionResult struct {
	InventoryPosition float64
	OnOrder           int
}

// InventoryPosition implements spec.md §4.6's "inventory position at r1":
// on-hand, plus in-transit receipts landing at or before r1, minus expected
// demand over (asof, r1], minus current unfulfilled quantity.
func InventoryPosition(in InventoryPositionInput) InventoryPositionResult {
	onOrder := 0
	for _, receipt := range in.InTransit {
		if !receipt.ReceiptDate.After(in.R1) {
			onOrder += receipt.Qty
		}
	}

	daysBetween := daysBetweenExclusive(in.AsofDate, in.R1)
	expectedDemand := in.DailyDemand * float64(daysBetween)

	ip := float64(in.OnHand) + float64(onOrder) - expectedDemand - float64(in.UnfulfilledQty)
	return InventoryPositionResult{InventoryPosition: ip, OnOrder: onOrder}
}

// UsableStockInput bundles the inputs spec.md §4.6's usable-stock
// computation needs for perishable SKUs.
type UsableStockInput struct {
	OnHand         int
	HasExpiryLabel bool
	Lots           []Lot // used when HasExpiryLabel is true
	ReceiptDate    time.Time
	ShelfLifeDays  int
	ProtectionMid  time.Time // midpoint of the protection window
}

// UsableStockResult reports usable vs unusable stock and the resulting
// waste-risk percentage.
type UsableStockResult struct {
	UsableStock      int
	UnusableStock    int
	WasteRiskPercent float64
}

// UsableStock computes, for perishable SKUs, how much of on-hand stock will
// still be within its shelf life at the midpoint of the protection window
// (spec.md §4.6). Lots expiring at or before that midpoint are written off
// as unusable. When HasExpiryLabel is false, expiry is estimated from
// ReceiptDate + ShelfLifeDays under a FIFO assumption applied to the single
// on-hand quantity (no per-lot tracking available).
func UsableStock(in UsableStockInput) UsableStockResult {
	if in.ShelfLifeDays <= 0 {
		return UsableStockResult{UsableStock: in.OnHand, UnusableStock: 0, WasteRiskPercent: 0}
	}

	if in.HasExpiryLabel && len(in.Lots) > 0 {
		usable, unusable := 0, 0
		for _, lot := range in.Lots {
			if !lot.ExpiryDate.After(in.ProtectionMid) {
				unusable += lot.Qty
			} else {
				usable += lot.Qty
			}
		}
		total := usable + unusable
		return UsableStockResult{
			UsableStock:      usable,
			UnusableStock:    unusable,
			WasteRiskPercent: percentOf(unusable, total),
		}
	}

	estimatedExpiry := in.ReceiptDate.AddDate(0, 0, in.ShelfLifeDays)
	if !estimatedExpiry.After(in.ProtectionMid) {
		return UsableStockResult{
			UsableStock:      0,
			UnusableStock:    in.OnHand,
			WasteRiskPercent: percentOf(in.OnHand, in.OnHand),
		}
	}
	return UsableStockResult{UsableStock: in.OnHand, UnusableStock: 0, WasteRiskPercent: 0}
}

func percentOf(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(part) / float64(total)
}

// Round implements spec.md §4.6's rounding contract (property 5): when
// qRaw > 0, round up to the nearest multiple of packSize, then bump to moq
// if still below it; qRaw == 0 stays 0.
func Round(qRaw float64, packSize, moq int) (int, error) {
	if packSize <= 0 || moq <= 0 {
		return 0, domain.ConstraintViolationError("pack_size and moq must both be positive")
	}
	if qRaw <= 0 {
		return 0, nil
	}
	q := roundUpToMultiple(qRaw, packSize)
	if q < moq {
		q = roundUpToMultiple(float64(moq), packSize)
	}
	return q, nil
}

func roundUpToMultiple(x float64, multiple int) int {
	n := int(math.Ceil(x / float64(multiple)))
	if n < 1 {
		n = 1
	}
	return n * multiple
}

// CapsInput bundles the cap parameters applied after rounding.
type CapsInput struct {
	IPAtR1            float64
	MaxStock          int
	DailyDemand       float64
	ShelfLifeDays     int
	PostPromoCapQty   int // 0 means "no cap configured"
}

// CapsResult reports which caps fired and the final quantity.
type CapsResult struct {
	Q                    int
	MaxStockApplied      bool
	ShelfLifeApplied     bool
	PostPromoCapApplied  bool
	ShelfLifeWarning     bool
}

// ApplyCaps implements spec.md §4.6's cap chain: max-stock, shelf-life
// carrying capacity, and an optional post-promo absolute cap, applied in
// that order. A shelf-life warning is emitted only when the quantity reaching
// the shelf-life step exceeds the capacity (i.e. the cap actually bit); the
// reorder point S itself is not compared against the capacity.
func ApplyCaps(q int, in CapsInput) CapsResult {
	result := CapsResult{Q: q}

	if in.MaxStock > 0 {
		maxQ := in.MaxStock - int(in.IPAtR1)
		if maxQ < 0 {
			maxQ = 0
		}
		if result.Q > maxQ {
			result.Q = maxQ
			result.MaxStockApplied = true
		}
	}

	if in.ShelfLifeDays > 0 {
		shelfCap := int(in.DailyDemand * float64(in.ShelfLifeDays))
		if result.Q > shelfCap {
			result.Q = shelfCap
			result.ShelfLifeApplied = true
			result.ShelfLifeWarning = true
		}
	}

	if in.PostPromoCapQty > 0 && result.Q > in.PostPromoCapQty {
		result.Q = in.PostPromoCapQty
		result.PostPromoCapApplied = true
	}

	if result.Q < 0 {
		result.Q = 0
	}
	return result
}

// ApplyWastePenalty implements spec.md §4.6's waste-penalty step: when
// wasteRiskPercent exceeds the configured threshold, either scale q by
// (1 - WastePenaltyFactor) (soft mode) or subtract int(q*WastePenaltyFactor),
// floored at 0 (hard mode). Both modes take the penalty from
// WastePenaltyFactor and so differ only in rounding; there is no separate
// fixed-quantity setting.
func ApplyWastePenalty(q int, wasteRiskPercent float64, settings Settings) int {
	if wasteRiskPercent <= settings.WasteRiskThreshold {
		return q
	}
	if settings.WastePenaltyMode == "hard" {
		penalty := int(float64(q) * settings.WastePenaltyFactor)
		q -= penalty
	} else {
		q = int(float64(q) * (1 - settings.WastePenaltyFactor))
	}
	if q < 0 {
		q = 0
	}
	return q
}

func daysBetweenExclusive(start, end time.Time) int {
	s := truncateToDay(start)
	e := truncateToDay(end)
	d := int(e.Sub(s).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
