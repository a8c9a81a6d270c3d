// Package repository defines the narrow read/write boundary the core
// consumes (spec.md §6): value-object collections in, no storage format
// mandated. Concrete backends live in csvrepo, sqliterepo, and pgrepo.
package repository

import (
	"context"

	"github.com/pinggolf/reorder-engine/internal/calendar"
	"github.com/pinggolf/reorder-engine/internal/domain"
	"github.com/pinggolf/reorder-engine/internal/settings"
)

// Repository is the full set of read operations the core's collaborators
// need to assemble one decision, plus the write operations the order-
// confirmation and receiving-close workflows need (spec.md §6). The core
// itself never holds a Repository — only the facade and CLI/server
// collaborators do, passing already-loaded collections into the core's
// pure functions (spec.md §5).
type Repository interface {
	ReadSKUs(ctx context.Context) ([]domain.SKU, error)
	ReadTransactions(ctx context.Context) ([]domain.Transaction, error)
	ReadSales(ctx context.Context) ([]domain.SalesRecord, error)
	ReadPromoCalendar(ctx context.Context) ([]domain.PromoWindow, error)
	ReadEventUpliftRules(ctx context.Context) ([]domain.EventUpliftRule, error)
	ReadSettings(ctx context.Context) (settings.Tree, error)
	ReadHolidays(ctx context.Context) ([]calendar.Holiday, error)
	GetUnfulfilledOrders(ctx context.Context, sku string) ([]domain.OrderLog, error)

	AppendTransaction(ctx context.Context, tx domain.Transaction) error
	SaveOrderLog(ctx context.Context, log domain.OrderLog) error
	SaveReceivingLog(ctx context.Context, doc domain.ReceivingLog) error
	IsReceivingProcessed(ctx context.Context, documentID string) (bool, error)
}

// PageToken is an opaque cursor a backend's batch-read helpers may return
// for very large collections; the narrow interface above reads everything
// at once (spec.md §5: "present already-loaded in-memory collections"), so
// only the CSV/SQLite/Postgres implementations need to know what it means.
type PageToken string
