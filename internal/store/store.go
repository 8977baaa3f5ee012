// Package store persists users, products and orders.
package store

import (
	"context"
	"errors"
	"fmt"
	"marketplace/internal/domain"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// mysqlDuplicateEntry is the MySQL error number for a unique key violation
const mysqlDuplicateEntry = 1062

// Store is the persistence contract used by the services
type Store interface {
	// InsertUser creates a user row. A taken username yields domain.ErrAlreadyExists.
	InsertUser(ctx context.Context, user *domain.User) error
	FindUserByName(ctx context.Context, username string) (*domain.User, error)

	// UpsertProduct inserts the product or replaces every column of the row
	// with the same name. created is false when an existing row was replaced.
	UpsertProduct(ctx context.Context, product *domain.Product) (created bool, err error)
	FindProductByName(ctx context.Context, name string) (*domain.Product, error)
	// ListProducts returns the catalog ordered by product name.
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// InsertOrder assigns the order id and defaults the status to pending.
	// The referenced product must exist.
	InsertOrder(ctx context.Context, order *domain.Order) error
	FindOrder(ctx context.Context, id uint) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	// ListOrdersPage returns at most limit orders starting at offset, oldest
	// first, together with the total number of orders.
	ListOrdersPage(ctx context.Context, offset, limit int) ([]domain.Order, int64, error)
	ListOrdersByUser(ctx context.Context, username string) ([]domain.Order, error)
	// UpdateOrderStatus moves the order from one status to another, failing
	// with domain.ErrInvalidTransition when the stored status is no longer from.
	UpdateOrderStatus(ctx context.Context, id uint, from, to domain.OrderStatus) (*domain.Order, error)

	Ping(ctx context.Context) error
	Close() error
}

var domainErrors = []error{
	domain.ErrValidation,
	domain.ErrDuplicateUsername,
	domain.ErrAlreadyExists,
	domain.ErrInvalidCredentials,
	domain.ErrNotFound,
	domain.ErrPersistence,
	domain.ErrNotification,
	domain.ErrInvalidTransition,
}

// translate maps a gorm / driver error onto the domain taxonomy
func translate(err error, op string) error {
	if err == nil {
		return nil
	}
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return err // Already classified
		}
	}
	var myErr *mysql.MySQLError
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", domain.ErrNotFound, op)
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry:
		return fmt.Errorf("%w: %s", domain.ErrAlreadyExists, op)
	default:
		return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, op, err)
	}
}

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
