package store

import (
	"context"                     // Request scoped cancellation
	"fmt"                         // Error wrapping
	"marketplace/internal/domain" // Importing domain models

	"gorm.io/driver/mysql" // MySQL driver for GORM
	"gorm.io/gorm"         // GORM ORM library
	"gorm.io/gorm/clause"  // ON DUPLICATE KEY support
)

// GormStore is the MySQL backed Store
type GormStore struct {
	db *gorm.DB
}

// Open connects to MySQL using the given DSN
func Open(dsn string) (*GormStore, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %w", domain.ErrPersistence, err)
	}
	return NewGormStore(db), nil
}

// NewGormStore wraps an already opened gorm connection
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// DB exposes the underlying connection for migrations
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// InsertUser creates a user row
func (s *GormStore) InsertUser(ctx context.Context, user *domain.User) error {
	err := s.db.WithContext(ctx).Create(user).Error // Fails on duplicate primary key
	return translate(err, "insert user "+user.Username)
}

// FindUserByName looks a user up by username
func (s *GormStore) FindUserByName(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err, "find user "+username)
	}
	return &user, nil
}

// UpsertProduct inserts a product or overwrites every column of the existing row
func (s *GormStore) UpsertProduct(ctx context.Context, product *domain.Product) (bool, error) {
	// Single INSERT ... ON DUPLICATE KEY UPDATE statement, atomic per row
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(product)
	if res.Error != nil {
		return false, translate(res.Error, "upsert product "+product.ProductName)
	}
	// MySQL reports 1 affected row for an insert and 2 for a replaced row
	return res.RowsAffected == 1, nil
}

// FindProductByName looks a product up by name
func (s *GormStore) FindProductByName(ctx context.Context, name string) (*domain.Product, error) {
	var product domain.Product
	if err := s.db.WithContext(ctx).Where("product_name = ?", name).First(&product).Error; err != nil {
		return nil, translate(err, "find product "+name)
	}
	return &product, nil
}

// ListProducts returns every product ordered by name
func (s *GormStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := s.db.WithContext(ctx).Order("product_name ASC").Find(&products).Error; err != nil {
		return nil, translate(err, "list products")
	}
	return products, nil
}

// InsertOrder records an order after checking that its product exists
func (s *GormStore) InsertOrder(ctx context.Context, order *domain.Order) error {
	if order.Status == "" {
		order.Status = domain.OrderStatusPending // Every new order starts pending
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64 // Number of products with that name
		if err := tx.Model(&domain.Product{}).Where("product_name = ?", order.ProductName).Count(&count).Error; err != nil {
			return err // Return error to rollback
		}
		if count == 0 {
			return fmt.Errorf("%w: product %q", domain.ErrNotFound, order.ProductName)
		}
		return tx.Create(order).Error // Assigns the surrogate id
	})
	return translate(err, "insert order")
}

// FindOrder looks an order up by id
func (s *GormStore) FindOrder(ctx context.Context, id uint) (*domain.Order, error) {
	var order domain.Order
	if err := s.db.WithContext(ctx).First(&order, id).Error; err != nil {
		return nil, translate(err, fmt.Sprintf("find order %d", id))
	}
	return &order, nil
}

// ListOrders returns every order, oldest first
func (s *GormStore) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := s.db.WithContext(ctx).Order("id ASC").Find(&orders).Error; err != nil {
		return nil, translate(err, "list orders")
	}
	return orders, nil
}

// ListOrdersPage returns one page of orders and the total order count
func (s *GormStore) ListOrdersPage(ctx context.Context, offset, limit int) ([]domain.Order, int64, error) {
	var total int64 // Total order count
	db := s.db.WithContext(ctx)
	if err := db.Model(&domain.Order{}).Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count orders")
	}
	var orders []domain.Order
	if err := db.Order("id ASC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, translate(err, "list orders page")
	}
	return orders, total, nil
}

// ListOrdersByUser returns the orders placed by one user, oldest first
func (s *GormStore) ListOrdersByUser(ctx context.Context, username string) ([]domain.Order, error) {
	var orders []domain.Order
	if err := s.db.WithContext(ctx).Where("username = ?", username).Order("id ASC").Find(&orders).Error; err != nil {
		return nil, translate(err, "list orders of "+username)
	}
	return orders, nil
}

// UpdateOrderStatus performs a compare-and-set on the order status
func (s *GormStore) UpdateOrderStatus(ctx context.Context, id uint, from, to domain.OrderStatus) (*domain.Order, error) {
	var order domain.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Order{}).Where("id = ? AND status = ?", id, from).Update("status", to)
		if res.Error != nil {
			return res.Error // Return error to rollback
		}
		if err := tx.First(&order, id).Error; err != nil {
			return err // Missing order
		}
		if res.RowsAffected == 0 {
			// Someone else moved the order first
			return fmt.Errorf("%w: order %d is %s", domain.ErrInvalidTransition, id, order.Status)
		}
		return nil // Commit transaction
	})
	if err != nil {
		return nil, translate(err, fmt.Sprintf("update order %d", id))
	}
	return &order, nil
}

// Ping checks that the database is reachable
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return translate(err, "ping")
	}
	return translate(sqlDB.PingContext(ctx), "ping")
}

// Close releases the connection pool
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return translate(err, "close")
	}
	return translate(sqlDB.Close(), "close")
}
