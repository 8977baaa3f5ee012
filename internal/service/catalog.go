package service

import (
	"context"
	"fmt"
	"marketplace/internal/domain"
	"marketplace/internal/metrics"
	"marketplace/internal/store"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ProductInput is what a seller submits for a product
type ProductInput struct {
	Name          string          `validate:"required,max=128"`
	Price         decimal.Decimal `validate:"-"`
	Available     int             `validate:"gte=0"`
	Quality       string          `validate:"max=255"`
	DateOfProduce time.Time       `validate:"-"`
	ShelfLifeDays int             `validate:"gte=0"`
	Image         []byte          `validate:"-"`
}

// Catalog manages the product listing
type Catalog struct {
	store store.Store
	now   func() time.Time
}

// NewCatalog returns a catalog manager backed by s
func NewCatalog(s store.Store) *Catalog {
	return &Catalog{store: s, now: time.Now}
}

// AddOrUpdateProduct stores the product, replacing every field of an
// existing product with the same name (a missing image clears the old one).
// created reports whether the name was new.
func (c *Catalog) AddOrUpdateProduct(ctx context.Context, in ProductInput) (*domain.Product, bool, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, false, invalid("Name is required")
	}
	if err := checkStruct(in); err != nil {
		return nil, false, err
	}
	if in.Price.IsNegative() {
		return nil, false, invalid("Price must not be negative")
	}
	date := in.DateOfProduce
	if date.IsZero() {
		date = c.now() // Defaults to today like the seller form
	}
	y, m, d := date.Date()

	product := &domain.Product{
		ProductName:       in.Name,
		Price:             in.Price,
		AvailableQuantity: in.Available,
		Quality:           in.Quality,
		DateOfProduce:     time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
		ShelfLifeDays:     in.ShelfLifeDays,
		Image:             in.Image,
	}
	created, err := c.store.UpsertProduct(ctx, product)
	if err != nil {
		return nil, false, err
	}
	metrics.RecordProductUpsert(created)

	logrus.WithFields(logrus.Fields{
		"product":   product.ProductName,
		"price":     product.Price.String(),
		"available": product.AvailableQuantity,
		"created":   created,
	}).Info("Product saved")
	return product, created, nil
}

// ListProducts returns the catalog ordered by product name
func (c *Catalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return c.store.ListProducts(ctx)
}

// ProductImage returns the stored image of a product
func (c *Catalog) ProductImage(ctx context.Context, name string) ([]byte, error) {
	product, err := c.store.FindProductByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if !product.HasImage() {
		return nil, fmt.Errorf("%w: %s has no image", domain.ErrNotFound, name)
	}
	return product.Image, nil
}
