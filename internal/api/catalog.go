package api

import (
	"errors"                       // Error matching
	"io"                           // Reading uploads
	"marketplace/internal/domain"  // Importing domain models
	"marketplace/internal/service" // Catalog manager
	"marketplace/internal/utils"   // Cache helpers
	"net/http"                     // HTTP status codes
	"net/url"                      // Path escaping
	"strconv"                      // String conversion
	"time"                         // Time durations

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Prices
	"github.com/sirupsen/logrus"    // Logging library
)

// productsCacheKey caches the public product listing
const productsCacheKey = "catalog:products"

// ProductResponse is the public view of a product
type ProductResponse struct {
	ProductName       string          `json:"product_name"`        // Product name
	Price             decimal.Decimal `json:"price"`               // Unit price
	AvailableQuantity int             `json:"available_quantity"`  // Units on offer
	Quality           string          `json:"quality"`             // Free text quality
	DateOfProduce     string          `json:"date_of_produce"`     // YYYY-MM-DD
	ShelfLifeDays     int             `json:"shelf_life_days"`     // Shelf life in days
	ExpiresOn         string          `json:"expires_on"`          // Last good day
	ImageURL          string          `json:"image_url,omitempty"` // Set when an image is stored
}

func toProductResponse(p *domain.Product) ProductResponse {
	resp := ProductResponse{
		ProductName:       p.ProductName,                             // Product name
		Price:             p.Price,                                   // Unit price
		AvailableQuantity: p.AvailableQuantity,                       // Units on offer
		Quality:           p.Quality,                                 // Quality
		DateOfProduce:     p.DateOfProduce.Format(domain.DateLayout), // Production date
		ShelfLifeDays:     p.ShelfLifeDays,                           // Shelf life
		ExpiresOn:         p.ExpiresOn().Format(domain.DateLayout),   // Expiry date
	}
	if p.HasImage() {
		resp.ImageURL = "/products/" + url.PathEscape(p.ProductName) + "/image"
	}
	return resp
}

// ListProductsHandler returns the catalog, served from cache when possible
func ListProductsHandler(catalog *service.Catalog, cache utils.Cache, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var cached []ProductResponse // Try to get cached response
		found, err := cache.Get(ctx, productsCacheKey, &cached)
		// If cached data found, return it
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"products": cached, "cached": true})
			return
		}
		products, err := catalog.ListProducts(ctx) // Fetch from the store
		if err != nil {
			respondError(c, err)
			return
		}
		resp := make([]ProductResponse, len(products))
		for i := range products {
			resp[i] = toProductResponse(&products[i]) // Map products to response format
		}
		// Cache the response for future requests
		if err := cache.Set(ctx, productsCacheKey, resp, ttl); err != nil {
			logrus.WithField("error", err.Error()).Warn("Failed to cache product listing")
		}
		c.JSON(http.StatusOK, gin.H{"products": resp, "cached": false})
	}
}

// ProductImageHandler serves the stored image of a product
func ProductImageHandler(catalog *service.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		img, err := catalog.ProductImage(c.Request.Context(), c.Param("name"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.Data(http.StatusOK, http.DetectContentType(img), img)
	}
}

// AddProductHandler adds a product or replaces the product with the same name.
// Expects a multipart form: name, price, available, quality, date_of_produce,
// shelf_life_days and an optional image file.
func AddProductHandler(catalog *service.Catalog, cache utils.Cache, maxImageBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		in, err := parseProductForm(c, maxImageBytes)
		if err != nil {
			respondError(c, err)
			return
		}
		product, created, err := catalog.AddOrUpdateProduct(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		// Invalidate the public listing
		if err := cache.Delete(c.Request.Context(), productsCacheKey); err != nil {
			logrus.WithField("error", err.Error()).Warn("Failed to invalidate product listing")
		}
		status, message := http.StatusOK, "Product updated successfully!"
		if created {
			status, message = http.StatusCreated, "Product added successfully!"
		}
		c.JSON(status, gin.H{"message": message, "product": toProductResponse(product)})
	}
}

func parseProductForm(c *gin.Context, maxImageBytes int64) (service.ProductInput, error) {
	in := service.ProductInput{
		Name:    c.PostForm("name"),    // Product name
		Quality: c.PostForm("quality"), // Free text quality
	}
	var err error
	if in.Price, err = decimal.NewFromString(c.DefaultPostForm("price", "0")); err != nil {
		return in, badField("price")
	}
	if in.Available, err = strconv.Atoi(c.DefaultPostForm("available", "0")); err != nil {
		return in, badField("available")
	}
	if in.ShelfLifeDays, err = strconv.Atoi(c.DefaultPostForm("shelf_life_days", "0")); err != nil {
		return in, badField("shelf_life_days")
	}
	if raw := c.PostForm("date_of_produce"); raw != "" {
		if in.DateOfProduce, err = time.Parse(domain.DateLayout, raw); err != nil {
			return in, badField("date_of_produce")
		}
	}
	in.Image, err = readImage(c, maxImageBytes)
	return in, err
}

// readImage returns the uploaded image bytes, or nil when none was sent
func readImage(c *gin.Context, maxImageBytes int64) ([]byte, error) {
	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil // Image is optional
	} else if err != nil {
		return nil, badField("image")
	}
	if header.Size > maxImageBytes {
		return nil, invalidInput("image must be at most %d bytes", maxImageBytes)
	}
	f, err := header.Open()
	if err != nil {
		return nil, badField("image")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
	if err != nil {
		return nil, badField("image")
	}
	if int64(len(data)) > maxImageBytes {
		return nil, invalidInput("image must be at most %d bytes", maxImageBytes)
	}
	// Only jpg and png are accepted
	switch http.DetectContentType(data) {
	case "image/jpeg", "image/png":
		return data, nil
	default:
		return nil, invalidInput("image must be a JPEG or PNG file")
	}
}
