package affiliate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/promocard-agent/internal/config"
	"github.com/promocard-agent/internal/models"
	"github.com/promocard-agent/pkg/logger"
	"github.com/promocard-agent/pkg/ratelimit"
)

// Client searches the affiliate product API. The wire format is opaque to
// the engine; only the decoded product fields matter.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.MultiLimiter
	log        *logger.Logger
}

// New creates a new affiliate API client
func New(cfg config.AffiliateConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: limiter,
		log:     log.WithSource("affiliate", "api"),
	}
}

// Name returns the source name
func (c *Client) Name() string {
	return "affiliate"
}

// Type returns "affiliate"
func (c *Client) Type() string {
	return "affiliate"
}

// searchResponse mirrors the narrow slice of the API response the engine
// reads
type searchResponse struct {
	Products []struct {
		ID            string  `json:"id"`
		Title         string  `json:"title"`
		Price         float64 `json:"price"`
		OriginalPrice float64 `json:"original_price"`
		DiscountRate  float64 `json:"discount_rate"`
		Sales         int     `json:"sales"`
		Rating        float64 `json:"rating"`
		ShopName      string  `json:"shop_name"`
		FreeShipping  bool    `json:"free_shipping"`
		ImageURL      string  `json:"image_url"`
	} `json:"products"`
}

// Search queries the affiliate API for products matching the criteria
func (c *Client) Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Product, error) {
	if err := c.limiter.Wait(ctx, ratelimit.LimiterAffiliate); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	endpoint := c.baseURL + "/products/search"
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", criteria.Limit))
	if criteria.Type == models.SearchTypeTrending {
		params.Set("sort", "trending")
	} else {
		params.Set("q", criteria.Query)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("query", criteria.Query).Int("limit", criteria.Limit).Msg("Searching affiliate products")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("affiliate API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("affiliate API returned status %d", resp.StatusCode)
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode affiliate response: %w", err)
	}

	products := make([]*models.Product, 0, len(decoded.Products))
	for _, p := range decoded.Products {
		product := &models.Product{
			ID:            p.ID,
			Name:          p.Title,
			Price:         p.Price,
			OriginalPrice: p.OriginalPrice,
			DiscountRate:  p.DiscountRate,
			Sales:         p.Sales,
			Rating:        p.Rating,
			ShopName:      p.ShopName,
			FreeShipping:  p.FreeShipping,
			ImageURL:      p.ImageURL,
		}
		if err := product.Validate(); err != nil {
			c.log.Warn().Err(err).Str("product_id", p.ID).Msg("Skipping invalid product")
			continue
		}
		products = append(products, product)
	}

	c.log.Info().Int("count", len(products)).Msg("Affiliate search completed")
	return products, nil
}
