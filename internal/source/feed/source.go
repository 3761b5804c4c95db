package feed

import (
	"context"
	"crypto/sha256"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/promocard-agent/internal/config"
	"github.com/promocard-agent/internal/models"
	"github.com/promocard-agent/pkg/logger"
	"github.com/promocard-agent/pkg/ratelimit"
)

// priceRe extracts the first dollar amount from a deal title
var priceRe = regexp.MustCompile(`\$(\d+(?:\.\d{1,2})?)`)

// Source implements ProductSource for RSS deal feeds
type Source struct {
	name    string
	url     string
	parser  *gofeed.Parser
	limiter *ratelimit.MultiLimiter
	log     *logger.Logger
}

// New creates a new deal feed source
func New(feed config.DealFeed, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Source {
	return &Source{
		name:    feed.Name,
		url:     feed.URL,
		parser:  gofeed.NewParser(),
		limiter: limiter,
		log:     log.WithSource("feed", feed.Name),
	}
}

// NewMultiple creates sources for every configured feed
func NewMultiple(cfg config.FeedsConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) []*Source {
	sources := make([]*Source, 0, len(cfg.Feeds))
	for _, feed := range cfg.Feeds {
		sources = append(sources, New(feed, limiter, log))
	}
	return sources
}

// Name returns the source name
func (s *Source) Name() string {
	return s.name
}

// Type returns "feed"
func (s *Source) Type() string {
	return "feed"
}

// Search parses the deal feed and maps items to products. Items without a
// parseable price or an image are skipped; cards need both.
func (s *Source) Search(ctx context.Context, criteria models.SearchCriteria) ([]*models.Product, error) {
	if err := s.limiter.Wait(ctx, ratelimit.LimiterFeeds); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	s.log.Debug().Str("url", s.url).Msg("Fetching deal feed")

	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse deal feed %s: %w", s.name, err)
	}

	products := make([]*models.Product, 0, len(feed.Items))
	for _, item := range feed.Items {
		if criteria.Limit > 0 && len(products) >= criteria.Limit {
			break
		}
		if criteria.Query != "" && !strings.Contains(strings.ToLower(item.Title), strings.ToLower(criteria.Query)) {
			continue
		}

		price, ok := parsePrice(item.Title)
		if !ok {
			continue
		}
		image := itemImage(item)
		if image == "" {
			continue
		}

		products = append(products, &models.Product{
			ID:       externalID(s.name, item.Link),
			Name:     strings.TrimSpace(priceRe.ReplaceAllString(item.Title, "")),
			Price:    price,
			ShopName: s.name,
			ImageURL: image,
		})
	}

	s.log.Info().Int("count", len(products)).Msg("Deal feed parsed")
	return products, nil
}

func parsePrice(title string) (float64, bool) {
	match := priceRe.FindStringSubmatch(title)
	if match == nil {
		return 0, false
	}
	price, err := strconv.ParseFloat(match[1], 64)
	if err != nil || price < 0 {
		return 0, false
	}
	return price, true
}

func itemImage(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}

// externalID creates a stable product ID from feed name and item link
func externalID(feedName, link string) string {
	hash := sha256.Sum256([]byte(feedName + ":" + link))
	return fmt.Sprintf("%x", hash[:16])
}
