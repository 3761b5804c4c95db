package feed

import (
	"testing"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	price, ok := parsePrice("Cordless Drill Kit $49.99 at MegaTools")
	require.True(t, ok)
	assert.InDelta(t, 49.99, price, 0.001)

	price, ok = parsePrice("Big TV for $299")
	require.True(t, ok)
	assert.InDelta(t, 299, price, 0.001)

	_, ok = parsePrice("Free shipping on everything")
	assert.False(t, ok)
}

func TestItemImage(t *testing.T) {
	withImage := &gofeed.Item{Image: &gofeed.Image{URL: "https://img.example/a.jpg"}}
	assert.Equal(t, "https://img.example/a.jpg", itemImage(withImage))

	withEnclosure := &gofeed.Item{
		Enclosures: []*gofeed.Enclosure{
			{Type: "audio/mpeg", URL: "https://img.example/a.mp3"},
			{Type: "image/png", URL: "https://img.example/b.png"},
		},
	}
	assert.Equal(t, "https://img.example/b.png", itemImage(withEnclosure))

	assert.Empty(t, itemImage(&gofeed.Item{}))
}

func TestExternalID(t *testing.T) {
	a := externalID("slickdeals", "https://example.com/deal/1")
	b := externalID("slickdeals", "https://example.com/deal/1")
	c := externalID("slickdeals", "https://example.com/deal/2")
	d := externalID("ozbargain", "https://example.com/deal/1")

	assert.Equal(t, a, b, "same feed and link must hash identically")
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d)
	assert.Len(t, a, 32)
}
