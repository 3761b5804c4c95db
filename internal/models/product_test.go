package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promocard-agent/internal/models"
)

func TestProduct_EffectiveOriginalPrice(t *testing.T) {
	tests := []struct {
		name     string
		product  models.Product
		want     float64
		wantShow bool
	}{
		{
			name:     "explicit original price wins",
			product:  models.Product{Price: 50, OriginalPrice: 80, DiscountRate: 20},
			want:     80,
			wantShow: true,
		},
		{
			name:     "derived from discount rate",
			product:  models.Product{Price: 75, DiscountRate: 25},
			want:     100,
			wantShow: true,
		},
		{
			name:     "no discount data",
			product:  models.Product{Price: 50},
			wantShow: false,
		},
		{
			name:     "original price below current is ignored",
			product:  models.Product{Price: 50, OriginalPrice: 40},
			wantShow: false,
		},
		{
			name:     "full discount rate has no finite original",
			product:  models.Product{Price: 50, DiscountRate: 100},
			wantShow: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, show := tt.product.EffectiveOriginalPrice()
			assert.Equal(t, tt.wantShow, show)
			if tt.wantShow {
				assert.InDelta(t, tt.want, got, 0.001)
			}
		})
	}
}

func TestProduct_Validate(t *testing.T) {
	valid := models.Product{ID: "p1", Name: "Widget", Price: 9.99, Rating: 4.5}
	require.NoError(t, valid.Validate())

	negative := models.Product{ID: "p2", Price: -1}
	assert.Error(t, negative.Validate())

	badRating := models.Product{ID: "p3", Price: 1, Rating: 5.5}
	assert.Error(t, badRating.Validate())

	badRate := models.Product{ID: "p4", Price: 1, DiscountRate: 120}
	assert.Error(t, badRate.Validate())
}
