package describe_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promocard-agent/internal/config"
	"github.com/promocard-agent/internal/describe"
	"github.com/promocard-agent/internal/models"
	"github.com/promocard-agent/pkg/logger"
	"github.com/promocard-agent/pkg/ratelimit"
)

type scriptedService struct {
	responses  map[string]string
	errs       map[string]error
	calls      []string
	lastSystem string
}

func (s *scriptedService) Generate(ctx context.Context, model config.ModelConfig, systemPrompt, userMessage string) (string, error) {
	s.calls = append(s.calls, model.Name)
	s.lastSystem = systemPrompt
	if err := s.errs[model.Name]; err != nil {
		return "", err
	}
	return s.responses[model.Name], nil
}

func cascade(names ...string) []config.ModelConfig {
	models := make([]config.ModelConfig, 0, len(names))
	for _, name := range names {
		models = append(models, config.ModelConfig{Name: name, MaxTokens: 300})
	}
	return models
}

func newTestProvider(service describe.TextService, models []config.ModelConfig) *describe.Provider {
	limiter := ratelimit.NewWindowLimiter(100, time.Minute)
	return describe.NewProviderWithService(service, models, limiter, logger.Nop())
}

func sampleProduct() *models.Product {
	return &models.Product{
		ID:     "p1",
		Name:   "Ceramic Pour-Over Coffee Set",
		Price:  34.50,
		Sales:  210,
		Rating: 4.3,
	}
}

func TestProvider_CustomDescriptionPassthrough(t *testing.T) {
	service := &scriptedService{}
	p := newTestProvider(service, cascade("model-a"))

	text, errs := p.Provide(context.Background(), sampleProduct(), describe.Options{
		UseAI:             true,
		CustomDescription: "Hand-written copy.",
	})

	assert.Equal(t, "Hand-written copy.", text)
	assert.Empty(t, errs)
	assert.Empty(t, service.calls, "custom text must not call the service")
}

func TestProvider_DisabledAIUsesFallback(t *testing.T) {
	service := &scriptedService{}
	p := newTestProvider(service, cascade("model-a"))

	text, errs := p.Provide(context.Background(), sampleProduct(), describe.Options{UseAI: false})

	assert.NotEmpty(t, text)
	assert.Empty(t, errs)
	assert.Empty(t, service.calls)
}

func TestProvider_CascadeFallsThroughInOrder(t *testing.T) {
	service := &scriptedService{
		errs:      map[string]error{"model-a": errors.New("overloaded")},
		responses: map[string]string{"model-b": "Second model wins."},
	}
	p := newTestProvider(service, cascade("model-a", "model-b", "model-c"))

	text, errs := p.Provide(context.Background(), sampleProduct(), describe.Options{UseAI: true})

	assert.Equal(t, "Second model wins.", text)
	assert.Equal(t, []string{"model-a", "model-b"}, service.calls)
	require.Len(t, errs, 1)

	var svcErr *describe.TextServiceError
	require.ErrorAs(t, errs[0], &svcErr)
	assert.Equal(t, "model-a", svcErr.Model)
}

func TestProvider_ExhaustedCascadeUsesFallback(t *testing.T) {
	service := &scriptedService{
		errs: map[string]error{
			"model-a": errors.New("overloaded"),
			"model-b": errors.New("timeout"),
		},
	}
	p := newTestProvider(service, cascade("model-a", "model-b"))

	text, errs := p.Provide(context.Background(), sampleProduct(), describe.Options{UseAI: true})

	assert.NotEmpty(t, text, "fallback must always produce text")
	assert.Len(t, errs, 2)
}

func TestProvider_EmptyResponseCountsAsFailure(t *testing.T) {
	service := &scriptedService{
		responses: map[string]string{"model-a": "   ", "model-b": "Usable text."},
	}
	p := newTestProvider(service, cascade("model-a", "model-b"))

	text, errs := p.Provide(context.Background(), sampleProduct(), describe.Options{UseAI: true})

	assert.Equal(t, "Usable text.", text)
	assert.Len(t, errs, 1)
}

func TestProvider_PromptReflectsOptions(t *testing.T) {
	service := &scriptedService{responses: map[string]string{"model-a": "Copy."}}
	p := newTestProvider(service, cascade("model-a"))

	_, errs := p.Provide(context.Background(), sampleProduct(), describe.Options{
		UseAI:            true,
		Tone:             "calm and premium",
		MaxLength:        120,
		HighlightUrgency: true,
	})

	require.Empty(t, errs)
	assert.Contains(t, service.lastSystem, "Tone: calm and premium")
	assert.Contains(t, service.lastSystem, "Maximum 120 characters")
	assert.Contains(t, service.lastSystem, "this price will not last")
}

func TestProvider_PromptDefaultsWhenOptionsUnset(t *testing.T) {
	service := &scriptedService{responses: map[string]string{"model-a": "Copy."}}
	p := newTestProvider(service, cascade("model-a"))

	_, errs := p.Provide(context.Background(), sampleProduct(), describe.Options{UseAI: true})

	require.Empty(t, errs)
	assert.Contains(t, service.lastSystem, "Tone: friendly and energetic")
	assert.Contains(t, service.lastSystem, "Maximum 280 characters")
	assert.Contains(t, service.lastSystem, "Do not pressure the reader")
}

func TestFallback(t *testing.T) {
	t.Run("hot seller", func(t *testing.T) {
		p := &models.Product{Name: "Gadget", Price: 9.99, Sales: 2500, Rating: 4.8}
		text := describe.Fallback(p, describe.Options{})
		assert.Contains(t, text, "Selling fast!")
		assert.Contains(t, text, "$9.99")
		assert.Contains(t, text, "2500 sold")
		assert.NotContains(t, text, "🔥")
		assert.NotContains(t, text, "#deal")
	})

	t.Run("emojis and hashtags", func(t *testing.T) {
		p := &models.Product{Name: "Gadget", Price: 9.99}
		text := describe.Fallback(p, describe.Options{IncludeEmojis: true, IncludeHashtags: true})
		assert.Contains(t, text, "🔥")
		assert.Contains(t, text, "#deal #sale #shopping")
	})

	t.Run("urgency adds a closing nudge", func(t *testing.T) {
		p := &models.Product{Name: "Gadget", Price: 9.99}
		text := describe.Fallback(p, describe.Options{HighlightUrgency: true})
		assert.Contains(t, text, "before the price goes back up")

		plain := describe.Fallback(p, describe.Options{})
		assert.NotContains(t, plain, "before the price goes back up")
	})

	t.Run("long names are truncated", func(t *testing.T) {
		p := &models.Product{
			Name:  "An Extremely Long Product Name That Goes On And On Well Past Forty Characters",
			Price: 1,
		}
		text := describe.Fallback(p, describe.Options{})
		assert.Contains(t, text, "…")
		assert.NotContains(t, text, "Forty Characters")
	})
}
