package describe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/promocard-agent/internal/config"
	"github.com/promocard-agent/internal/models"
	"github.com/promocard-agent/pkg/logger"
	"github.com/promocard-agent/pkg/ratelimit"
)

// TextServiceError reports a single model configuration failing. The
// cascade recovers by trying the next configuration; only when every
// configuration fails does the provider fall back to the templated text.
type TextServiceError struct {
	Model string
	Err   error
}

func (e *TextServiceError) Error() string {
	return fmt.Sprintf("text service %s: %v", e.Model, e.Err)
}

func (e *TextServiceError) Unwrap() error {
	return e.Err
}

// TextService generates text for one model configuration
type TextService interface {
	Generate(ctx context.Context, model config.ModelConfig, systemPrompt, userMessage string) (string, error)
}

// Options controls how a description is produced
type Options struct {
	UseAI             bool
	CustomDescription string
	Tone              string
	IncludeEmojis     bool
	IncludeHashtags   bool
	HighlightUrgency  bool
	MaxLength         int
}

// Provider produces the description text for a card: a caller-supplied
// string, a rate-limited cascade over model configurations, or the
// deterministic templated fallback.
type Provider struct {
	service TextService
	models  []config.ModelConfig
	limiter *ratelimit.WindowLimiter
	log     *logger.Logger
}

// NewProvider creates a provider backed by the Anthropic API
func NewProvider(cfg config.AnthropicConfig, log *logger.Logger) *Provider {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	return &Provider{
		service: &anthropicService{
			client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		},
		models:  cfg.Models,
		limiter: ratelimit.NewWindowLimiter(perMinute, time.Minute),
		log:     log.WithComponent("describe"),
	}
}

// NewProviderWithService creates a provider with an injected text service
// and limiter; used by tests and alternative backends.
func NewProviderWithService(service TextService, models []config.ModelConfig, limiter *ratelimit.WindowLimiter, log *logger.Logger) *Provider {
	return &Provider{
		service: service,
		models:  models,
		limiter: limiter,
		log:     log.WithComponent("describe"),
	}
}

// Provide returns the description to render. It never fails: when the
// service cascade is exhausted the templated fallback is used. The
// returned error slice carries every cascade failure for diagnostics.
func (p *Provider) Provide(ctx context.Context, product *models.Product, opts Options) (string, []error) {
	if custom := strings.TrimSpace(opts.CustomDescription); custom != "" {
		return opts.CustomDescription, nil
	}

	if !opts.UseAI || p.service == nil || len(p.models) == 0 {
		return Fallback(product, opts), nil
	}

	system, user := p.buildPrompt(product, opts)

	var errs []error
	for _, model := range p.models {
		// Each attempt consumes one slot of the shared 60s window;
		// Wait blocks until the window resets rather than failing
		if err := p.limiter.Wait(ctx); err != nil {
			errs = append(errs, &TextServiceError{Model: model.Name, Err: err})
			break
		}

		text, err := p.service.Generate(ctx, model, system, user)
		if err != nil {
			p.log.Warn().Err(err).Str("model", model.Name).Msg("Text service attempt failed")
			errs = append(errs, &TextServiceError{Model: model.Name, Err: err})
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			errs = append(errs, &TextServiceError{Model: model.Name, Err: fmt.Errorf("empty response")})
			continue
		}

		p.log.Debug().Str("model", model.Name).Int("length", len(text)).Msg("Description generated")
		return text, errs
	}

	p.log.Warn().Int("attempts", len(errs)).Msg("All text service configurations failed, using fallback")
	return Fallback(product, opts), errs
}

func (p *Provider) buildPrompt(product *models.Product, opts Options) (system, user string) {
	tone := opts.Tone
	if tone == "" {
		tone = "friendly and energetic"
	}
	maxLen := opts.MaxLength
	if maxLen <= 0 {
		maxLen = 280
	}

	emoji := emojiInstructionOff
	if opts.IncludeEmojis {
		emoji = emojiInstructionOn
	}
	hashtags := hashtagInstructionOff
	if opts.IncludeHashtags {
		hashtags = hashtagInstructionOn
	}
	urgency := urgencyInstructionOff
	if opts.HighlightUrgency {
		urgency = urgencyInstructionOn
	}

	system = fmt.Sprintf(descriptionSystemPrompt, tone, maxLen, emoji, hashtags, urgency)

	shop := product.ShopName
	if shop == "" {
		shop = "n/a"
	}
	user = fmt.Sprintf(descriptionUserPrompt, product.Name, fmt.Sprintf("$%.2f", product.Price), shop, product.FreeShipping)
	return system, user
}

// anthropicService sends one completion request to Claude
type anthropicService struct {
	client anthropic.Client
}

func (s *anthropicService) Generate(ctx context.Context, model config.ModelConfig, systemPrompt, userMessage string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model.Name),
		MaxTokens: int64(model.MaxTokens),
		System: []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: systemPrompt,
			},
		},
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(userMessage),
				},
			},
		},
	}
	if model.Temperature > 0 {
		params.Temperature = anthropic.Float(model.Temperature)
	}
	if model.TopK > 0 {
		params.TopK = anthropic.Int(int64(model.TopK))
	}
	if model.TopP > 0 {
		params.TopP = anthropic.Float(model.TopP)
	}

	message, err := s.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	var response string
	for _, block := range message.Content {
		textBlock := block.AsText()
		if textBlock.Text != "" {
			response += textBlock.Text
		}
	}
	return response, nil
}
