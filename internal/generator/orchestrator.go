package generator

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/promocard-agent/internal/blobstore"
	"github.com/promocard-agent/internal/describe"
	"github.com/promocard-agent/internal/models"
	"github.com/promocard-agent/internal/render"
	"github.com/promocard-agent/internal/storage"
	"github.com/promocard-agent/pkg/logger"
)

// Describer resolves the description text for a card
type Describer interface {
	Provide(ctx context.Context, product *models.Product, opts describe.Options) (string, []error)
}

// CardRenderer renders one card image
type CardRenderer interface {
	Render(ctx context.Context, product *models.Product, description string, opts models.StyleOptions) (image.Image, error)
}

// Orchestrator composes description provider, renderer and blob store
// into full generation calls and keeps the capped generation history.
type Orchestrator struct {
	describer Describer
	renderer  CardRenderer
	blobs     blobstore.Store
	repo      storage.Repository
	log       *logger.Logger
}

// NewOrchestrator creates a generation orchestrator
func NewOrchestrator(describer Describer, renderer CardRenderer, blobs blobstore.Store, repo storage.Repository, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		describer: describer,
		renderer:  renderer,
		blobs:     blobs,
		repo:      repo,
		log:       log.WithComponent("generator"),
	}
}

// GenerateCards produces the requested card artifacts for one product.
// It never propagates renderer or provider errors: callers always get a
// structured result, failed calls carry the error message and empty
// artifact maps.
func (o *Orchestrator) GenerateCards(ctx context.Context, product *models.Product, cfg models.CardGenerationConfig) *models.CardGenerationResult {
	start := time.Now()
	log := o.log.WithProductID(product.ID).WithTemplate(string(cfg.Template))

	encodings, err := cfg.ParsedEncodings()
	if err != nil {
		return o.failure(product, cfg, start, err)
	}

	description, descErrs := o.describer.Provide(ctx, product, describe.Options{
		UseAI:             cfg.UseAI,
		CustomDescription: cfg.CustomDescription,
		Tone:              cfg.Tone,
		IncludeEmojis:     cfg.IncludeEmojis,
		IncludeHashtags:   cfg.IncludeHashtags,
		HighlightUrgency:  cfg.HighlightUrgency,
		MaxLength:         cfg.MaxLength,
	})
	for _, e := range descErrs {
		log.Warn().Err(e).Msg("Description attempt failed")
	}

	primary, err := o.renderVariant(ctx, product, description, cfg.Style(), encodings, start, "")
	if err != nil {
		return o.failure(product, cfg, start, err)
	}

	var alternates map[models.Encoding]string
	if cfg.IncludeSecondVariation {
		altStyle := cfg.Style()
		altStyle.Template = cfg.Template.Alternate()
		alternates, err = o.renderVariant(ctx, product, description, altStyle, encodings, start, "alt_")
		if err != nil {
			return o.failure(product, cfg, start, err)
		}
	}

	result := &models.CardGenerationResult{
		Success:     true,
		Cards:       primary,
		Alternates:  alternates,
		Description: description,
		Product:     *product,
		Elapsed:     time.Since(start),
		Mode:        cfg.Mode,
		Template:    cfg.Template,
	}

	o.recordHistory(ctx, result, cfg)

	log.Info().
		Dur("elapsed", result.Elapsed).
		Int("encodings", len(encodings)).
		Bool("second_variation", cfg.IncludeSecondVariation).
		Msg("Cards generated")

	return result
}

// renderVariant renders one template and persists every requested encoding
func (o *Orchestrator) renderVariant(ctx context.Context, product *models.Product, description string, style models.StyleOptions, encodings []models.Encoding, start time.Time, prefix string) (map[models.Encoding]string, error) {
	img, err := o.renderer.Render(ctx, product, description, style)
	if err != nil {
		return nil, err
	}

	urls := make(map[models.Encoding]string, len(encodings))
	for _, enc := range encodings {
		data, err := render.Encode(img, enc)
		if err != nil {
			return nil, err
		}
		filename := fmt.Sprintf("%scard_%s_%s_%d.%s", prefix, product.ID, style.Template, start.UnixMilli(), enc)
		url, err := o.blobs.Put(ctx, data, filename)
		if err != nil {
			return nil, err
		}
		urls[enc] = url
	}
	return urls, nil
}

// failure converts an error into a failed result with empty artifact maps
func (o *Orchestrator) failure(product *models.Product, cfg models.CardGenerationConfig, start time.Time, err error) *models.CardGenerationResult {
	o.log.Error().Err(err).Str("product_id", product.ID).Msg("Card generation failed")
	return &models.CardGenerationResult{
		Success:  false,
		Cards:    map[models.Encoding]string{},
		Product:  *product,
		Elapsed:  time.Since(start),
		Mode:     cfg.Mode,
		Template: cfg.Template,
		Error:    err.Error(),
	}
}

// recordHistory appends a generation record for non-manual modes. History
// failures are logged, not propagated; the artifacts themselves exist.
func (o *Orchestrator) recordHistory(ctx context.Context, result *models.CardGenerationResult, cfg models.CardGenerationConfig) {
	if cfg.Mode == models.ModeManual || o.repo == nil {
		return
	}

	record := &models.GenerationRecord{
		ID:          uuid.NewString(),
		ProductID:   result.Product.ID,
		ProductName: result.Product.Name,
		Mode:        cfg.Mode,
		Template:    cfg.Template,
		Cards:       result.Cards,
		Alternates:  result.Alternates,
		ScheduleID:  cfg.ScheduleID,
		CreatedAt:   time.Now(),
	}
	if err := o.repo.AppendGeneration(ctx, record); err != nil {
		o.log.Warn().Err(err).Msg("Failed to append generation history")
	}
}
