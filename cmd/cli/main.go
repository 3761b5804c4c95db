package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/promocard-agent/internal/blobstore"
	"github.com/promocard-agent/internal/config"
	"github.com/promocard-agent/internal/describe"
	"github.com/promocard-agent/internal/generator"
	"github.com/promocard-agent/internal/media"
	"github.com/promocard-agent/internal/models"
	"github.com/promocard-agent/internal/render"
	"github.com/promocard-agent/internal/schedule"
	"github.com/promocard-agent/internal/source"
	"github.com/promocard-agent/internal/source/affiliate"
	"github.com/promocard-agent/internal/source/feed"
	"github.com/promocard-agent/internal/storage"
	redisrepo "github.com/promocard-agent/internal/storage/redis"
	"github.com/promocard-agent/internal/storage/sqlite"
	"github.com/promocard-agent/pkg/logger"
	"github.com/promocard-agent/pkg/ratelimit"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
	repo    storage.Repository
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "promocard-agent",
		Short: "Promotional card generator powered by AI",
		Long: `An agent that renders promotional product cards from affiliate
products and deal feeds, with AI-written descriptions and scheduled
batch generation.`,
		PersistentPreRunE: initializeApp,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(quickCmd())
	rootCmd.AddCommand(schedulesCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(runDueCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
	var err error

	// Load config
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	// Initialize storage based on configuration
	switch cfg.Database.Driver {
	case "redis":
		log.Info().Msg("Using Redis as primary storage")
		repo, err = redisrepo.New(redisrepo.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
	default:
		log.Info().Msg("Using SQLite as primary storage")
		repo, err = sqlite.New(cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	// Run migrations
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// buildOrchestrator wires the generation pipeline from config
func buildOrchestrator() (*generator.Orchestrator, error) {
	limiter := ratelimit.NewDefaultLimiter()

	fonts, err := render.NewFontSetFromFile(cfg.Render.FontFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load fonts: %w", err)
	}

	loader := media.NewLoader(limiter, log)
	renderer := render.NewRenderer(fonts, loader, cfg.Render.Watermark, log)

	blobs, err := blobstore.NewLocal(cfg.Artifacts.Dir, cfg.Artifacts.BaseURL, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact store: %w", err)
	}

	describer := describe.NewProvider(cfg.Anthropic, log)

	return generator.NewOrchestrator(describer, renderer, blobs, repo, log), nil
}

// buildSourceManager registers every enabled product source
func buildSourceManager() *source.Manager {
	limiter := ratelimit.NewDefaultLimiter()
	manager := source.NewManager()

	if cfg.Sources.Affiliate.Enabled {
		manager.Register(affiliate.New(cfg.Sources.Affiliate, limiter, log))
	}
	if cfg.Sources.Feeds.Enabled {
		for _, src := range feed.NewMultiple(cfg.Sources.Feeds, limiter, log) {
			manager.Register(src)
		}
	}
	return manager
}

// cardConfigFlags binds the shared card generation flags to a config
type cardConfigFlags struct {
	template        string
	darkMode        bool
	accentColor     string
	useAI           bool
	description     string
	tone            string
	maxLength       int
	emojis          bool
	hashtags        bool
	discount        bool
	urgency         bool
	secondVariation bool
	encodings       []string
}

func (f *cardConfigFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.template, "template", "modern", "Card template: modern, elegant, bold, minimal, vibrant")
	cmd.Flags().BoolVar(&f.darkMode, "dark", false, "Render with the dark palette")
	cmd.Flags().StringVar(&f.accentColor, "accent", "", "Accent color override (hex, e.g. #ff4757)")
	cmd.Flags().BoolVar(&f.useAI, "use-ai", true, "Generate the description with Claude")
	cmd.Flags().StringVar(&f.description, "description", "", "Custom description (skips AI)")
	cmd.Flags().StringVar(&f.tone, "tone", "", "Description tone (default from config)")
	cmd.Flags().IntVar(&f.maxLength, "max-length", 0, "Description character limit (default from config)")
	cmd.Flags().BoolVar(&f.emojis, "emojis", true, "Include emojis in the description")
	cmd.Flags().BoolVar(&f.hashtags, "hashtags", true, "Include hashtags in the description")
	cmd.Flags().BoolVar(&f.discount, "discount", true, "Show the discount and original price")
	cmd.Flags().BoolVar(&f.urgency, "urgency", false, "Emphasize urgency in the description")
	cmd.Flags().BoolVar(&f.secondVariation, "second-variation", false, "Also render the alternate template")
	cmd.Flags().StringSliceVar(&f.encodings, "encodings", nil, "Output encodings: png, jpeg (default png)")
}

// build assembles the generation config, filling anything the user left at
// its flag default from the generation section of the config file
func (f *cardConfigFlags) build(cmd *cobra.Command, mode models.GenerationMode) (models.CardGenerationConfig, error) {
	gen := cfg.Generation
	flags := cmd.Flags()

	if !flags.Changed("template") && gen.Template != "" {
		f.template = gen.Template
	}
	if !flags.Changed("use-ai") {
		f.useAI = gen.UseAI
	}
	if !flags.Changed("emojis") {
		f.emojis = gen.IncludeEmojis
	}
	if !flags.Changed("hashtags") {
		f.hashtags = gen.IncludeHashtags
	}
	if !flags.Changed("encodings") && len(gen.Encodings) > 0 {
		f.encodings = gen.Encodings
	}
	if f.tone == "" {
		f.tone = gen.Tone
	}
	if f.maxLength <= 0 {
		f.maxLength = gen.MaxLength
	}

	template, err := models.ParseTemplate(f.template)
	if err != nil {
		return models.CardGenerationConfig{}, err
	}
	return models.CardGenerationConfig{
		Template:               template,
		DarkMode:               f.darkMode,
		AccentColor:            f.accentColor,
		UseAI:                  f.useAI,
		CustomDescription:      f.description,
		Tone:                   f.tone,
		MaxLength:              f.maxLength,
		IncludeEmojis:          f.emojis,
		IncludeHashtags:        f.hashtags,
		HighlightDiscount:      f.discount,
		HighlightUrgency:       f.urgency,
		IncludeSecondVariation: f.secondVariation,
		Encodings:              models.StringSlice(f.encodings),
		Mode:                   mode,
		CreatedAt:              time.Now(),
	}, nil
}

// ============ GENERATE COMMAND ============

func generateCmd() *cobra.Command {
	var (
		cardFlags cardConfigFlags
		product   models.Product
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate cards for a single product",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if product.ID == "" {
				product.ID = uuid.NewString()
			}
			if err := product.Validate(); err != nil {
				return err
			}

			cardCfg, err := cardFlags.build(cmd, models.ModeManual)
			if err != nil {
				return err
			}

			orchestrator, err := buildOrchestrator()
			if err != nil {
				return err
			}

			result := orchestrator.GenerateCards(ctx, &product, cardCfg)
			printResult(result)

			if !result.Success {
				return fmt.Errorf("generation failed: %s", result.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&product.ID, "product-id", "", "Product ID (generated when empty)")
	cmd.Flags().StringVar(&product.Name, "name", "", "Product name (required)")
	cmd.Flags().Float64Var(&product.Price, "price", 0, "Current price (required)")
	cmd.Flags().Float64Var(&product.OriginalPrice, "original-price", 0, "Pre-discount price")
	cmd.Flags().Float64Var(&product.DiscountRate, "discount-rate", 0, "Discount percentage")
	cmd.Flags().IntVar(&product.Sales, "sales", 0, "Units sold")
	cmd.Flags().Float64Var(&product.Rating, "rating", 0, "Rating, 0 to 5")
	cmd.Flags().StringVar(&product.ShopName, "shop", "", "Shop name")
	cmd.Flags().BoolVar(&product.FreeShipping, "free-shipping", false, "Product ships free")
	cmd.Flags().StringVar(&product.ImageURL, "image", "", "Product image URL or file path (required)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("price")
	cmd.MarkFlagRequired("image")

	cardFlags.register(cmd)
	return cmd
}

// ============ QUICK COMMAND ============

func quickCmd() *cobra.Command {
	var (
		cardFlags  cardConfigFlags
		query      string
		trending   bool
		fromFeeds  bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "quick",
		Short: "Search products and generate cards for each",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			criteria := models.SearchCriteria{
				Type:  models.SearchTypeQuery,
				Query: query,
				Limit: limit,
			}
			if trending {
				criteria.Type = models.SearchTypeTrending
			}
			if fromFeeds {
				criteria.Type = models.SearchTypeFeed
			}

			manager := buildSourceManager()
			products, err := manager.Search(ctx, criteria)
			if err != nil {
				return err
			}
			if len(products) == 0 {
				return fmt.Errorf("no products found")
			}

			cardCfg, err := cardFlags.build(cmd, models.ModeQuick)
			if err != nil {
				return err
			}

			orchestrator, err := buildOrchestrator()
			if err != nil {
				return err
			}

			var generated int
			for _, product := range products {
				result := orchestrator.GenerateCards(ctx, product, cardCfg)
				printResult(result)
				if result.Success {
					generated++
				}
			}

			fmt.Printf("\nGenerated cards for %d of %d products\n", generated, len(products))
			return nil
		},
	}

	cmd.Flags().StringVar(&query, "query", "", "Search query")
	cmd.Flags().BoolVar(&trending, "trending", false, "Use trending products instead of a query")
	cmd.Flags().BoolVar(&fromFeeds, "feeds", false, "Pull products from configured deal feeds")
	cmd.Flags().IntVar(&limit, "limit", 5, "Maximum products")

	cardFlags.register(cmd)
	return cmd
}

// ============ SCHEDULES COMMANDS ============

func schedulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "List and manage generation schedules",
	}

	cmd.AddCommand(schedulesListCmd())
	cmd.AddCommand(schedulesAddCmd())
	cmd.AddCommand(schedulesEnableCmd(true))
	cmd.AddCommand(schedulesEnableCmd(false))
	cmd.AddCommand(schedulesToggleWeekdayCmd())
	cmd.AddCommand(schedulesRunCmd())
	cmd.AddCommand(schedulesDeleteCmd())
	return cmd
}

func schedulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			schedules, err := repo.ListSchedules(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Schedules (%d) ===\n\n", len(schedules))
			for _, s := range schedules {
				state := "disabled"
				if s.Enabled {
					state = "enabled"
				}
				fmt.Printf("[%s] %s | %s | %s | %02d:%02d\n", s.ID, s.Name, state, s.Frequency, s.Hour, s.Minute)
				if s.Frequency == models.FrequencyWeekly {
					fmt.Printf("    Weekdays: %s\n", formatWeekdays(s.Weekdays))
				}
				if s.Frequency == models.FrequencyMonthly {
					fmt.Printf("    Day of month: %d\n", s.DayOfMonth)
				}
				fmt.Printf("    Search: %s %q limit %d\n", s.Search.Type, s.Search.Query, s.Search.Limit)
				fmt.Printf("    Status: %s\n", s.Status)
				if s.LastRun != nil {
					fmt.Printf("    Last run: %s\n", s.LastRun.Format(time.RFC1123))
				}
				if s.NextRun != nil {
					fmt.Printf("    Next run: %s\n", s.NextRun.Format(time.RFC1123))
				}
				fmt.Println()
			}

			return nil
		},
	}
}

func schedulesAddCmd() *cobra.Command {
	var (
		cardFlags  cardConfigFlags
		name       string
		frequency  string
		at         string
		weekdays   []int
		dayOfMonth int
		query      string
		trending   bool
		fromFeeds  bool
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			freq, err := models.ParseFrequency(frequency)
			if err != nil {
				return err
			}

			runAt, err := time.Parse("15:04", at)
			if err != nil {
				return fmt.Errorf("invalid time format, use HH:MM")
			}

			searchType := models.SearchTypeQuery
			if trending {
				searchType = models.SearchTypeTrending
			}
			if fromFeeds {
				searchType = models.SearchTypeFeed
			}

			cardCfg, err := cardFlags.build(cmd, models.ModeAutomated)
			if err != nil {
				return err
			}

			s := &models.Schedule{
				ID:         uuid.NewString(),
				Name:       name,
				Enabled:    true,
				Frequency:  freq,
				Hour:       runAt.Hour(),
				Minute:     runAt.Minute(),
				Weekdays:   models.IntSlice(weekdays),
				DayOfMonth: dayOfMonth,
				Search: models.SearchCriteria{
					Type:  searchType,
					Query: query,
					Limit: limit,
				},
				Card:   cardCfg,
				Status: models.ScheduleStatusPending,
			}
			if err := s.Validate(); err != nil {
				return err
			}

			next, err := schedule.CalculateNextRun(s, time.Now())
			if err != nil {
				return err
			}
			s.NextRun = &next

			if err := repo.SaveSchedule(ctx, s); err != nil {
				return err
			}

			fmt.Printf("Schedule %s created, next run %s\n", s.ID, next.Format(time.RFC1123))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Schedule name (required)")
	cmd.Flags().StringVar(&frequency, "frequency", "daily", "Frequency: once, daily, weekly, monthly")
	cmd.Flags().StringVar(&at, "at", "09:00", "Run time (HH:MM)")
	cmd.Flags().IntSliceVar(&weekdays, "weekdays", nil, "Weekdays for weekly schedules (0=Sunday)")
	cmd.Flags().IntVar(&dayOfMonth, "day-of-month", 1, "Day for monthly schedules")
	cmd.Flags().StringVar(&query, "query", "", "Search query")
	cmd.Flags().BoolVar(&trending, "trending", false, "Use trending products")
	cmd.Flags().BoolVar(&fromFeeds, "feeds", false, "Pull products from deal feeds")
	cmd.Flags().IntVar(&limit, "limit", 5, "Maximum products per run")
	cmd.MarkFlagRequired("name")

	cardFlags.register(cmd)
	return cmd
}

func schedulesEnableCmd(enable bool) *cobra.Command {
	verb, short := "enable", "Enable a schedule"
	if !enable {
		verb, short = "disable", "Disable a schedule"
	}

	return &cobra.Command{
		Use:   verb + " [schedule-id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			s, err := repo.GetSchedule(ctx, args[0])
			if err != nil {
				return err
			}

			s.Enabled = enable
			if enable && s.NextRun == nil && s.Status != models.ScheduleStatusCompleted {
				next, err := schedule.CalculateNextRun(s, time.Now())
				if err != nil {
					return err
				}
				s.NextRun = &next
			}

			if err := repo.SaveSchedule(ctx, s); err != nil {
				return err
			}

			fmt.Printf("Schedule %s %sd\n", s.ID, verb)
			return nil
		},
	}
}

func schedulesToggleWeekdayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle-weekday [schedule-id] [weekday]",
		Short: "Flip one weekday on a weekly schedule (0=Sunday)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			weekday, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid weekday: %w", err)
			}

			s, err := repo.GetSchedule(ctx, args[0])
			if err != nil {
				return err
			}

			updated, toggleErr := schedule.ToggleWeekday(s, weekday)
			if toggleErr != nil {
				fmt.Printf("Weekday unchanged: %v\n", toggleErr)
				return nil
			}

			next, err := schedule.CalculateNextRun(updated, time.Now())
			if err != nil {
				return err
			}
			updated.NextRun = &next

			if err := repo.SaveSchedule(ctx, updated); err != nil {
				return err
			}

			fmt.Printf("Weekdays now: %s, next run %s\n", formatWeekdays(updated.Weekdays), next.Format(time.RFC1123))
			return nil
		},
	}

	return cmd
}

func schedulesRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run [schedule-id]",
		Short: "Run a schedule immediately",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			s, err := repo.GetSchedule(ctx, args[0])
			if err != nil {
				return err
			}

			engine, err := buildEngine()
			if err != nil {
				return err
			}

			return engine.RunSchedule(ctx, s)
		},
	}
}

func schedulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [schedule-id]",
		Short: "Delete a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if err := repo.DeleteSchedule(ctx, args[0]); err != nil {
				return err
			}

			fmt.Printf("Schedule %s deleted\n", args[0])
			return nil
		},
	}
}

// ============ HISTORY COMMANDS ============

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Generation and execution history",
	}

	cmd.AddCommand(historyGenerationsCmd())
	cmd.AddCommand(historyExecutionsCmd())
	return cmd
}

func historyGenerationsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "generations",
		Short: "List recent generations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			records, err := repo.ListGenerations(ctx, limit)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Generations (%d) ===\n\n", len(records))
			for _, r := range records {
				fmt.Printf("[%s] %s | %s | %s\n", r.ID, r.ProductName, r.Mode, r.Template)
				for enc, url := range r.Cards {
					fmt.Printf("    %s: %s\n", enc, url)
				}
				if r.ScheduleID != "" {
					fmt.Printf("    Schedule: %s\n", r.ScheduleID)
				}
				fmt.Printf("    Created: %s\n\n", r.CreatedAt.Format(time.RFC1123))
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum records to show")
	return cmd
}

func historyExecutionsCmd() *cobra.Command {
	var scheduleID string
	var limit int

	cmd := &cobra.Command{
		Use:   "executions",
		Short: "List schedule executions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			records, err := repo.ListExecutions(ctx, scheduleID, limit)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Executions (%d) ===\n\n", len(records))
			for _, r := range records {
				outcome := "failed"
				if r.Success {
					outcome = "ok"
				}
				fmt.Printf("[%s] schedule %s | %s | %d/%d products | %s\n",
					r.StartedAt.Format("2006-01-02 15:04"), r.ScheduleID, outcome,
					r.SuccessCount, r.ProductCount, r.Duration.Round(time.Millisecond))
				for _, e := range r.Errors {
					fmt.Printf("    - %s\n", e)
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&scheduleID, "schedule", "", "Filter by schedule ID")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum records to show")
	return cmd
}

// ============ RUN-DUE COMMAND ============

func runDueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run-due",
		Short: "Run every schedule that is due now",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			engine, err := buildEngine()
			if err != nil {
				return err
			}

			return engine.RunDue(ctx, time.Now())
		},
	}
}

func buildEngine() (*schedule.Engine, error) {
	orchestrator, err := buildOrchestrator()
	if err != nil {
		return nil, err
	}
	return schedule.NewEngine(repo, buildSourceManager(), orchestrator, log), nil
}

func printResult(result *models.CardGenerationResult) {
	fmt.Printf("\n=== %s ===\n", result.Product.Name)
	if !result.Success {
		fmt.Printf("Failed: %s\n", result.Error)
		return
	}

	fmt.Printf("Template:    %s\n", result.Template)
	fmt.Printf("Description: %s\n", result.Description)
	for enc, url := range result.Cards {
		fmt.Printf("Card (%s):   %s\n", enc, url)
	}
	for enc, url := range result.Alternates {
		fmt.Printf("Alt (%s):    %s\n", enc, url)
	}
	fmt.Printf("Elapsed:     %s\n", result.Elapsed.Round(time.Millisecond))
}

func formatWeekdays(days models.IntSlice) string {
	names := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	parts := make([]string, 0, len(days))
	for _, d := range days {
		if d >= 0 && d < len(names) {
			parts = append(parts, names[d])
		}
	}
	return strings.Join(parts, ",")
}
