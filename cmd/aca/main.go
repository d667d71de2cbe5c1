package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/content-agent/internal/app"
	"github.com/content-agent/internal/config"
	"github.com/content-agent/internal/models"
	"github.com/content-agent/internal/storage"
	"github.com/content-agent/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	log     *logger.Logger
	svc     *app.App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aca",
		Short: "AI content agent for WordPress sites",
		Long: `Generates post ideas, writes SEO-ready drafts with featured images
and publishes them on schedule, manually or fully automated.`,
		PersistentPreRunE:  initializeApp,
		PersistentPostRunE: closeApp,
		SilenceUsage:       true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/config.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(automationCmd())
	rootCmd.AddCommand(ideasCmd())
	rootCmd.AddCommand(draftsCmd())
	rootCmd.AddCommand(styleCmd())
	rootCmd.AddCommand(clustersCmd())
	rootCmd.AddCommand(licenseCmd())
	rootCmd.AddCommand(gscCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initializeApp(cmd *cobra.Command, args []string) error {
	var err error

	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log = logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	svc, err = app.New(cmd.Context(), cfg, log)
	return err
}

func closeApp(cmd *cobra.Command, args []string) error {
	if svc == nil {
		return nil
	}
	return svc.Close()
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return uint(id), nil
}

// ============ SERVE ============

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API (and the automation scheduler when enabled)",
		RunE: func(cmd *cobra.Command, args []string) error {
			readTimeout, err := app.ParseDuration(cfg.Server.ReadTimeout, 30*time.Second)
			if err != nil {
				return fmt.Errorf("invalid server.read_timeout: %w", err)
			}
			writeTimeout, err := app.ParseDuration(cfg.Server.WriteTimeout, 5*time.Minute)
			if err != nil {
				return fmt.Errorf("invalid server.write_timeout: %w", err)
			}
			shutdownTimeout, err := app.ParseDuration(cfg.Server.ShutdownTimeout, 15*time.Second)
			if err != nil {
				return fmt.Errorf("invalid server.shutdown_timeout: %w", err)
			}

			server := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           svc.API().Router(),
				ReadTimeout:       readTimeout,
				ReadHeaderTimeout: 10 * time.Second,
				WriteTimeout:      writeTimeout,
			}

			if cfg.Scheduler.Enabled {
				c, err := svc.StartScheduler()
				if err != nil {
					return err
				}
				defer func() { <-c.Stop().Done() }()
			}

			errChan := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Server.Addr).Msg("REST API listening")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errChan <- err
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errChan:
				return fmt.Errorf("server failed: %w", err)
			case <-sigChan:
			}

			log.Info().Msg("Shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return server.Shutdown(ctx)
		},
	}
}

// ============ AUTOMATION ============

func automationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "automation",
		Short: "Automation dispatcher commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Run one automation tick now",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := svc.RunAutomation(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Automation Run ===\n")
			fmt.Printf("Mode:                %s\n", result.Mode)
			fmt.Printf("Scheduled Published: %d\n", result.ScheduledPublished)
			fmt.Printf("Ideas Generated:     %d\n", result.IdeasGenerated)
			fmt.Printf("Drafts Created:      %d\n", result.DraftsCreated)
			fmt.Printf("Posts Published:     %d\n", result.PostsPublished)
			fmt.Printf("Style Analyzed:      %v\n", result.StyleAnalyzed)
			fmt.Printf("Duration:            %s\n", result.Duration)
			printErrors(result.Errors)
			return nil
		},
	})
	return cmd
}

func printErrors(errs []string) {
	if len(errs) == 0 {
		return
	}
	fmt.Printf("\nErrors:\n")
	for _, e := range errs {
		fmt.Printf("  - %s\n", e)
	}
}

// ============ IDEAS ============

func ideasCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ideas",
		Short: "Post idea commands",
	}

	cmd.AddCommand(ideasListCmd())
	cmd.AddCommand(ideasGenerateCmd())
	cmd.AddCommand(ideasAddCmd())
	cmd.AddCommand(ideasSetStatusCmd())
	return cmd
}

func ideasListCmd() *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ideas",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := storage.DefaultIdeaFilter()
			filter.Limit = limit
			if status != "" {
				s := models.IdeaStatus(status)
				if !s.Valid() {
					return fmt.Errorf("unknown idea status %q", status)
				}
				filter.Status = &s
			}

			list, err := svc.Ideas.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printIdeas(list)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, approved, rejected, draft_created)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of ideas to show")
	return cmd
}

func printIdeas(list []*models.Idea) {
	if len(list) == 0 {
		fmt.Println("No ideas found")
		return
	}
	for _, idea := range list {
		fmt.Printf("[%d] %-14s %-16s %s\n", idea.ID, idea.Status, idea.Source, idea.Title)
	}
}

func ideasGenerateCmd() *cobra.Command {
	var count int
	var fromGSC bool
	var similarTo uint

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate new ideas with AI",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var list []*models.Idea
			var err error

			switch {
			case fromGSC:
				list, err = svc.Ideas.GenerateFromSearchConsole(ctx, count)
			case similarTo != 0:
				list, err = svc.Ideas.GenerateSimilar(ctx, similarTo, count)
			default:
				list, err = svc.Ideas.Generate(ctx, count)
			}
			if err != nil {
				return err
			}

			fmt.Printf("Generated %d ideas:\n", len(list))
			printIdeas(list)
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 5, "Number of ideas to generate")
	cmd.Flags().BoolVar(&fromGSC, "search-console", false, "Base ideas on Search Console queries")
	cmd.Flags().UintVar(&similarTo, "similar-to", 0, "Generate ideas similar to this idea ID")
	return cmd
}

func ideasAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add [title...]",
		Short: "Add ideas by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := svc.Ideas.AddManual(cmd.Context(), args)
			if err != nil {
				return err
			}
			printIdeas(list)
			return nil
		},
	}
}

func ideasSetStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [idea-id] [status]",
		Short: "Move an idea to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			idea, err := svc.Ideas.UpdateStatus(cmd.Context(), id, models.IdeaStatus(args[1]))
			if err != nil {
				return err
			}
			fmt.Printf("Idea %d is now %s\n", idea.ID, idea.Status)
			return nil
		},
	}
}

// ============ DRAFTS ============

func draftsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Draft and post commands",
	}

	cmd.AddCommand(draftsListCmd())
	cmd.AddCommand(draftsCreateCmd())
	cmd.AddCommand(draftsPublishCmd())
	cmd.AddCommand(draftsScheduleCmd())
	return cmd
}

func draftsListCmd() *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List drafts and published posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := storage.DefaultDraftFilter()
			filter.Limit = limit
			if status != "" {
				s := models.DraftStatus(status)
				filter.Status = &s
			}

			list, err := svc.Drafts.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Println("No drafts found")
				return nil
			}

			for _, d := range list {
				when := ""
				switch {
				case d.PublishedAt != nil:
					when = "published " + d.PublishedAt.Local().Format(time.RFC1123)
				case d.ScheduledFor != nil:
					when = "scheduled " + d.ScheduledFor.Local().Format(time.RFC1123)
				}
				fmt.Printf("[%d] %-10s %s  %s\n", d.ID, d.Status, d.Title, when)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (draft, published)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of drafts to show")
	return cmd
}

func draftsCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create [idea-id]",
		Short: "Write a draft for an idea",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			draft, err := svc.Drafts.CreateFromIdea(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Printf("\n=== Draft Created ===\n")
			fmt.Printf("Draft ID:    %d\n", draft.ID)
			fmt.Printf("Title:       %s\n", draft.Title)
			fmt.Printf("Slug:        %s\n", draft.Slug)
			fmt.Printf("Meta:        %s\n", draft.MetaDescription)
			fmt.Printf("Keywords:    %s\n", strings.Join(draft.FocusKeywords, ", "))
			if draft.FeaturedImage != nil {
				fmt.Printf("Image:       %s\n", draft.FeaturedImage.Provider)
			}
			fmt.Printf("\nUse 'aca drafts publish %d' to publish it.\n", draft.ID)
			return nil
		},
	}
}

func draftsPublishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "publish [draft-id]",
		Short: "Publish a draft now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			draft, err := svc.Publisher.Publish(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Printf("Draft %d published\n", draft.ID)
			if draft.RemoteURL != "" {
				fmt.Printf("URL: %s\n", draft.RemoteURL)
			}
			return nil
		},
	}
}

func draftsScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule [draft-id] [RFC3339 time]",
		Short: "Schedule a draft for publishing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			at, err := time.Parse(time.RFC3339, args[1])
			if err != nil {
				return fmt.Errorf("invalid time: %w", err)
			}

			draft, err := svc.Publisher.Schedule(cmd.Context(), id, at)
			if err != nil {
				return err
			}
			fmt.Printf("Draft %d scheduled for %s\n", draft.ID, draft.ScheduledFor.Local().Format(time.RFC1123))
			return nil
		},
	}
}

// ============ STYLE GUIDE ============

func styleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "style",
		Short: "Style guide commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "analyze",
		Short: "Derive the style guide from recent published posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			guide, err := svc.Styles.Analyze(cmd.Context())
			if err != nil {
				return err
			}
			printStyleGuide(guide)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current style guide",
		RunE: func(cmd *cobra.Command, args []string) error {
			guide, err := svc.Styles.Get(cmd.Context())
			if err != nil {
				return err
			}
			printStyleGuide(guide)
			return nil
		},
	})
	return cmd
}

func printStyleGuide(g *models.StyleGuide) {
	fmt.Printf("\n=== Style Guide ===\n")
	fmt.Printf("Tone:         %s\n", g.Tone)
	fmt.Printf("Sentences:    %s\n", g.SentenceStructure)
	fmt.Printf("Paragraphs:   %s\n", g.ParagraphLength)
	fmt.Printf("Formatting:   %s\n", g.FormattingStyle)
	if g.CustomInstructions != "" {
		fmt.Printf("Instructions: %s\n", g.CustomInstructions)
	}
	if g.LastAnalyzed != nil {
		fmt.Printf("Analyzed:     %s\n", g.LastAnalyzed.Local().Format(time.RFC1123))
	}
}

// ============ CLUSTERS ============

func clustersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "Content cluster commands",
	}

	var count int
	generate := &cobra.Command{
		Use:   "generate [pillar topic]",
		Short: "Plan a cluster of posts around a pillar topic",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cluster, err := svc.Clusters.Generate(cmd.Context(), strings.Join(args, " "), count)
			if err != nil {
				return err
			}

			fmt.Printf("Cluster %d: %s\n", cluster.ID, cluster.Topic)
			for _, item := range cluster.Items {
				fmt.Printf("  - %s\n", item.Title)
			}
			return nil
		},
	}
	generate.Flags().IntVar(&count, "count", 5, "Number of subtopics")

	cmd.AddCommand(generate)
	cmd.AddCommand(&cobra.Command{
		Use:   "promote [cluster-id]",
		Short: "Turn a cluster's subtopics into ideas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			list, err := svc.Clusters.PromoteToIdeas(cmd.Context(), id)
			if err != nil {
				return err
			}
			printIdeas(list)
			return nil
		},
	})
	return cmd
}

// ============ LICENSE ============

func licenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "license",
		Short: "License commands",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "verify [license-key]",
		Short: "Verify and store a license key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := svc.License.Verify(cmd.Context(), args[0])
			if status != nil {
				fmt.Printf("Status: %s\n", status.Status)
			}
			return err
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the stored license status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := svc.License.Status(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("Status: %s\n", status.Status)
			if status.KeySuffix != "" {
				fmt.Printf("Key:    ****%s\n", status.KeySuffix)
			}
			if status.VerifiedAt != nil {
				fmt.Printf("Since:  %s\n", status.VerifiedAt.Local().Format(time.RFC1123))
			}
			return nil
		},
	})
	return cmd
}

// ============ SEARCH CONSOLE ============

func gscCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gsc",
		Short: "Google Search Console commands",
	}

	var addr string
	login := &cobra.Command{
		Use:   "login",
		Short: "Connect Search Console from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if svc.GSC == nil {
				return errors.New("search_console.client_id and client_secret are not configured")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			err := svc.GSC.LocalLogin(ctx, addr, func(authURL string) {
				fmt.Printf("\nPlease open this URL in your browser:\n%s\n", authURL)
			})
			if err != nil {
				return fmt.Errorf("OAuth failed: %w", err)
			}
			fmt.Println("\nSearch Console connected!")
			return nil
		},
	}
	login.Flags().StringVar(&addr, "addr", ":8080", "Listen address for the OAuth callback (must match search_console.redirect_uri)")

	cmd.AddCommand(login)
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether Search Console is connected",
		RunE: func(cmd *cobra.Command, args []string) error {
			connected := svc.GSC != nil && svc.GSC.IsConnected(cmd.Context())
			fmt.Printf("Connected: %v\n", connected)
			return nil
		},
	})
	return cmd
}
