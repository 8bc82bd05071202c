// Package main provides the skymix CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/gauthierbraillon/skymix/internal/bsky"
	"github.com/gauthierbraillon/skymix/internal/config"
	"github.com/gauthierbraillon/skymix/internal/display"
	"github.com/gauthierbraillon/skymix/internal/feed"
	"github.com/gauthierbraillon/skymix/internal/tui"
	"github.com/gauthierbraillon/skymix/pkg/browser"
)

// version is injected at build time via
// -ldflags="-X main.version=$(git describe --tags --always --dirty)".
var version = "dev"

func main() {
	// A .env next to the config makes SKYMIX_* overrides easy to pin.
	_ = godotenv.Load(filepath.Join(config.Dir(), ".env"))
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveVersion prefers the ldflags-injected version and falls back
// to module build info so `go install ...@vX.Y.Z` reports correctly.
func resolveVersion(ldflagsVersion string, info *debug.BuildInfo) string {
	if ldflagsVersion != "dev" {
		return ldflagsVersion
	}
	if info == nil || info.Main.Version == "" || info.Main.Version == "(devel)" {
		return "dev"
	}
	return info.Main.Version
}

// newRootCmd creates the root command for the skymix CLI.
func newRootCmd() *cobra.Command {
	var verbose bool

	info, _ := debug.ReadBuildInfo()
	rootCmd := &cobra.Command{
		Use:     "skymix",
		Short:   "Browse a weighted mix of your Bluesky feeds",
		Long:    "Skymix merges your following timeline and custom feeds into one weighted stream and browses it in a keyboard-driven column view.",
		Version: resolveVersion(version, info),
		PersistentPreRun: func(*cobra.Command, []string) {
			if verbose {
				log.SetLevel(log.DebugLevel)
			} else {
				log.SetLevel(log.ErrorLevel)
			}
		},
	}

	rootCmd.SetVersionTemplate("skymix version {{.Version}}\n")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newFeedCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newMixCmd())

	return rootCmd
}

// clientOptions returns client options honoring the SKYMIX_API_URL
// override.
func clientOptions() []bsky.ClientOption {
	if url := config.APIURL(); url != "" {
		return []bsky.ClientOption{bsky.WithBaseURL(url)}
	}
	return nil
}

func authOptions() []bsky.AuthOption {
	if url := config.APIURL(); url != "" {
		return []bsky.AuthOption{bsky.WithAuthBaseURL(url)}
	}
	return nil
}

// loadClient builds an authenticated client from the saved session.
func loadClient() (*bsky.Client, error) {
	storage := bsky.NewSessionStorage(config.Dir())
	session, err := storage.Load()
	if err != nil {
		return nil, fmt.Errorf("not logged in (run 'skymix login <handle>')")
	}
	return bsky.NewClient(session, clientOptions()...), nil
}

// newLoginCmd creates the login subcommand.
func newLoginCmd() *cobra.Command {
	var appPassword string
	var refresh bool

	cmd := &cobra.Command{
		Use:   "login [identifier]",
		Short: "Authenticate with an app password",
		Long:  "Create a session with your handle (or email) and an app password, or refresh the saved session.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			storage := bsky.NewSessionStorage(config.Dir())
			auth := bsky.NewAuthenticator(authOptions()...)

			if refresh {
				session, err := storage.Load()
				if err != nil {
					return fmt.Errorf("no saved session to refresh: %w", err)
				}
				session, err = auth.Refresh(ctx, session)
				if err != nil {
					return fmt.Errorf("session refresh failed: %w", err)
				}
				if err := storage.Save(session); err != nil {
					return fmt.Errorf("failed to save session: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session refreshed for %s\n", session.Handle)
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("missing identifier: run 'skymix login <handle>'")
			}
			identifier := args[0]

			if appPassword == "" {
				appPassword = os.Getenv("SKYMIX_APP_PASSWORD")
			}
			if appPassword == "" {
				return fmt.Errorf("missing app password: pass --app-password or set SKYMIX_APP_PASSWORD")
			}

			session, err := auth.Login(ctx, identifier, appPassword)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := storage.Save(session); err != nil {
				return fmt.Errorf("failed to save session: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", session.Handle)
			fmt.Fprintf(cmd.OutOrStdout(), "Session saved to: %s\n", config.Dir())
			return nil
		},
	}

	cmd.Flags().StringVarP(&appPassword, "app-password", "p", "", "App password (prefer SKYMIX_APP_PASSWORD)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Refresh the saved session instead of logging in")

	return cmd
}

// newFeedCmd creates the feed subcommand.
func newFeedCmd() *cobra.Command {
	var limit int
	var resume bool
	var save bool

	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Print one page of the mixed feed",
		Long:  "Fetch the next page of the configured source mix and print it to the terminal.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			client, err := loadClient()
			if err != nil {
				return err
			}
			cfg, err := config.Load(config.Dir())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid mix: %w", err)
			}

			token := ""
			if resume {
				token = cfg.Cursor
			}

			engine := feed.NewEngine(client, feed.WithLogger(log.Default()))
			pager := feed.NewPager(engine, cfg.MixEntries(), limit, token)
			items, err := pager.More(ctx)
			if err != nil {
				return err
			}
			if cfg.Preferences.HideSensitive {
				items = feed.WithoutSensitive(items)
			}

			formatter := display.NewTerminalFormatter()
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatFeed(items))

			if save {
				cfg.Cursor = pager.CursorToken()
				if err := config.Save(config.Dir(), cfg); err != nil {
					return fmt.Errorf("failed to save position: %w", err)
				}
			}
			if pager.Exhausted() {
				fmt.Fprintln(cmd.OutOrStdout(), "\n(end of feed)")
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of items to fetch")
	cmd.Flags().BoolVar(&resume, "resume", false, "Resume from the saved feed position")
	cmd.Flags().BoolVar(&save, "save", false, "Save the new feed position")

	return cmd
}

// newBrowseCmd creates the browse subcommand.
func newBrowseCmd() *cobra.Command {
	var limit int
	var resume bool

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the mixed feed interactively",
		Long:  "Open the keyboard-driven column view over the configured source mix.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := loadClient()
			if err != nil {
				return err
			}
			cfg, err := config.Load(config.Dir())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid mix: %w", err)
			}

			token := ""
			if resume {
				token = cfg.Cursor
			}

			engine := feed.NewEngine(client, feed.WithLogger(log.Default()))
			pager := feed.NewPager(engine, cfg.MixEntries(), limit, token)
			model := tui.NewModel(pager, client, cfg.Preferences, browser.Open, log.Default())

			if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
				return fmt.Errorf("browse view failed: %w", err)
			}

			// Persist the position so --resume picks up where the
			// session ended.
			cfg.Cursor = pager.CursorToken()
			if err := config.Save(config.Dir(), cfg); err != nil {
				return fmt.Errorf("failed to save position: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 30, "Items fetched per page")
	cmd.Flags().BoolVar(&resume, "resume", true, "Resume from the saved feed position")

	return cmd
}

// newMixCmd creates the mix subcommand tree.
func newMixCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mix",
		Short: "Show or edit the source mix",
		Long:  "Manage the weighted sources merged into your feed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Dir())
			if err != nil {
				return err
			}
			total := 0
			for _, src := range cfg.Mix {
				total += src.Percent
				id := src.URI
				if id == "" {
					id = src.Label
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%3d%%  %-20s %s\n", src.Percent, src.Label, id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total %d%%", total)
			if len(cfg.Mix) > 0 && !feed.MixComplete(cfg.MixEntries()) {
				fmt.Fprintf(cmd.OutOrStdout(), " (incomplete: only %q will be fetched)", cfg.Mix[0].Label)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.AddCommand(newMixAddCmd())
	cmd.AddCommand(newMixRemoveCmd())
	cmd.AddCommand(newMixWeightCmd())

	return cmd
}

func newMixAddCmd() *cobra.Command {
	var uri string

	cmd := &cobra.Command{
		Use:   "add <label> <percent>",
		Short: "Add a source to the mix",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			percent, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid percent %q", args[1])
			}

			cfg, err := config.Load(config.Dir())
			if err != nil {
				return err
			}
			kind := string(feed.SourceTimeline)
			if uri != "" {
				kind = string(feed.SourceCustom)
			}
			cfg.Mix = append(cfg.Mix, config.MixSource{
				Kind:    kind,
				URI:     uri,
				Label:   args[0],
				Percent: percent,
			})
			if err := cfg.Validate(); err != nil {
				return err
			}
			return config.Save(config.Dir(), cfg)
		},
	}

	cmd.Flags().StringVar(&uri, "uri", "", "Feed generator at:// URI (omit for the timeline)")

	return cmd
}

func newMixRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <label|uri>",
		Short: "Remove a source from the mix",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Dir())
			if err != nil {
				return err
			}
			kept := cfg.Mix[:0]
			removed := false
			for _, src := range cfg.Mix {
				if src.Label == args[0] || src.URI == args[0] {
					removed = true
					continue
				}
				kept = append(kept, src)
			}
			if !removed {
				return fmt.Errorf("no source %q in mix", args[0])
			}
			cfg.Mix = kept
			return config.Save(config.Dir(), cfg)
		},
	}
}

func newMixWeightCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "weight <label|uri> <percent>",
		Short: "Change a source's share of the mix",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			percent, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid percent %q", args[1])
			}

			cfg, err := config.Load(config.Dir())
			if err != nil {
				return err
			}
			found := false
			for i := range cfg.Mix {
				if cfg.Mix[i].Label == args[0] || cfg.Mix[i].URI == args[0] {
					cfg.Mix[i].Percent = percent
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("no source %q in mix", args[0])
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return config.Save(config.Dir(), cfg)
		},
	}
}
