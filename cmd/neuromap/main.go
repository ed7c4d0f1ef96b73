package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Rysh-29/Neuromap/domain/core/entities"
	"github.com/Rysh-29/Neuromap/domain/core/valueobjects"
	"github.com/Rysh-29/Neuromap/infrastructure/config"
	"github.com/Rysh-29/Neuromap/infrastructure/di"
)

type globalFlags struct {
	configFile string
	backend    string
	dataDir    string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "neuromap",
		Short:         "Mind-map diagrams with persistent auto-save",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&flags.backend, "backend", "", "storage backend (memory, file, sqlite, dynamodb)")
	rootCmd.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "directory for the file and sqlite backends")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level")

	rootCmd.AddCommand(showCmd(flags))
	rootCmd.AddCommand(addCmd(flags))
	rootCmd.AddCommand(connectCmd(flags))
	rootCmd.AddCommand(exportCmd(flags))
	rootCmd.AddCommand(clearCmd(flags))
	rootCmd.AddCommand(serveCmd(flags))

	return rootCmd
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	if flags.configFile != "" {
		if err := os.Setenv(config.ConfigFileEnv, flags.configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	if flags.backend != "" {
		cfg.StorageBackend = flags.backend
	}
	if flags.dataDir != "" {
		cfg.DataDir = flags.dataDir
		cfg.SQLitePath = filepath.Join(flags.dataDir, "neuromap.db")
	}
	if flags.logLevel != "" {
		cfg.LogLevel = flags.logLevel
	} else if cfg.LogLevel == "info" {
		// Keep one-shot commands quiet unless asked otherwise
		cfg.LogLevel = "warn"
	}
	return cfg, cfg.Validate()
}

// withContainer runs fn against a fully wired container and writes any
// pending auto-save before returning.
func withContainer(ctx context.Context, flags *globalFlags, fn func(*di.Container) error) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()
	defer container.Shutdown()

	return fn(container)
}

func showCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), flags, func(c *di.Container) error {
				view := c.Controller.Map()
				out := cmd.OutOrStdout()

				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(view)
				}

				labels := make(map[string]string, len(view.Nodes))
				fmt.Fprintf(out, "Nodes (%d):\n", len(view.Nodes))
				for _, n := range view.Nodes {
					labels[n.ID.String()] = n.DisplayLabel()
					notes := ""
					if n.HasNotes() {
						notes = "  [notes]"
					}
					fmt.Fprintf(out, "  %-14s %-32s (%.0f, %.0f)%s\n",
						n.ID, truncate(n.DisplayLabel(), 32), n.Position.X(), n.Position.Y(), notes)
				}
				fmt.Fprintf(out, "Edges (%d):\n", len(view.Edges))
				for _, e := range view.Edges {
					fmt.Fprintf(out, "  %s → %s\n", labels[e.Source.String()], labels[e.Target.String()])
				}
				fmt.Fprintf(out, "Viewport: x=%.0f y=%.0f zoom=%.2f\n", view.Viewport.X, view.Viewport.Y, view.Viewport.Zoom)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the map as JSON")
	return cmd
}

func addCmd(flags *globalFlags) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:   "add [label]",
		Short: "Add a node near the centre of the canvas",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd.Context(), flags, func(c *di.Container) error {
				node, err := c.Controller.AddNode()
				if err != nil {
					return err
				}

				var patch entities.NodeDataPatch
				if label := strings.TrimSpace(strings.Join(args, " ")); label != "" {
					patch.Label = &label
				}
				if notes != "" {
					patch.Content = &notes
				}
				if !patch.IsEmpty() {
					if _, err := c.Controller.UpdateNode(node.ID, patch); err != nil {
						return err
					}
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Added node %s\n", node.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "rich-text notes (HTML)")
	return cmd
}

func connectCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "connect <source-id> <target-id>",
		Short: "Connect two nodes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := valueobjects.NewNodeIDFromString(args[0])
			if err != nil {
				return fmt.Errorf("source: %w", err)
			}
			target, err := valueobjects.NewNodeIDFromString(args[1])
			if err != nil {
				return fmt.Errorf("target: %w", err)
			}
			return withContainer(cmd.Context(), flags, func(c *di.Container) error {
				edge, err := c.Controller.Connect(source, target)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added edge %s\n", edge.ID)
				return nil
			})
		},
	}
}

func exportCmd(flags *globalFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:       "export <png|md>",
		Short:     "Export the map as a PNG image or a Markdown outline",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"png", "md"},
		RunE: func(cmd *cobra.Command, args []string) error {
			format := args[0]
			return withContainer(cmd.Context(), flags, func(c *di.Container) error {
				fileName, _, ok := c.Controller.ExportFileName(format)
				if !ok {
					return fmt.Errorf("unsupported export format %q", format)
				}
				path := out
				if path == "" {
					path = filepath.Join(c.Config.ExportDir, fileName)
				}

				f, err := os.Create(path)
				if err != nil {
					return err
				}
				if err := c.Controller.Export(cmd.Context(), format, f); err != nil {
					_ = f.Close()
					_ = os.Remove(path)
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s\n", path)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (defaults to the export directory)")
	return cmd
}

func clearCmd(flags *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the map back to the single seed node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("clearing removes every node and edge; re-run with --yes to confirm")
			}
			return withContainer(cmd.Context(), flags, func(c *di.Container) error {
				action := c.Controller.RequestClear()
				if _, err := c.Controller.Confirm(cmd.Context(), action.Token); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Map cleared")
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm clearing the map")
	return cmd
}

func serveCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the REST API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.logLevel == "" {
				flags.logLevel = "info"
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return withContainer(ctx, flags, func(c *di.Container) error {
				if addr == "" {
					addr = c.Config.ServerAddress
				}
				srv := &http.Server{
					Addr:              addr,
					Handler:           c.Router.Setup(),
					ReadHeaderTimeout: 10 * time.Second,
				}

				errCh := make(chan error, 1)
				go func() {
					c.Logger.Info("Starting server", zap.String("address", addr))
					errCh <- srv.ListenAndServe()
				}()

				select {
				case err := <-errCh:
					if !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				case <-ctx.Done():
				}

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to the configured server address)")
	return cmd
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
