package main

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"github.com/voxinv/voxinv/internal/bus"
	"github.com/voxinv/voxinv/internal/config"
	"github.com/voxinv/voxinv/internal/daemon"
	"github.com/voxinv/voxinv/internal/items"
	"github.com/voxinv/voxinv/internal/logging"
	"github.com/voxinv/voxinv/internal/pipeline"
	"github.com/voxinv/voxinv/internal/tui"
	"github.com/voxinv/voxinv/internal/upstream"
)

// set via -ldflags at build time
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "voxinv",
	Short: "Voice-driven inventory entry: transcribe, extract and reconcile items",
}

func init() {
	rootCmd.AddCommand(
		serveCmd(),
		processCmd(),
		chatCmd(),
		statusCmd(),
		stopCmd(),
		configureCmd(),
		versionCmd(),
	)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

			d, err := daemon.New(log)
			if err != nil {
				return fmt.Errorf("failed to create daemon: %w", err)
			}
			return d.Run()
		},
	}
}

func processCmd() *cobra.Command {
	var mimeType string
	var modeFlag string
	var catalogPath string
	var locationsPath string
	var retryFor time.Duration

	cmd := &cobra.Command{
		Use:   "process <audio-file>",
		Short: "Run the voice-entry pipeline on an audio file",
		Long: `Run the voice-entry pipeline on an audio file and print the recognized
items as JSON. Connection failures to the transcription/extraction services are
retried with exponential backoff; credential and provider errors are not.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProcess(cmd.Context(), args[0], mimeType, modeFlag, catalogPath, locationsPath, retryFor)
		},
	}

	cmd.Flags().StringVar(&mimeType, "mime", "", "audio MIME type (default: inferred from the file extension)")
	cmd.Flags().StringVar(&modeFlag, "mode", "plain", "pipeline mode: plain, inventory-with-locations or temporary-only")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "JSON file with the conventional item catalog")
	cmd.Flags().StringVar(&locationsPath, "locations", "", "JSON file with the zones/furniture/drawers context")
	cmd.Flags().DurationVar(&retryFor, "retry-for", 30*time.Second, "how long to retry connection failures (0 disables)")

	return cmd
}

func runProcess(ctx context.Context, audioPath, mimeType, modeFlag, catalogPath, locationsPath string, retryFor time.Duration) error {
	mode, err := pipeline.ParseMode(modeFlag)
	if err != nil {
		return err
	}

	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(audioPath))
		if mimeType == "" {
			return fmt.Errorf("cannot infer MIME type of %s, pass --mime", audioPath)
		}
	}

	var req pipeline.Request
	if catalogPath != "" {
		if err := readJSONFile(catalogPath, &req.Catalog); err != nil {
			return fmt.Errorf("failed to read catalog: %w", err)
		}
	}
	if locationsPath != "" {
		if err := readJSONFile(locationsPath, &req.Locations); err != nil {
			return fmt.Errorf("failed to read locations: %w", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	p, err := pipeline.FromConfig(cfg, log)
	if err != nil {
		return err
	}

	var recognized []items.RecognizedItem
	operation := func() error {
		f, err := os.Open(audioPath)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer f.Close()

		recognized, err = p.Process(ctx, f, mimeType, mode, req)
		if err != nil {
			if upstream.IsConnectivity(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = retryFor
	var policy backoff.BackOff = bo
	if retryFor <= 0 {
		policy = &backoff.StopBackOff{}
	}
	if err := backoff.Retry(operation, policy); err != nil {
		return err
	}

	out, err := json.MarshalIndent(recognized, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func chatCmd() *cobra.Command {
	var catalogPath string

	cmd := &cobra.Command{
		Use:   "chat <question>",
		Short: "Ask a question about the current inventory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var catalog []items.CatalogItem
			if catalogPath != "" {
				if err := readJSONFile(catalogPath, &catalog); err != nil {
					return fmt.Errorf("failed to read catalog: %w", err)
				}
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

			p, err := pipeline.FromConfig(cfg, log)
			if err != nil {
				return err
			}

			reply, err := p.Chat(cmd.Context(), catalog, args[0])
			if err != nil {
				return err
			}
			fmt.Println(reply)
			return nil
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "JSON file with the inventory items and locations")

	return cmd
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Get daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.Send(bus.Request{Op: bus.OpStatus})
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}
			if resp.Error != nil {
				return resp.Error
			}
			fmt.Printf("state=%s pid=%d uptime=%s proto=%s\n",
				resp.Status.State, resp.Status.PID, resp.Status.Uptime, resp.Status.Proto)
			return nil
		},
	}
}

func stopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := bus.Send(bus.Request{Op: bus.OpStop})
			if err != nil {
				return fmt.Errorf("failed to stop daemon: %w", err)
			}
			if resp.Error != nil {
				return resp.Error
			}
			fmt.Println(resp.Reply)
			return nil
		},
	}
}

func configureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Interactive configuration setup",
		Long: `Interactive configuration wizard for voxinv.
This will guide you through setting up:
- Transcription provider, API key and model
- Completion provider, API key and model
- Pipeline timeouts
- Logging`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigure()
		},
	}
}

func runConfigure() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	result, err := tui.Run(cfg)
	if err != nil {
		return fmt.Errorf("configuration wizard error: %w", err)
	}
	if result.Cancelled {
		fmt.Println("Configuration cancelled.")
		return nil
	}

	if err := result.Config.Validate(); err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}

	if err := config.Save(result.Config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Println()
	fmt.Println("Configuration saved successfully!")

	configPath, _ := config.GetConfigPath()
	fmt.Printf("Config file location: %s\n", configPath)
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("voxinv %s (proto %s)\n", version, bus.ProtoVer)
			return nil
		},
	}
}

func readJSONFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}
