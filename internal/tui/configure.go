// Package tui is the interactive configuration wizard behind `voxinv
// configure`: a menu of huh forms over the config sections.
package tui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/muesli/termenv"

	"github.com/voxinv/voxinv/internal/config"
)

// ConfigureResult holds the configuration result from the wizard.
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

type section string

const (
	sectionTranscription section = "transcription"
	sectionCompletion    section = "completion"
	sectionPipeline      section = "pipeline"
	sectionLogging       section = "logging"
	sectionSaveExit      section = "save_exit"
	sectionDiscardExit   section = "discard_exit"
)

var providerOptions = []huh.Option[string]{
	huh.NewOption("OpenAI", "openai"),
	huh.NewOption("Groq", "groq"),
}

// Run starts the configuration wizard on the given config.
func Run(existingConfig *config.Config) (*ConfigureResult, error) {
	if existingConfig == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := existingConfig

	for {
		clearScreen()
		fmt.Println(Logo())
		fmt.Println()

		selected, err := selectSection(cfg)
		if err != nil {
			return &ConfigureResult{Cancelled: true}, nil
		}

		switch selected {
		case sectionSaveExit:
			confirmed, err := showSummary(cfg)
			if err != nil {
				return &ConfigureResult{Cancelled: true}, nil
			}
			if confirmed {
				return &ConfigureResult{Config: cfg, Cancelled: false}, nil
			}

		case sectionDiscardExit:
			return &ConfigureResult{Cancelled: true}, nil

		case sectionTranscription:
			if err := editTranscription(cfg); err != nil {
				continue
			}

		case sectionCompletion:
			if err := editCompletion(cfg); err != nil {
				continue
			}

		case sectionPipeline:
			if err := editPipeline(cfg); err != nil {
				continue
			}

		case sectionLogging:
			if err := editLogging(cfg); err != nil {
				continue
			}
		}
	}
}

func selectSection(cfg *config.Config) (section, error) {
	options := []huh.Option[section]{
		huh.NewOption(formatTranscriptionLabel(cfg), sectionTranscription),
		huh.NewOption(formatCompletionLabel(cfg), sectionCompletion),
		huh.NewOption("Timeouts", sectionPipeline),
		huh.NewOption("Logging", sectionLogging),
		huh.NewOption("Save & Exit", sectionSaveExit),
		huh.NewOption("Discard & Exit", sectionDiscardExit),
	}

	var selected section
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[section]().
				Title("Configuration Menu").
				Description("↑/↓ navigate • enter select • esc cancel").
				Options(options...).
				Value(&selected),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return "", err
	}
	return selected, nil
}

func editTranscription(cfg *config.Config) error {
	provider := cfg.Transcription.Provider
	if provider == "" {
		provider = "openai"
	}

	providerDesc := "Choose which service transcribes the uploaded audio"
	if cfg.Transcription.Provider != "" {
		providerDesc = fmt.Sprintf("Currently: %s/%s", cfg.Transcription.Provider, cfg.Transcription.Model)
	}

	providerForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transcription Provider").
				Description(providerDesc).
				Options(providerOptions...).
				Value(&provider),
		),
	).WithTheme(getTheme())

	if err := providerForm.Run(); err != nil {
		return err
	}
	cfg.Transcription.Provider = provider

	apiKey := cfg.Transcription.APIKey
	model := cfg.Transcription.Model
	modelOptions := transcriptionModelOptions(provider)
	if !containsValue(modelOptions, model) && len(modelOptions) > 0 {
		model = modelOptions[0].Value
	}
	language := cfg.Transcription.Language

	detailForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API Key").
				Description(apiKeyDescription(provider, cfg.Transcription.APIKey)).
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
			huh.NewSelect[string]().
				Title("Transcription Model").
				Options(modelOptions...).
				Value(&model),
			huh.NewInput().
				Title("Language").
				Description("ISO-639-1 code (e.g. 'fr', 'en') or empty for auto-detect").
				Placeholder("auto-detect").
				Value(&language),
		),
	).WithTheme(getTheme())

	if err := detailForm.Run(); err != nil {
		return err
	}

	cfg.Transcription.APIKey = apiKey
	cfg.Transcription.Model = model
	cfg.Transcription.Language = language
	return nil
}

func editCompletion(cfg *config.Config) error {
	provider := cfg.Completion.Provider
	if provider == "" {
		provider = "openai"
	}

	providerDesc := "Choose which service extracts and reconciles items"
	if cfg.Completion.Provider != "" {
		providerDesc = fmt.Sprintf("Currently: %s/%s", cfg.Completion.Provider, cfg.Completion.Model)
	}

	providerForm := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Completion Provider").
				Description(providerDesc).
				Options(providerOptions...).
				Value(&provider),
		),
	).WithTheme(getTheme())

	if err := providerForm.Run(); err != nil {
		return err
	}
	cfg.Completion.Provider = provider

	apiKey := cfg.Completion.APIKey
	model := cfg.Completion.Model
	modelOptions := completionModelOptions(provider)
	if !containsValue(modelOptions, model) && len(modelOptions) > 0 {
		model = modelOptions[0].Value
	}

	detailForm := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("API Key").
				Description(apiKeyDescription(provider, cfg.Completion.APIKey)).
				EchoMode(huh.EchoModePassword).
				Value(&apiKey),
			huh.NewSelect[string]().
				Title("Completion Model").
				Options(modelOptions...).
				Value(&model),
		),
	).WithTheme(getTheme())

	if err := detailForm.Run(); err != nil {
		return err
	}

	cfg.Completion.APIKey = apiKey
	cfg.Completion.Model = model
	return nil
}

func editPipeline(cfg *config.Config) error {
	requestTimeout := cfg.Pipeline.RequestTimeout.String()
	reconcileTimeout := cfg.Pipeline.ReconcileTimeout.String()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Request Timeout").
				Description("Upper bound for one transcription or extraction call").
				Validate(validateDuration).
				Value(&requestTimeout),
			huh.NewInput().
				Title("Reconcile Timeout").
				Description("Upper bound for the batched catalog comparison call").
				Validate(validateDuration).
				Value(&reconcileTimeout),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Pipeline.RequestTimeout, _ = time.ParseDuration(requestTimeout)
	cfg.Pipeline.ReconcileTimeout, _ = time.ParseDuration(reconcileTimeout)
	return nil
}

func editLogging(cfg *config.Config) error {
	level := cfg.Logging.Level
	if level == "" {
		level = "info"
	}
	format := cfg.Logging.Format
	if format == "" {
		format = "text"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Log Level").
				Options(
					huh.NewOption("debug", "debug"),
					huh.NewOption("info", "info"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&level),
			huh.NewSelect[string]().
				Title("Log Format").
				Options(
					huh.NewOption("text", "text"),
					huh.NewOption("json", "json"),
				).
				Value(&format),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return err
	}

	cfg.Logging.Level = level
	cfg.Logging.Format = format
	return nil
}

func showSummary(cfg *config.Config) (bool, error) {
	fmt.Println()
	fmt.Println(StyleHeader.Render("Configuration Summary"))
	fmt.Println()

	fmt.Printf("  %s %s (%s)\n", StyleLabel.Render("Transcription:"), cfg.Transcription.Provider, cfg.Transcription.Model)
	if cfg.Transcription.Language != "" {
		fmt.Printf("  %s %s\n", StyleLabel.Render("Language:"), cfg.Transcription.Language)
	}
	fmt.Printf("  %s %s (%s)\n", StyleLabel.Render("Completion:"), cfg.Completion.Provider, cfg.Completion.Model)
	fmt.Printf("  %s request %s, reconcile %s\n", StyleLabel.Render("Timeouts:"),
		cfg.Pipeline.RequestTimeout, cfg.Pipeline.ReconcileTimeout)
	fmt.Printf("  %s %s/%s\n", StyleLabel.Render("Logging:"), cfg.Logging.Level, cfg.Logging.Format)

	if cfg.Transcription.ResolvedAPIKey() == "" || cfg.Completion.ResolvedAPIKey() == "" {
		fmt.Println()
		fmt.Println(StyleMuted.Render("  Note: no API key set; the daemon will refuse requests until one is configured."))
	}
	fmt.Println()

	var confirmed bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save this configuration?").
				Affirmative("Save").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(getTheme())

	if err := form.Run(); err != nil {
		return false, err
	}
	return confirmed, nil
}

func formatTranscriptionLabel(cfg *config.Config) string {
	if cfg.Transcription.Provider == "" {
		return "Transcription"
	}
	return fmt.Sprintf("Transcription (%s/%s)", cfg.Transcription.Provider, cfg.Transcription.Model)
}

func formatCompletionLabel(cfg *config.Config) string {
	if cfg.Completion.Provider == "" {
		return "Completion"
	}
	return fmt.Sprintf("Completion (%s/%s)", cfg.Completion.Provider, cfg.Completion.Model)
}

func transcriptionModelOptions(provider string) []huh.Option[string] {
	switch provider {
	case "groq":
		return []huh.Option[string]{
			huh.NewOption("whisper-large-v3-turbo (faster)", "whisper-large-v3-turbo"),
			huh.NewOption("whisper-large-v3 (standard)", "whisper-large-v3"),
		}
	default:
		return []huh.Option[string]{
			huh.NewOption("gpt-4o-transcribe (recommended)", "gpt-4o-transcribe"),
			huh.NewOption("gpt-4o-mini-transcribe (cheaper)", "gpt-4o-mini-transcribe"),
			huh.NewOption("whisper-1", "whisper-1"),
		}
	}
}

func completionModelOptions(provider string) []huh.Option[string] {
	switch provider {
	case "groq":
		return []huh.Option[string]{
			huh.NewOption("llama-3.3-70b-versatile (recommended)", "llama-3.3-70b-versatile"),
			huh.NewOption("llama-3.1-8b-instant (faster)", "llama-3.1-8b-instant"),
		}
	default:
		return []huh.Option[string]{
			huh.NewOption("gpt-4o-mini (recommended)", "gpt-4o-mini"),
			huh.NewOption("gpt-4o", "gpt-4o"),
			huh.NewOption("gpt-4.1-mini", "gpt-4.1-mini"),
		}
	}
}

func apiKeyDescription(provider, current string) string {
	envVar := "OPENAI_API_KEY"
	if provider == "groq" {
		envVar = "GROQ_API_KEY"
	}
	if current != "" {
		return fmt.Sprintf("Currently set (%s). Leave as is or type a new key; %s also works.", maskKey(current), envVar)
	}
	return fmt.Sprintf("Stored in the config file; leave empty to use %s from the environment.", envVar)
}

// maskKey keeps the first and last four characters visible.
func maskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

func containsValue(options []huh.Option[string], value string) bool {
	for _, o := range options {
		if o.Value == value {
			return true
		}
	}
	return false
}

func validateDuration(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration format (use '30s', '2m', etc.)")
	}
	if d <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	return nil
}

func clearScreen() {
	output := termenv.NewOutput(os.Stdout)
	output.ClearScreen()
}
