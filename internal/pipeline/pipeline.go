// Package pipeline sequences one voice-entry invocation: persist the uploaded
// audio to a private temporary file, transcribe it, extract item records from
// the transcript, parse the model reply, and (in plain mode) reconcile the
// names against the catalog snapshot.
//
// Failure surface: credential, connectivity and upstream errors from the
// transcription/extraction stages propagate unchanged to the caller. Parsing
// and reconciliation degrade to valid-but-empty or all-temporary results and
// are only logged. The temporary audio artifact is removed on every exit path.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/voxinv/voxinv/internal/config"
	"github.com/voxinv/voxinv/internal/extractor"
	"github.com/voxinv/voxinv/internal/items"
	"github.com/voxinv/voxinv/internal/logging"
	"github.com/voxinv/voxinv/internal/mediatype"
	"github.com/voxinv/voxinv/internal/parser"
	"github.com/voxinv/voxinv/internal/reconcile"
	"github.com/voxinv/voxinv/internal/transcriber"
)

// Mode selects what the pipeline does after transcription.
type Mode string

const (
	// ModePlain extracts bare item names and reconciles them against the
	// catalog snapshot.
	ModePlain Mode = "plain"
	// ModeInventory extracts items with location ids picked from the supplied
	// locations context. Reconciliation is skipped; the items already carry
	// their location.
	ModeInventory Mode = "inventory-with-locations"
	// ModeTemporaryOnly extracts bare item names and deliberately skips
	// reconciliation: every item is meant to become a new temporary entry
	// regardless of name similarity.
	ModeTemporaryOnly Mode = "temporary-only"
)

// ParseMode validates a mode string coming from a CLI flag or a socket
// request.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModePlain, ModeInventory, ModeTemporaryOnly:
		return Mode(s), nil
	case "":
		return ModePlain, nil
	default:
		return "", fmt.Errorf("unknown mode %q (must be %s, %s or %s)", s, ModePlain, ModeInventory, ModeTemporaryOnly)
	}
}

// Request carries the caller-owned, read-only context for one invocation.
type Request struct {
	// Catalog is the snapshot of conventional items, used by plain mode.
	Catalog []items.CatalogItem
	// Locations is the known-locations context, used by inventory mode.
	Locations items.LocationsContext
}

type Pipeline struct {
	transcriber transcriber.Adapter
	completer   extractor.Completer
	parser      *parser.Parser
	reconciler  *reconcile.Engine
	log         *logging.Logger
}

// New wires a pipeline from its collaborators. Credentials and models are
// fixed at construction; build a fresh pipeline to pick up rotated values.
func New(t transcriber.Adapter, c extractor.Completer, reconcileTimeout time.Duration, log *logging.Logger) *Pipeline {
	return &Pipeline{
		transcriber: t,
		completer:   c,
		parser:      parser.New(log),
		reconciler:  reconcile.New(c, reconcileTimeout, log),
		log:         log.WithComponent("pipeline"),
	}
}

// FromConfig builds a pipeline from a configuration snapshot. The credential
// check happens here: a missing API key surfaces as a ConfigError before any
// audio is accepted.
func FromConfig(cfg *config.Config, log *logging.Logger) (*Pipeline, error) {
	t, err := transcriber.NewAdapter(cfg.ToTranscriberConfig())
	if err != nil {
		return nil, err
	}
	c, err := extractor.NewCompleter(cfg.ToCompleterConfig())
	if err != nil {
		return nil, err
	}
	return New(t, c, cfg.Pipeline.ReconcileTimeout, log), nil
}

// Process runs one voice-entry invocation and returns the recognized items.
// An empty result is a legitimate terminal state, not an error.
func (p *Pipeline) Process(ctx context.Context, audio io.Reader, mimeType string, mode Mode, req Request) ([]items.RecognizedItem, error) {
	log := p.log.WithInvocation().WithField("mode", string(mode))

	audioPath, err := p.saveAudio(audio, mimeType)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rmErr := os.Remove(audioPath); rmErr != nil {
			log.WithError(rmErr).Warn("failed to remove temporary audio artifact")
		}
	}()

	start := time.Now()
	transcript, err := p.transcriber.Transcribe(ctx, audioPath, mimeType)
	if err != nil {
		return nil, err
	}
	log.WithField("chars", len(transcript)).WithField("duration", time.Since(start).String()).
		Info("transcription finished")

	if strings.TrimSpace(transcript) == "" {
		log.Info("empty transcript, nothing to extract")
		return []items.RecognizedItem{}, nil
	}

	var messages []extractor.Message
	switch mode {
	case ModeInventory:
		messages = extractor.LocationAwareMessages(transcript, req.Locations)
	default:
		messages = extractor.NameOnlyMessages(transcript)
	}

	start = time.Now()
	raw, err := p.completer.Complete(ctx, messages, extractor.Options{})
	if err != nil {
		return nil, err
	}
	log.WithField("duration", time.Since(start).String()).Debug("extraction finished")

	recognized := p.parser.Parse(raw)
	if len(recognized) == 0 {
		log.Info("no items recognized")
		return recognized, nil
	}

	if mode == ModePlain {
		recognized = p.reconciler.Reconcile(ctx, recognized, req.Catalog)
	}

	log.WithField("items", len(recognized)).Info("invocation finished")
	return recognized, nil
}

// Chat answers a free-form question about the supplied catalog.
func (p *Pipeline) Chat(ctx context.Context, catalog []items.CatalogItem, query string) (string, error) {
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("empty question")
	}

	reply, err := p.completer.Complete(ctx, extractor.InventoryChatMessages(catalog, query), extractor.Options{})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "Désolé, je n'ai pas pu générer de réponse pour le moment (contenu vide).", nil
	}
	return reply, nil
}

// saveAudio spools the uploaded stream to a uniquely named temporary file
// whose suffix reflects the declared MIME type.
func (p *Pipeline) saveAudio(audio io.Reader, mimeType string) (string, error) {
	tmp, err := os.CreateTemp("", "voxinv-*"+mediatype.SuffixFor(mimeType))
	if err != nil {
		return "", fmt.Errorf("create temporary audio file: %w", err)
	}

	if _, err := io.Copy(tmp, audio); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("spool audio to %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temporary audio file: %w", err)
	}
	return tmp.Name(), nil
}
