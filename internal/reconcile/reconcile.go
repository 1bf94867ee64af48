// Package reconcile matches freshly recognized item names against the
// caller's catalog snapshot. Matching is semantic (plural/singular, typos,
// paraphrase) and delegated to the completion model in one batched call.
//
// The engine fails open: any failure along the way marks every item as
// non-conventional instead of surfacing an error. An item that cannot be
// confirmed as already catalogued is always treated as new/temporary, and a
// degraded reconciliation must never abort the voice-entry workflow.
package reconcile

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/voxinv/voxinv/internal/extractor"
	"github.com/voxinv/voxinv/internal/items"
	"github.com/voxinv/voxinv/internal/logging"
)

// DefaultTimeout bounds the batched comparison call.
const DefaultTimeout = 45 * time.Second

type Engine struct {
	completer extractor.Completer
	timeout   time.Duration
	log       *logging.Logger
}

func New(completer extractor.Completer, timeout time.Duration, log *logging.Logger) *Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Engine{
		completer: completer,
		timeout:   timeout,
		log:       log.WithComponent("reconcile"),
	}
}

// matchResult is one entry of the model's matched_items answer.
type matchResult struct {
	OriginalName   string `json:"original_name"`
	IsConventional bool   `json:"is_conventional"`
	DBID           *int   `json:"db_id"`
	DBName         string `json:"db_name"`
}

// Reconcile decides, per recognized item, whether it matches an existing
// catalog entry. Matched items are enriched in place with the catalog entry's
// id, official name and location; everything else is marked non-conventional.
// The input slice is returned mutated. The catalog snapshot is never modified.
func (e *Engine) Reconcile(ctx context.Context, recognized []items.RecognizedItem, catalog []items.CatalogItem) []items.RecognizedItem {
	names := make([]string, 0, len(recognized))
	for _, it := range recognized {
		if it.Name != "" {
			names = append(names, it.Name)
		}
	}

	if len(names) == 0 {
		e.log.Info("no recognized names to compare")
		return markAllTemporary(recognized)
	}
	if len(catalog) == 0 {
		e.log.Info("catalog snapshot is empty, marking all items temporary")
		return markAllTemporary(recognized)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	temperature := float32(0)
	e.log.WithField("names", len(names)).WithField("catalog", len(catalog)).
		Info("sending batched comparison request")
	raw, err := e.completer.Complete(ctx, extractor.ReconcileMessages(names, catalog), extractor.Options{
		JSONObject:  true,
		Temperature: &temperature,
	})
	if err != nil {
		e.log.WithError(err).Warn("batched comparison failed, marking all items temporary")
		return markAllTemporary(recognized)
	}

	var reply struct {
		MatchedItems []matchResult `json:"matched_items"`
	}
	if err := json.Unmarshal([]byte(raw), &reply); err != nil {
		e.log.WithError(err).Warn("unparseable comparison reply, marking all items temporary")
		return markAllTemporary(recognized)
	}

	// Join on the lowercased dictated name; the model does not always echo
	// the exact casing back.
	matches := make(map[string]matchResult, len(reply.MatchedItems))
	for _, m := range reply.MatchedItems {
		matches[strings.ToLower(m.OriginalName)] = m
	}

	byID := make(map[int]items.CatalogItem, len(catalog))
	for _, ci := range catalog {
		byID[ci.ID] = ci
	}

	conventional := 0
	for i := range recognized {
		m, ok := matches[strings.ToLower(recognized[i].Name)]
		if !ok || !m.IsConventional {
			recognized[i].IsConventional = boolPtr(false)
			continue
		}

		recognized[i].IsConventional = boolPtr(true)
		recognized[i].DBID = m.DBID
		if m.DBName != "" {
			recognized[i].DBName = m.DBName
			recognized[i].Name = m.DBName
		}
		conventional++

		if m.DBID == nil {
			continue
		}
		ci, found := byID[*m.DBID]
		if !found {
			e.log.WithField("db_id", *m.DBID).Warn("model matched an id absent from the catalog snapshot")
			continue
		}
		zone, furniture, drawer := ci.ZoneID, ci.FurnitureID, ci.DrawerID
		recognized[i].ZoneID = &zone
		recognized[i].FurnitureID = &furniture
		recognized[i].DrawerID = &drawer
		recognized[i].LocationInfo = ci.Location
	}

	e.log.WithField("total", len(recognized)).WithField("conventional", conventional).
		Info("batched comparison finished")
	return recognized
}

func markAllTemporary(recognized []items.RecognizedItem) []items.RecognizedItem {
	for i := range recognized {
		recognized[i].IsConventional = boolPtr(false)
	}
	return recognized
}

func boolPtr(b bool) *bool { return &b }
