// Package parser turns the completion model's free-text reply into validated
// recognized items. The reply is supposed to be a bare JSON array but the
// upstream does not guarantee that: it may fence it in Markdown, wrap it in an
// object, or surround it with prose. Parsing therefore runs an ordered list of
// strategies and short-circuits on the first that yields an array; when all
// fail the result is an empty list, never an error, so one malformed reply
// cannot abort a whole voice entry.
package parser

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
	"unicode"

	"github.com/voxinv/voxinv/internal/items"
	"github.com/voxinv/voxinv/internal/logging"
)

// spanPattern matches the first [ { ... } ] span in a reply that buries the
// array inside prose.
var spanPattern = regexp.MustCompile(`(?s)\[\s*\{.*\}\s*\]`)

type strategy struct {
	name  string
	parse func(cleaned string) ([]items.RecognizedItem, bool)
}

type Parser struct {
	log        *logging.Logger
	strategies []strategy
}

func New(log *logging.Logger) *Parser {
	p := &Parser{log: log.WithComponent("parser")}
	p.strategies = []strategy{
		{"direct-array", p.parseDirectArray},
		{"wrapped-object", p.parseWrappedObject},
		{"bracket-span", p.parseBracketSpan},
	}
	return p
}

// Parse extracts recognized items from a raw model reply. It never fails:
// irrecoverable malformation degrades to an empty result and is logged.
func (p *Parser) Parse(raw string) []items.RecognizedItem {
	cleaned := stripFences(raw)
	if cleaned == "" {
		p.log.Warn("empty model reply, no items recognized")
		return []items.RecognizedItem{}
	}

	for _, s := range p.strategies {
		parsed, ok := s.parse(cleaned)
		if !ok {
			continue
		}
		p.log.WithField("strategy", s.name).Debugf("parsed %d candidate records", len(parsed))
		return p.validate(parsed)
	}

	p.log.WithField("reply", cleaned).Warn("no JSON array found in model reply, no items recognized")
	return []items.RecognizedItem{}
}

// stripFences removes Markdown code-fence markers and surrounding whitespace.
func stripFences(raw string) string {
	cleaned := strings.ReplaceAll(raw, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

func (p *Parser) parseDirectArray(cleaned string) ([]items.RecognizedItem, bool) {
	var parsed []items.RecognizedItem
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

// parseWrappedObject tolerates models that answer {"items": [...]} instead of
// a bare array: the first object field holding an array wins. Field order is
// preserved by walking the token stream.
func (p *Parser) parseWrappedObject(cleaned string) ([]items.RecognizedItem, bool) {
	dec := json.NewDecoder(strings.NewReader(cleaned))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, false
	}

	for dec.More() {
		if _, err := dec.Token(); err != nil { // field name
			return nil, false
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
		if !bytes.HasPrefix(bytes.TrimSpace(value), []byte("[")) {
			continue
		}
		var parsed []items.RecognizedItem
		if err := json.Unmarshal(value, &parsed); err != nil {
			continue
		}
		return parsed, true
	}
	return nil, false
}

func (p *Parser) parseBracketSpan(cleaned string) ([]items.RecognizedItem, bool) {
	span := spanPattern.FindString(cleaned)
	if span == "" {
		return nil, false
	}
	var parsed []items.RecognizedItem
	if err := json.Unmarshal([]byte(span), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

// validate applies the post-processing rules: names get their first letter
// capitalized, records without a name are dropped, and location ids must be
// present all together or not at all.
func (p *Parser) validate(parsed []items.RecognizedItem) []items.RecognizedItem {
	valid := make([]items.RecognizedItem, 0, len(parsed))
	for _, it := range parsed {
		if it.Name == "" {
			p.log.Warn("dropping record without a name")
			continue
		}
		if it.HasPartialLocation() {
			p.log.WithField("name", it.Name).Warn("dropping record with incomplete location ids")
			continue
		}
		it.Name = capitalize(it.Name)
		valid = append(valid, it)
	}
	return valid
}

// capitalize upper-cases the first rune and leaves the rest untouched.
// A single-rune name is upper-cased entirely, which is the same thing.
func capitalize(name string) string {
	runes := []rune(name)
	if len(runes) == 1 {
		return strings.ToUpper(name)
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
