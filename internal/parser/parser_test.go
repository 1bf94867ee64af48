package parser

import (
	"testing"

	"github.com/voxinv/voxinv/internal/logging"
)

func newTestParser() *Parser {
	return New(logging.New("error", "text"))
}

func TestParseCleanArray(t *testing.T) {
	p := newTestParser()
	got := p.Parse(`[{"id":1,"name":"tournevis"},{"id":2,"name":"perceuse"}]`)

	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
	if got[0].Name != "Tournevis" || got[1].Name != "Perceuse" {
		t.Errorf("names = %q, %q; want capitalized originals", got[0].Name, got[1].Name)
	}
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Errorf("ids = %d, %d", got[0].ID, got[1].ID)
	}
}

func TestParseFencedArray(t *testing.T) {
	p := newTestParser()
	bare := p.Parse(`[{"id":1,"name":"marteau"}]`)
	fenced := p.Parse("```json\n[{\"id\":1,\"name\":\"marteau\"}]\n```")

	if len(bare) != 1 || len(fenced) != 1 {
		t.Fatalf("expected 1 item from both, got %d and %d", len(bare), len(fenced))
	}
	if bare[0] != fenced[0] {
		t.Errorf("fence stripping should be transparent: %+v vs %+v", bare[0], fenced[0])
	}
}

func TestParseWrappedObject(t *testing.T) {
	p := newTestParser()
	got := p.Parse(`{"items":[{"id":1,"name":"scie"}]}`)

	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].Name != "Scie" {
		t.Errorf("name = %q", got[0].Name)
	}
}

func TestParseWrappedObjectSkipsNonArrayFields(t *testing.T) {
	p := newTestParser()
	got := p.Parse(`{"comment":"voilà","count":2,"results":[{"id":1,"name":"pince"},{"id":2,"name":"clé"}]}`)

	if len(got) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got))
	}
}

func TestParseBracketSpanInProse(t *testing.T) {
	p := newTestParser()
	got := p.Parse(`Voici les articles extraits : [{"id":1,"name":"visseuse"}] N'hésitez pas si besoin !`)

	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].Name != "Visseuse" {
		t.Errorf("name = %q", got[0].Name)
	}
}

func TestParsePartialLocationDropped(t *testing.T) {
	p := newTestParser()
	got := p.Parse(`[
		{"name":"marteau","zone_id":1},
		{"name":"perceuse","zone_id":1,"furniture_id":7,"drawer_id":3},
		{"name":"tournevis"}
	]`)

	if len(got) != 2 {
		t.Fatalf("expected partial-location record dropped, got %d items", len(got))
	}
	if got[0].Name != "Perceuse" || !got[0].HasFullLocation() {
		t.Errorf("first kept item = %+v", got[0])
	}
	if got[1].Name != "Tournevis" || got[1].ZoneID != nil {
		t.Errorf("second kept item = %+v", got[1])
	}
}

func TestParseFullLocationKept(t *testing.T) {
	p := newTestParser()
	got := p.Parse(`[{"name":"marteau","zone_id":1,"furniture_id":7,"drawer_id":3}]`)

	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	it := got[0]
	if *it.ZoneID != 1 || *it.FurnitureID != 7 || *it.DrawerID != 3 {
		t.Errorf("location ids = %v %v %v", it.ZoneID, it.FurnitureID, it.DrawerID)
	}
}

func TestParseNamelessRecordDropped(t *testing.T) {
	p := newTestParser()
	got := p.Parse(`[{"id":1,"name":""},{"id":2},{"id":3,"name":"burin"}]`)

	if len(got) != 1 || got[0].Name != "Burin" {
		t.Errorf("expected only the named record, got %+v", got)
	}
}

func TestParseGarbage(t *testing.T) {
	p := newTestParser()
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t  "},
		{"prose only", "Je n'ai trouvé aucun article dans cette transcription."},
		{"broken json", `[{"name": "tourn`},
		{"object without array", `{"message":"rien trouvé"}`},
		{"scalar", `42`},
		{"array of scalars", `[1,2,3]`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := p.Parse(tc.raw)
			if got == nil {
				t.Fatal("Parse must return an empty slice, not nil")
			}
			if len(got) != 0 {
				t.Errorf("expected no items, got %+v", got)
			}
		})
	}
}

func TestCapitalize(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"tournevis", "Tournevis"},
		{"Tournevis", "Tournevis"},
		{"étagère", "Étagère"},
		{"x", "X"},
		{"clé à molette", "Clé à molette"},
	}

	for _, tc := range tests {
		if got := capitalize(tc.in); got != tc.out {
			t.Errorf("capitalize(%q) = %q, want %q", tc.in, got, tc.out)
		}
	}
}

func TestParseKeepsOrder(t *testing.T) {
	p := newTestParser()
	got := p.Parse(`[{"id":1,"name":"a1"},{"id":2,"name":"b2"},{"id":3,"name":"c3"}]`)

	want := []string{"A1", "B2", "C3"}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Name != want[i] {
			t.Errorf("item %d name = %q, want %q", i, got[i].Name, want[i])
		}
	}
}
