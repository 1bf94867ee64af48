package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/voxinv/voxinv/internal/items"
)

func TestReadJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	content := `[{"id": 12, "name": "Gaufre au sésame", "zone_id": 1, "furniture_id": 7, "drawer_id": 3, "location": "Cuisine > Placard > Tiroir 3"}]`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	var catalog []items.CatalogItem
	if err := readJSONFile(path, &catalog); err != nil {
		t.Fatalf("readJSONFile: %v", err)
	}
	if len(catalog) != 1 || catalog[0].ID != 12 || catalog[0].Name != "Gaufre au sésame" {
		t.Errorf("catalog = %+v", catalog)
	}

	if err := readJSONFile(filepath.Join(t.TempDir(), "absent.json"), &catalog); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := readJSONFile(bad, &catalog); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{
		"serve": false, "process": false, "chat": false, "status": false,
		"stop": false, "configure": false, "version": false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}
