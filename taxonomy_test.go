package floormap

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTaxonomyLookup(t *testing.T) {

	tax := DefaultTaxonomy()

	chair := tax.ByLabel("chair")

	if chair.Type != "chair" || chair.Display != "Chair" {
		t.Errorf("unexpected chair class %+v", chair)
	}

	if chair.FootprintHalfWidth <= 0 {
		t.Errorf("chair must have a positive footprint, got %f", chair.FootprintHalfWidth)
	}
}

func TestTaxonomyFallback(t *testing.T) {

	tax := DefaultTaxonomy()

	unknown := tax.ByLabel("zebra")

	if unknown.Type != "unknown" {
		t.Errorf("expected fallback type unknown, got %q", unknown.Type)
	}

	// the fallback carries the original label through
	if unknown.Label != "zebra" {
		t.Errorf("expected fallback label zebra, got %q", unknown.Label)
	}
}

func TestTaxonomyLabelsOrder(t *testing.T) {

	tax := NewTaxonomy([]ObjectClass{
		{Label: "a", Type: "a"},
		{Label: "b", Type: "b"},
		{Label: "c", Type: "c"},
	}, ObjectClass{})

	labels := tax.Labels()

	if len(labels) != 3 || labels[0] != "a" || labels[2] != "c" {
		t.Errorf("labels must preserve table order, got %v", labels)
	}
}

func TestLoadTaxonomyYAML(t *testing.T) {

	content := `
classes:
  - label: chair
    type: chair
    display: Chair
    footprint_half_width: 0.3
  - label: door
    type: door
    display: Door
    footprint_half_width: 0.1
fallback:
  type: misc
  display: Misc
  footprint_half_width: 0.2
`

	file := filepath.Join(t.TempDir(), "taxonomy.yaml")

	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	tax, err := LoadTaxonomy(file)

	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	if len(tax.Classes) != 2 {
		t.Fatalf("expected 2 classes, got %d", len(tax.Classes))
	}

	door := tax.ByLabel("door")

	if door.FootprintHalfWidth != 0.1 {
		t.Errorf("expected door footprint 0.1, got %f", door.FootprintHalfWidth)
	}

	if misc := tax.ByLabel("lamp"); misc.Type != "misc" {
		t.Errorf("expected configured fallback, got %+v", misc)
	}
}

func TestLoadTaxonomyErrors(t *testing.T) {

	if _, err := LoadTaxonomy("/nonexistent/taxonomy.yaml"); err == nil {
		t.Error("expected error for missing file")
	}

	file := filepath.Join(t.TempDir(), "empty.yaml")

	if err := os.WriteFile(file, []byte("classes: []"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadTaxonomy(file); err == nil {
		t.Error("expected error for empty taxonomy")
	}
}

func TestLoadLabels(t *testing.T) {

	file := filepath.Join(t.TempDir(), "labels.txt")

	if err := os.WriteFile(file, []byte("chair\ndoor\ntv\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	labels, err := LoadLabels(file)

	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}

	if len(labels) != 3 || labels[1] != "door" {
		t.Errorf("unexpected labels %v", labels)
	}
}
