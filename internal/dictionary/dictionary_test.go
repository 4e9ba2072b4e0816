package dictionary

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.yaml.in/yaml/v3"

	"github.com/lukas-andre/alergias-app-sub001/internal/sqlitedb"
	"github.com/lukas-andre/alergias-app-sub001/pkg/types"
)

// --- test helpers ---

func testStore(t *testing.T) *Store {
	t.Helper()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "dict.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewStore(context.Background(), db)
	if err != nil {
		t.Fatal(err)
	}
	return store
}

func smallSeed() *Seed {
	return &Seed{
		Synonyms: []types.SynonymEntry{
			{AllergenKey: "leche", Surface: "leche", Locale: "es", Weight: 1},
			{AllergenKey: "leche", Surface: "leche en polvo", Locale: "es", Weight: 0.9},
			{AllergenKey: "Frutos Secos", Surface: "nuez"},
		},
		ENumbers: []types.ENumberEntry{
			{Code: "e322", NameES: "lecitinas", LinkedAllergenKeys: []string{"soya", "Huevo"}, ResidualProteinRisk: true},
			{Code: "E1105", NameES: "lisozima", LinkedAllergenKeys: []string{"huevo"}, ResidualProteinRisk: true},
		},
	}
}

// --- schema ---

func TestNewStoreCreatesSchema(t *testing.T) {
	store := testStore(t)

	for _, table := range []string{"synonyms", "e_numbers"} {
		ok, err := sqlitedb.TableExists(context.Background(), store.db, table)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Errorf("table %s does not exist", table)
		}
	}
}

// --- seed parsing ---

func TestDefaultSeed(t *testing.T) {
	seed, err := DefaultSeed()
	if err != nil {
		t.Fatal(err)
	}
	if len(seed.Synonyms) < 50 {
		t.Errorf("default seed has %d synonyms, want at least 50", len(seed.Synonyms))
	}
	for _, e := range seed.Synonyms {
		if e.AllergenKey == "" || e.Surface == "" {
			t.Errorf("incomplete synonym row %+v", e)
		}
	}

	idx := seed.ENumberIndex()
	e322, ok := idx["E322"]
	if !ok {
		t.Fatal("E322 missing from default seed")
	}
	if !e322.ResidualProteinRisk {
		t.Error("E322 should carry residual protein risk")
	}
	if _, ok := idx["E1404"]; !ok {
		t.Error("E1404 missing from index")
	}
}

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"E322", "E322", true},
		{" e1105 ", "E1105", true},
		{"E32", "", false},
		{"E160a", "", false},
		{"lecitina E322", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeCode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeCode(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestReadSeedFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "seed.yaml")
	os.WriteFile(yamlPath, []byte("synonyms:\n  - {allergen_key: soya, surface: soja}\n"), 0o644)
	seed, err := ReadSeedFile(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(seed.Synonyms) != 1 || seed.Synonyms[0].Surface != "soja" {
		t.Errorf("unexpected yaml seed %+v", seed)
	}

	jsonPath := filepath.Join(dir, "seed.json")
	os.WriteFile(jsonPath, []byte(`{"e_numbers":[{"code":"E966","linked_allergen_keys":["leche"]}]}`), 0o644)
	seed, err = ReadSeedFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(seed.ENumbers) != 1 || seed.ENumbers[0].Code != "E966" {
		t.Errorf("unexpected json seed %+v", seed)
	}

	if _, err := ReadSeedFile(filepath.Join(dir, "seed.toml")); err == nil {
		t.Error("expected error for missing file")
	}
	tomlPath := filepath.Join(dir, "x.toml")
	os.WriteFile(tomlPath, []byte("a = 1"), 0o644)
	if _, err := ReadSeedFile(tomlPath); err == nil {
		t.Error("expected error for unsupported format")
	}
}

// --- import ---

func TestImportIsIdempotent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	var out bytes.Buffer
	summary, err := store.Import(ctx, smallSeed(), &out)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Inserted != 5 || summary.Total() != 5 {
		t.Errorf("first import = %+v, want 5 inserted", summary)
	}

	summary, err = store.Import(ctx, smallSeed(), &out)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Unchanged != 5 || summary.Inserted != 0 || summary.Updated != 0 {
		t.Errorf("second import = %+v, want 5 unchanged", summary)
	}
	if !strings.Contains(out.String(), "inserted: 0, updated: 0, unchanged: 5, failed: 0") {
		t.Errorf("summary line missing from output:\n%s", out.String())
	}
}

func TestImportUpdatesChangedRows(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	if _, err := store.Import(ctx, smallSeed(), &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	changed := &Seed{
		Synonyms: []types.SynonymEntry{{AllergenKey: "leche", Surface: "Leche en Polvo", Locale: "es", Weight: 0.5}},
		ENumbers: []types.ENumberEntry{{Code: "E322", NameES: "lecitina", LinkedAllergenKeys: []string{"soya"}}},
	}
	summary, err := store.Import(ctx, changed, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Updated != 2 {
		t.Errorf("summary = %+v, want 2 updated", summary)
	}

	syns, _ := store.Synonyms(ctx)
	if len(syns) != 3 {
		t.Fatalf("got %d synonyms, want 3 (same canonical updates in place)", len(syns))
	}
	enums, _ := store.ENumbers(ctx)
	if enums[0].Code != "E322" || enums[0].ResidualProteinRisk || len(enums[0].LinkedAllergenKeys) != 1 {
		t.Errorf("E322 not updated: %+v", enums[0])
	}
}

func TestImportReportsInvalidRows(t *testing.T) {
	store := testStore(t)
	seed := &Seed{
		Synonyms: []types.SynonymEntry{{AllergenKey: "", Surface: "x"}, {AllergenKey: "leche", Surface: "  "}},
		ENumbers: []types.ENumberEntry{{Code: "E12"}},
	}

	var out bytes.Buffer
	summary, err := store.Import(context.Background(), seed, &out)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Failed != 3 || summary.Inserted != 0 {
		t.Errorf("summary = %+v, want 3 failed", summary)
	}
	if !strings.Contains(out.String(), `failed  e-number "E12"`) {
		t.Errorf("missing failure line:\n%s", out.String())
	}
}

func TestImportNormalizesKeysAndDefaults(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	store.Import(ctx, smallSeed(), &bytes.Buffer{})

	syns, err := store.Synonyms(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var nuez types.SynonymEntry
	for _, s := range syns {
		if s.Surface == "nuez" {
			nuez = s
		}
	}
	if nuez.AllergenKey != "frutos_secos" || nuez.Locale != "es" || nuez.Weight != 1.0 {
		t.Errorf("nuez row = %+v", nuez)
	}

	enums, _ := store.ENumbers(ctx)
	if len(enums) != 2 || enums[0].Code != "E322" || enums[1].Code != "E1105" {
		t.Fatalf("e-numbers not ordered numerically: %+v", enums)
	}
	if strings.Join(enums[0].LinkedAllergenKeys, ",") != "soya,huevo" {
		t.Errorf("linked keys = %v", enums[0].LinkedAllergenKeys)
	}
}

func TestEnsureSeeded(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	if err := store.EnsureSeeded(ctx, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	syns, _ := store.Synonyms(ctx)
	if len(syns) < 50 {
		t.Fatalf("seeded %d synonyms", len(syns))
	}

	var out bytes.Buffer
	if err := store.EnsureSeeded(ctx, &out); err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Errorf("second EnsureSeeded should be a no-op, wrote %q", out.String())
	}
}

// --- matching ---

func TestMatch(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	store.Import(ctx, smallSeed(), &bytes.Buffer{})

	rows, err := store.Match(ctx, "Leche en polvo", 0.3, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d matches, want 2: %+v", len(rows), rows)
	}
	if rows[0].SynonymSurface != "leche en polvo" || rows[0].Similarity != 1.0 {
		t.Errorf("best match = %+v", rows[0])
	}
	if rows[0].Surface != "Leche en polvo" {
		t.Errorf("surface not stamped: %+v", rows[0])
	}
	if store.Name() != "sqlite" {
		t.Errorf("Name() = %q", store.Name())
	}
}

// --- export ---

func TestExportYAMLRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	store.Import(ctx, smallSeed(), &bytes.Buffer{})

	var buf bytes.Buffer
	if err := store.ExportYAML(ctx, &buf); err != nil {
		t.Fatal(err)
	}

	var seed Seed
	if err := yaml.Unmarshal(buf.Bytes(), &seed); err != nil {
		t.Fatalf("export is not valid YAML: %v", err)
	}
	if len(seed.Synonyms) != 3 || len(seed.ENumbers) != 2 {
		t.Errorf("exported %d synonyms, %d e-numbers", len(seed.Synonyms), len(seed.ENumbers))
	}

	other := testStore(t)
	summary, err := other.Import(ctx, &seed, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if summary.Inserted != 5 {
		t.Errorf("re-import = %+v", summary)
	}
}

func TestExportJSON(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()
	store.Import(ctx, smallSeed(), &bytes.Buffer{})

	var buf bytes.Buffer
	if err := store.ExportJSON(ctx, &buf); err != nil {
		t.Fatal(err)
	}

	var raw map[string][]map[string]any
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(raw["synonyms"]) != 3 {
		t.Errorf("got %d synonyms", len(raw["synonyms"]))
	}
	if raw["e_numbers"][0]["code"] != "E322" {
		t.Errorf("first e-number = %v", raw["e_numbers"][0])
	}
}
