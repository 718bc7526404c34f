package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCatalogFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leagues.json")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write catalog file: %v", err)
	}
	return path
}

func TestLoadLeagueCatalog(t *testing.T) {
	path := writeCatalogFile(t, `{
		"leagues": ["eng.1", "esp.1"],
		"display_timezones": {"English Premier League": "Europe/London"},
		"icons": {"English Premier League": "🏴󠁧󠁢󠁥󠁮󠁧󠁿"},
		"aliases": {"Premier League": "English Premier League"},
		"priority": ["English Premier League"]
	}`)

	catalog, err := LoadLeagueCatalog(path)
	if err != nil {
		t.Fatalf("load catalog failed: %v", err)
	}

	codes := catalog.LeagueCodes()
	if len(codes) != 2 || codes[0] != "eng.1" {
		t.Fatalf("unexpected league codes: %v", codes)
	}

	london, _ := time.LoadLocation("Europe/London")
	if got := catalog.Zone("English Premier League"); got.String() != london.String() {
		t.Fatalf("zone = %v, want %v", got, london)
	}
	if got := catalog.Zone("Unknown League"); got != time.UTC {
		t.Fatalf("unknown league zone should default to UTC, got %v", got)
	}

	if got := catalog.Alias("Premier League"); got != "English Premier League" {
		t.Fatalf("alias = %q", got)
	}
	if got := catalog.Alias("Eredivisie"); got != "Eredivisie" {
		t.Fatalf("unaliased name should pass through, got %q", got)
	}

	if got := catalog.Icon("Eredivisie"); got != "🔰" {
		t.Fatalf("unknown league icon should default, got %q", got)
	}

	if catalog.PriorityRank("English Premier League") != 0 {
		t.Fatal("listed league should rank first")
	}
	if catalog.PriorityRank("Eredivisie") != 1 {
		t.Fatal("unlisted league should rank last")
	}
}

func TestLoadLeagueCatalog_RejectsEmptyLeagues(t *testing.T) {
	path := writeCatalogFile(t, `{"leagues": []}`)

	if _, err := LoadLeagueCatalog(path); err == nil {
		t.Fatal("expected validation error for empty league list")
	}
}

func TestLoadLeagueCatalog_RejectsUnknownTimezone(t *testing.T) {
	path := writeCatalogFile(t, `{
		"leagues": ["eng.1"],
		"display_timezones": {"English Premier League": "Mars/Olympus"}
	}`)

	if _, err := LoadLeagueCatalog(path); err == nil {
		t.Fatal("expected error for unresolvable timezone")
	}
}

func TestLoadLeagueCatalog_MissingFile(t *testing.T) {
	if _, err := LoadLeagueCatalog(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
