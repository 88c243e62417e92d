package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Run("defaults fill omitted giveaway settings", func(t *testing.T) {
		path := writeConfig(t, `
telegram:
  token: "test-token"
  admin_ids: [111, 222]
database:
  host: "localhost"
  name: "giveaway"
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		g := cfg.Giveaway
		if g.Timezone != "Europe/Moscow" {
			t.Errorf("Timezone = %q", g.Timezone)
		}
		if g.WindowStart != "15:00" || g.WindowEnd != "19:30" {
			t.Errorf("window = %s-%s", g.WindowStart, g.WindowEnd)
		}
		if g.PromoCode != "ODJAX15" || g.DiscountPercent != 15 || g.DiscountDays != 90 {
			t.Errorf("discount defaults = %q/%d/%d", g.PromoCode, g.DiscountPercent, g.DiscountDays)
		}
		if g.CertificateTemplate != "assets/certificate.png" {
			t.Errorf("CertificateTemplate = %q", g.CertificateTemplate)
		}
	})

	t.Run("explicit giveaway settings survive", func(t *testing.T) {
		path := writeConfig(t, `
telegram:
  token: "test-token"
giveaway:
  timezone: "Europe/Berlin"
  window_start: "10:00"
  window_end: "12:00"
  promo_code: "SPRING20"
  discount_percent: 20
  discount_days: 30
`)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load: %v", err)
		}
		g := cfg.Giveaway
		if g.Timezone != "Europe/Berlin" || g.WindowStart != "10:00" || g.PromoCode != "SPRING20" || g.DiscountDays != 30 {
			t.Errorf("explicit settings lost: %+v", g)
		}
		if g.Location().String() != "Europe/Berlin" {
			t.Errorf("Location = %v", g.Location())
		}
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		path := writeConfig(t, `
giveaway:
  timezone: "Europe/Moscow"
`)
		if _, err := Load(path); err == nil {
			t.Error("expected error for missing telegram token")
		}
	})

	t.Run("invalid timezone is rejected", func(t *testing.T) {
		path := writeConfig(t, `
telegram:
  token: "test-token"
giveaway:
  timezone: "Mars/Olympus"
`)
		if _, err := Load(path); err == nil {
			t.Error("expected error for invalid timezone")
		}
	})

	t.Run("invalid window time is rejected", func(t *testing.T) {
		path := writeConfig(t, `
telegram:
  token: "test-token"
giveaway:
  window_start: "15h00"
`)
		if _, err := Load(path); err == nil {
			t.Error("expected error for malformed window time")
		}
	})
}

func TestAdminSet(t *testing.T) {
	cfg := &Config{}
	cfg.Core.Telegram.AdminIDs = []int64{111, 0, 222, 111}

	set := cfg.AdminSet()
	if len(set) != 2 {
		t.Fatalf("len = %d, want 2 (zero and duplicate dropped)", len(set))
	}
	for _, id := range []int64{111, 222} {
		if _, ok := set[id]; !ok {
			t.Errorf("id %d missing from set", id)
		}
	}
}
