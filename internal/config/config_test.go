package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "chores.db" {
		t.Errorf("db path = %q, want %q", cfg.DBPath, "chores.db")
	}
	if cfg.HorizonDays != 14 {
		t.Errorf("horizon days = %d, want 14", cfg.HorizonDays)
	}
	if cfg.LeadWindowMinutes != 60 {
		t.Errorf("lead window = %d, want 60", cfg.LeadWindowMinutes)
	}
	if cfg.CooldownMinutes != 120 {
		t.Errorf("cooldown = %d, want 120", cfg.CooldownMinutes)
	}
	if cfg.FastTick != 5*time.Minute {
		t.Errorf("fast tick = %v, want 5m", cfg.FastTick)
	}
	if cfg.SlowTick != 30*time.Minute {
		t.Errorf("slow tick = %v, want 30m", cfg.SlowTick)
	}
	if cfg.QuietHoursStart != "22:00" || cfg.QuietHoursEnd != "07:00" {
		t.Errorf("quiet hours = %s..%s, want 22:00..07:00", cfg.QuietHoursStart, cfg.QuietHoursEnd)
	}
	if cfg.ExpireOverdue {
		t.Error("expire overdue should default to off")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CHORES_DB_PATH", "/tmp/test.db")
	t.Setenv("CHORES_HORIZON_DAYS", "30")
	t.Setenv("CHORES_FAST_TICK", "1m")
	t.Setenv("CHORES_EXPIRE_OVERDUE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("db path = %q, want override", cfg.DBPath)
	}
	if cfg.HorizonDays != 30 {
		t.Errorf("horizon days = %d, want 30", cfg.HorizonDays)
	}
	if cfg.FastTick != time.Minute {
		t.Errorf("fast tick = %v, want 1m", cfg.FastTick)
	}
	if !cfg.ExpireOverdue {
		t.Error("expire overdue should be on")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct{ key, value string }{
		{"CHORES_HORIZON_DAYS", "abc"},
		{"CHORES_HORIZON_DAYS", "0"},
		{"CHORES_FAST_TICK", "soon"},
		{"CHORES_EXPIRE_OVERDUE", "maybe"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}
