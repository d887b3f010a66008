package config

import "testing"

func TestLoadEnvDefaults(t *testing.T) {
	cfg := LoadEnv()

	if cfg.Plan.Name != "Cafe" {
		t.Errorf("plan name: got %q, want %q", cfg.Plan.Name, "Cafe")
	}
	if cfg.Plan.PeriodDays != 30 || cfg.Plan.TrialDays != 14 {
		t.Errorf("plan days: got period=%d trial=%d", cfg.Plan.PeriodDays, cfg.Plan.TrialDays)
	}
	if cfg.Plan.Price.String() != "399" {
		t.Errorf("plan price: got %s", cfg.Plan.Price)
	}
	if !cfg.Subscription.Enforced {
		t.Error("subscription gate should be enforced by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PLAN_PRICE", "499.50")
	t.Setenv("PLAN_PERIOD_DAYS", "31")
	t.Setenv("SUBSCRIPTION_ENFORCED", "false")
	t.Setenv("TRIAL_DAYS", "not-a-number")

	cfg := LoadEnv()

	if cfg.Plan.Price.String() != "499.5" {
		t.Errorf("plan price: got %s, want 499.5", cfg.Plan.Price)
	}
	if cfg.Plan.PeriodDays != 31 {
		t.Errorf("period days: got %d, want 31", cfg.Plan.PeriodDays)
	}
	if cfg.Plan.TrialDays != 14 {
		t.Errorf("invalid TRIAL_DAYS should fall back to 14, got %d", cfg.Plan.TrialDays)
	}
	if cfg.Subscription.Enforced {
		t.Error("SUBSCRIPTION_ENFORCED=false should disable the gate")
	}
}
