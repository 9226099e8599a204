package config

import "testing"

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("NIX_NO_UNSAFE_EQ", "")
	t.Setenv("NIX_SHOW_STATS", "")

	c := FromEnv()
	if c.StrictEqContext {
		t.Errorf("expected StrictEqContext to default to false")
	}
	if c.ShowStats {
		t.Errorf("expected ShowStats to default to false")
	}
}

func TestFromEnvReadsNixNoUnsafeEq(t *testing.T) {
	t.Setenv("NIX_NO_UNSAFE_EQ", "1")
	c := FromEnv()
	if !c.StrictEqContext {
		t.Errorf("expected StrictEqContext to be true when NIX_NO_UNSAFE_EQ is set")
	}
}

func TestFromEnvShowStatsRejectsZero(t *testing.T) {
	t.Setenv("NIX_SHOW_STATS", "0")
	c := FromEnv()
	if c.ShowStats {
		t.Errorf("NIX_SHOW_STATS=0 should not enable ShowStats")
	}
}

func TestFromEnvShowStatsAcceptsNonZero(t *testing.T) {
	t.Setenv("NIX_SHOW_STATS", "1")
	c := FromEnv()
	if !c.ShowStats {
		t.Errorf("NIX_SHOW_STATS=1 should enable ShowStats")
	}
}
