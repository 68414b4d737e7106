package tracing

import "testing"

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LANGFUSE_HOST", "")
	t.Setenv("LANGFUSE_PUBLIC_KEY", "pk")
	t.Setenv("LANGFUSE_SECRET_KEY", "")
	t.Setenv("LANGFUSE_SAMPLE_RATE", "0.25")

	cfg, err := ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.Host != defaultHost || cfg.SampleRate != 0.25 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Enabled() {
		t.Error("missing secret key must disable tracing")
	}
}

func TestConfigFromEnv_BadSampleRate(t *testing.T) {
	for _, v := range []string{"0", "1.5", "half"} {
		t.Setenv("LANGFUSE_SAMPLE_RATE", v)
		if _, err := ConfigFromEnv(); err == nil {
			t.Errorf("LANGFUSE_SAMPLE_RATE=%q: expected error", v)
		}
	}
}

func TestSetup_Disabled(t *testing.T) {
	t.Parallel()
	h, flush, ok := Setup(Config{PublicKey: "pk"})
	if ok || h != nil || flush != nil {
		t.Errorf("Setup() = %v, %v, %v; want disabled", h, flush != nil, ok)
	}
}
