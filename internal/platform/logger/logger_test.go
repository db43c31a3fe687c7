package logger

import "testing"

func TestNew(t *testing.T) {
	t.Parallel()

	for _, cfg := range []Config{
		{},
		{Level: "debug", Format: "console"},
		{Level: "warn", Format: "json"},
	} {
		l, err := New(cfg)
		if err != nil {
			t.Fatalf("New(%+v) err=%v", cfg, err)
		}
		_ = l.Sync()
	}
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	if _, err := New(Config{Level: "chatty"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
