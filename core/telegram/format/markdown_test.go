package format

import "testing"

func TestEscapeMarkdown(t *testing.T) {
	t.Run("v1 escapes entity characters", func(t *testing.T) {
		got, err := EscapeMarkdown("user_name*[x]", MarkdownV1, "")
		if err != nil {
			t.Fatalf("EscapeMarkdown: %v", err)
		}
		want := `user\_name\*\[x]`
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("v2 escapes the extended set", func(t *testing.T) {
		got, err := EscapeMarkdown("a.b-c!d", MarkdownV2, "")
		if err != nil {
			t.Fatalf("EscapeMarkdown: %v", err)
		}
		want := `a\.b\-c\!d`
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("unknown version", func(t *testing.T) {
		if _, err := EscapeMarkdown("x", 3, ""); err == nil {
			t.Error("expected error for unsupported version")
		}
	})
}
