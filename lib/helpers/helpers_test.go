package helpers

import "testing"

func TestEscapeMarkdownV2(t *testing.T) {
	got := EscapeMarkdownV2("PETR4.SA (ref: 42-10)")
	want := "PETR4\\.SA \\(ref: 42\\-10\\)"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestFormatPriceUSDecimals(t *testing.T) {
	cases := []struct {
		price float64
		want  string
	}{
		{42.5, "42.50"},
		{1250, "1,250"},
		{0.1234, "0.1234"},
	}
	for _, c := range cases {
		if got := FormatPriceUS(c.price, false); got != c.want {
			t.Errorf("FormatPriceUS(%v) = %q, want %q", c.price, got, c.want)
		}
	}
}

func TestFormatPercentSigned(t *testing.T) {
	if got := FormatPercent(1.25); got != "+1.25%" {
		t.Fatalf("expected +1.25%%, got %q", got)
	}
	if got := FormatPercent(-7.5); got != "-7.50%" {
		t.Fatalf("expected -7.50%%, got %q", got)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay(" 18:00 ")
	if err != nil {
		t.Fatalf("valid time rejected: %v", err)
	}
	if got != "18:00" {
		t.Fatalf("expected 18:00, got %q", got)
	}

	for _, invalid := range []string{"25:00", "18:61", "6 pm", "", "18"} {
		if _, err := ParseTimeOfDay(invalid); err == nil {
			t.Errorf("expected error for %q", invalid)
		}
	}
}
