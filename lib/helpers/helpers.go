package helpers

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func EscapeMarkdownV2(text string) string {
	charactersToEscape := []string{".", "-", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "=", "|", "{", "}", "!"}

	for _, char := range charactersToEscape {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

func FormatPriceUS(price float64, escapeMarkdown bool) string {
	decimals := 2
	if price >= 1000 {
		decimals = 0
	} else if price < 1 {
		decimals = 4
	}

	p := message.NewPrinter(language.English)
	formatted := p.Sprintf("%.*f", decimals, price)

	if escapeMarkdown {
		return EscapeMarkdownV2(formatted)
	}
	return formatted
}

// FormatPercent renders a signed percentage with two decimals, e.g. "+1.25%".
func FormatPercent(pct float64) string {
	sign := ""
	if pct >= 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, pct)
}

// ParseTimeOfDay validates a 24h "HH:MM" string and returns it zero-padded.
// Schedule matching compares these strings lexicographically.
func ParseTimeOfDay(value string) (string, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return "", fmt.Errorf("invalid time of day %q: expected HH:MM", value)
	}
	return t.Format("15:04"), nil
}
