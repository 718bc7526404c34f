package telegram

import "strings"

// MaxMessageRunes is the Telegram sendMessage length ceiling.
const MaxMessageRunes = 4096

// SplitMessage cuts text into chunks of at most limit runes, preferring the
// last newline before the limit so a fixture line is never torn in half.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageRunes
	}

	runes := []rune(text)
	parts := make([]string, 0, len(runes)/limit+1)

	for len(runes) > limit {
		cut := limit
		for i := limit - 1; i > 0; i-- {
			if runes[i] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, strings.TrimSpace(string(runes[:cut])))
		runes = []rune(strings.TrimSpace(string(runes[cut:])))
	}

	parts = append(parts, strings.TrimSpace(string(runes)))
	return parts
}
