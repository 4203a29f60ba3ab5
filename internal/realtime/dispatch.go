package realtime

import (
	"encoding/json"

	"github.com/rs/zerolog"
)

// JSONHandler adapts a typed callback into a Handler. A frame body that
// fails to decode into T is logged and dropped; malformed payloads never
// reach the callback and never crash the channel.
func JSONHandler[T any](logger zerolog.Logger, destination string, fn func(T)) Handler {
	return func(body []byte) {
		var payload T
		if err := json.Unmarshal(body, &payload); err != nil {
			logger.Error().Str("destination", destination).Err(err).
				Str("body", truncate(string(body), 256)).
				Msg("dropping malformed realtime payload")
			return
		}
		fn(payload)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
