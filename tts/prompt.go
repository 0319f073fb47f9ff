package tts

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// Prompt framing expected by the audio-token generation model.
const (
	promptPrefix = "<|audio|>"
	promptSuffix = "<|eot_id|>"
)

// IsValidVoice reports whether voice is one of the trained voices.
func IsValidVoice(voice string) bool {
	for _, v := range AvailableVoices {
		if v == voice {
			return true
		}
	}
	return false
}

// FormatPrompt wraps text in the audio prompt frame for the given voice.
// Unrecognized voices fall back to DefaultVoice with a warning.
func FormatPrompt(text, voice string) string {
	if !IsValidVoice(voice) {
		log.Warn("voice not recognized, using default",
			"voice", voice, "default", DefaultVoice)
		voice = DefaultVoice
	}
	return fmt.Sprintf("%s%s: %s%s", promptPrefix, voice, text, promptSuffix)
}

// EstimateTokens gives a rough whitespace-based token count for text as it
// will be sent to the model. Used by the benchmark tooling.
func EstimateTokens(text, voice string) int {
	return len(strings.Fields(FormatPrompt(text, voice)))
}
