// Package tts turns text into speech by streaming generation tokens from a
// llama-server compatible endpoint and decoding them into PCM audio through
// an external neural vocoder.
package tts

import "time"

// Defaults for the token-generation service.
const (
	DefaultServerURL     = "http://127.0.0.1:8080/v1/completions"
	DefaultVoice         = "tara"
	DefaultMaxChunkSize  = 750
	DefaultTemperature   = 0.9
	DefaultTopP          = 1.0
	DefaultRepeatPenalty = 1.1
	DefaultMaxTokens     = 4096 * 5
)

// SampleRate is the vocoder's output rate in Hz.
const SampleRate = 24000

// DefaultRequestTimeout bounds a single streaming generation request.
const DefaultRequestTimeout = 5 * time.Minute

// AvailableVoices lists the voices the model was trained on, in order of
// conversational realism.
var AvailableVoices = []string{"tara", "leah", "jess", "leo", "dan", "mia", "zac", "zoe"}

// EmotionTags are inline markers the model renders as non-speech sounds.
var EmotionTags = []string{
	"<laugh>", "<chuckle>", "<sigh>", "<cough>",
	"<sniffle>", "<groan>", "<yawn>", "<gasp>",
}

// VoiceParams holds per-voice sampling parameters identified by grid search.
type VoiceParams struct {
	Temperature   float64
	TopP          float64
	RepeatPenalty float64
}

// OptimalVoiceParams maps each voice to the sampling parameters that scored
// best in grid-search runs.
var OptimalVoiceParams = map[string]VoiceParams{
	"tara": {Temperature: 1.2, TopP: 0.8, RepeatPenalty: 1.5},
	"leah": {Temperature: 0.3, TopP: 0.6, RepeatPenalty: 1.8},
	"jess": {Temperature: 1.2, TopP: 0.8, RepeatPenalty: 1.5},
	"leo":  {Temperature: 0.6, TopP: 0.8, RepeatPenalty: 1.8},
	"dan":  {Temperature: 0.3, TopP: 0.6, RepeatPenalty: 1.8},
	"mia":  {Temperature: 0.9, TopP: 0.3, RepeatPenalty: 1.1},
	"zac":  {Temperature: 1.2, TopP: 0.95, RepeatPenalty: 1.3},
	"zoe":  {Temperature: 0.6, TopP: 0.95, RepeatPenalty: 1.8},
}

// Config contains synthesizer-wide settings. Zero values fall back to the
// package defaults at construction time.
type Config struct {
	// Voice selects the default speaker for synthesis.
	Voice string `yaml:"voice" env:"SKALD_VOICE"`

	// MaxChunkSize bounds the characters sent per generation request.
	MaxChunkSize int `yaml:"max_chunk_size" env:"SKALD_MAX_CHUNK_SIZE"`

	// Sampling defaults applied when per-request parameters are unset.
	Temperature   float64 `yaml:"temperature" env:"SKALD_TEMPERATURE"`
	TopP          float64 `yaml:"top_p" env:"SKALD_TOP_P"`
	RepeatPenalty float64 `yaml:"repeat_penalty" env:"SKALD_REPEAT_PENALTY"`
	MaxTokens     int     `yaml:"max_tokens" env:"SKALD_MAX_TOKENS"`
}

// DefaultConfig returns a Config with the package defaults filled in.
func DefaultConfig() Config {
	return Config{
		Voice:         DefaultVoice,
		MaxChunkSize:  DefaultMaxChunkSize,
		Temperature:   DefaultTemperature,
		TopP:          DefaultTopP,
		RepeatPenalty: DefaultRepeatPenalty,
		MaxTokens:     DefaultMaxTokens,
	}
}

// SynthesisParams are the per-request sampling parameters forwarded to the
// token-generation service. Zero fields inherit the synthesizer's Config.
type SynthesisParams struct {
	Voice         string
	Temperature   float64
	TopP          float64
	MaxTokens     int
	RepeatPenalty float64
}

// Params returns the configured defaults as ready-to-use request parameters.
func (c Config) Params() SynthesisParams {
	return SynthesisParams{
		Voice:         c.Voice,
		Temperature:   c.Temperature,
		TopP:          c.TopP,
		MaxTokens:     c.MaxTokens,
		RepeatPenalty: c.RepeatPenalty,
	}
}
