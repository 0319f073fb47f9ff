// Package main provides the entry point for the skald CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skald-tts/skald/tts"
	"github.com/skald-tts/skald/tts/decoder"
	"github.com/skald-tts/skald/tts/stream"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile    string
	voice         string
	outputPath    string
	temperature   float64
	topP          float64
	repeatPenalty float64
	maxTokens     int
	decoderBin    string
	verbose       bool

	rootCmd = &cobra.Command{
		Use:   "skald [TEXT|FILE]",
		Short: "Streaming text-to-speech over a llama-server token stream",
		Long: paragraph(
			fmt.Sprintf("\nTurn text into speech by streaming %s from a local language model and decoding them into a WAV file. Long texts are split into chunks automatically.", keyword("audio tokens")),
		),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
		RunE: execute,
	}
)

// sourceText resolves the positional argument into the text to synthesize:
// "-" reads stdin, an existing file path is read, anything else is taken as
// literal text.
func sourceText(arg string) (string, error) {
	if arg == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("unable to read stdin: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	if st, err := os.Stat(arg); err == nil && st.Mode().IsRegular() {
		b, err := os.ReadFile(arg)
		if err != nil {
			return "", fmt.Errorf("unable to read file: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	return arg, nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to stat stdin: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func execute(_ *cobra.Command, args []string) error {
	var text string
	if yes, err := stdinIsPipe(); err != nil {
		return err
	} else if yes && len(args) == 0 {
		var err error
		if text, err = sourceText("-"); err != nil {
			return err
		}
	} else if len(args) == 1 {
		var err error
		if text, err = sourceText(args[0]); err != nil {
			return err
		}
	}
	if text == "" {
		return errors.New("no input text: pass text, a file path, or pipe to stdin")
	}

	synth, err := newSynthesizer()
	if err != nil {
		return err
	}

	params := requestParams()
	out := outputPath
	if out == "" {
		out = filepath.Join(viper.GetString("output_dir"),
			fmt.Sprintf("%s_%s.wav", params.Voice, time.Now().Format("20060102_150405")))
		fmt.Println("No output file specified. Saving to", keyword(out))
	}

	if limit := synth.Config().MaxChunkSize; len(text) > limit {
		log.Info("long text detected, splitting into chunks",
			"chars", len(text), "chunk_size", limit)
	}

	ctx, cancel := cmdContext()
	defer cancel()

	start := time.Now()
	if err := synth.SynthesizeToFile(ctx, text, out, params); err != nil {
		return err
	}
	elapsed := time.Since(start)

	size := ""
	if st, err := os.Stat(out); err == nil {
		size = humanize.Bytes(uint64(st.Size())) //nolint:gosec
	}
	fmt.Printf("Wrote %s (%s) in %s\n", keyword(out), size, elapsed.Round(10*time.Millisecond))
	return nil
}

// cmdContext returns a context cancelled by SIGINT/SIGTERM so a hung
// generation request can be aborted; the pipeline still drains cleanly.
func cmdContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// newSynthesizer builds the pipeline from the active configuration.
func newSynthesizer() (*tts.Synthesizer, error) {
	bin := decoderBin
	if bin == "" {
		bin = viper.GetString("decoder.binary")
	}
	if bin == "" {
		return nil, fmt.Errorf("no frame decoder configured: set %s in the config file or pass --decoder", keyword("decoder.binary"))
	}
	dec, err := decoder.NewSubprocess(decoder.SubprocessConfig{
		Binary:  bin,
		Args:    viper.GetStringSlice("decoder.args"),
		Timeout: viper.GetDuration("decoder.timeout"),
	})
	if err != nil {
		return nil, err
	}

	client := stream.NewClient(stream.Config{
		URL:               viper.GetString("server_url"),
		Timeout:           viper.GetDuration("request_timeout"),
		RequestsPerMinute: viper.GetInt("requests_per_minute"),
	})

	cfg := tts.Config{
		Voice:         viper.GetString("voice"),
		MaxChunkSize:  viper.GetInt("max_chunk_size"),
		Temperature:   viper.GetFloat64("temperature"),
		TopP:          viper.GetFloat64("top_p"),
		RepeatPenalty: viper.GetFloat64("repeat_penalty"),
		MaxTokens:     viper.GetInt("max_tokens"),
	}
	return tts.New(cfg, client, dec)
}

// requestParams folds the sampling flags over the configured defaults.
func requestParams() tts.SynthesisParams {
	p := tts.SynthesisParams{
		Voice:         viper.GetString("voice"),
		Temperature:   viper.GetFloat64("temperature"),
		TopP:          viper.GetFloat64("top_p"),
		RepeatPenalty: viper.GetFloat64("repeat_penalty"),
		MaxTokens:     viper.GetInt("max_tokens"),
	}
	if p.Voice == "" {
		p.Voice = tts.DefaultVoice
	}
	return p
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "log token and decoder details")
	rootCmd.Flags().StringVar(&voice, "voice", "", fmt.Sprintf("voice to use (default %q)", tts.DefaultVoice))
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output WAV file path")
	rootCmd.Flags().Float64VarP(&temperature, "temperature", "t", tts.DefaultTemperature, "sampling temperature")
	rootCmd.Flags().Float64Var(&topP, "top-p", tts.DefaultTopP, "top-p sampling parameter")
	rootCmd.Flags().Float64Var(&repeatPenalty, "repetition-penalty", tts.DefaultRepeatPenalty, "repetition penalty (>=1.1 for stable generation)")
	rootCmd.Flags().IntVar(&maxTokens, "max-tokens", tts.DefaultMaxTokens, "maximum tokens to generate per chunk")
	rootCmd.PersistentFlags().StringVar(&decoderBin, "decoder", "", "vocoder helper binary")

	_ = viper.BindPFlag("voice", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("temperature", rootCmd.Flags().Lookup("temperature"))
	_ = viper.BindPFlag("top_p", rootCmd.Flags().Lookup("top-p"))
	_ = viper.BindPFlag("repeat_penalty", rootCmd.Flags().Lookup("repetition-penalty"))
	_ = viper.BindPFlag("max_tokens", rootCmd.Flags().Lookup("max-tokens"))

	viper.SetDefault("server_url", tts.DefaultServerURL)
	viper.SetDefault("voice", tts.DefaultVoice)
	viper.SetDefault("max_chunk_size", tts.DefaultMaxChunkSize)
	viper.SetDefault("temperature", tts.DefaultTemperature)
	viper.SetDefault("top_p", tts.DefaultTopP)
	viper.SetDefault("repeat_penalty", tts.DefaultRepeatPenalty)
	viper.SetDefault("max_tokens", tts.DefaultMaxTokens)
	viper.SetDefault("request_timeout", tts.DefaultRequestTimeout)
	viper.SetDefault("requests_per_minute", 0)
	viper.SetDefault("output_dir", "outputs")
	viper.SetDefault("decoder.binary", "")
	viper.SetDefault("decoder.args", []string{})
	viper.SetDefault("decoder.timeout", "30s")

	rootCmd.AddCommand(voicesCmd, benchCmd, configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "skald")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "skald")}, dirs...)
	}

	if c := os.Getenv("SKALD_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("skald")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("skald")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "skald.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
