package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skald-tts/skald/internal/bench"
)

var (
	benchOutputDir string

	lengthInputFile string
	lengthMaxChars  int
	lengthStep      int

	gridText           string
	gridTextFile       string
	gridSampleDuration float64
	gridVoices         []string
	gridTemperatures   []float64
	gridTopPs          []float64
	gridRepeatPens     []float64
	gridMaxTokens      int
	gridYes            bool
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark the synthesis setup",
	Long:  paragraph(fmt.Sprintf("\n%s the synthesis setup: probe the longest text a single generation handles, or sweep sampling parameters across voices.", keyword("Benchmark"))),
}

var benchLengthCmd = &cobra.Command{
	Use:     "length",
	Short:   "Find the longest text a single generation handles",
	Example: paragraph("skald bench length --input article.txt\nskald bench length --input article.txt --max-chars 2000 --step 100"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		synth, err := newSynthesizer()
		if err != nil {
			return err
		}

		ctx, cancel := cmdContext()
		defer cancel()

		report, err := bench.RunLength(ctx, synth, bench.LengthOptions{
			InputFile: lengthInputFile,
			OutputDir: benchBaseDir(),
			MaxChars:  lengthMaxChars,
			Step:      lengthStep,
			Params:    requestParams(),
		})
		if err != nil {
			return err
		}

		fmt.Println(report.Summary())
		return nil
	},
}

var benchGridCmd = &cobra.Command{
	Use:     "grid",
	Short:   "Sweep sampling parameters across voices",
	Example: paragraph("skald bench grid --text \"The quick brown fox.\" --voices tara,leo\nskald bench grid --text-file sample.txt --temperatures 0.6,0.9 --yes"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		text := gridText
		if gridTextFile != "" {
			raw, err := os.ReadFile(gridTextFile)
			if err != nil {
				return fmt.Errorf("read text file: %w", err)
			}
			text = string(raw)
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("no text to synthesize: pass --text or --text-file")
		}

		opts := bench.GridOptions{
			Text:            text,
			SampleDuration:  gridSampleDuration,
			Voices:          gridVoices,
			Temperatures:    gridTemperatures,
			TopPs:           gridTopPs,
			RepeatPenalties: gridRepeatPens,
			MaxTokens:       gridMaxTokens,
			OutputDir:       benchBaseDir(),
		}

		estimate := opts.EstimateRuntime()
		fmt.Printf("Sweeping %s combinations, estimated runtime %s.\n",
			humanize.Comma(int64(opts.Combinations())), estimate.Round(time.Second))
		if !gridYes && !confirm("Continue?") {
			fmt.Println("Aborted.")
			return nil
		}

		synth, err := newSynthesizer()
		if err != nil {
			return err
		}

		ctx, cancel := cmdContext()
		defer cancel()

		start := time.Now()
		results, runDir, err := bench.RunGrid(ctx, synth, opts)
		if err != nil {
			return err
		}
		log.Debug("grid sweep finished", "elapsed", time.Since(start).Round(time.Second))

		fmt.Println(bench.GridSummary(results, runDir))
		return nil
	},
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	var answer string
	if _, err := fmt.Scanln(&answer); err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func init() {
	benchCmd.PersistentFlags().StringVarP(&benchOutputDir, "output-dir", "o", "", "directory for benchmark artifacts (default \"<output_dir>/bench\")")

	benchLengthCmd.Flags().StringVarP(&lengthInputFile, "input", "i", "", "text file to sample from (required)")
	benchLengthCmd.Flags().IntVar(&lengthMaxChars, "max-chars", 3000, "largest sample length to probe")
	benchLengthCmd.Flags().IntVar(&lengthStep, "step", 250, "sample growth between runs")
	_ = benchLengthCmd.MarkFlagRequired("input")

	benchGridCmd.Flags().StringVar(&gridText, "text", "", "text synthesized for every combination")
	benchGridCmd.Flags().StringVar(&gridTextFile, "text-file", "", "file holding the text synthesized for every combination")
	benchGridCmd.Flags().Float64Var(&gridSampleDuration, "sample-duration", 0, "trim text to roughly this many seconds of speech (0 = no trim)")
	benchGridCmd.Flags().StringSliceVar(&gridVoices, "voices", nil, "voices to sweep (default all)")
	benchGridCmd.Flags().Float64SliceVar(&gridTemperatures, "temperatures", nil, "temperatures to sweep")
	benchGridCmd.Flags().Float64SliceVar(&gridTopPs, "top-ps", nil, "top-p values to sweep")
	benchGridCmd.Flags().Float64SliceVar(&gridRepeatPens, "repeat-penalties", nil, "repeat penalties to sweep")
	benchGridCmd.Flags().IntVar(&gridMaxTokens, "max-tokens", 0, "token cap per sample (default 8192)")
	benchGridCmd.Flags().BoolVarP(&gridYes, "yes", "y", false, "skip the runtime confirmation prompt")

	benchCmd.AddCommand(benchLengthCmd, benchGridCmd)
}

func benchBaseDir() string {
	if benchOutputDir != "" {
		return benchOutputDir
	}
	return filepath.Join(viper.GetString("output_dir"), "bench")
}
