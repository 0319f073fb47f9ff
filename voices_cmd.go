package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/skald-tts/skald/tts"
)

var voicesCmd = &cobra.Command{
	Use:     "voices",
	Short:   "List the available voices",
	Long:    paragraph(fmt.Sprintf("\n%s the available voices along with the sampling parameters that work best for each one.", keyword("List"))),
	Example: paragraph("skald voices"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		plain := !term.IsTerminal(int(os.Stdout.Fd()))

		var b strings.Builder
		b.WriteString("\n")
		for _, v := range tts.AvailableVoices {
			name := v
			if !plain {
				name = keywordStyle.Render(v)
			}
			marker := " "
			if v == tts.DefaultVoice {
				marker = "*"
			}
			line := fmt.Sprintf("  %s %s", marker, name)
			if p, ok := tts.OptimalVoiceParams[v]; ok {
				line += fmt.Sprintf("  (temp %.1f, top-p %.2f, repeat penalty %.1f)", p.Temperature, p.TopP, p.RepeatPenalty)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n  * default voice\n")

		b.WriteString("\n  Emotion tags:\n")
		tags := make([]string, len(tts.EmotionTags))
		for i, t := range tts.EmotionTags {
			if plain {
				tags[i] = t
			} else {
				tags[i] = subtle(t)
			}
		}
		b.WriteString("  " + strings.Join(tags, " ") + "\n")

		if plain {
			fmt.Print(b.String())
			return nil
		}
		fmt.Print(lipgloss.NewStyle().MarginLeft(2).Render(b.String()))
		return nil
	},
}
