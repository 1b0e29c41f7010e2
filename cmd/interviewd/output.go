package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kalambet/interviewd/internal/interview"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

// printTurn writes the interviewer's reply and, when debug is set, the
// per-turn analysis.
func printTurn(w io.Writer, res interview.TurnResult, debug bool) {
	fmt.Fprintf(w, "%s %s\n", colorize(colorCyan, "Byte:"), res.Reply)

	if debug && !res.Complete {
		d := res.Debug
		score := "-"
		if d.Score != nil {
			score = fmt.Sprintf("%d", *d.Score)
		}
		fmt.Fprintf(w, "  %s persona=%s relevant=%t sentiment=%s score=%s follow_up=%t\n",
			colorize(colorYellow, "debug"), d.Persona, d.IsRelevant, d.Sentiment, score, d.RequiresFollowup)
		if len(d.RiskFlags) > 0 {
			fmt.Fprintf(w, "  %s risk=%s\n", colorize(colorYellow, "debug"), strings.Join(d.RiskFlags, ","))
		}
	}
	if debug || res.Complete {
		a := res.Analytics
		fmt.Fprintf(w, "  %s phase=%s questions=%d avg=%.1f trend=%s\n",
			colorize(colorBold, "analytics"), a.Phase, a.QuestionCount, a.AverageScore, a.Trend)
	}
	if res.Complete {
		fmt.Fprintln(w, colorize(colorGreen, "Interview complete."))
	}
}
