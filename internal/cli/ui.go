package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/postcraft/pkg/fonts"
	"github.com/matzehuels/postcraft/pkg/pipeline"
)

var (
	colorCyan   = lipgloss.Color("36")  // primary actions
	colorGreen  = lipgloss.Color("35")  // success
	colorYellow = lipgloss.Color("220") // warnings
	colorRed    = lipgloss.Color("167") // errors
	colorBlue   = lipgloss.Color("75")  // commands
	colorWhite  = lipgloss.Color("255") // values
	colorGray   = lipgloss.Color("245") // secondary text
	colorDim    = lipgloss.Color("240") // muted text
)

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// out is where status lines go. Data written for piping, like a data
// URL, goes to stdout directly.
var out io.Writer = os.Stderr

func printSuccess(format string, args ...any) {
	fmt.Fprintln(out, styleIconSuccess.Render(iconSuccess)+" "+fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Fprintln(out, styleIconError.Render(iconError)+" "+fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Fprintln(out, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Fprintln(out, styleIconInfo.Render(iconInfo)+" "+fmt.Sprintf(format, args...))
}

func printDetail(format string, args ...any) {
	fmt.Fprintln(out, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

func printFile(path string) {
	fmt.Fprintln(out, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(out, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printRenderStats prints size, timings and cache status on one line.
func printRenderStats(o pipeline.Outcome) {
	parts := []string{
		fmt.Sprintf("%dx%d", o.Width, o.Height),
		fmt.Sprintf("%d KB", (len(o.PNG)+1023)/1024),
	}
	if o.Layout != nil {
		parts = append(parts, fmt.Sprintf("%d blocks", len(o.Layout.Blocks)))
	}
	if !o.CacheInfo.ArtifactHit {
		s := o.Stats
		parts = append(parts, fmt.Sprintf("fonts %s · layout %s · draw %s",
			round(s.FontTime), round(s.LayoutTime), round(s.BackgroundTime+s.CompositeTime)))
	}

	status := styleComputed.Render("fresh")
	if o.CacheInfo.ArtifactHit {
		status = styleCached.Render("cached")
	}
	fmt.Fprintln(out, "  "+StyleDim.Render(strings.Join(parts, " · "))+StyleDim.Render(" · ")+status)
}

// printFontResults reports fallbacks for families that failed to load.
func printFontResults(results []fonts.Result) {
	for _, r := range results {
		if r.Loaded {
			continue
		}
		printWarning("font %q unavailable, using %s", r.Family, r.Fallback)
		if msg := r.Error(); msg != "" {
			printDetail("%s", msg)
		}
	}
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(out, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func round(d time.Duration) time.Duration { return d.Round(time.Millisecond) }
