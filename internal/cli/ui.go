package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/collage/pkg/collage"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorAmber = lipgloss.Color("220")
	colorRed   = lipgloss.Color("167")
	colorGray  = lipgloss.Color("245")
	colorDim   = lipgloss.Color("240")
)

// Shared text styles for command output and the browser.
var (
	StyleTitle     = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)
	StyleLink      = StyleHighlight.Underline(true)
	StyleDim       = lipgloss.NewStyle().Foreground(colorDim)
	StyleValue     = lipgloss.NewStyle().Bold(true)
	StyleSuccess   = lipgloss.NewStyle().Foreground(colorGreen)
	StyleWarning   = lipgloss.NewStyle().Foreground(colorAmber)

	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconSpinner = StyleHighlight
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

const (
	iconError = "✗"
	iconArrow = "→"
)

// mark prefixes one status line.
type mark struct {
	icon  string
	style lipgloss.Style
}

var (
	markSuccess = mark{"✓", StyleSuccess}
	markError   = mark{iconError, styleIconError}
	markWarning = mark{"!", StyleWarning}
	markInfo    = mark{"›", lipgloss.NewStyle().Foreground(colorGray)}
)

func (m mark) println(msg string) {
	fmt.Println(m.style.Render(m.icon) + " " + msg)
}

func printSuccess(format string, args ...any) { markSuccess.println(fmt.Sprintf(format, args...)) }
func printError(format string, args ...any)   { markError.println(fmt.Sprintf(format, args...)) }
func printInfo(format string, args ...any)    { markInfo.println(fmt.Sprintf(format, args...)) }

func printWarning(format string, args ...any) {
	markWarning.println(StyleWarning.Render(fmt.Sprintf(format, args...)))
}

// printDetail prints an indented secondary line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written artifact.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Println(styleKey.Render(key) + " " + StyleValue.Render(value))
}

// printStats summarizes a layout on one line, e.g.
// "12 placed · 2 fallback · 1 dropped · cached". A discovery timeout adds a
// warning below it.
func printStats(stats collage.Stats, cached bool) {
	parts := []string{fmt.Sprintf("%d placed", stats.Clustered+stats.Fallback)}
	if stats.Fallback > 0 {
		parts = append(parts, fmt.Sprintf("%d fallback", stats.Fallback))
	}
	if dropped := stats.Failed + stats.Pending; dropped > 0 {
		parts = append(parts, fmt.Sprintf("%d dropped", dropped))
	}
	origin := StyleDim.Render("fresh")
	if cached {
		origin = StyleSuccess.Render("cached")
	}
	fmt.Println("  " + StyleDim.Render(strings.Join(parts, " · ")+" · ") + origin)

	if stats.TimedOut {
		printWarning("size discovery timed out with %d images pending", stats.Pending)
	}
}

// printNextStep suggests the command to run next.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + StyleHighlight.Render(cmd))
}

func printNewline() { fmt.Println() }
