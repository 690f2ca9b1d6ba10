// Package style holds the colors and icons shared by the pretty log handler and
// the command output.
package style

import "github.com/charmbracelet/lipgloss"

// Brand Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Arrow   = "→"
)

// Heading renders a section title in the brand accent color.
func Heading(title string) string {
	return lipgloss.NewStyle().Foreground(Iris).Bold(true).Render(title)
}
