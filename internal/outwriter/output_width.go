package outwriter

import (
	"os"

	"golang.org/x/term"
)

// getMaxTableNameWidth calculates the width left for the repo column
// based on the terminal width.
func getMaxTableNameWidth() int {
	termWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || termWidth <= 0 {
		termWidth = 80 // Conservative default for narrow terminals and CI
	}
	return nameWidthFor(termWidth)
}

func nameWidthFor(termWidth int) int {
	// Rank, rating, label and five category columns with borders
	const baseWidth = 95
	available := termWidth - baseWidth
	if available < 20 {
		return 20
	}
	if available > 70 {
		return 70
	}
	return available
}

// truncateName keeps the tail of long names, which holds the repo.
func truncateName(name string, width int) string {
	runes := []rune(name)
	if len(runes) <= width || width < 4 {
		return name
	}
	return "..." + string(runes[len(runes)-(width-3):])
}
