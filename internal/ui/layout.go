package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which secondary columns are
	// dropped.
	LayoutCompactWidth = 100
)

// Timing constants.
const (
	// DefaultUIInterval is how often the UI re-reads the cached views.
	DefaultUIInterval = time.Second

	// ActionTimeout bounds a single mutation or page load started from a key.
	ActionTimeout = 15 * time.Second
)

// chromeHeight is the number of lines taken by header, tab bar, column
// headings and footer.
const chromeHeight = 5
