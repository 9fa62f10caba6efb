package tui

const (
	// Layout Offsets and Padding
	HeaderWidthOffset      = 2
	ProgressBarWidthOffset = 4
	DefaultPaddingX        = 1
	DefaultPaddingY        = 0

	// Box sizes
	DefaultWidth    = 80
	MinBoxWidth     = 40
	StatusBoxHeight = 5
	BodyBoxMinLines = 4

	// URL display
	MaxURLDisplay = 60
)
