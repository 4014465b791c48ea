package colors

import "runtime"

var (
	// Regular Foreground Colors
	Reset   = "\033[0m"
	Red     = "\033[31m"
	Green   = "\033[32m"
	Yellow  = "\033[33m"
	Blue    = "\033[34m"
	Purple  = "\033[35m"
	Cyan    = "\033[36m"
	Gray    = "\033[37m"
	White   = "\033[97m"
	Black   = "\033[30m"

	// Text Styles
	Underline = "\033[4m"
	Italic    = "\033[3m"

	// Bold/Bright Foreground Colors
	BoldRed    = "\033[1;31m"
	BoldGreen  = "\033[1;32m"
	BoldYellow = "\033[1;33m"
	BoldBlue   = "\033[1;34m"
	BoldPurple = "\033[1;35m"
	BoldCyan   = "\033[1;36m"
	BoldGray   = "\033[1;37m"
	BoldWhite  = "\033[1;97m"
	BoldBlack  = "\033[1;30m"
)

// TokenMap maps prompt template color tokens to their ANSI codes.
// Tokens are the upper-case names used inside ${...} in prompt.format.
var TokenMap = map[string]string{
	"RESET": Reset,

	"RED":    Red,
	"GREEN":  Green,
	"YELLOW": Yellow,
	"BLUE":   Blue,
	"PURPLE": Purple,
	"CYAN":   Cyan,
	"GRAY":   Gray,
	"WHITE":  White,
	"BLACK":  Black,

	"UNDERLINE": Underline,
	"ITALIC":    Italic,

	"BOLD_RED":    BoldRed,
	"BOLD_GREEN":  BoldGreen,
	"BOLD_YELLOW": BoldYellow,
	"BOLD_BLUE":   BoldBlue,
	"BOLD_PURPLE": BoldPurple,
	"BOLD_CYAN":   BoldCyan,
	"BOLD_GRAY":   BoldGray,
	"BOLD_WHITE":  BoldWhite,
	"BOLD_BLACK":  BoldBlack,
}

// Lookup returns the ANSI code for a color token, or "" if the token is
// not a color.
func Lookup(token string) string {
	return TokenMap[token]
}

// Disable colors on Windows if necessary
func init() {
	if runtime.GOOS == "windows" {
		for name := range TokenMap {
			TokenMap[name] = ""
		}
		Reset = ""
		Red = ""
		Green = ""
		Yellow = ""
		Blue = ""
		Purple = ""
		Cyan = ""
		Gray = ""
		White = ""
		Black = ""
		Underline = ""
		Italic = ""
		BoldRed = ""
		BoldGreen = ""
		BoldYellow = ""
		BoldBlue = ""
		BoldPurple = ""
		BoldCyan = ""
		BoldGray = ""
		BoldWhite = ""
		BoldBlack = ""
	}
}
