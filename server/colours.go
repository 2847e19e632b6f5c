package server

// ANSI colours for the development route table.
const (
	Green      = "\033[32m"
	Gray       = "\033[90m"
	ResetColor = "\033[0m"
)

var methodColors = map[string]string{
	"GET": Green,
}
