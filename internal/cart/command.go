package cart

import "strings"

// commandPrefix is the client-side chat command that adds a catalog product
// to the cart instead of sending a message.
const commandPrefix = "add to cart "

// ParseAddCommand recognizes the "add to cart <name>" composer command.
// Returns the product name and true when the input is the command; matching
// is case-insensitive on the prefix only.
func ParseAddCommand(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) <= len(commandPrefix) {
		return "", false
	}
	if !strings.EqualFold(trimmed[:len(commandPrefix)], commandPrefix) {
		return "", false
	}
	name := strings.TrimSpace(trimmed[len(commandPrefix):])
	if name == "" {
		return "", false
	}
	return name, true
}
