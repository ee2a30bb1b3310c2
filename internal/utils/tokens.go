package utils

import "strings"

// charsPerToken is the provider-agnostic estimate used for history budgets
// and tool result caps.
const charsPerToken = 4

// TruncationMarker terminates text cut by TruncateToTokenLimit.
const TruncationMarker = "…[truncated]"

// CountTokens estimates the number of tokens in the given text. Any
// non-empty text counts as at least one token.
func CountTokens(text string) int {
	n := len([]rune(text))
	if n == 0 {
		return 0
	}
	if n < charsPerToken {
		return 1
	}
	return n / charsPerToken
}

// TruncateToTokenLimit cuts text to roughly limit tokens. When a cut happens
// it prefers the last line break and ends with TruncationMarker, so the
// model can tell the rows it sees are incomplete.
func TruncateToTokenLimit(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(text)
	budget := limit * charsPerToken
	if budget >= len(runes) {
		return text
	}
	marker := []rune(TruncationMarker)
	if budget <= len(marker) {
		return string(runes[:budget])
	}
	head := string(runes[:budget-len(marker)])
	if i := strings.LastIndexByte(head, '\n'); i > len(head)/2 {
		head = head[:i+1]
	}
	return head + TruncationMarker
}
