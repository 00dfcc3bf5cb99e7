package format

import (
	"fmt"
	"regexp"
	"strings"
)

// AssistantContextHTML converts the Markdown an assistant's own transcript
// text commonly contains (headers, emphasis, code spans, links, lists,
// blockquotes) into the HTML subset Telegram's ParseModeHTML accepts, so
// PermissionMessage can render assistant_context (spec.md §4.4 step 2)
// readably instead of as a wall of literal "**"/"`" characters.
//
// Grounded on igoryanba-ricochet/internal/format/markdown.go's
// ToTelegramHTML, trimmed to what a truncated 500-character excerpt of an
// assistant's own prose actually contains: table and spoiler/underline
// handling are dropped (tables rarely survive the 500-character truncation
// intact, and ||spoiler||/__underline__ are Discord-community conventions
// an assistant transcript never produces), and the Discord-targeted sibling
// (ToDiscordMarkdown) is dropped outright — Discord has no home in this
// spec.
func AssistantContextHTML(text string) string {
	if text == "" {
		return ""
	}

	// 1. Code blocks and inline code are pulled out first so the characters
	// inside them (which may themselves look like Markdown) survive escaping
	// untouched.
	codeBlocks := make(map[string]string)
	codeBlockRegex := regexp.MustCompile("(?s)```([a-zA-Z]*)\n?(.*?)```")
	text = codeBlockRegex.ReplaceAllStringFunc(text, func(m string) string {
		match := codeBlockRegex.FindStringSubmatch(m)
		lang := match[1]
		content := match[2]

		id := fmt.Sprintf("{CB-%d}", len(codeBlocks))
		escaped := EscapeHTML(content)
		if lang != "" {
			codeBlocks[id] = fmt.Sprintf("<pre><code class=\"language-%s\">%s</code></pre>", lang, escaped)
		} else {
			codeBlocks[id] = fmt.Sprintf("<pre><code>%s</code></pre>", escaped)
		}
		return id
	})

	inlineCode := make(map[string]string)
	inlineRegex := regexp.MustCompile("`([^`]+)`")
	text = inlineRegex.ReplaceAllStringFunc(text, func(m string) string {
		match := inlineRegex.FindStringSubmatch(m)
		id := fmt.Sprintf("{IL-%d}", len(inlineCode))
		inlineCode[id] = fmt.Sprintf("<code>%s</code>", EscapeHTML(match[1]))
		return id
	})

	// 2. Escape the rest of the text, then apply inline-markup conversions
	// against the now-escaped text (the placeholder tokens above are plain
	// ASCII identifiers, unaffected by escaping).
	text = EscapeHTML(text)

	headerRegex := regexp.MustCompile(`(?m)^(.*?)#{1,6}\s+(.*)$`)
	text = headerRegex.ReplaceAllString(text, "$1<b>$2</b>")

	boldRegex := regexp.MustCompile(`\*\*([^*]+)\*\*`)
	text = boldRegex.ReplaceAllString(text, "<b>$1</b>")

	italicRegex1 := regexp.MustCompile(`\*([^*]+)\*`)
	text = italicRegex1.ReplaceAllString(text, "<i>$1</i>")
	// Require non-alphanumeric boundaries on underscores so snake_case
	// identifiers in assistant prose aren't mistaken for italics.
	italicRegex2 := regexp.MustCompile(`\b_([^_]+)_\b`)
	text = italicRegex2.ReplaceAllString(text, "<i>$1</i>")

	linkRegex := regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	text = linkRegex.ReplaceAllString(text, "<a href=\"$2\">$1</a>")

	text = processBlockquotes(text)

	bulletRegex := regexp.MustCompile(`(?m)^[\s]*[-*+][\s]+(.*)$`)
	text = bulletRegex.ReplaceAllString(text, "• $1")

	// 3. Restore the code spans, now that no further regex pass can touch them.
	for id, block := range codeBlocks {
		text = strings.ReplaceAll(text, id, block)
	}
	for id, code := range inlineCode {
		text = strings.ReplaceAll(text, id, code)
	}

	return text
}

func processBlockquotes(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inQuote := false
	var quoteBuffer []string

	for _, line := range lines {
		if strings.HasPrefix(line, "&gt; ") || strings.HasPrefix(line, "> ") {
			if !inQuote {
				inQuote = true
			}
			content := strings.TrimPrefix(strings.TrimPrefix(line, "&gt; "), "> ")
			quoteBuffer = append(quoteBuffer, content)
		} else {
			if inQuote {
				result = append(result, "<blockquote>"+strings.Join(quoteBuffer, "\n")+"</blockquote>")
				quoteBuffer = nil
				inQuote = false
			}
			result = append(result, line)
		}
	}
	if inQuote {
		result = append(result, "<blockquote>"+strings.Join(quoteBuffer, "\n")+"</blockquote>")
	}

	return strings.Join(result, "\n")
}
