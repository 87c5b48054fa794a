package generate

import (
	"fmt"
	"strings"

	"github.com/lysyi3m/news-comb/app/database"
)

const maxPromptContent = 12000

const systemPrompt = `You are a professional news writer.
Create a complete English news article with a compelling headline, a short summary of 10-50 words, a full detailed article, 5 relevant hashtags and a source attribution.
Style: clear, neutral, engaging, professional. Keep it safe and non-defamatory.
Return ONLY valid JSON with keys: headline, summary (10-50 words), body (full article), hashtags (array of 5 strings), attribution.`

const contentRule = "═══════════════════════════════════════════════════════════"

// BuildPrompt returns the system and user prompts for an article whose body
// has already been resolved to content.
func BuildPrompt(article database.RawArticle, content string) (string, string) {
	var b strings.Builder

	fmt.Fprintf(&b, "TITLE: %s\n\n", article.Title)
	if article.Description != "" {
		fmt.Fprintf(&b, "DESCRIPTION: %s\n\n", article.Description)
	}
	if content != "" {
		b.WriteString(contentRule + "\n")
		b.WriteString("FULL ARTICLE CONTENT:\n")
		b.WriteString(contentRule + "\n\n")
		b.WriteString(truncateRunes(content, maxPromptContent))
		b.WriteString("\n\n" + contentRule + "\n")
	}
	fmt.Fprintf(&b, "SOURCE: %s\n", article.SourceName)
	fmt.Fprintf(&b, "URL: %s\n", article.URL)
	if article.Category != "" {
		fmt.Fprintf(&b, "CATEGORY: %s\n", article.Category)
	}

	b.WriteString(`
Instructions:
1. Read the full article content and use its actual facts, names, dates, numbers and quotes.
2. Write a headline under 80 characters.
3. Write a summary of 10-50 words with specific details from the content.
   Do not use phrases such as "check the original source", "refer to the article", "for details" or "please refer".
4. Write a complete article of 300-800 words in news style with proper paragraphs.
5. Generate 5 hashtags without spaces or punctuation besides #.
`)
	fmt.Fprintf(&b, "6. Use the attribution \"Source: %s\".\n", article.SourceName)

	return systemPrompt, b.String()
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
