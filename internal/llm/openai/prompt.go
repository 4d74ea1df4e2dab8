package openai

import (
	"fmt"
	"strconv"
	"strings"

	"cvparse-backend/internal/llm"
	"cvparse-backend/internal/records"
)

// Message represents an OpenAI chat message.
type Message struct {
	Role    string
	Content string
}

const (
	systemPromptExtract = "You are a document extraction engine. Respond with JSON only. No markdown. Never omit keys. Output must match the schema exactly."
	systemPromptFixJSON = "You are a JSON repair tool. Return only valid JSON that matches the schema exactly."
)

// BuildPrompt creates the chat messages for one extraction request.
func BuildPrompt(input llm.ExtractInput, model string) []Message {
	developer := resolveTemplate(input, model)
	return []Message{
		{Role: "system", Content: systemPromptExtract},
		{Role: "developer", Content: developer},
		{Role: "user", Content: buildUserPrompt(input)},
	}
}

func buildFixPrompt(input llm.ExtractInput, raw []byte) []Message {
	developer := resolveTemplate(input, "")
	return []Message{
		{Role: "system", Content: systemPromptFixJSON},
		{Role: "developer", Content: developer},
		{Role: "user", Content: fixUserPrompt(raw)},
	}
}

func resolveTemplate(input llm.ExtractInput, model string) string {
	template, _ := llm.PromptTemplate(input.Kind, input.Category)
	replacer := strings.NewReplacer(
		"{{CATEGORY}}", string(input.Category),
		"{{MIN_EXPERIENCE}}", strconv.Itoa(llm.MinExperience(input.Category)),
		"{{PLACEHOLDER}}", records.Placeholder,
		"{{MODEL}}", model,
	)
	return replacer.Replace(template)
}

func buildUserPrompt(input llm.ExtractInput) string {
	label := "CV Text"
	if input.Kind == llm.KindJob {
		label = "Job Posting Text"
	}
	return fmt.Sprintf("%s:\n%s", label, input.Text)
}

func fixUserPrompt(raw []byte) string {
	return fmt.Sprintf("Fix this JSON to match the schema exactly. Output JSON only:\n%s", string(raw))
}

func prependSystemMessage(messages []Message, content string) []Message {
	if strings.TrimSpace(content) == "" {
		return messages
	}
	out := make([]Message, 0, len(messages)+1)
	out = append(out, Message{Role: "system", Content: content})
	out = append(out, messages...)
	return out
}
