package openai

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"lexiq-backend/internal/llm"
)

const systemPrompt = "You are a contract review engine. Respond with JSON only. No markdown. Output must match the schema exactly."

// BuildMessages creates the chat messages for a request. A document is sent as a
// data URI content part next to the instruction.
func BuildMessages(req llm.Request) []goopenai.ChatCompletionMessage {
	user := goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser}
	if req.Document == nil {
		user.Content = req.Instruction
	} else {
		user.MultiContent = []goopenai.ChatMessagePart{
			{Type: goopenai.ChatMessagePartTypeText, Text: req.Instruction},
			{
				Type: goopenai.ChatMessagePartTypeImageURL,
				ImageURL: &goopenai.ChatMessageImageURL{
					URL:    "data:" + req.Document.MimeType + ";base64," + req.Document.Data,
					Detail: goopenai.ImageURLDetailAuto,
				},
			},
		}
	}
	return []goopenai.ChatCompletionMessage{
		{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
		user,
	}
}

// PromptHash identifies the exact text sent, for correlating logs. Attachment
// bytes are excluded.
func PromptHash(messages []goopenai.ChatCompletionMessage) string {
	var b strings.Builder
	for i, m := range messages {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		for _, part := range m.MultiContent {
			if part.Type == goopenai.ChatMessagePartTypeText {
				b.WriteString(part.Text)
			}
		}
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
