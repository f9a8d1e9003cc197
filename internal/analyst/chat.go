package analyst

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const chatInstruction = `You are an AI trading analyst for TraderGrail, an algorithmic paper-trading platform.

Your role is to:
- Provide market insights using the latest news via Google Search
- Explain trading strategies in clear, professional language
- Never provide financial advice, only educational analysis
- Be concise and data-driven
- Cite your sources when discussing news or events`

// Message is one prior turn of a chat conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Chat answers message in the context of history.
func (a *Analyst) Chat(ctx context.Context, message string, history []Message) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", &InvalidRequestError{Message: "Message is required"}
	}

	contents := make([]*genai.Content, 0, len(history)+1)
	for _, m := range history {
		role := genai.Role(genai.RoleModel)
		if m.Role == "user" {
			role = genai.RoleUser
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	contents = append(contents, genai.NewContentFromText(message, genai.RoleUser))

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.gen.GenerateContent(ctx, a.model, contents, &genai.GenerateContentConfig{
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		SystemInstruction: genai.NewContentFromText(chatInstruction, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("generate chat reply: %w", err)
	}

	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		return "", fmt.Errorf("%w: empty reply", ErrMalformedResponse)
	}
	return reply, nil
}
