package service

import "strings"

// Llama 3 turn delimiters. The prompt must bracket system/user/assistant
// turns with exactly these tokens so the model's turn-taking convention is
// honored.
const (
	beginOfText     = "<|begin_of_text|>"
	endOfTurn       = "<|eot_id|>"
	systemHeader    = "<|start_header_id|>system<|end_header_id|>"
	userHeader      = "<|start_header_id|>user<|end_header_id|>"
	assistantHeader = "<|start_header_id|>assistant<|end_header_id|>"
)

const (
	groundedInstruction = "You are a helpful AI assistant. Use the following context to answer the user's question. If the context doesn't contain relevant information, say so."
	directInstruction   = "You are a helpful AI assistant. Answer the user's question to the best of your ability."
)

// buildPrompt renders the fixed three-slot template: system preamble,
// optional grounding context, user turn, assistant turn marker.
func buildPrompt(query, contextText string) string {
	var b strings.Builder
	b.WriteString(beginOfText)
	b.WriteString(systemHeader)
	b.WriteString("\n\n")
	if contextText != "" {
		b.WriteString(groundedInstruction)
		b.WriteString("\n\nContext:\n")
		b.WriteString(contextText)
		b.WriteString("\n")
	} else {
		b.WriteString(directInstruction)
	}
	b.WriteString("\n")
	b.WriteString(endOfTurn)
	b.WriteString(userHeader)
	b.WriteString("\n\n")
	b.WriteString(query)
	b.WriteString(endOfTurn)
	b.WriteString(assistantHeader)
	b.WriteString("\n\n")
	return b.String()
}

// stripAssistantHeader drops any echoed turn markers so only the assistant's
// completion is returned.
func stripAssistantHeader(response string) string {
	if idx := strings.LastIndex(response, assistantHeader); idx >= 0 {
		response = response[idx+len(assistantHeader):]
	}
	return strings.TrimSpace(response)
}
