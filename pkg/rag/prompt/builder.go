package prompt

import (
	"strings"

	"video-rag-chat-be/pkg/llm"
	"video-rag-chat-be/pkg/store"
)

const (
	summaryInstruction = "You are a YouTube video summarizer. Given the transcript text, summarize " +
		"the entire video into key points within 250 words. Keep it concise and relevant.\n\n" +
		"Transcript:\n"

	contextualizeInstruction = "Given chat history and latest user question, reformulate it into a standalone question. " +
		"Do NOT answer the question. If it is already standalone, return it unchanged."

	answerInstruction = "Answer the question concisely using the retrieved context. If unknown, say so."

	contextSeparator = "\n\n"
)

// BuildSummary is the single-shot summarization prompt
func BuildSummary(transcript string) string {
	return summaryInstruction + transcript
}

// BuildContextualize asks the model to rewrite query so it no longer depends
// on the preceding turns.
func BuildContextualize(history []store.Turn, query string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: store.RoleSystem, Content: contextualizeInstruction})
	messages = append(messages, FromTurns(history)...)
	messages = append(messages, llm.Message{Role: store.RoleUser, Content: query})
	return messages
}

// BuildAnswer stuffs the retrieved snippets into the system message, then
// replays history and the raw user query.
func BuildAnswer(snippets []store.MemoryRecord, history []store.Turn, query string) []llm.Message {
	var system strings.Builder
	system.WriteString(answerInstruction)
	system.WriteString(contextSeparator)
	system.WriteString(JoinContext(snippets))

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: store.RoleSystem, Content: system.String()})
	messages = append(messages, FromTurns(history)...)
	messages = append(messages, llm.Message{Role: store.RoleUser, Content: query})
	return messages
}

func JoinContext(snippets []store.MemoryRecord) string {
	texts := make([]string, len(snippets))
	for i, s := range snippets {
		texts[i] = s.Text
	}
	return strings.Join(texts, contextSeparator)
}

func FromTurns(turns []store.Turn) []llm.Message {
	out := make([]llm.Message, len(turns))
	for i, t := range turns {
		out[i] = llm.Message{Role: t.Role, Content: t.Text}
	}
	return out
}
