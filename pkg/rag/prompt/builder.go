package prompt

import (
	"fmt"
	"strings"

	"careconnect/pkg/rag/history"
)

// ContextualBuilder assembles the retrieval-augmented prompt.
type ContextualBuilder struct {
	question      string
	fragments     []string
	supplementary []string
	history       []history.Message
}

// NewContextualBuilder creates a new contextual prompt builder
func NewContextualBuilder(question string, history []history.Message) *ContextualBuilder {
	return &ContextualBuilder{
		question: question,
		history:  history,
	}
}

// WithFragments sets the retrieved chunk texts, in ranking order.
func (b *ContextualBuilder) WithFragments(fragments []string) *ContextualBuilder {
	b.fragments = fragments
	return b
}

// WithSupplementary sets the chunks extracted from the uploaded document.
func (b *ContextualBuilder) WithSupplementary(chunks []string) *ContextualBuilder {
	b.supplementary = chunks
	return b
}

// Build renders instructions, then chat history, context and question, each
// between its own tags, ending with "Answer:".
func (b *ContextualBuilder) Build() string {
	var prompt strings.Builder

	b.writeInstructions(&prompt)
	b.writeChatHistory(&prompt)
	b.writeContext(&prompt)
	b.writeQuestion(&prompt)

	return prompt.String()
}

func (b *ContextualBuilder) writeInstructions(prompt *strings.Builder) {
	prompt.WriteString("You are an expert chat assistant that extracts information from the CONTEXT provided\n")
	prompt.WriteString("between <context> and </context> tags.\n")
	prompt.WriteString("When answering the question contained between <question> and </question> tags\n")
	prompt.WriteString("be concise and do not hallucinate.\n")
	prompt.WriteString("If you don't have the information just say I do not know.\n")
	prompt.WriteString("Only answer the question if you can extract it from the CONTEXT provided.\n")
	prompt.WriteString("\n")
	prompt.WriteString("Do not mention the CONTEXT used in your answer.\n")
}

func (b *ContextualBuilder) writeChatHistory(prompt *strings.Builder) {
	prompt.WriteString("<chat_history>\n")
	for _, m := range b.history {
		prompt.WriteString(m.Role)
		prompt.WriteString(": ")
		prompt.WriteString(m.Content)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</chat_history>\n")
}

func (b *ContextualBuilder) writeContext(prompt *strings.Builder) {
	prompt.WriteString("<context>\n")
	for _, f := range b.fragments {
		prompt.WriteString(f)
		prompt.WriteString("\n")
	}
	for _, s := range b.supplementary {
		prompt.WriteString(s)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</context>\n")
}

func (b *ContextualBuilder) writeQuestion(prompt *strings.Builder) {
	prompt.WriteString("<question>\n")
	prompt.WriteString(b.question)
	prompt.WriteString("\n</question>\n")
	prompt.WriteString("Answer:")
}

// Simple is the prompt used when retrieval is off.
func Simple(question string) string {
	return fmt.Sprintf("Question: %s\nAnswer:", question)
}
