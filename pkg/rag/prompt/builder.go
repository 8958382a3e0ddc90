package prompt

import (
	"strings"

	"kb-assistant-be/pkg/llm"
)

// QABuilder builds the answering prompt from retrieved knowledge base
// excerpts and a standalone question.
type QABuilder struct {
	contexts []string
	question string
}

// NewQABuilder creates a new question answering prompt builder
func NewQABuilder(contexts []string, question string) *QABuilder {
	return &QABuilder{
		contexts: contexts,
		question: question,
	}
}

// Build creates a grounded prompt that keeps the model inside the
// retrieved material.
func (b *QABuilder) Build() string {
	var prompt strings.Builder

	b.writeTask(&prompt)
	b.writeContext(&prompt)
	b.writeGuidelines(&prompt)
	b.writeQuestion(&prompt)

	return prompt.String()
}

func (b *QABuilder) writeTask(prompt *strings.Builder) {
	prompt.WriteString("<task>\n")
	prompt.WriteString("You are a helpful assistant answering questions from a company knowledge base.\n")
	prompt.WriteString("Use only the excerpts provided below to answer the user's question.\n")
	prompt.WriteString("</task>\n\n")
}

func (b *QABuilder) writeContext(prompt *strings.Builder) {
	prompt.WriteString("<knowledge_base>\n")
	for i, c := range b.contexts {
		if i > 0 {
			prompt.WriteString("\n---\n")
		}
		prompt.WriteString(c)
	}
	prompt.WriteString("\n</knowledge_base>\n\n")
}

func (b *QABuilder) writeGuidelines(prompt *strings.Builder) {
	prompt.WriteString("<guidelines>\n")
	prompt.WriteString("1. Base your answer strictly on the knowledge base excerpts\n")
	prompt.WriteString("2. If the excerpts do not contain the answer, say that you don't know\n")
	prompt.WriteString("3. Do not invent facts or bring in outside knowledge\n")
	prompt.WriteString("4. Answer concisely and directly\n")
	prompt.WriteString("</guidelines>\n\n")
}

func (b *QABuilder) writeQuestion(prompt *strings.Builder) {
	prompt.WriteString("<user_question>\n")
	prompt.WriteString(b.question)
	prompt.WriteString("\n</user_question>\n\n")
	prompt.WriteString("Answer the question using only the knowledge base excerpts:")
}

// CondenseBuilder rewrites a follow-up question into a standalone one
// using the conversation so far. The rewritten question is what gets
// embedded for retrieval, so pronouns and references must be resolved.
type CondenseBuilder struct {
	history  []llm.Message
	question string
}

// NewCondenseBuilder creates a new condense prompt builder
func NewCondenseBuilder(history []llm.Message, question string) *CondenseBuilder {
	return &CondenseBuilder{
		history:  history,
		question: question,
	}
}

func (b *CondenseBuilder) Build() string {
	var prompt strings.Builder

	prompt.WriteString("<task>\n")
	prompt.WriteString("Given the conversation below, rephrase the follow-up question into a single standalone question.\n")
	prompt.WriteString("Resolve any pronouns or references using the conversation. Keep the original language.\n")
	prompt.WriteString("</task>\n\n")

	b.writeHistory(&prompt)

	prompt.WriteString("<followup_question>\n")
	prompt.WriteString(b.question)
	prompt.WriteString("\n</followup_question>\n\n")
	prompt.WriteString("Respond with the standalone question only, nothing else:")

	return prompt.String()
}

func (b *CondenseBuilder) writeHistory(prompt *strings.Builder) {
	prompt.WriteString("<conversation>\n")
	for _, m := range b.history {
		prompt.WriteString(m.Role)
		prompt.WriteString(": ")
		prompt.WriteString(m.Content)
		prompt.WriteString("\n")
	}
	prompt.WriteString("</conversation>\n\n")
}
