package prompt

import (
	"strings"
	"testing"

	"kb-assistant-be/pkg/llm"

	"github.com/stretchr/testify/assert"
)

func TestQABuilderIncludesAllContexts(t *testing.T) {
	b := NewQABuilder([]string{"vacation policy: 25 days", "remote work: allowed"}, "How many vacation days do I get?")
	out := b.Build()

	assert.Contains(t, out, "vacation policy: 25 days")
	assert.Contains(t, out, "remote work: allowed")
	assert.Contains(t, out, "How many vacation days do I get?")
	assert.Contains(t, out, "say that you don't know")
}

func TestQABuilderSeparatesContexts(t *testing.T) {
	b := NewQABuilder([]string{"first", "second"}, "q")
	out := b.Build()

	assert.Contains(t, out, "first\n---\nsecond")
}

func TestCondenseBuilderReplaysHistoryInOrder(t *testing.T) {
	history := []llm.Message{
		{Role: "user", Content: "What is the travel budget?"},
		{Role: "assistant", Content: "It is 2000 EUR per year."},
	}
	b := NewCondenseBuilder(history, "And for managers?")
	out := b.Build()

	assert.Contains(t, out, "user: What is the travel budget?")
	assert.Contains(t, out, "assistant: It is 2000 EUR per year.")
	assert.Contains(t, out, "And for managers?")

	assert.Less(t,
		strings.Index(out, "What is the travel budget?"),
		strings.Index(out, "It is 2000 EUR per year."),
	)
}
