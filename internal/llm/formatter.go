package llm

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"memberqa/internal/corpus"
)

// maxAnswerBytes caps formatted answers.
const maxAnswerBytes = 500

// maxAnswerTokens keeps the model reply near one sentence.
const maxAnswerTokens = 128

const formatterSystemPrompt = "You are a precise assistant. Rephrase the ANSWER to the QUESTION as one short sentence " +
	"in natural third person, using ONLY facts from the EVIDENCE. Keep names, dates and numbers exactly as written."

// AnswerFormatter rewrites a validated answer into one natural sentence with
// a chat model.
type AnswerFormatter struct {
	client *Client
}

// NewAnswerFormatter wraps a chat client.
func NewAnswerFormatter(client *Client) *AnswerFormatter {
	return &AnswerFormatter{client: client}
}

// Format returns a single-line rephrasing of answer.
func (f *AnswerFormatter) Format(ctx context.Context, question, answer string, evidence []corpus.Message) (string, error) {
	messages := prompt(formatterSystemPrompt, buildFormatterPrompt(question, answer, evidence))

	raw, err := f.client.ChatWithMessages(ctx, messages, ChatParams{Temperature: 0, MaxTokens: maxAnswerTokens})
	if err != nil {
		return "", fmt.Errorf("format answer: %w", err)
	}

	out := postprocess(raw)
	if out == "" {
		return "", fmt.Errorf("format answer: empty model output")
	}
	return out, nil
}

func buildFormatterPrompt(question, answer string, evidence []corpus.Message) string {
	var b strings.Builder
	b.WriteString("QUESTION:\n")
	b.WriteString(question)
	b.WriteString("\n\nANSWER:\n")
	b.WriteString(answer)
	b.WriteString("\n\nEVIDENCE (relevant member messages):\n")
	if len(evidence) == 0 {
		b.WriteString("(none)\n")
	}
	for _, m := range evidence {
		fmt.Fprintf(&b, "- [%s at %s] %s\n", m.UserName, m.Timestamp.UTC().Format(time.RFC3339), m.Text)
	}
	b.WriteString("\nInstructions:\n")
	b.WriteString("- Reply with ONE sentence that states the ANSWER.\n")
	b.WriteString("- Prefer starting with the person's name exactly as it appears in the QUESTION when helpful.\n")
	b.WriteString("- Do not add any fact that is not in the EVIDENCE.\n")
	return b.String()
}

// postprocess strips enclosing quotes, collapses the reply to one line and
// caps its length.
func postprocess(text string) string {
	ans := strings.TrimSpace(text)
	for _, q := range [][2]string{{`"`, `"`}, {"“", "”"}} {
		if len(ans) >= len(q[0])+len(q[1]) && strings.HasPrefix(ans, q[0]) && strings.HasSuffix(ans, q[1]) {
			ans = strings.TrimSpace(ans[len(q[0]) : len(ans)-len(q[1])])
			break
		}
	}
	ans = strings.Join(strings.Fields(ans), " ")
	if len(ans) > maxAnswerBytes {
		cut := maxAnswerBytes
		for cut > 0 && !utf8.RuneStart(ans[cut]) {
			cut--
		}
		ans = strings.TrimSpace(ans[:cut])
	}
	return ans
}
