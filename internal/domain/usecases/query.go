package usecases

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/offlinerag/ragcore/internal/domain/entities"
	"github.com/offlinerag/ragcore/internal/domain/ports"
	"github.com/offlinerag/ragcore/internal/events"
)

const (
	defaultTopK = 6

	strictTemperature    = 0.2
	nonStrictTemperature = 0.5

	groundingRefusal        = "자료에 근거가 없습니다."
	strictNoCitationWarning = "주의: 답변에 [C#] 인용이 없습니다"
)

var citationPattern = regexp.MustCompile(`\[C(\d+)\]`)

// Asker answers questions grounded in the indexed corpus, streaming deltas
// through the event bus as they arrive from the Generator.
type Asker struct {
	embedder  ports.Embedder
	generator ports.Generator
	index     ports.VectorIndex
	bus       *events.Bus
	topK      int
}

// NewAsker wires an Asker from its ports. topK defaults to defaultTopK when
// zero or negative.
func NewAsker(embedder ports.Embedder, generator ports.Generator, index ports.VectorIndex, bus *events.Bus, topK int) *Asker {
	if topK <= 0 {
		topK = defaultTopK
	}
	return &Asker{embedder: embedder, generator: generator, index: index, bus: bus, topK: topK}
}

// AskResult is the fully materialized answer after the stream completes.
type AskResult struct {
	Message entities.Message
}

// Ask embeds the question, retrieves top-K chunks, builds the grounded
// prompt, and streams the answer, publishing message events as it goes.
func (a *Asker) Ask(ctx context.Context, question string, strict, showContext bool) (*AskResult, error) {
	if a.index.EmbeddedLen() == 0 {
		return nil, fmt.Errorf("ask: %w", ErrNoCorpus)
	}
	if !a.generator.Ready() {
		return nil, fmt.Errorf("ask: %w", ErrGeneratorNotReady)
	}

	if err := a.embedder.Ensure(ctx); err != nil {
		return nil, fmt.Errorf("ask: %w: %v", ErrEmbed, err)
	}

	userMsg := entities.Message{ID: uuid.NewString(), Role: entities.RoleUser, Content: question}
	a.bus.Publish(events.Event{Kind: events.KindMessageAppended, MessageID: userMsg.ID, Payload: userMsg})

	assistantMsg := entities.Message{ID: uuid.NewString(), Role: entities.RoleAssistant, Content: ""}
	a.bus.Publish(events.Event{Kind: events.KindMessageAppended, MessageID: assistantMsg.ID, Payload: assistantMsg})

	vectors, err := a.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("ask: %w: %v", ErrEmbed, err)
	}
	q := vectors[0]

	retrieved := a.index.TopK(q, a.topK)

	contextBlock := buildContextBlock(retrieved)
	systemPrompt := buildSystemPrompt(strict)
	userPrompt := buildUserPrompt(contextBlock, question)

	messages := []entities.Message{
		{Role: entities.RoleSystem, Content: systemPrompt},
		{Role: entities.RoleUser, Content: userPrompt},
	}

	temperature := nonStrictTemperature
	if strict {
		temperature = strictTemperature
	}

	deltas, err := a.generator.Stream(ctx, messages, ports.GenerateOptions{Temperature: temperature})
	if err != nil {
		return nil, fmt.Errorf("ask: %w: %v", ErrGenerate, err)
	}

	var answer bytes.Buffer
	for chunk := range deltas {
		if chunk.Err != nil {
			return nil, fmt.Errorf("ask: %w: %v", ErrGenerate, chunk.Err)
		}
		answer.WriteString(chunk.Text)
		a.bus.Publish(events.Event{Kind: events.KindMessageDelta, MessageID: assistantMsg.ID, Delta: chunk.Text})
	}

	final := answer.String()
	citations := parseCitations(final)

	meta := &entities.MessageMeta{Citations: citations}
	if strict && len(citations) == 0 {
		meta.Warning = strictNoCitationWarning
	}
	if showContext {
		meta.Context = buildContextEntries(retrieved, citations)
	}

	assistantMsg.Content = final
	assistantMsg.Meta = meta
	a.bus.Publish(events.Event{Kind: events.KindMessageMetaReplace, MessageID: assistantMsg.ID, Payload: assistantMsg})

	return &AskResult{Message: assistantMsg}, nil
}

// buildContextBlock renders the "[근거]" evidence block: one header per
// retrieved chunk followed by its text, joined by blank lines.
func buildContextBlock(retrieved []entities.RetrievedChunk) string {
	parts := make([]string, len(retrieved))
	for i, r := range retrieved {
		header := fmt.Sprintf("[C%d] (%s / p.%d)", i+1, r.Chunk.DocName, r.Chunk.Page)
		parts[i] = header + "\n" + r.Chunk.Text
	}
	return strings.Join(parts, "\n\n")
}

// buildSystemPrompt implements the grounding policy contract: strict mode
// must refuse when evidence is missing, non-strict mode may summarize
// partially but must mark gaps. Both modes require a terminal [출처] section.
func buildSystemPrompt(strict bool) string {
	var sb strings.Builder
	sb.WriteString("당신은 제공된 근거 자료에만 기반하여 답변하는 도우미입니다.\n")
	if strict {
		sb.WriteString("근거 자료에 없는 내용에 대해서는 외부 지식을 사용하지 말고 반드시 거부하십시오.\n")
	} else {
		sb.WriteString("근거가 부족하면 알고 있는 범위 내에서 부분적으로 요약할 수 있으나, 근거가 없는 부분은 반드시 표시하십시오.\n")
	}
	sb.WriteString(fmt.Sprintf("근거가 전혀 없는 경우 정확히 다음 문장을 사용하십시오: \"%s\"\n", groundingRefusal))
	sb.WriteString("답변 마지막에는 사용한 [C#] 인용 ID를 나열하는 [출처] 섹션을 반드시 포함하십시오.")
	return sb.String()
}

// buildUserPrompt assembles the fixed [근거]/[질문] template with the
// terminal instruction to cite sources.
func buildUserPrompt(contextBlock, question string) string {
	var sb strings.Builder
	sb.WriteString("[근거]\n")
	sb.WriteString(contextBlock)
	sb.WriteString("\n\n[질문]\n")
	sb.WriteString(question)
	sb.WriteString("\n\n위 근거를 바탕으로 답변하고, 마지막에 사용한 [C#] 인용을 나열하는 [출처] 섹션을 작성하십시오.")
	return sb.String()
}

// parseCitations collects every distinct [C#] integer referenced in answer,
// in first-appearance order.
func parseCitations(answer string) []int {
	matches := citationPattern.FindAllStringSubmatch(answer, -1)
	seen := make(map[int]bool)
	var out []int
	for _, m := range matches {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// buildContextEntries renders the showContext panel: every retrieved chunk
// with a used/not-used marker derived from the parsed citation set. Citation
// IDs are 1-based ([C1] == retrieved[0]).
func buildContextEntries(retrieved []entities.RetrievedChunk, citations []int) []entities.ContextEntry {
	cited := make(map[int]bool, len(citations))
	for _, c := range citations {
		cited[c] = true
	}
	entries := make([]entities.ContextEntry, len(retrieved))
	for i, r := range retrieved {
		entries[i] = entities.ContextEntry{Chunk: r, Used: cited[i+1]}
	}
	return entries
}
