// Package generate produces the social caption and analytics report
// attached to each rendered clip. Pure text assembly: no I/O, malformed
// input degrades to NEUTRO defaults.
package generate

import (
	"fmt"
	"strings"

	"github.com/binhocut/clipforge/internal/clips/models"
)

const captionSummaryWords = 15

var sentimentEmoji = map[models.SentimentLabel]string{
	models.SentimentUrgente:  "\U0001F6A8\U0001F525",
	models.SentimentAlerta:   "⚠️\U0001F4A5",
	models.SentimentPositivo: "✨\U0001F389",
	models.SentimentNeutro:   "\U0001F4F9",
}

// Caption builds a social media caption from the clip text and the job's
// sentiment.
func Caption(text string, sentiment models.Sentiment) string {
	label := sentiment.Sentiment
	if !label.Known() {
		label = models.SentimentNeutro
	}

	words := strings.Fields(text)
	if len(words) > captionSummaryWords {
		words = words[:captionSummaryWords]
	}
	summary := strings.Join(words, " ")

	var b strings.Builder
	b.WriteString(sentimentEmoji[label])
	b.WriteString(" ")
	b.WriteString(summary)
	b.WriteString("...\n\n")
	b.WriteString("#viral #conteudo #ia #videoediting")
	return b.String()
}

// Report builds the per-clip analytics report shown to the user.
func Report(d models.Descriptor, sentiment models.Sentiment) string {
	label := sentiment.Sentiment
	if !label.Known() {
		label = models.SentimentNeutro
	}

	excerpt := d.Text
	if len(excerpt) > 200 {
		excerpt = excerpt[:200]
	}

	var b strings.Builder
	rule := strings.Repeat("═", 39)
	b.WriteString(rule + "\n")
	b.WriteString("\U0001F916 RELATORIO DE ANALISE IA\n")
	b.WriteString(rule + "\n\n")
	fmt.Fprintf(&b, "\U0001F4CA SCORE GERAL: %d/100\n", d.Score)
	fmt.Fprintf(&b, "\U0001F4D6 TIPO: %s\n", d.Narrative)
	fmt.Fprintf(&b, "\U0001F3AD SENTIMENTO: %s\n\n", label)
	fmt.Fprintf(&b, "⏱️ DURACAO: %.1fs\n", d.Duration)
	fmt.Fprintf(&b, "\U0001F3AC INICIO: %.1fs\n", d.Start)
	fmt.Fprintf(&b, "\U0001F3AC FIM: %.1fs\n\n", d.End)
	fmt.Fprintf(&b, "\U0001F4DD TRANSCRICAO:\n%s...\n\n", excerpt)
	b.WriteString("\U0001F4A1 RECOMENDACOES:\n")
	b.WriteString("- Use hashtags relevantes\n")
	b.WriteString("- Poste em horario de pico\n")
	b.WriteString("- Adicione call-to-action\n\n")
	b.WriteString(rule)
	return b.String()
}
