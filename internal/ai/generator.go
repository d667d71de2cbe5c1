package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/content-agent/internal/models"
	"github.com/content-agent/pkg/logger"
)

// maxSampleChars bounds each post sent for style analysis
const maxSampleChars = 3000

// Generator turns model replies into typed content
type Generator struct {
	llm Completer
	log *logger.Logger
}

// NewGenerator creates a generator on top of any Completer
func NewGenerator(llm Completer, log *logger.Logger) *Generator {
	return &Generator{
		llm: llm,
		log: log.WithComponent("ai"),
	}
}

// stripMarkdownCodeBlock removes markdown code block delimiters from AI responses
func stripMarkdownCodeBlock(response string) string {
	response = strings.TrimSpace(response)

	// Find the first { which starts valid JSON
	startIdx := strings.Index(response, "{")
	if startIdx == -1 {
		return response
	}

	// Find the last } which ends valid JSON
	endIdx := strings.LastIndex(response, "}")
	if endIdx == -1 || endIdx < startIdx {
		return response
	}

	return response[startIdx : endIdx+1]
}

// completeJSON asks for a JSON reply and decodes it into out
func (g *Generator) completeJSON(ctx context.Context, systemPrompt, userPrompt, what string, out any) error {
	response, err := g.llm.Complete(ctx, systemPrompt+jsonInstruction, userPrompt)
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(stripMarkdownCodeBlock(response)), out); err != nil {
		g.log.Error().
			Err(err).
			Str("response", truncate(response, 500)).
			Msgf("Failed to parse %s response", what)
		return fmt.Errorf("failed to parse %s response: %w", what, err)
	}
	return nil
}

// GeneratedIdea is one idea proposed by the model
type GeneratedIdea struct {
	Title    string   `json:"title"`
	Keywords []string `json:"keywords"`
}

// IdeaRequest conditions idea generation
type IdeaRequest struct {
	Count      int
	StyleGuide *models.StyleGuide
	Existing   []string // titles already in the pipeline
	Seeds      []string // headlines and keywords for inspiration
}

// GenerateIdeas proposes new article ideas
func (g *Generator) GenerateIdeas(ctx context.Context, req IdeaRequest) ([]GeneratedIdea, error) {
	userPrompt := fmt.Sprintf(IdeaUserPrompt,
		req.Count,
		FormatStyleGuide(req.StyleGuide),
		bulletList(req.Existing, 100),
		bulletList(req.Seeds, 30),
	)

	var result struct {
		Ideas []GeneratedIdea `json:"ideas"`
	}
	if err := g.completeJSON(ctx, IdeaSystemPrompt, userPrompt, "ideas", &result); err != nil {
		return nil, err
	}
	return result.Ideas, nil
}

// GenerateSimilarIdeas proposes ideas related to an existing one
func (g *Generator) GenerateSimilarIdeas(ctx context.Context, base *models.Idea, count int, guide *models.StyleGuide, existing []string) ([]GeneratedIdea, error) {
	userPrompt := fmt.Sprintf(SimilarIdeaUserPrompt,
		count,
		base.Title,
		strings.Join(base.Keywords, ", "),
		FormatStyleGuide(guide),
		bulletList(existing, 100),
	)

	var result struct {
		Ideas []GeneratedIdea `json:"ideas"`
	}
	if err := g.completeJSON(ctx, IdeaSystemPrompt, userPrompt, "similar ideas", &result); err != nil {
		return nil, err
	}
	return result.Ideas, nil
}

// SearchQuery is one Search Console row fed to the model
type SearchQuery struct {
	Query       string
	Clicks      float64
	Impressions float64
	Position    float64
}

// GenerateIdeasFromQueries proposes ideas from the site's search traffic
func (g *Generator) GenerateIdeasFromQueries(ctx context.Context, queries []SearchQuery, days, count int, guide *models.StyleGuide, existing []string) ([]GeneratedIdea, error) {
	rows := make([]string, 0, len(queries))
	for _, q := range queries {
		rows = append(rows, fmt.Sprintf("%s | %.0f | %.0f | %.1f", q.Query, q.Clicks, q.Impressions, q.Position))
	}

	userPrompt := fmt.Sprintf(SearchQueryIdeaUserPrompt,
		days,
		count,
		bulletList(rows, 50),
		FormatStyleGuide(guide),
		bulletList(existing, 100),
	)

	var result struct {
		Ideas []GeneratedIdea `json:"ideas"`
	}
	if err := g.completeJSON(ctx, IdeaSystemPrompt, userPrompt, "search console ideas", &result); err != nil {
		return nil, err
	}
	return result.Ideas, nil
}

// AnalyzeStyle derives a style guide from plain-text post samples
func (g *Generator) AnalyzeStyle(ctx context.Context, samples []string) (*models.StyleGuide, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples to analyze")
	}

	var b strings.Builder
	for i, s := range samples {
		fmt.Fprintf(&b, "--- Post %d ---\n%s\n\n", i+1, truncate(s, maxSampleChars))
	}

	userPrompt := fmt.Sprintf(StyleAnalysisUserPrompt, len(samples), b.String())

	var guide models.StyleGuide
	if err := g.completeJSON(ctx, StyleAnalysisSystemPrompt, userPrompt, "style analysis", &guide); err != nil {
		return nil, err
	}
	guide.LastAnalyzed = nil
	guide.CustomInstructions = ""
	return &guide, nil
}

// GeneratedDraft is a complete article proposed by the model. Content is Markdown.
type GeneratedDraft struct {
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	MetaTitle       string   `json:"metaTitle"`
	MetaDescription string   `json:"metaDescription"`
	FocusKeywords   []string `json:"focusKeywords"`
	ImageQuery      string   `json:"imageQuery"`
	ImageAlt        string   `json:"imageAlt"`
}

// GenerateDraft writes a full article for an idea
func (g *Generator) GenerateDraft(ctx context.Context, title string, keywords []string, guide *models.StyleGuide) (*GeneratedDraft, error) {
	systemPrompt := fmt.Sprintf(DraftSystemPrompt, FormatStyleGuide(guide))
	userPrompt := fmt.Sprintf(DraftUserPrompt, title, strings.Join(keywords, ", "))

	var draft GeneratedDraft
	if err := g.completeJSON(ctx, systemPrompt, userPrompt, "draft", &draft); err != nil {
		return nil, err
	}
	if strings.TrimSpace(draft.Content) == "" {
		return nil, fmt.Errorf("draft response has no content")
	}
	if draft.Title == "" {
		draft.Title = title
	}
	if len(draft.FocusKeywords) == 0 {
		draft.FocusKeywords = keywords
	}

	g.log.Info().
		Str("title", draft.Title).
		Int("content_length", len(draft.Content)).
		Msg("Draft generated")

	return &draft, nil
}

// GenerateCluster breaks a pillar topic into subtopics
func (g *Generator) GenerateCluster(ctx context.Context, topic string, count int) ([]GeneratedIdea, error) {
	userPrompt := fmt.Sprintf(ClusterUserPrompt, count, topic)

	var result struct {
		Items []GeneratedIdea `json:"items"`
	}
	if err := g.completeJSON(ctx, ClusterSystemPrompt, userPrompt, "cluster", &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// FormatStyleGuide renders the guide for inclusion in a prompt
func FormatStyleGuide(g *models.StyleGuide) string {
	if g.IsEmpty() {
		return "No style guide yet. Use a clear, friendly, practical voice."
	}

	var b strings.Builder
	write := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "- %s: %s\n", label, value)
		}
	}
	write("Tone", g.Tone)
	write("Sentence structure", g.SentenceStructure)
	write("Paragraph length", g.ParagraphLength)
	write("Formatting", g.FormattingStyle)
	write("Additional instructions", g.CustomInstructions)
	return strings.TrimRight(b.String(), "\n")
}

func bulletList(items []string, max int) string {
	if len(items) == 0 {
		return "(none)"
	}
	if len(items) > max {
		items = items[len(items)-max:]
	}
	return "- " + strings.Join(items, "\n- ")
}

// truncate cuts s to at most n bytes without splitting a rune
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
