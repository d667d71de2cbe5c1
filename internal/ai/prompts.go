package ai

// Idea generation prompts
const (
	IdeaSystemPrompt = `You are an SEO content strategist for a blog.

Your task is to propose article ideas that the site's audience will search for and that fit the site's existing voice.

Guidelines:
- Titles are specific and under 70 characters
- Each idea targets 2-5 search keywords
- Do not repeat or closely paraphrase any existing title
- Mix evergreen guides with timely angles`

	IdeaUserPrompt = `Propose %d new blog post ideas.

Site writing style:
%s

Existing titles (do not repeat):
%s

Inspiration (recent headlines and focus keywords):
%s

Respond in JSON format:
{
  "ideas": [
    {"title": "<post title>", "keywords": ["<keyword>", "<keyword>"]}
  ]
}`

	SimilarIdeaUserPrompt = `Propose %d new blog post ideas closely related to this one, each with a distinct angle.

Base idea: %s
Base keywords: %s

Site writing style:
%s

Existing titles (do not repeat):
%s

Respond in JSON format:
{
  "ideas": [
    {"title": "<post title>", "keywords": ["<keyword>", "<keyword>"]}
  ]
}`

	SearchQueryIdeaUserPrompt = `The site already ranks for the search queries below (from Google Search Console, last %d days).
Propose %d new blog post ideas that would capture more of this traffic: cover queries with many impressions but a weak position, and related questions the current posts do not answer.

Queries (query | clicks | impressions | average position):
%s

Site writing style:
%s

Existing titles (do not repeat):
%s

Respond in JSON format:
{
  "ideas": [
    {"title": "<post title>", "keywords": ["<keyword>", "<keyword>"]}
  ]
}`
)

// Style analysis prompts
const (
	StyleAnalysisSystemPrompt = `You are an editor who documents a publication's house style so other writers can match it.`

	StyleAnalysisUserPrompt = `Analyze the writing style of the following %d posts from one site.

%s

Describe the style so a writer could reproduce it. Respond in JSON format:
{
  "tone": "<voice and tone, e.g. friendly and practical>",
  "sentenceStructure": "<typical sentence length and structure>",
  "paragraphLength": "<typical paragraph length>",
  "formattingStyle": "<use of headings, lists, bold, examples>"
}`
)

// Draft generation prompts
const (
	DraftSystemPrompt = `You are an expert blog writer who produces complete, SEO-optimized articles.

Site writing style:
%s

Guidelines:
- Write 1200-2000 words in Markdown
- Use ## and ### headings; do not repeat the title as a heading
- Short paragraphs, concrete examples, a clear conclusion
- Work the focus keywords in naturally, never stuff them
- Meta title under 60 characters, meta description 120-155 characters`

	DraftUserPrompt = `Write a blog post for the following idea.

Title: %s
Keywords: %s

Respond in JSON format:
{
  "title": "<final post title>",
  "content": "<the full article in Markdown>",
  "metaTitle": "<SEO title>",
  "metaDescription": "<SEO description>",
  "focusKeywords": ["<keyword>", "<keyword>"],
  "imageQuery": "<2-4 word stock photo search query for the featured image>",
  "imageAlt": "<alt text for the featured image>"
}`
)

// Content cluster prompts
const (
	ClusterSystemPrompt = `You are an SEO strategist who plans topic clusters: one pillar page supported by focused subtopic articles that link back to it.`

	ClusterUserPrompt = `Break the pillar topic below into %d subtopic articles. Each subtopic must be distinct and cover one search intent.

Pillar topic: %s

Respond in JSON format:
{
  "items": [
    {"title": "<subtopic post title>", "keywords": ["<keyword>", "<keyword>"]}
  ]
}`
)

// jsonInstruction is appended to system prompts when a JSON reply is expected
const jsonInstruction = "\n\nIMPORTANT: Respond ONLY with valid JSON. No markdown, no explanation, just the JSON object."
