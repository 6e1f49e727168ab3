package models

const (
	ThinkTag  = `(?s)<think>.*?</think>`
	CodeFence = "(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$"

	NoContextFound  = "no context found"
	NoContextPrefix = "No relevant content found. Proceeding with user query:\n"
	TagSeparator    = ", "
)

var (
	MetadataSystemPrompt = `You are tasked with analyzing the following content and returning a JSON object with the required fields.
The response must strictly follow the JSON structure provided below.
The keys must appear exactly as shown, and no additional keys or extra text should be included.

{
    "metadata": "Title: Example Title, Author: Example Author Name, SourceType: Example SourceType",
    "tags": "Example Tags",
    "summary": "Example Summary"
}

1. metadata: relevant metadata such as title, author and source type. If no title exists, create one from the content.
2. tags: comma-separated tags that categorize the content.
3. summary: one or two sentences, third person, present tense.`

	CombinedSystemPrompt = `You are tasked with analyzing the following content and returning a JSON object with the required fields.
The response must be valid JSON with exactly these keys and no other text:

{
    "metadata": "Title: Example Title, Author: Example Author Name, SourceType: Example SourceType",
    "tags": "Example Tags",
    "summary": "Example Summary",
    "normalized_version": "normalized version of the content suitable for vectorization"
}

1. metadata: relevant metadata such as title, author and source type.
2. tags: comma-separated tags that categorize the content.
3. summary: one or two sentences, third person, present tense.
4. normalized_version: the full content as clean lowercased text without formatting, special characters or excess whitespace.`

	ContentPromptTemplate = `### Content:
%s
`

	NormalizePromptTemplate = `Normalize the following content into a clean, lowercased version suitable for vectorization.
Remove unnecessary formatting, special characters, and excessive whitespace.
Normalize this content fully without skipping sections. Retain all key sentences and structure.
Answer only with the normalized content.

### Content:
%s
`

	RetrievedContextTemplate = `Use the following retrieved context to answer the user's query.

### Retrieved Context:

%s

### User Query:

%s
`
)
