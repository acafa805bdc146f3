// Package mcp exposes the Guardian retrieval pipeline over the Model
// Context Protocol.
package mcp

// AskInput defines the input parameters for the ask tool.
type AskInput struct {
	// Question is the natural-language question to answer.
	Question string `json:"question" jsonschema:"required,description=The natural-language question to answer"`
	// Mode selects the response mode: concise or detailed.
	Mode string `json:"mode,omitempty" jsonschema:"enum=concise,enum=detailed,default=concise,description=Response mode: concise or detailed"`
}

// AskOutput contains the generated answer and its evidence.
type AskOutput struct {
	// Answer is the generated prose answer.
	Answer string `json:"answer"`
	// Sources lists the attribution of each passage used (chunk id or URL).
	Sources []string `json:"sources"`
	// UsedWeb reports whether the web-search fallback contributed evidence.
	UsedWeb bool `json:"used_web"`
	// Message provides informational context (e.g. "no answer available").
	Message string `json:"message,omitempty"`
}

// SearchInput defines the input parameters for the search_knowledge tool.
type SearchInput struct {
	// Query is the retrieval query.
	Query string `json:"query" jsonschema:"required,description=The retrieval query"`
	// Mode selects the context budget: concise or detailed.
	Mode string `json:"mode,omitempty" jsonschema:"enum=concise,enum=detailed,default=concise,description=Context budget mode"`
}

// SearchOutput contains the assembled context bundle.
type SearchOutput struct {
	// Passages is the rank-ordered evidence fitting the budget.
	Passages []PassageResult `json:"passages"`
	// TotalChars is the bundle size in characters.
	TotalChars int `json:"total_chars"`
	// UsedWeb reports whether the web-search fallback contributed evidence.
	UsedWeb bool `json:"used_web"`
	// Message provides informational context.
	Message string `json:"message,omitempty"`
}

// PassageResult is a single retrieved passage with attribution.
type PassageResult struct {
	// Text is the passage content, possibly truncated at the budget.
	Text string `json:"text"`
	// Origin is "local" or "web".
	Origin string `json:"origin"`
	// Ref is the chunk id for local passages, the result URL for web ones.
	Ref string `json:"ref"`
	// Score is the cosine similarity (local) or rank score (web).
	Score float64 `json:"score"`
}

// IngestInput defines the input parameters for the ingest_document tool.
type IngestInput struct {
	// DocumentID identifies the uploaded document.
	DocumentID string `json:"document_id" jsonschema:"required,description=Identifier for the uploaded document"`
	// Text is the document's plain text. Format decoding happens client-side.
	Text string `json:"text" jsonschema:"required,description=Plain text content of the document"`
}

// IngestOutput reports the ingestion result.
type IngestOutput struct {
	// Chunks is the number of chunks now in the active index.
	Chunks int `json:"chunks"`
	// ActiveSource is the knowledge source now backing retrieval.
	ActiveSource string `json:"active_source"`
}

// StatusInput defines the input for get_index_status. No parameters.
type StatusInput struct{}

// StatusOutput describes the active index.
type StatusOutput struct {
	// Chunks is the number of chunks indexed.
	Chunks int `json:"chunks"`
	// ActiveSource is "knowledge_base", "upload", or "" before first ingest.
	ActiveSource string `json:"active_source"`
	// Backend is the index backend in use ("memory" or "qdrant").
	Backend string `json:"backend"`
}
