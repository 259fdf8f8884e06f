package models

const (
	HyphenBreakRegex = `([\p{L}\p{N}_]+)-\n([\p{L}\p{N}_]+)`
	BlankLinesRegex  = `\n\s*\n`
	ThinkTag         = `(?s)<think>.*?</think>`
	SourcesMarker    = "SOURCES: "
	SourcesSeparator = ", "
	ExcerptSeparator = "\n\n"
)

// ChunkSeparators are tried in order by the recursive splitter.
var ChunkSeparators = []string{"\n\n", "\n", ".", "!", "?", ",", " ", ""}

var (
	// StuffPromptTemplate takes the question and the formatted excerpts.
	StuffPromptTemplate = `Create a final answer to the given questions using the provided document excerpts (in no particular order) as references. ALWAYS include a "SOURCES" section in your answer including only the minimal set of sources needed to answer the question. If you are unable to answer the question, simply state that you do not know. Do not attempt to fabricate an answer and leave the SOURCES section empty.

QUESTION: %s
=========
%s
=========
FINAL ANSWER:`

	// ExcerptTemplate formats one chunk inside the stuff prompt.
	ExcerptTemplate = "Content: %s\nSource: %s"
)
