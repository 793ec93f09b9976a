package types

// Pro is an outline point the speaker covered.
type Pro struct {
	OutlinePoint      string `json:"outline_point"`
	Timestamp         string `json:"timestamp"`
	TranscriptExcerpt string `json:"transcript_excerpt"`
	Suggestion        string `json:"suggestion"`
}

// Con is an outline point that was missing or only weakly covered. Timestamp
// is "missing" when the point never came up.
type Con struct {
	OutlinePoint string `json:"outline_point"`
	Timestamp    string `json:"timestamp"`
	Issue        string `json:"issue"`
	Suggestion   string `json:"suggestion"`
}

type OutlineAnalysis struct {
	Pros []Pro `json:"pros"`
	Cons []Con `json:"cons"`
}

type DiffKind string

const (
	Omission   DiffKind = "omission"
	Addition   DiffKind = "addition"
	Paraphrase DiffKind = "paraphrase"
)

// ScriptDiff is one difference between the planned script and the delivery.
// ScriptExcerpt is nil for additions, TranscriptExcerpt is nil for omissions.
type ScriptDiff struct {
	Kind              DiffKind `json:"type"`
	ScriptExcerpt     *string  `json:"script_excerpt"`
	TranscriptExcerpt *string  `json:"transcript_excerpt"`
	Timestamp         string   `json:"timestamp"`
	Note              string   `json:"note"`
}

type ScriptAnalysis struct {
	Omissions   []ScriptDiff `json:"omissions"`
	Additions   []ScriptDiff `json:"additions"`
	Paraphrases []ScriptDiff `json:"paraphrases"`
}

// Count returns the number of records across all three categories.
func (s *ScriptAnalysis) Count() int {
	if s == nil {
		return 0
	}
	return len(s.Omissions) + len(s.Additions) + len(s.Paraphrases)
}
