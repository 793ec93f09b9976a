package types

// Segment is one transcribed utterance. Offsets are seconds from the start of
// the recording.
type Segment struct {
	Text  string  `json:"text" yaml:"text"`
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
}

// FillerReport maps a lowercased filler phrase to how often it was used.
type FillerReport map[string]int

// AnalysisResult is the JSON document returned for one rehearsal.
//
// ContentAnalysis and ScriptAnalysis are nil when the caller did not supply an
// outline or script. A requested analysis that found nothing carries empty
// arrays instead.
type AnalysisResult struct {
	SpeechRateWPM   float64           `json:"speech_rate_wpm"`
	FillerWords     FillerReport      `json:"filler_words"`
	ContentAnalysis *OutlineAnalysis  `json:"content_analysis,omitempty"`
	ScriptAnalysis  *ScriptAnalysis   `json:"script_analysis,omitempty"`
	Errors          map[string]string `json:"errors,omitempty"`
}

// Feature keys used in AnalysisResult.Errors.
const (
	FeatureFillerWords     = "filler_words"
	FeatureContentAnalysis = "content_analysis"
	FeatureScriptAnalysis  = "script_analysis"
)
