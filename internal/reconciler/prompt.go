package reconciler

import (
	"fmt"

	"speech-coach-go/internal/timestamp"
	"speech-coach-go/internal/transcript"
)

func transcriptNote(tr transcript.Transcript, style timestamp.Style) string {
	if tr.HasTiming() {
		return fmt.Sprintf("The transcript is a JSON list of [start_seconds, text] pairs. Convert start_seconds to %s when you cite a timestamp.", style.Layout())
	}
	return `The transcript has no timing information. Use "n/a" wherever a timestamp is asked for and the point in time cannot be estimated.`
}

// BuildOutlinePrompt asks for one pro or con per outline point.
func BuildOutlinePrompt(outline string, tr transcript.Transcript, style timestamp.Style) string {
	prompt := `You are a public speaking expert. I will provide:

1. The speaker's **content outline** (a list of points they intended to cover).
2. The actual **transcript** of what they said.

For **each** outline point, determine whether and how the transcript addresses it.

- If the transcript **clearly covers** an outline point, add an entry to "pros":
  - "outline_point": the exact bullet from the outline
  - "timestamp": a single approximate %[1]s where they covered this point
  - "transcript_excerpt": the exact phrase or short section from the transcript that addresses it
  - "suggestion": (optional) how to deepen or clarify this coverage

- If the transcript **fails to cover** or only **briefly and weakly** covers an outline point, add an entry to "cons":
  - "outline_point": the exact bullet from the outline
  - "timestamp": if it appears briefly, the single %[1]s; otherwise "missing"
  - "issue": a brief note on why this point was not fully addressed
  - "suggestion": how to better integrate or expand on this point

Return ONLY a JSON object with two arrays, "pros" and "cons", for example:

{
  "pros": [
    {
      "outline_point": "Introduce the company's history",
      "timestamp": "%[2]s",
      "transcript_excerpt": "We founded our startup in 2010 with a mission to...",
      "suggestion": "Good start, perhaps add one anecdote for emotional impact."
    }
  ],
  "cons": [
    {
      "outline_point": "Explain the upcoming product roadmap",
      "timestamp": "missing",
      "issue": "This topic was not mentioned in the transcript.",
      "suggestion": "Add a section around minute 4 to cover the roadmap."
    }
  ]
}

It is very important that timestamps be in %[1]s format. Each pro or con gets a single timestamp, never a range or a list.
DO NOT include commentary.

%[3]s

Content Outline:
%[4]s

Transcript:
%[5]s
`
	return fmt.Sprintf(prompt, style.Layout(), timestamp.Format(135, style), transcriptNote(tr, style), outline, tr.PromptText())
}

// BuildScriptPrompt asks for the omissions, additions and paraphrases between
// the planned script and the delivery.
func BuildScriptPrompt(script string, tr transcript.Transcript, style timestamp.Style) string {
	prompt := `You are a public speaking analyst. I will provide you with two pieces of text:

1. The speaker's **original speech text** (the script or planned speech).
2. The **transcript** of what they actually said in their delivery.

Compare them and identify all the meaningful differences:

- **Omissions**: sentences or key phrases present in the original script that did **not** appear in the delivered transcript.
- **Additions**: sentences or phrases the speaker added that were **not** in the original script.
- **Paraphrases**: places where the speaker covered the same idea but used different wording.

For each difference, output an object with:
  - "script_excerpt": the exact text from the original script (or null for an addition)
  - "transcript_excerpt": the exact text from the delivered transcript (or null if omitted)
  - "timestamp": approximate %[1]s where the transcript_excerpt occurs (if available; otherwise "n/a")
  - "note": a brief explanation of the difference

Return ONLY a JSON object with three arrays: "omissions", "additions" and "paraphrases". For example:

{
  "omissions": [
    {
      "script_excerpt": "Today we'll discuss our company mission in depth.",
      "transcript_excerpt": null,
      "timestamp": "n/a",
      "note": "This line was not said during the delivery."
    }
  ],
  "additions": [
    {
      "script_excerpt": null,
      "transcript_excerpt": "Thank you all for being here today.",
      "timestamp": "%[2]s",
      "note": "The speaker added an opening greeting."
    }
  ],
  "paraphrases": [
    {
      "script_excerpt": "We achieved a 20 percent growth last quarter.",
      "transcript_excerpt": "Our numbers jumped by about one-fifth in the last three months.",
      "timestamp": "%[3]s",
      "note": "Idea is the same but wording differs."
    }
  ]
}

It is very important that timestamps be in %[1]s format. Each record gets a single timestamp, never a range or a list.
DO NOT include commentary.

%[4]s

Script:
%[5]s

Transcript:
%[6]s
`
	return fmt.Sprintf(prompt, style.Layout(), timestamp.Format(5, style), timestamp.Format(195, style), transcriptNote(tr, style), script, tr.PromptText())
}
