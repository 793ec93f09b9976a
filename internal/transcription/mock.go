package transcription

import (
	"context"

	"speech-coach-go/internal/transcript"
	"speech-coach-go/internal/types"
)

// MockSegments is the rehearsal returned in mock mode.
var MockSegments = []types.Segment{
	{Text: "Um, hi everyone, thank you all for being here today.", Start: 0, End: 4.2},
	{Text: "So, uh, we founded our startup in 2010 with a mission to make practice easy.", Start: 4.6, End: 10.8},
	{Text: "Like, our numbers jumped by about one-fifth in the last three months, you know.", Start: 11.3, End: 17.5},
	{Text: "Thanks for listening.", Start: 18, End: 19.4},
}

// Mock returns the same transcript for every recording.
type Mock struct {
	Segments []types.Segment
}

func (m Mock) Transcribe(ctx context.Context, recordingURL string) (transcript.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return transcript.Transcript{}, err
	}
	segs := m.Segments
	if segs == nil {
		segs = MockSegments
	}
	return transcript.New(segs)
}
