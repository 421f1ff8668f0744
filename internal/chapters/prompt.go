package chapters

import (
	"fmt"
	"strings"

	"github.com/alnah/go-chapters/internal/format"
	"github.com/alnah/go-chapters/internal/lang"
	"github.com/alnah/go-chapters/internal/llm"
	"github.com/alnah/go-chapters/internal/transcribe"
)

const segmentsInstruction = `You split a video into chapters for its description.

You receive numbered transcript segments in the form "[index] M:SS text".
Rules:
- Start a new chapter only where the topic changes, at least 45 to 60 seconds after the previous chapter.
- The first chapter must use segment index 0.
- Write titles in %s. Never translate them.
- Titles are short and specific. Never use placeholders such as "Chapter 1", "Part 2" or bare numbers.
- Return at most %d chapters.

Respond with a single JSON array and nothing else, no prose and no code fences:
[{"segmentIndex": 0, "title": "..."}]`

const textInstruction = `You split a video into chapters for its description.

You receive the full transcript of the video.
Rules:
- Detect topic transitions. Chapters are at least 60 seconds apart.
- The first chapter starts at 0:00.
- List chapters in chronological order with times formatted M:SS, or H:MM:SS past one hour.
- Write titles in %s, never translated, at most %d characters.
- Never use placeholders such as "Chapter 1", "Part 2" or bare numbers.
- Return at most %d chapters.

Respond with a single JSON array and nothing else, no prose and no code fences:
[{"time": "0:00", "title": "..."}]`

// languageName returns the name used in prompts for an ISO code.
func languageName(code string) string {
	if code == "" {
		return "the original language of the transcript"
	}
	return lang.DisplayName(code)
}

// segmentsPrompt numbers each segment so the model can anchor titles to it.
func segmentsPrompt(segments []transcribe.Segment, language string) llm.Prompt {
	var b strings.Builder
	for i, s := range segments {
		fmt.Fprintf(&b, "[%d] %s %s\n", i, format.Timestamp(int(s.Time)), s.Text)
	}
	return llm.Prompt{
		System: fmt.Sprintf(segmentsInstruction, languageName(language), MaxChapters),
		User:   b.String(),
	}
}

func textPrompt(transcript, language string) llm.Prompt {
	return llm.Prompt{
		System: fmt.Sprintf(textInstruction, languageName(language), MaxTitleLength, MaxChapters),
		User:   transcript,
	}
}
