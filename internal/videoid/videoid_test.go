package videoid_test

import (
	"errors"
	"testing"

	"github.com/alnah/go-chapters/internal/videoid"
)

func TestParse(t *testing.T) {
	t.Parallel()

	const id = "dQw4w9WgXcQ"

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "bare id", input: id},
		{name: "bare id with spaces", input: "  " + id + "\n"},
		{name: "watch url", input: "https://www.youtube.com/watch?v=" + id},
		{name: "watch url with extra params", input: "https://youtube.com/watch?feature=share&v=" + id + "&t=42"},
		{name: "mobile", input: "https://m.youtube.com/watch?v=" + id},
		{name: "short link", input: "https://youtu.be/" + id},
		{name: "short link with time", input: "https://youtu.be/" + id + "?t=10"},
		{name: "shorts", input: "https://www.youtube.com/shorts/" + id},
		{name: "embed", input: "https://www.youtube.com/embed/" + id},
		{name: "too short", input: "abc", wantErr: true},
		{name: "other host", input: "https://vimeo.com/" + id, wantErr: true},
		{name: "channel url", input: "https://www.youtube.com/@somechannel", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := videoid.Parse(tt.input)
			if tt.wantErr {
				if !errors.Is(err, videoid.ErrInvalid) {
					t.Errorf("Parse(%q) error = %v, want ErrInvalid", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != id {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, got, id)
			}
		})
	}
}

func TestURL(t *testing.T) {
	t.Parallel()

	if got := videoid.URL("dQw4w9WgXcQ"); got != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("URL() = %q", got)
	}
}
