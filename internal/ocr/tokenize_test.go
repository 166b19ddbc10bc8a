package ocr_test

import (
	"regexp"
	"testing"

	"github.com/JaimeStill/vera/internal/ocr"
	"github.com/JaimeStill/vera/internal/tokens"
)

func cand(text string, x, y, conf float64) tokens.Candidate {
	return tokens.Candidate{
		Text:       text,
		Confidence: conf,
		BBox:       tokens.BBox{X: x, Y: y, Width: 40, Height: 12},
	}
}

func texts(lines [][]tokens.Candidate) [][]string {
	out := make([][]string, len(lines))
	for i, line := range lines {
		for _, c := range line {
			out[i] = append(out[i], c.Text)
		}
	}
	return out
}

func TestGroupLines(t *testing.T) {
	tests := []struct {
		name  string
		cands []tokens.Candidate
		want  [][]string
	}{
		{
			name: "empty",
			want: [][]string{},
		},
		{
			name: "single line ordered by x",
			cands: []tokens.Candidate{
				cand("world", 60, 10, 0.9),
				cand("hello", 10, 12, 0.9),
			},
			want: [][]string{{"hello", "world"}},
		},
		{
			name: "two lines",
			cands: []tokens.Candidate{
				cand("total", 10, 40, 0.9),
				cand("vendor", 10, 10, 0.9),
				cand("acme", 70, 14, 0.9),
				cand("$25.00", 70, 41, 0.9),
			},
			want: [][]string{{"vendor", "acme"}, {"total", "$25.00"}},
		},
		{
			name: "beyond threshold starts a new line",
			cands: []tokens.Candidate{
				cand("a", 10, 10, 0.9),
				cand("b", 20, 23, 0.9),
			},
			want: [][]string{{"a"}, {"b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := texts(ocr.GroupLines(tt.cands, ocr.LineThreshold))
			if len(got) != len(tt.want) {
				t.Fatalf("lines = %v, want %v", got, tt.want)
			}
			for i := range got {
				if len(got[i]) != len(tt.want[i]) {
					t.Fatalf("line %d = %v, want %v", i, got[i], tt.want[i])
				}
				for j := range got[i] {
					if got[i][j] != tt.want[i][j] {
						t.Errorf("line %d word %d = %q, want %q", i, j, got[i][j], tt.want[i][j])
					}
				}
			}
		})
	}
}

func TestTokenID(t *testing.T) {
	box := tokens.BBox{X: 10, Y: 20, Width: 30, Height: 12}

	id := ocr.TokenID(2, 3, box)
	if !regexp.MustCompile(`^l2-t3-[0-9a-f]{10}$`).MatchString(id) {
		t.Errorf("TokenID = %q", id)
	}
	if again := ocr.TokenID(2, 3, box); again != id {
		t.Errorf("TokenID not stable: %q != %q", again, id)
	}
	if other := ocr.TokenID(2, 3, tokens.BBox{X: 11, Y: 20, Width: 30, Height: 12}); other == id {
		t.Error("different boxes produced the same id")
	}
}

func TestTokenize(t *testing.T) {
	classifier := tokens.NewClassifier(tokens.Config{HighThreshold: 0.92, LowThreshold: 0.80})

	toks := ocr.Tokenize([]tokens.Candidate{
		cand("Cafe\u0301", 10, 10, 0.97),
		cand("$25.00", 70, 10, 0.97),
		cand("notes", 10, 40, 0.5),
	}, classifier)

	if len(toks) != 3 {
		t.Fatalf("len = %d, want 3", len(toks))
	}

	tests := []struct {
		name   string
		tok    tokens.Token
		text   string
		line   int
		index  int
		label  tokens.Label
		forced bool
	}{
		{"normalized", toks[0], "Caf\u00e9", 0, 0, tokens.LabelTrusted, false},
		{"currency flagged", toks[1], "$25.00", 0, 1, tokens.LabelTrusted, true},
		{"low confidence", toks[2], "notes", 1, 0, tokens.LabelLow, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tok.Text != tt.text || tt.tok.OriginalText != tt.text {
				t.Errorf("text = %q/%q, want %q", tt.tok.Text, tt.tok.OriginalText, tt.text)
			}
			if tt.tok.LineIndex != tt.line || tt.tok.TokenIndex != tt.index {
				t.Errorf("position = %d/%d, want %d/%d", tt.tok.LineIndex, tt.tok.TokenIndex, tt.line, tt.index)
			}
			if tt.tok.Label != tt.label {
				t.Errorf("label = %s, want %s", tt.tok.Label, tt.label)
			}
			if tt.tok.ForcedReview != tt.forced {
				t.Errorf("forced = %v, want %v", tt.tok.ForcedReview, tt.forced)
			}
			if tt.tok.ID != ocr.TokenID(tt.line, tt.index, tt.tok.BBox) {
				t.Errorf("id = %q", tt.tok.ID)
			}
		})
	}
}
