package tokens_test

import (
	"slices"
	"testing"

	"github.com/JaimeStill/vera/internal/tokens"
)

func defaultClassifier(t *testing.T) *tokens.Classifier {
	t.Helper()
	cfg := tokens.Config{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	return tokens.NewClassifier(cfg)
}

func TestClassifier_Label(t *testing.T) {
	c := defaultClassifier(t)

	tests := []struct {
		score float64
		want  tokens.Label
	}{
		{1.0, tokens.LabelTrusted},
		{0.92, tokens.LabelTrusted},
		{0.9199, tokens.LabelMedium},
		{0.80, tokens.LabelMedium},
		{0.7999, tokens.LabelLow},
		{0, tokens.LabelLow},
	}

	for _, tt := range tests {
		if got := c.Label(tt.score); got != tt.want {
			t.Errorf("Label(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestClassifier_CustomThresholds(t *testing.T) {
	c := tokens.NewClassifier(tokens.Config{HighThreshold: 0.5, LowThreshold: 0.3})

	if got := c.Label(0.6); got != tokens.LabelTrusted {
		t.Errorf("Label(0.6) = %q, want trusted", got)
	}
	if got := c.Label(0.4); got != tokens.LabelMedium {
		t.Errorf("Label(0.4) = %q, want medium", got)
	}
}

func TestClassifier_Flags(t *testing.T) {
	c := defaultClassifier(t)

	tests := []struct {
		name      string
		text      string
		ambiguous bool
		want      []tokens.Flag
	}{
		{"plain word", "Widget", false, []tokens.Flag{}},
		{"empty", "   ", false, []tokens.Flag{tokens.FlagEmptyText}},
		{"engine ambiguity", "Widget", true, []tokens.Flag{tokens.FlagAmbiguous}},
		{"replacement char", "Wid�get", false, []tokens.Flag{tokens.FlagSuspiciousCharacters}},
		{"control char", "a\x07b", false, []tokens.Flag{tokens.FlagSuspiciousCharacters}},
		{"confusable digits", "1O0", false, []tokens.Flag{tokens.FlagSuspiciousCharacters}},
		{"alphanumeric code", "AB12", false, []tokens.Flag{}},
		{"currency", "$1,250.00", false, []tokens.Flag{tokens.FlagCurrencyAmount}},
		{"iso date", "2024-03-15", false, []tokens.Flag{tokens.FlagDate}},
		{"slash date", "3/15/2024", false, []tokens.Flag{tokens.FlagDate}},
		{"total", "TOTAL", false, []tokens.Flag{tokens.FlagTotalKeyword}},
		{"invoice", "INV#1234", false, []tokens.Flag{tokens.FlagInvoiceNumber}},
		{"malformed price", "12.5", false, []tokens.Flag{tokens.FlagMalformedPrice}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Flags(tt.text, tt.ambiguous)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Flags(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestClassifier_Classify_ForcedIndependentOfLabel(t *testing.T) {
	c := defaultClassifier(t)

	trustedForced := c.Classify("t1", 0, 0, tokens.Candidate{Text: "$10.00", Confidence: 0.99})
	if trustedForced.Label != tokens.LabelTrusted || !trustedForced.ForcedReview {
		t.Errorf("got label=%q forced=%v, want trusted forced", trustedForced.Label, trustedForced.ForcedReview)
	}

	lowUnforced := c.Classify("t2", 0, 1, tokens.Candidate{Text: "Widget", Confidence: 0.4})
	if lowUnforced.Label != tokens.LabelLow || lowUnforced.ForcedReview {
		t.Errorf("got label=%q forced=%v, want low unforced", lowUnforced.Label, lowUnforced.ForcedReview)
	}
	if !lowUnforced.Required() {
		t.Error("low confidence token is not required")
	}
	if lowUnforced.OriginalText != lowUnforced.Text {
		t.Error("classified token text differs from original")
	}
}

func TestRequiredIDs_Unreviewed(t *testing.T) {
	toks := []tokens.Token{
		{ID: "a", Label: tokens.LabelTrusted},
		{ID: "b", Label: tokens.LabelLow},
		{ID: "c", Label: tokens.LabelMedium, Reviewed: true},
		{ID: "d", Label: tokens.LabelTrusted, ForcedReview: true},
		{ID: "e", Label: tokens.LabelTrusted},
	}

	if got := tokens.RequiredIDs(toks); !slices.Equal(got, []string{"b", "c", "d"}) {
		t.Errorf("RequiredIDs() = %v, want [b c d]", got)
	}
	if got := tokens.Unreviewed(toks); !slices.Equal(got, []string{"b", "d"}) {
		t.Errorf("Unreviewed() = %v, want [b d]", got)
	}
	if got := tokens.CountForced(toks); got != 1 {
		t.Errorf("CountForced() = %d, want 1", got)
	}
}

func TestSortSeverity(t *testing.T) {
	toks := []tokens.Token{
		{ID: "trusted", LineIndex: 0, TokenIndex: 0, Label: tokens.LabelTrusted},
		{ID: "forced", LineIndex: 0, TokenIndex: 1, Label: tokens.LabelTrusted, ForcedReview: true},
		{ID: "medium", LineIndex: 1, TokenIndex: 0, Label: tokens.LabelMedium},
		{ID: "low-late", LineIndex: 2, TokenIndex: 0, Label: tokens.LabelLow},
		{ID: "low-early", LineIndex: 0, TokenIndex: 2, Label: tokens.LabelLow, ForcedReview: true},
	}

	tokens.SortSeverity(toks)

	var got []string
	for _, tok := range toks {
		got = append(got, tok.ID)
	}

	want := []string{"low-early", "low-late", "forced", "trusted", "medium"}
	if !slices.Equal(got, want) {
		t.Errorf("SortSeverity() order = %v, want %v", got, want)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     tokens.Config
		wantErr bool
	}{
		{"defaults", tokens.Config{}, false},
		{"inverted", tokens.Config{HighThreshold: 0.5, LowThreshold: 0.9}, true},
		{"above one", tokens.Config{HighThreshold: 1.5, LowThreshold: 0.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if err := cfg.Finalize(nil); (err != nil) != tt.wantErr {
				t.Errorf("Finalize() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
