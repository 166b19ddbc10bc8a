package ocr

import (
	"cmp"
	"encoding/hex"
	"fmt"
	"math"
	"slices"

	"github.com/JaimeStill/vera/internal/tokens"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/unicode/norm"
)

// LineThreshold is the vertical distance in pixels within which words join
// the current line.
const LineThreshold = 12.0

// GroupLines orders candidates into lines top to bottom, each line left to
// right. A word joins the current line when its top edge is within threshold
// of the line's running average.
func GroupLines(cands []tokens.Candidate, threshold float64) [][]tokens.Candidate {
	if len(cands) == 0 {
		return nil
	}

	sorted := slices.Clone(cands)
	slices.SortStableFunc(sorted, func(a, b tokens.Candidate) int {
		if c := cmp.Compare(a.BBox.Y, b.BBox.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.BBox.X, b.BBox.X)
	})

	var (
		lines   [][]tokens.Candidate
		current []tokens.Candidate
		lineY   float64
	)
	flush := func() {
		slices.SortStableFunc(current, func(a, b tokens.Candidate) int {
			return cmp.Compare(a.BBox.X, b.BBox.X)
		})
		lines = append(lines, current)
	}

	for _, c := range sorted {
		y := c.BBox.Y
		switch {
		case current == nil:
			current = []tokens.Candidate{c}
			lineY = y
		case math.Abs(y-lineY) <= threshold:
			current = append(current, c)
			lineY = (lineY + y) / 2
		default:
			flush()
			current = []tokens.Candidate{c}
			lineY = y
		}
	}
	flush()

	return lines
}

// TokenID is stable for a word position: line, index and a hash of the box.
func TokenID(line, index int, b tokens.BBox) string {
	sum := blake2b.Sum256(fmt.Appendf(nil, "%g-%g-%g-%g", b.X, b.Y, b.Width, b.Height))
	return fmt.Sprintf("l%d-t%d-%s", line, index, hex.EncodeToString(sum[:])[:10])
}

// Tokenize groups candidates into lines, normalizes their text to NFC and
// classifies each one.
func Tokenize(cands []tokens.Candidate, c *tokens.Classifier) []tokens.Token {
	var toks []tokens.Token
	for li, line := range GroupLines(cands, LineThreshold) {
		for ti, cand := range line {
			cand.Text = norm.NFC.String(cand.Text)
			toks = append(toks, c.Classify(TokenID(li, ti, cand.BBox), li, ti, cand))
		}
	}
	return toks
}
