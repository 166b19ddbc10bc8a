package summaries

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/JaimeStill/vera/internal/documents"
)

const maxListed = 5

var (
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{4}[-/.]\d{2}[-/.]\d{2}\b`),
		regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
		regexp.MustCompile(`(?i)\b(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\s+\d{1,2},?\s+\d{2,4}\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\s+\d{2,4}\b`),
		regexp.MustCompile(`\b\d{1,2}[.]\d{1,2}[.]\d{2,4}\b`),
	}

	currencySymbol = regexp.MustCompile(`(?:£|\$|€)\s*\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{2})`)
	currencyCode   = regexp.MustCompile(`(?i)\b(?:USD|AUD|CAD|GBP|EUR)\s*\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{2})\b`)
	plainAmount    = regexp.MustCompile(`\b\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{2})\b`)
	codePrefix     = regexp.MustCompile(`(?i)\b(USD|AUD|CAD|GBP|EUR)\b`)
	quantity       = regexp.MustCompile(`\b\d+\s*(x|qty|quantity)\b`)

	invoicePattern = regexp.MustCompile(`(?i)\b(?:invoice|receipt|order|po|purchase order|reference|ref|ticket)\s*(?:no\.?|number|#|id)?\s*[:#]?\s*([A-Za-z0-9-]{3,})`)
	taxPattern     = regexp.MustCompile(`(?i)\b(?:vat|tax)\s*(?:id|number|no\.?)\s*[:#]?\s*([A-Za-z0-9-]{5,})`)
	emailPattern   = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern   = regexp.MustCompile(`\b(?:\+?\d{1,3}[\s.-]?)?(?:\(?\d{2,4}\)?[\s.-]?)?\d{3,4}[\s.-]?\d{4}\b`)
	wordPattern    = regexp.MustCompile(`[A-Za-z][A-Za-z0-9'-]+`)
)

var (
	totalTerms    = []string{"total", "amount due", "balance due", "grand total", "total due"}
	subtotalTerms = []string{"subtotal", "sub total", "tax", "vat", "amount", "balance", "due"}
	pickTotalTerm = []string{"total", "amount due", "balance due", "amount", "grand total", "total due"}
	vendorSkip    = []string{"invoice", "receipt", "statement", "report", "form", "application"}
	itemSkip      = []string{"total", "subtotal", "tax", "amount due", "balance", "invoice", "receipt"}

	stopwords = map[string]bool{
		"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
		"be": true, "by": true, "for": true, "from": true, "has": true, "in": true,
		"is": true, "it": true, "of": true, "on": true, "or": true, "that": true,
		"the": true, "to": true, "was": true, "were": true, "will": true, "with": true,
	}
)

type docSignal struct {
	label    string
	keywords []string
}

var docSignals = []docSignal{
	{"Invoice/Receipt", []string{"invoice", "receipt", "subtotal", "total", "amount due", "balance due", "vat", "tax", "paid"}},
	{"Statement", []string{"statement", "account", "transactions", "balance", "opening balance", "closing balance"}},
	{"Purchase order", []string{"purchase order", "po number", "ship to", "bill to"}},
	{"Shipping/Delivery", []string{"tracking", "shipment", "delivered", "carrier", "shipping label"}},
	{"Legal/Contract", []string{"agreement", "contract", "terms", "party", "liability"}},
	{"Form/Application", []string{"application", "form", "please fill", "checkbox", "signature"}},
	{"Report", []string{"report", "summary", "analysis", "findings"}},
	{"Letter/Correspondence", []string{"dear", "sincerely", "regards"}},
	{"ID/Certificate", []string{"certificate", "issued", "id number", "passport", "license"}},
}

// Analysis is everything the deterministic extractor finds in validated text.
type Analysis struct {
	Lines          []string
	WordCount      int
	Dates          []string
	Amounts        []string
	InvoiceNumbers []string
	TaxIDs         []string
	Emails         []string
	Phones         []string
	Keywords       []string
	DocumentType   string
	TypeConfidence string
	Points         []string
}

// Analyze runs the deterministic extractor over validated text.
func Analyze(text string) *Analysis {
	a := &Analysis{}
	for line := range strings.SplitSeq(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			a.Lines = append(a.Lines, line)
			a.WordCount += len(strings.Fields(line))
		}
	}

	a.Dates = a.findDates()
	a.Amounts = a.findAmounts()

	var invoices, taxes, emails, phones ordered
	for _, line := range a.Lines {
		for _, m := range invoicePattern.FindAllStringSubmatch(line, -1) {
			invoices.add(m[1])
		}
		for _, m := range taxPattern.FindAllStringSubmatch(line, -1) {
			taxes.add(m[1])
		}
		for _, m := range emailPattern.FindAllString(line, -1) {
			emails.add(m)
		}
		for _, m := range phonePattern.FindAllString(line, -1) {
			phones.add(m)
		}
	}
	a.InvoiceNumbers = invoices.values
	a.TaxIDs = taxes.values
	a.Emails = emails.values
	a.Phones = phones.values

	a.DocumentType, a.TypeConfidence = a.classify()
	a.Keywords = keywords(text)
	a.Points = a.points()
	return a
}

// Summary renders the analysis. Non-empty points replace the extracted
// summary points.
func (a *Analysis) Summary(points []string) *Summary {
	if len(points) == 0 {
		points = a.Points
	}

	pointsText := "No text detected"
	if len(points) > 0 {
		pointsText = strings.Join(points, " | ")
	}

	fields := map[string]string{
		documents.FieldLineCount:              strconv.Itoa(len(a.Lines)),
		documents.FieldWordCount:              strconv.Itoa(a.WordCount),
		documents.FieldSummaryPoints:          pointsText,
		documents.FieldDates:                  listed(a.Dates),
		documents.FieldAmounts:                listed(a.Amounts),
		documents.FieldInvoiceNumbers:         listed(a.InvoiceNumbers),
		documents.FieldEmails:                 listed(a.Emails),
		documents.FieldPhones:                 listed(a.Phones),
		documents.FieldTaxIDs:                 listed(a.TaxIDs),
		documents.FieldDocumentType:           a.DocumentType,
		documents.FieldDocumentTypeConfidence: a.TypeConfidence,
		documents.FieldKeywords:               listed(a.Keywords),
	}

	return &Summary{
		BulletSummary:    Bullets(fields),
		StructuredFields: fields,
	}
}

// Bullets formats the bullet summary from structured fields, so user edits
// to the fields show up in the bullets too.
func Bullets(fields map[string]string) []string {
	return []string{
		fmt.Sprintf("Overview: %s lines · %s words", fields[documents.FieldLineCount], fields[documents.FieldWordCount]),
		fmt.Sprintf("Document type: %s (%s)", fields[documents.FieldDocumentType], fields[documents.FieldDocumentTypeConfidence]),
		fmt.Sprintf("Summary points: %s", fields[documents.FieldSummaryPoints]),
		fmt.Sprintf("Keywords: %s", fields[documents.FieldKeywords]),
		fmt.Sprintf("Dates detected: %s", fields[documents.FieldDates]),
		fmt.Sprintf("Amounts detected: %s", fields[documents.FieldAmounts]),
		"All low-confidence items reviewed by user",
	}
}

func (a *Analysis) findDates() []string {
	var dates ordered
	for _, line := range a.Lines {
		for _, p := range datePatterns {
			for _, m := range p.FindAllString(line, -1) {
				dates.add(m)
			}
		}
	}
	return dates.values
}

func (a *Analysis) findAmounts() []string {
	var amounts ordered
	add := func(values []string) {
		for _, v := range values {
			amounts.add(normalizeAmount(v))
		}
	}

	for _, line := range a.Lines {
		if containsAny(strings.ToLower(line), totalTerms) {
			add(amountsIn(line, true))
		}
	}
	for _, line := range a.Lines {
		if containsAny(strings.ToLower(line), subtotalTerms) {
			add(amountsIn(line, true))
		}
	}
	for _, line := range a.Lines {
		add(amountsIn(line, false))
	}
	return amounts.values
}

func (a *Analysis) classify() (string, string) {
	blob := strings.ToLower(strings.Join(a.Lines, "\n"))
	label, best := "Unknown", 0
	for _, sig := range docSignals {
		hits := 0
		for _, k := range sig.keywords {
			if strings.Contains(blob, k) {
				hits++
			}
		}
		if hits > best {
			label, best = sig.label, hits
		}
	}

	switch {
	case best >= 3:
		return label, "high"
	case best == 2:
		return label, "medium"
	default:
		return label, "low"
	}
}

func (a *Analysis) points() []string {
	var points []string
	if v := a.vendor(); v != "" {
		points = append(points, "Vendor: "+v)
	}
	if len(a.Dates) > 0 {
		points = append(points, "Date: "+a.Dates[0])
	}
	if t := a.total(); t != "" {
		points = append(points, "Total: "+t)
	}
	if items := a.items(); len(items) > 0 {
		points = append(points, "Items: "+strings.Join(items, "; "))
	}
	if len(points) == 0 && len(a.Lines) > 0 {
		points = slices.Clone(a.Lines[:min(3, len(a.Lines))])
	}
	return points
}

func (a *Analysis) vendor() string {
	for _, line := range a.Lines[:min(5, len(a.Lines))] {
		if containsAny(strings.ToLower(line), vendorSkip) {
			continue
		}
		letters := 0
		for _, r := range line {
			if unicode.IsLetter(r) {
				letters++
			}
		}
		if letters < 3 {
			continue
		}
		return line
	}
	return ""
}

func (a *Analysis) total() string {
	for _, line := range a.Lines {
		if containsAny(strings.ToLower(line), pickTotalTerm) {
			if m := amountsIn(line, true); len(m) > 0 {
				return m[len(m)-1]
			}
		}
	}
	if len(a.Amounts) > 0 {
		return a.Amounts[len(a.Amounts)-1]
	}
	return ""
}

func (a *Analysis) items() []string {
	var items []string
	for _, line := range a.Lines {
		lower := strings.ToLower(line)
		if containsAny(lower, itemSkip) {
			continue
		}
		hasPrice := currencySymbol.MatchString(line) || currencyCode.MatchString(line)
		if hasPrice || quantity.MatchString(lower) {
			items = append(items, line)
		}
		if len(items) >= 3 {
			break
		}
	}
	return items
}

func amountsIn(line string, plain bool) []string {
	values := currencySymbol.FindAllString(line, -1)
	values = append(values, currencyCode.FindAllString(line, -1)...)
	if plain {
		values = append(values, plainAmount.FindAllString(line, -1)...)
	}
	return values
}

// normalizeAmount strips thousands separators and uses '.' for decimals,
// keeping a leading currency symbol or code.
func normalizeAmount(value string) string {
	raw := strings.TrimSpace(value)
	prefix := ""

	if m := codePrefix.FindStringSubmatch(raw); m != nil {
		prefix = strings.ToUpper(m[1]) + " "
		raw = strings.TrimSpace(codePrefix.ReplaceAllString(raw, ""))
	}
	for _, sym := range []string{"$", "£", "€"} {
		if after, ok := strings.CutPrefix(raw, sym); ok {
			prefix = sym
			raw = strings.TrimSpace(after)
			break
		}
	}

	raw = strings.ReplaceAll(raw, " ", "")
	hasComma := strings.Contains(raw, ",")
	hasDot := strings.Contains(raw, ".")

	switch {
	case hasComma && hasDot:
		decimal, thousands := ".", ","
		if strings.LastIndex(raw, ",") > strings.LastIndex(raw, ".") {
			decimal, thousands = ",", "."
		}
		raw = strings.ReplaceAll(raw, thousands, "")
		raw = strings.ReplaceAll(raw, decimal, ".")
	case hasComma:
		parts := strings.Split(raw, ",")
		if len(parts[len(parts)-1]) == 2 {
			raw = strings.ReplaceAll(strings.ReplaceAll(raw, ".", ""), ",", ".")
		} else {
			raw = strings.ReplaceAll(raw, ",", "")
		}
	case hasDot:
		parts := strings.Split(raw, ".")
		if len(parts[len(parts)-1]) == 2 {
			raw = strings.ReplaceAll(raw, ",", "")
		} else {
			raw = strings.ReplaceAll(raw, ".", "")
		}
	}

	return strings.TrimSpace(prefix + raw)
}

func keywords(text string) []string {
	counts := map[string]int{}
	for _, w := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(w) < 3 || stopwords[w] {
			continue
		}
		counts[w]++
	}

	words := make([]string, 0, len(counts))
	for w := range counts {
		words = append(words, w)
	}
	slices.SortFunc(words, func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	return words[:min(maxListed, len(words))]
}

func listed(values []string) string {
	if len(values) == 0 {
		return documents.NotDetected
	}
	return strings.Join(values[:min(maxListed, len(values))], ", ")
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// ordered collects unique trimmed non-empty values in first-seen order.
type ordered struct {
	seen   map[string]bool
	values []string
}

func (o *ordered) add(v string) {
	v = strings.TrimSpace(v)
	if v == "" || o.seen[v] {
		return
	}
	if o.seen == nil {
		o.seen = map[string]bool{}
	}
	o.seen[v] = true
	o.values = append(o.values, v)
}
