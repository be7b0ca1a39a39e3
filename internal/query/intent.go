package query

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"campuspulse/pkg/contracts/domain"
)

// Intent is the kind of answer a free-text question asks for.
type Intent string

const (
	IntentPrediction  Intent = "prediction"
	IntentGrowth      Intent = "growth"
	IntentAnomaly     Intent = "anomaly"
	IntentSeasonal    Intent = "seasonal"
	IntentCorrelation Intent = "correlation"
	IntentSummary     Intent = "summary"
	IntentHelp        Intent = "help"
)

// Horizon bounds for forecasts requested in free text.
const (
	DefaultHorizon = 3
	MaxHorizon     = 24
)

// Request is a classified question.
type Request struct {
	Intent  Intent         `json:"intent"`
	Field   domain.Field   `json:"field,omitempty"`
	Pair    []domain.Field `json:"pair,omitempty"`
	Horizon int            `json:"horizon,omitempty"`
}

var horizonPattern = regexp.MustCompile(`\b(\d{1,2})\b`)

// fieldKeywords is checked top to bottom; the first field mentioned in this order
// is the field a question is about.
var fieldKeywords = []struct {
	field    domain.Field
	keywords []string
}{
	{domain.FieldTotalStudents, []string{"student", "enrol", "enrollment", "admission", "intake"}},
	{domain.FieldTotalPaid, []string{"revenue", "paid", "fee", "income", "collection"}},
	{domain.FieldOffered, []string{"placement", "placed", "offer"}},
	{domain.FieldJavaFS, []string{"java"}},
	{domain.FieldPythonFS, []string{"python"}},
	{domain.FieldTotalPending, []string{"pending", "outstanding"}},
	{domain.FieldDropped, []string{"drop"}},
	{domain.FieldInterested, []string{"interest"}},
}

var (
	// strongPrediction words ask for a forecast on their own; weakPrediction
	// words only do when a field is named as well.
	strongPrediction = []string{"predict", "forecast", "projection"}
	weakPrediction   = []string{"project", "next", "future", "will"}

	growthWords      = []string{"growth", "grow", "trend"}
	anomalyWords     = []string{"anomal", "outlier", "unusual", "spike"}
	seasonalWords    = []string{"season", "peak", "best month", "monthly pattern"}
	correlationWords = []string{"correlat", "relation"}
	summaryWords     = []string{"summary", "summarize", "summarise", "overview", "stats", "statistic", "report"}
)

// Classify assigns an intent by keyword with a fixed priority: a prediction of a
// named field, then growth, anomaly, seasonal, correlation and summary. Text that
// matches none of them is IntentHelp.
func Classify(text string) Request {
	return classify(text, DefaultHorizon)
}

func classify(text string, defaultHorizon int) Request {
	q := newQuestion(text)
	fields := q.fields()

	field := domain.FieldTotalStudents
	if len(fields) > 0 {
		field = fields[0]
	}

	switch {
	case q.mentions(strongPrediction...) || (len(fields) > 0 && q.mentions(weakPrediction...)):
		return Request{Intent: IntentPrediction, Field: field, Horizon: extractHorizon(text, defaultHorizon)}
	case q.mentions(growthWords...):
		return Request{Intent: IntentGrowth, Field: field}
	case q.mentions(anomalyWords...):
		return Request{Intent: IntentAnomaly, Field: field}
	case q.mentions(seasonalWords...):
		return Request{Intent: IntentSeasonal, Field: field}
	case q.mentions(correlationWords...):
		return Request{Intent: IntentCorrelation, Pair: correlationPair(fields)}
	case q.mentions(summaryWords...):
		return Request{Intent: IntentSummary}
	}
	return Request{Intent: IntentHelp}
}

// extractHorizon returns the first standalone one or two digit number in the
// text when it lies in [1, MaxHorizon], otherwise def.
func extractHorizon(text string, def int) int {
	for _, m := range horizonPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 && n <= MaxHorizon {
			return n
		}
	}
	return def
}

func correlationPair(fields []domain.Field) []domain.Field {
	switch {
	case len(fields) >= 2:
		return fields[:2]
	case len(fields) == 1 && fields[0] != domain.FieldTotalStudents:
		return []domain.Field{domain.FieldTotalStudents, fields[0]}
	default:
		return []domain.Field{domain.FieldTotalStudents, domain.FieldTotalPaid}
	}
}

type question struct {
	words  []string
	joined string
}

func newQuestion(text string) question {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return question{words: words, joined: strings.Join(words, " ")}
}

// mentions reports whether any keyword starts a word, or for multi-word
// keywords, appears as a phrase.
func (q question) mentions(keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(k, " ") {
			if strings.Contains(q.joined, k) {
				return true
			}
			continue
		}
		for _, w := range q.words {
			if strings.HasPrefix(w, k) {
				return true
			}
		}
	}
	return false
}

func (q question) fields() []domain.Field {
	var out []domain.Field
	for _, fk := range fieldKeywords {
		if q.mentions(fk.keywords...) {
			out = append(out, fk.field)
		}
	}
	return out
}
