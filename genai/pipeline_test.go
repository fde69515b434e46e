package genai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gotest.tools/assert"
)

type stub struct {
	reply   string
	err     error
	prompts []string
}

func (s *stub) Generate(ctx context.Context, prompt string, image *Image) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func TestParseReceiptImage(t *testing.T) {
	ctx := context.Background()
	image := Image{Data: []byte("fake"), MimeType: "image/png"}

	// transport error propagates
	g := &stub{err: errors.New("err-transport")}
	_, _, err := ParseReceiptImage(ctx, g, image)
	assert.Equal(t, "err-transport", err.Error())

	// fenced and unfenced replies parse identically
	raw := `{"amount": 25.5, "currency": "USD", "merchant": "Cafe", "date": "2025-02-01", "items": ["coffee"], "description": "Coffee"}`
	g = &stub{reply: raw}
	plain, contentErr, err := ParseReceiptImage(ctx, g, image)
	assert.Equal(t, nil, err)
	assert.Equal(t, "", contentErr)

	g = &stub{reply: "```json\n" + raw + "\n```"}
	fenced, contentErr, err := ParseReceiptImage(ctx, g, image)
	assert.Equal(t, nil, err)
	assert.Equal(t, "", contentErr)
	assert.DeepEqual(t, plain, fenced)
	assert.Equal(t, 25.5, fenced.Amount)
	assert.Equal(t, "Cafe", fenced.Merchant)
	assert.Equal(t, 1, len(fenced.Items))

	// model-flagged error propagates as content error, not a failure
	g = &stub{reply: `{"error": "Could not parse receipt"}`}
	parsed, contentErr, err := ParseReceiptImage(ctx, g, image)
	assert.Equal(t, nil, err)
	assert.Equal(t, "Could not parse receipt", contentErr)
	assert.Assert(t, parsed == nil)

	// garbage reply
	g = &stub{reply: "sorry, I cannot read this"}
	parsed, contentErr, err = ParseReceiptImage(ctx, g, image)
	assert.Equal(t, nil, err)
	assert.Equal(t, "Failed to parse AI response", contentErr)
	assert.Assert(t, parsed == nil)

	// string amount is coerced
	g = &stub{reply: `{"amount": "42.10", "currency": "EUR"}`}
	parsed, contentErr, err = ParseReceiptImage(ctx, g, image)
	assert.Equal(t, nil, err)
	assert.Equal(t, "", contentErr)
	assert.Equal(t, 42.10, parsed.Amount)
}

func TestCategorize(t *testing.T) {
	ctx := context.Background()

	g := &stub{reply: `{"category": "Food", "confidence": 0.93}`}
	suggestion, err := Categorize(ctx, g, "lunch at diner", []string{"Food", "Transport"})
	assert.Equal(t, nil, err)
	assert.Equal(t, "Food", suggestion.Category)
	assert.Equal(t, 0.93, suggestion.Confidence)
	assert.Assert(t, strings.Contains(g.prompts[0], "Food, Transport"))

	// missing confidence defaults to 0.8
	g = &stub{reply: `{"category": "Transport"}`}
	suggestion, err = Categorize(ctx, g, "uber", nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, "Transport", suggestion.Category)
	assert.Equal(t, 0.8, suggestion.Confidence)

	// empty vocabulary falls back to the default one
	assert.Assert(t, strings.Contains(g.prompts[0], "Food, Transport, Shopping, Bills, Entertainment, Health, Other"))

	// unparseable reply falls back to Other/0.5
	g = &stub{reply: "not json"}
	suggestion, err = Categorize(ctx, g, "mystery", nil)
	assert.Equal(t, nil, err)
	assert.Equal(t, "Other", suggestion.Category)
	assert.Equal(t, 0.5, suggestion.Confidence)

	g = &stub{err: errors.New("err-transport")}
	_, err = Categorize(ctx, g, "lunch", nil)
	assert.Equal(t, "err-transport", err.Error())
}

func TestParseExpenseText(t *testing.T) {
	ctx := context.Background()
	today := time.Date(2025, 2, 21, 10, 30, 0, 0, time.UTC)

	// placeholder date token resolves to today
	g := &stub{reply: `{"amount":30,"currency":"USD","description":"Uber","date":"<today>","category":"Transport"}`}
	parsed, err := ParseExpenseText(ctx, g, "$30 Uber", today)
	assert.Equal(t, nil, err)
	assert.Equal(t, "2025-02-21", parsed.Date)
	assert.Equal(t, float64(30), parsed.Amount)
	assert.Equal(t, "Transport", parsed.Category)
	assert.Assert(t, strings.Contains(g.prompts[0], "Today is 2025-02-21."))

	g = &stub{reply: `{"amount":50,"currency":"INR","description":"Chai","date":"today","category":"Food"}`}
	parsed, err = ParseExpenseText(ctx, g, "50 INR chai", today)
	assert.Equal(t, nil, err)
	assert.Equal(t, "2025-02-21", parsed.Date)

	// missing fields take defaults
	g = &stub{reply: `{"amount": 12}`}
	parsed, err = ParseExpenseText(ctx, g, "12 bucks", today)
	assert.Equal(t, nil, err)
	assert.Equal(t, "USD", parsed.Currency)
	assert.Equal(t, "12 bucks", parsed.Description)
	assert.Equal(t, "Other", parsed.Category)
	assert.Equal(t, "2025-02-21", parsed.Date)

	// unusable reply yields nil without error
	g = &stub{reply: "no idea"}
	parsed, err = ParseExpenseText(ctx, g, "???", today)
	assert.Equal(t, nil, err)
	assert.Assert(t, parsed == nil)

	g = &stub{err: errors.New("err-transport")}
	_, err = ParseExpenseText(ctx, g, "$30 Uber", today)
	assert.Equal(t, "err-transport", err.Error())
}

func TestDetectAnomalies(t *testing.T) {
	ctx := context.Background()

	g := &stub{reply: `[{"type":"high_spend","message":"Food doubled","severity":"medium"},{"type":"","message":"dropped"}]`}
	anomalies, err := DetectAnomalies(ctx, g, "summary")
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(anomalies))
	assert.Equal(t, "high_spend", anomalies[0].Type)
	assert.Equal(t, "medium", anomalies[0].Severity)

	// non-array reply yields an empty list, never an error
	g = &stub{reply: `{"type":"high_spend"}`}
	anomalies, err = DetectAnomalies(ctx, g, "summary")
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(anomalies))

	g = &stub{err: errors.New("err-transport")}
	_, err = DetectAnomalies(ctx, g, "summary")
	assert.Equal(t, "err-transport", err.Error())
}

func TestInsights(t *testing.T) {
	ctx := context.Background()

	g := &stub{reply: "```json\n[\"tip one\", 42, \"tip two\"]\n```"}
	insights, err := Insights(ctx, g, "summary")
	assert.Equal(t, nil, err)
	assert.DeepEqual(t, []string{"tip one", "tip two"}, insights)

	g = &stub{reply: "plain prose"}
	insights, err = Insights(ctx, g, "summary")
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, len(insights))
}

func TestMonthlyReportAndChat(t *testing.T) {
	ctx := context.Background()

	g := &stub{reply: "You spent less this month."}
	report, err := MonthlyReport(ctx, g, "summary text")
	assert.Equal(t, nil, err)
	assert.Equal(t, "You spent less this month.", report)
	assert.Assert(t, strings.Contains(g.prompts[0], "summary text"))

	g = &stub{reply: "You spent USD 40 on food."}
	answer, err := AnswerQuestion(ctx, g, "how much on food?", "summary text")
	assert.Equal(t, nil, err)
	assert.Equal(t, "You spent USD 40 on food.", answer)
	assert.Assert(t, strings.Contains(g.prompts[0], "summary text"))
	assert.Assert(t, strings.Contains(g.prompts[0], "how much on food?"))
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
	assert.Equal(t, `[1,2]`, stripFences("```\n[1,2]\n```"))
}
