package genai

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"expenseapi/models"
)

var defaultCategories = []string{"Food", "Transport", "Shopping", "Bills", "Entertainment", "Health", "Other"}

var dateFormat = "2006-01-02"

// ParseReceiptImage sends a receipt image to the model and parses the reply
// into receipt data. The string return carries model content errors (bad
// JSON, model refusal); the error return is reserved for transport failures.
func ParseReceiptImage(ctx context.Context, g Generator, image Image) (*models.ParsedReceiptData, string, error) {
	raw, err := g.Generate(ctx, receiptParsePrompt, &image)
	if err != nil {
		return nil, "", err
	}

	parsed, ok := parseObject(raw)
	if !ok {
		return nil, "Failed to parse AI response", nil
	}

	if msg := asString(parsed["error"], ""); msg != "" {
		return nil, msg, nil
	}

	return &models.ParsedReceiptData{
		Amount:      asFloat(parsed["amount"]),
		Currency:    asString(parsed["currency"], ""),
		Merchant:    asString(parsed["merchant"], ""),
		Date:        asString(parsed["date"], ""),
		Items:       asStrings(parsed["items"]),
		Description: asString(parsed["description"], ""),
	}, "", nil
}

// Categorize matches free text against the given category vocabulary. Content
// failures fall back to {Other, 0.5}; a reply that parses but omits the
// confidence gets 0.8.
func Categorize(ctx context.Context, g Generator, text string, categories []string) (models.CategorySuggestion, error) {
	list := categories
	if len(list) == 0 {
		list = defaultCategories
	}
	prompt := strings.Replace(categorizePrompt, "{categories}", strings.Join(list, ", "), 1) + text

	raw, err := g.Generate(ctx, prompt, nil)
	if err != nil {
		return models.CategorySuggestion{}, err
	}

	parsed, ok := parseObject(raw)
	if !ok {
		return models.CategorySuggestion{Category: "Other", Confidence: 0.5}, nil
	}

	suggestion := models.CategorySuggestion{
		Category:   asString(parsed["category"], "Other"),
		Confidence: 0.8,
	}

	if confidence, ok := parsed["confidence"].(float64); ok {
		suggestion.Confidence = confidence
	}

	return suggestion, nil
}

// ParseExpenseText parses a natural-language expense. The parser, not the
// model, is the source of truth for "today": placeholder date tokens echoed
// back by the model are resolved here. Returns nil (no error) when the reply
// is unusable.
func ParseExpenseText(ctx context.Context, g Generator, text string, today time.Time) (*models.ParsedExpense, error) {
	todayStr := today.Format(dateFormat)
	prompt := strings.Replace(nlExpensePrompt, "{today}", todayStr, 1) + text

	raw, err := g.Generate(ctx, prompt, nil)
	if err != nil {
		return nil, err
	}

	parsed, ok := parseObject(raw)
	if !ok {
		return nil, nil
	}

	date := asString(parsed["date"], todayStr)
	if date == "<today>" || date == "today" {
		date = todayStr
	}

	return &models.ParsedExpense{
		Amount:      asFloat(parsed["amount"]),
		Currency:    asString(parsed["currency"], "USD"),
		Description: asString(parsed["description"], text),
		Date:        date,
		Category:    asString(parsed["category"], "Other"),
	}, nil
}

// MonthlyReport returns the model's free-form report; an empty string is a
// valid result.
func MonthlyReport(ctx context.Context, g Generator, summary string) (string, error) {
	return g.Generate(ctx, reportPrompt+summary, nil)
}

// DetectAnomalies parses the model reply as an anomaly array. Anything that
// does not parse as an array yields an empty list, never an error.
func DetectAnomalies(ctx context.Context, g Generator, summary string) ([]models.Anomaly, error) {
	raw, err := g.Generate(ctx, anomalyPrompt+summary, nil)
	if err != nil {
		return nil, err
	}

	var parsed []map[string]interface{}
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		return []models.Anomaly{}, nil
	}

	anomalies := make([]models.Anomaly, 0, len(parsed))
	for _, item := range parsed {
		anomaly := models.Anomaly{
			Type:     asString(item["type"], ""),
			Message:  asString(item["message"], ""),
			Severity: asString(item["severity"], ""),
		}
		if anomaly.Type == "" || anomaly.Message == "" {
			continue
		}
		anomalies = append(anomalies, anomaly)
	}

	return anomalies, nil
}

// Insights returns 3-5 short advisor tips; non-array replies yield an empty
// list.
func Insights(ctx context.Context, g Generator, summary string) ([]string, error) {
	raw, err := g.Generate(ctx, insightsPrompt+summary, nil)
	if err != nil {
		return nil, err
	}

	var parsed []interface{}
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		return []string{}, nil
	}

	insights := make([]string, 0, len(parsed))
	for _, item := range parsed {
		if s, ok := item.(string); ok {
			insights = append(insights, s)
		}
	}

	return insights, nil
}

// AnswerQuestion answers a user question constrained to the supplied summary.
func AnswerQuestion(ctx context.Context, g Generator, query, summary string) (string, error) {
	return g.Generate(ctx, strings.Replace(chatPrompt, "{data}", summary, 1)+query, nil)
}

var fences = regexp.MustCompile("```json\n?|\n?```")

func stripFences(s string) string {
	return strings.TrimSpace(fences.ReplaceAllString(s, ""))
}

func parseObject(raw string) (map[string]interface{}, bool) {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(stripFences(raw)), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

func asString(v interface{}, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}

func asStrings(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
