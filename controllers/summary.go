package controllers

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"expenseapi/models"
)

// buildExpenseSummary aggregates one user's expenses for a calendar month into
// a fixed-shape text block used both for display and as model context. The
// text is deterministic for identical stored data: categories are emitted in
// sorted order and amounts use fixed 2-decimal formatting. Read-only.
func (api *API) buildExpenseSummary(tenantId, userId string, month, year int) (*models.ExpenseSummary, error) {
	now := time.Now().UTC()
	if month < 1 || month > 12 {
		month = int(now.Month())
		year = now.Year()
	}

	monthStart := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)

	rows, err := api.Db.Query(`
		SELECT e.id, e.amount, e.category_id, c.name, e.description, e.date
		FROM expenses e
		LEFT JOIN categories c ON e.category_id = c.id
		WHERE e.tenant_id = $1 AND e.user_id = $2 AND e.date >= $3 AND e.date < $4
		ORDER BY e.date DESC, e.created_at DESC
		LIMIT 200
	`, tenantId, userId, monthStart, nextMonth)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	summary := &models.ExpenseSummary{
		ByCategory: map[string]float64{},
		Expenses:   []models.SummaryExpense{},
	}

	for rows.Next() {
		var expense models.SummaryExpense
		var categoryId, categoryName, description sql.NullString
		var date sql.NullTime

		if err := rows.Scan(&expense.Id, &expense.Amount, &categoryId, &categoryName,
			&description, &date); err != nil {
			return nil, err
		}

		expense.CategoryId = categoryId.String
		expense.CategoryName = categoryName.String
		expense.Description = description.String

		if date.Valid {
			expense.Date = date.Time.Format(dateFormat)
		}

		key := "Uncategorized"
		if categoryId.Valid {
			key = categoryId.String
			if categoryName.Valid && categoryName.String != "" {
				key = categoryName.String
			}
		}

		summary.Total += expense.Amount
		summary.ByCategory[key] += expense.Amount
		summary.Expenses = append(summary.Expenses, expense)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	var currency sql.NullString
	var budget sql.NullFloat64

	err = api.Db.QueryRow(`
		SELECT currency, monthly_budget FROM users WHERE id = $1 AND tenant_id = $2
	`, userId, tenantId).Scan(&currency, &budget)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}

	summary.Currency = "USD"
	if currency.Valid && currency.String != "" {
		summary.Currency = currency.String
	}

	if budget.Valid && budget.Float64 > 0 {
		b := budget.Float64
		summary.Budget = &b
	}

	summary.SummaryText = renderSummary(summary)

	return summary, nil
}

func renderSummary(summary *models.ExpenseSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Total spent this month: %s %.2f\n", summary.Currency, summary.Total)

	if summary.Budget != nil {
		fmt.Fprintf(&b, "Monthly budget: %s %.2f\n", summary.Currency, *summary.Budget)
		fmt.Fprintf(&b, "Remaining: %s %.2f\n", summary.Currency, *summary.Budget-summary.Total)
	}

	b.WriteString("\nSpending by category:\n")

	keys := make([]string, 0, len(summary.ByCategory))
	for key := range summary.ByCategory {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fmt.Fprintf(&b, "- %s: %s %.2f\n", key, summary.Currency, summary.ByCategory[key])
	}

	b.WriteString("\nRecent expenses:\n")

	recent := summary.Expenses
	if len(recent) > 20 {
		recent = recent[:20]
	}

	for _, expense := range recent {
		description := expense.Description
		if description == "" {
			description = "No description"
		}
		fmt.Fprintf(&b, "- %s: %.2f on %s\n", description, expense.Amount, expense.Date)
	}

	return strings.TrimSpace(b.String())
}

type expenseOccurrence struct {
	Description string
	Amount      float64
	Date        time.Time
}

// detectRecurringPatterns groups expenses by normalized description, measures
// the average gap in days between occurrences, and classifies the cadence.
// Groups with a single occurrence are discarded. Output is sorted by
// occurrence count descending, truncated to the top 10.
func detectRecurringPatterns(occurrences []expenseOccurrence) []models.RecurringPattern {
	groups := map[string][]expenseOccurrence{}
	for _, occurrence := range occurrences {
		key := strings.ToLower(strings.TrimSpace(occurrence.Description))
		if key == "" {
			key = "Uncategorized"
		}
		groups[key] = append(groups[key], occurrence)
	}

	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	patterns := []models.RecurringPattern{}
	for _, key := range keys {
		group := groups[key]
		if len(group) < 2 {
			continue
		}

		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Date.Before(group[j].Date)
		})

		var gapSum, amountSum float64
		for i, occurrence := range group {
			amountSum += occurrence.Amount
			if i > 0 {
				gapSum += group[i].Date.Sub(group[i-1].Date).Hours() / 24
			}
		}

		avgGap := gapSum / float64(len(group)-1)

		frequency := "monthly"
		switch {
		case avgGap <= 10:
			frequency = "weekly"
		case avgGap >= 300:
			frequency = "yearly"
		}

		patterns = append(patterns, models.RecurringPattern{
			Description: key,
			AvgAmount:   math.Round(amountSum/float64(len(group))*100) / 100,
			Frequency:   frequency,
			Count:       len(group),
			LastDate:    group[len(group)-1].Date.Format(dateFormat),
		})
	}

	sort.SliceStable(patterns, func(i, j int) bool {
		return patterns[i].Count > patterns[j].Count
	})

	if len(patterns) > 10 {
		patterns = patterns[:10]
	}

	return patterns
}

// matchCategory maps a model-suggested category name onto a stored category,
// case-insensitively. Returns the empty string when nothing matches; callers
// leave the expense uncategorized rather than inventing a category.
func matchCategory(name string, categories []models.Category) string {
	for _, category := range categories {
		if strings.EqualFold(category.Name, name) {
			return category.Id
		}
	}
	return ""
}
