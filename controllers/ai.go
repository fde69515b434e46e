package controllers

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"expenseapi/genai"
	"expenseapi/models"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

func (api *API) AIStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"enabled": api.AI != nil})
}

func (api *API) requireAI(c *gin.Context) bool {
	if api.AI == nil {
		sendError(c, http.StatusServiceUnavailable, "ai-not-configured")
		return false
	}
	return true
}

// ParseReceipt extracts structured data from an uploaded receipt image.
// Model content failures (unreadable receipt, malformed reply) are 422;
// only transport failures reaching the model are 500.
func (api *API) ParseReceipt(c *gin.Context) {
	u := ParsePayload(c)

	if !api.requireAI(c) {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		sendError(c, http.StatusBadRequest, "missing-file")
		return
	}

	if file.Size > maxReceiptSize {
		sendError(c, http.StatusBadRequest, "file-too-large")
		return
	}

	mimeType := file.Header.Get("Content-Type")
	if !allowedImageTypes[mimeType] {
		sendError(c, http.StatusBadRequest, "unsupported-file-type")
		return
	}

	src, err := file.Open()
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	parsed, contentErr, err := genai.ParseReceiptImage(c.Request.Context(), api.AI,
		genai.Image{Data: data, MimeType: mimeType})
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, "ai-processing-failed")
		return
	}

	api.logAiUsage(u.TenantId, u.Id, "receipt_parse")

	if contentErr != "" {
		sendError(c, http.StatusUnprocessableEntity, contentErr)
		return
	}

	c.JSON(http.StatusOK, parsed)
}

// ParseReceiptById re-reads a previously uploaded receipt file and runs the
// same extraction, persisting the parsed result onto the receipt. The stored
// ocr_text is only written on success; a failed parse leaves it untouched.
func (api *API) ParseReceiptById(c *gin.Context) {
	u := ParsePayload(c)

	if !api.requireAI(c) {
		return
	}

	var req models.ReceiptParseByIdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Println(err)
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := uuid.FromString(req.ReceiptId); err != nil {
		sendError(c, http.StatusBadRequest, "invalid-receipt-id")
		return
	}

	receipt, err := api.getReceipt(req.ReceiptId, u.TenantId, u.Id)
	if err != nil {
		if err == sql.ErrNoRows {
			sendError(c, http.StatusNotFound, "receipt-not-found")
			return
		}

		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	relative := strings.TrimPrefix(receipt.Url, "/uploads/")
	data, err := os.ReadFile(filepath.Join(uploadRoot(), filepath.FromSlash(relative)))
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, "receipt-file-unreadable")
		return
	}

	parsed, contentErr, err := genai.ParseReceiptImage(c.Request.Context(), api.AI,
		genai.Image{Data: data, MimeType: receiptMimeType(receipt.Url)})
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, "ai-processing-failed")
		return
	}

	api.logAiUsage(u.TenantId, u.Id, "receipt_parse")

	if contentErr != "" {
		sendError(c, http.StatusUnprocessableEntity, contentErr)
		return
	}

	ocrText, _ := json.Marshal(parsed)
	if _, err := api.Db.Exec(`
		UPDATE receipts SET ocr_text = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2 AND tenant_id = $3 AND user_id = $4
	`, string(ocrText), receipt.Id, u.TenantId, u.Id); err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, parsed)
}

func (api *API) CategorizeExpense(c *gin.Context) {
	u := ParsePayload(c)

	if !api.requireAI(c) {
		return
	}

	var req models.CategorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Println(err)
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.Text == "" {
		sendError(c, http.StatusBadRequest, "missing-text")
		return
	}

	names := req.Categories
	if len(names) == 0 {
		categories, err := api.tenantCategories(u.TenantId)
		if err != nil {
			log.Println(err)
			sendError(c, http.StatusInternalServerError, err.Error())
			return
		}
		for _, category := range categories {
			names = append(names, category.Name)
		}
	}

	suggestion, err := genai.Categorize(c.Request.Context(), api.AI, req.Text, names)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, "ai-categorization-failed")
		return
	}

	api.logAiUsage(u.TenantId, u.Id, "categorize")

	c.JSON(http.StatusOK, suggestion)
}

// ExpenseFromText parses a natural-language expense and optionally creates it.
func (api *API) ExpenseFromText(c *gin.Context) {
	u := ParsePayload(c)

	if !api.requireAI(c) {
		return
	}

	var req models.TextExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Println(err)
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.Text == "" {
		sendError(c, http.StatusBadRequest, "missing-text")
		return
	}

	parsed, err := genai.ParseExpenseText(c.Request.Context(), api.AI, req.Text, time.Now().UTC())
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, "ai-parsing-failed")
		return
	}

	api.logAiUsage(u.TenantId, u.Id, "expense_from_text")

	if parsed == nil || parsed.Amount <= 0 {
		sendError(c, http.StatusUnprocessableEntity, "could-not-parse-expense-from-text")
		return
	}

	if _, err := time.Parse(dateFormat, parsed.Date); err != nil {
		parsed.Date = time.Now().UTC().Format(dateFormat)
	}

	categories, err := api.tenantCategories(u.TenantId)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if !req.CreateExpense {
		c.JSON(http.StatusOK, gin.H{"parsed": parsed})
		return
	}

	expense := models.Expense{
		TenantId:    u.TenantId,
		UserId:      u.Id,
		CategoryId:  matchCategory(parsed.Category, categories),
		Description: parsed.Description,
		Date:        parsed.Date,
		Currency:    strings.ToUpper(parsed.Currency),
		Amount:      parsed.Amount,
	}

	if err := api.insertExpense(&expense); err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"expense": expense, "parsed": parsed})
}

// ReceiptToExpense turns previously extracted receipt data into an expense,
// categorizing the description against the tenant's stored categories.
func (api *API) ReceiptToExpense(c *gin.Context) {
	u := ParsePayload(c)

	if !api.requireAI(c) {
		return
	}

	var req models.ReceiptToExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Println(err)
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.ReceiptData.Amount <= 0 {
		sendError(c, http.StatusBadRequest, "invalid-amount")
		return
	}

	currency := req.ReceiptData.Currency
	if currency == "" {
		currency = "USD"
	}

	description := req.ReceiptData.Description
	if description == "" {
		description = req.ReceiptData.Merchant
	}
	if description == "" {
		description = "Receipt"
	}

	date := strings.TrimSpace(req.ReceiptData.Date)
	if _, err := time.Parse(dateFormat, date); err != nil {
		date = time.Now().UTC().Format(dateFormat)
	}

	categories, err := api.tenantCategories(u.TenantId)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	names := make([]string, 0, len(categories))
	for _, category := range categories {
		names = append(names, category.Name)
	}

	suggestion, err := genai.Categorize(c.Request.Context(), api.AI, description, names)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, "ai-categorization-failed")
		return
	}

	api.logAiUsage(u.TenantId, u.Id, "receipt_to_expense")

	expense := models.Expense{
		TenantId:    u.TenantId,
		UserId:      u.Id,
		CategoryId:  matchCategory(suggestion.Category, categories),
		Description: description,
		Date:        date,
		Currency:    strings.ToUpper(currency),
		Amount:      req.ReceiptData.Amount,
		ReceiptId:   req.ReceiptId,
	}

	if !req.CreateExpense {
		c.JSON(http.StatusOK, gin.H{"parsed": expense})
		return
	}

	if err := api.insertExpense(&expense); err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{"expense": expense, "parsed": expense})
}

// GetRecurringExpenses is pure statistics over the trailing 6 months; it
// never calls the model.
func (api *API) GetRecurringExpenses(c *gin.Context) {
	u := ParsePayload(c)

	sixMonthsAgo := time.Now().UTC().AddDate(0, -6, 0)

	rows, err := api.Db.Query(`
		SELECT description, amount, date
		FROM expenses
		WHERE tenant_id = $1 AND user_id = $2 AND date >= $3
		ORDER BY date ASC
	`, u.TenantId, u.Id, sixMonthsAgo)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	defer rows.Close()

	var occurrences []expenseOccurrence
	for rows.Next() {
		var occurrence expenseOccurrence
		var description sql.NullString
		var date sql.NullTime

		if err := rows.Scan(&description, &occurrence.Amount, &date); err != nil {
			log.Println(err)
			sendError(c, http.StatusInternalServerError, err.Error())
			return
		}

		occurrence.Description = description.String
		occurrence.Date = date.Time
		occurrences = append(occurrences, occurrence)
	}

	c.JSON(http.StatusOK, gin.H{"patterns": detectRecurringPatterns(occurrences)})
}

func (api *API) GetMonthlyReport(c *gin.Context) {
	u := ParsePayload(c)

	if !api.requireAI(c) {
		return
	}

	month, year := reportPeriod(c)

	summary, err := api.buildExpenseSummary(u.TenantId, u.Id, month, year)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	report, err := genai.MonthlyReport(c.Request.Context(), api.AI, summary.SummaryText)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, "report-generation-failed")
		return
	}

	api.logAiUsage(u.TenantId, u.Id, "monthly_report")

	emailed := false
	if sendByEmail, _ := strconv.ParseBool(c.Query("email")); sendByEmail && u.Email != "" {
		subject := "Your monthly expense report"
		if err := sendEmail(u.Email, subject, report); err == nil {
			emailed = true
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"report":  report,
		"month":   month,
		"year":    year,
		"emailed": emailed,
	})
}

func (api *API) GetAnomalies(c *gin.Context) {
	u := ParsePayload(c)

	if !api.requireAI(c) {
		return
	}

	month, year := reportPeriod(c)

	summary, err := api.buildExpenseSummary(u.TenantId, u.Id, month, year)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	anomalies, err := genai.DetectAnomalies(c.Request.Context(), api.AI, summary.SummaryText)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, "anomaly-detection-failed")
		return
	}

	api.logAiUsage(u.TenantId, u.Id, "anomalies")

	c.JSON(http.StatusOK, gin.H{"anomalies": anomalies})
}

func (api *API) GetInsights(c *gin.Context) {
	u := ParsePayload(c)

	if !api.requireAI(c) {
		return
	}

	summary, err := api.buildExpenseSummary(u.TenantId, u.Id, 0, 0)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	insights, err := genai.Insights(c.Request.Context(), api.AI, summary.SummaryText)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, "ai-insights-failed")
		return
	}

	api.logAiUsage(u.TenantId, u.Id, "insights")

	c.JSON(http.StatusOK, gin.H{"insights": insights})
}

func (api *API) Chat(c *gin.Context) {
	u := ParsePayload(c)

	if !api.requireAI(c) {
		return
	}

	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Println(err)
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.Query == "" {
		sendError(c, http.StatusBadRequest, "missing-query")
		return
	}

	summary, err := api.buildExpenseSummary(u.TenantId, u.Id, 0, 0)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	answer, err := genai.AnswerQuestion(c.Request.Context(), api.AI, req.Query, summary.SummaryText)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, "chat-failed")
		return
	}

	api.logAiUsage(u.TenantId, u.Id, "chat")

	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// CheckDuplicate flags same-day expenses within a symmetric 1% amount window.
func (api *API) CheckDuplicate(c *gin.Context) {
	u := ParsePayload(c)

	var req models.DuplicateCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Println(err)
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.Amount <= 0 {
		sendError(c, http.StatusBadRequest, "missing-amount")
		return
	}

	dayStart, err := time.Parse(dateFormat, req.Date)
	if err != nil {
		sendError(c, http.StatusBadRequest, "invalid-date(yyyy-mm-dd)")
		return
	}

	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := api.Db.Query(`
		SELECT id, amount, description, date
		FROM expenses
		WHERE tenant_id = $1 AND user_id = $2
			AND amount >= $3 AND amount <= $4
			AND date >= $5 AND date < $6
	`, u.TenantId, u.Id, req.Amount*0.99, req.Amount*1.01, dayStart, dayEnd)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	defer rows.Close()

	duplicates := []models.DuplicateExpense{}
	for rows.Next() {
		var duplicate models.DuplicateExpense
		var description sql.NullString
		var date sql.NullTime

		if err := rows.Scan(&duplicate.Id, &duplicate.Amount, &description, &date); err != nil {
			log.Println(err)
			sendError(c, http.StatusInternalServerError, err.Error())
			return
		}

		duplicate.Description = description.String
		if date.Valid {
			duplicate.Date = date.Time.Format(dateFormat)
		}

		duplicates = append(duplicates, duplicate)
	}

	c.JSON(http.StatusOK, gin.H{
		"is_duplicate": len(duplicates) > 0,
		"duplicates":   duplicates,
	})
}

// logAiUsage is best effort; failures never affect the primary response.
func (api *API) logAiUsage(tenantId, userId, action string) {
	if _, err := api.Db.Exec(`
		INSERT INTO ai_logs (id, tenant_id, user_id, action, model, created_at)
		VALUES ($1, $2, $3, $4, 'claude', CURRENT_TIMESTAMP)
	`, uuid.Must(uuid.NewV4()).String(), tenantId, userId, action); err != nil {
		log.Println(err)
	}
}

func reportPeriod(c *gin.Context) (month, year int) {
	now := time.Now().UTC()
	month, _ = strconv.Atoi(c.Query("month"))
	year, _ = strconv.Atoi(c.Query("year"))

	if month < 1 || month > 12 {
		month = int(now.Month())
	}

	if year < 1 {
		year = now.Year()
	}

	return
}
