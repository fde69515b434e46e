package controllers

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"expenseapi/models"

	"github.com/360EntSecGroup-Skylar/excelize/v2"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

func (api *API) GetExpenses(c *gin.Context) {
	u := ParsePayload(c)
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	order := c.Query("order")
	orderBy := c.Query("order_by")

	asExcel, _ := strconv.ParseBool(c.Query("export_as_excel"))

	filter := models.ExpenseFilter{
		CategoryId: c.Query("category_id"),
		Search:     c.Query("search"),
		MinDate:    c.Query("from"),
		MaxDate:    c.Query("to"),
	}

	if page < 1 {
		page = 1
	}

	if limit < 1 {
		limit = 20
	}

	if limit > 100 {
		limit = 100
	}

	if strings.ToUpper(order) != "ASC" && strings.ToUpper(order) != "DESC" {
		order = "DESC"
	}

	mapOrderBy := map[string]string{
		"id":            "e.id",
		"category_id":   "e.category_id",
		"category_name": "c.name",
		"description":   "e.description",
		"date":          "e.date",
		"currency":      "e.currency",
		"amount":        "e.amount",
		"created_at":    "e.created_at",
		"updated_at":    "e.updated_at",
	}

	if val, ok := mapOrderBy[orderBy]; ok {
		orderBy = val
	} else {
		orderBy = "e.date"
	}

	countQ := `SELECT COUNT(1) FROM expenses e
		LEFT JOIN categories c ON e.category_id = c.id
		WHERE e.tenant_id = $1 AND e.user_id = $2`
	selectQ := `SELECT
			e.id, e.user_id, e.category_id, c.name,
			e.description, e.date, e.currency, e.amount,
			e.is_recurring, e.receipt_id, e.created_at, e.updated_at
		FROM expenses e
		LEFT JOIN categories c ON e.category_id = c.id
		WHERE e.tenant_id = $1 AND e.user_id = $2`

	var expenseList models.ExpenseList
	var expenses []models.Expense
	var err error

	stms := []interface{}{u.TenantId, u.Id}
	filterQ, stms := getFilterExpense(filter, stms)

	selectQ = selectQ + filterQ
	countQ = countQ + filterQ

	offset := (page - 1) * limit
	pagination := fmt.Sprintf(" LIMIT %d OFFSET %d ", limit, offset)
	orderVal := fmt.Sprintf(" ORDER BY %s %s", orderBy, order)

	log.Println(selectQ + orderVal + pagination)

	rows, err := api.Db.Query(selectQ+orderVal+pagination, stms...)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	defer rows.Close()

	for rows.Next() {
		var expense models.Expense

		var categoryId, categoryName, description, currency, receiptId sql.NullString

		var amount sql.NullFloat64

		var date sql.NullTime

		err = rows.Scan(&expense.Id, &expense.UserId, &categoryId, &categoryName,
			&description, &date, &currency, &amount,
			&expense.IsRecurring, &receiptId, &expense.CreatedAt, &expense.UpdatedAt)
		if err != nil {
			log.Println(err)
			sendError(c, http.StatusInternalServerError, err.Error())
			return
		}

		expense.TenantId = u.TenantId
		expense.CategoryId = categoryId.String
		expense.CategoryName = categoryName.String
		expense.Description = description.String
		expense.Currency = currency.String
		expense.Amount = amount.Float64
		expense.ReceiptId = receiptId.String

		if date.Valid {
			expense.Date = date.Time.Format(dateFormat)
		}

		expenses = append(expenses, expense)
	}

	if asExcel {
		handleExcelExpenses(c, expenses)
		return
	}

	expenseList.Total, err = api.GetTotal(countQ, stms)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	expenseList.Expenses = expenses
	expenseList.Limit = limit
	expenseList.Page = page

	c.JSON(http.StatusOK, expenseList)
}

func (api *API) CreateExpense(c *gin.Context) {
	u := ParsePayload(c)

	var expense models.Expense
	if err := c.ShouldBindJSON(&expense); err != nil {
		log.Println(err)
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	expense.TenantId = u.TenantId
	expense.UserId = u.Id

	if err := validateExpense(&expense); err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := api.insertExpense(&expense); err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, expense)
}

func (api *API) UpdateExpense(c *gin.Context) {
	u := ParsePayload(c)

	id := c.Param("id")
	if _, err := uuid.FromString(id); err != nil {
		sendError(c, http.StatusBadRequest, "invalid-expense-id")
		return
	}

	var req models.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Println(err)
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	q := "UPDATE expenses SET updated_at = CURRENT_TIMESTAMP"
	var stms []interface{}

	if req.Amount != nil {
		if *req.Amount <= 0 {
			sendError(c, http.StatusBadRequest, "invalid-amount")
			return
		}
		stms = append(stms, *req.Amount)
		q += fmt.Sprintf(", amount = $%d", len(stms))
	}

	if req.Currency != nil {
		if len(*req.Currency) != 3 {
			sendError(c, http.StatusBadRequest, "invalid-currency")
			return
		}
		stms = append(stms, strings.ToUpper(*req.Currency))
		q += fmt.Sprintf(", currency = $%d", len(stms))
	}

	if req.CategoryId != nil {
		stms = append(stms, nullable(*req.CategoryId))
		q += fmt.Sprintf(", category_id = $%d", len(stms))
	}

	if req.Description != nil {
		stms = append(stms, nullable(*req.Description))
		q += fmt.Sprintf(", description = $%d", len(stms))
	}

	if req.Date != nil {
		date, err := time.Parse(dateFormat, *req.Date)
		if err != nil {
			sendError(c, http.StatusBadRequest, "invalid-date(yyyy-mm-dd)")
			return
		}
		stms = append(stms, date)
		q += fmt.Sprintf(", date = $%d", len(stms))
	}

	if req.IsRecurring != nil {
		stms = append(stms, *req.IsRecurring)
		q += fmt.Sprintf(", is_recurring = $%d", len(stms))
	}

	if req.ReceiptId != nil {
		stms = append(stms, nullable(*req.ReceiptId))
		q += fmt.Sprintf(", receipt_id = $%d", len(stms))
	}

	if len(stms) == 0 {
		sendError(c, http.StatusBadRequest, "missing-fields")
		return
	}

	stms = append(stms, id, u.TenantId, u.Id)
	q += fmt.Sprintf(" WHERE id = $%d AND tenant_id = $%d AND user_id = $%d", len(stms)-2, len(stms)-1, len(stms))

	res, err := api.Db.Exec(q, stms...)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	affected, err := res.RowsAffected()
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if affected == 0 {
		sendError(c, http.StatusNotFound, "expense-not-found")
		return
	}

	c.JSON(http.StatusOK, genericOK)
}

func (api *API) DeleteExpense(c *gin.Context) {
	u := ParsePayload(c)

	id := c.Param("id")
	if _, err := uuid.FromString(id); err != nil {
		sendError(c, http.StatusBadRequest, "invalid-expense-id")
		return
	}

	res, err := api.Db.Exec("DELETE FROM expenses WHERE id = $1 AND tenant_id = $2 AND user_id = $3",
		id, u.TenantId, u.Id)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	affected, err := res.RowsAffected()
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if affected == 0 {
		sendError(c, http.StatusNotFound, "expense-not-found")
		return
	}

	c.JSON(http.StatusOK, genericOK)
}

// GetExpensesTotals returns the caller's all-time and current-month totals.
func (api *API) GetExpensesTotals(c *gin.Context) {
	u := ParsePayload(c)

	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	nextMonth := monthStart.AddDate(0, 1, 0)

	var totals models.ExpenseTotals

	err := api.Db.QueryRow(`
		SELECT COALESCE(SUM(amount), 0),
			COALESCE(SUM(amount) FILTER (WHERE date >= $3 AND date < $4), 0)
		FROM expenses
		WHERE tenant_id = $1 AND user_id = $2
	`, u.TenantId, u.Id, monthStart, nextMonth).Scan(&totals.TotalSpent, &totals.MonthlySpent)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, totals)
}

func (api *API) insertExpense(expense *models.Expense) error {
	if _, err := uuid.FromString(expense.Id); err != nil {
		expense.Id = uuid.Must(uuid.NewV4()).String()
	}

	return api.Db.QueryRow(`
		INSERT INTO expenses
		(id, tenant_id, user_id, category_id, description, date, currency, amount, is_recurring, receipt_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at
	`, expense.Id, expense.TenantId, expense.UserId, nullable(expense.CategoryId),
		nullable(expense.Description), expense.Date, expense.Currency, expense.Amount,
		expense.IsRecurring, nullable(expense.ReceiptId)).Scan(&expense.CreatedAt, &expense.UpdatedAt)
}

func getFilterExpense(filter models.ExpenseFilter, stms []interface{}) (string, []interface{}) {
	var filterQ string

	if _, err := uuid.FromString(filter.CategoryId); err == nil {
		filterQ += fmt.Sprintf(" AND e.category_id = $%d", len(stms)+1)
		stms = append(stms, filter.CategoryId)
	}

	if filter.Search != "" {
		filterQ += fmt.Sprintf(" AND e.description ILIKE $%d", len(stms)+1)
		stms = append(stms, "%"+filter.Search+"%")
	}

	if date, err := time.Parse(dateFormat, filter.MinDate); err == nil {
		filterQ += fmt.Sprintf(" AND e.date >= $%d", len(stms)+1)
		stms = append(stms, date)
	}

	if date, err := time.Parse(dateFormat, filter.MaxDate); err == nil {
		filterQ += fmt.Sprintf(" AND e.date <= $%d", len(stms)+1)
		stms = append(stms, date)
	}

	return filterQ, stms
}

func validateExpense(expense *models.Expense) error {
	if expense.Amount <= 0 {
		return errors.New("invalid-amount")
	}

	if expense.Date == "" {
		return errors.New("missing-date")
	}

	if _, err := time.Parse(dateFormat, expense.Date); err != nil {
		return errors.New("invalid-date(yyyy-mm-dd)")
	}

	if expense.Currency == "" {
		expense.Currency = "USD"
	}

	if len(expense.Currency) != 3 {
		return errors.New("invalid-currency")
	}

	expense.Currency = strings.ToUpper(expense.Currency)

	if expense.CategoryId != "" {
		if _, err := uuid.FromString(expense.CategoryId); err != nil {
			return errors.New("invalid-category-id")
		}
	}

	if expense.ReceiptId != "" {
		if _, err := uuid.FromString(expense.ReceiptId); err != nil {
			return errors.New("invalid-receipt-id")
		}
	}

	return nil
}

func handleExcelExpenses(c *gin.Context, expenses []models.Expense) {
	if len(expenses) == 0 {
		sendError(c, http.StatusNotFound, "expenses-not-found")
		return
	}

	f := excelize.NewFile()

	sheet := "List Expenses"
	f.NewSheet(sheet)
	// delete default sheet
	f.DeleteSheet("Sheet1")

	err := f.SetColWidth(sheet, "A", "E", 50)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	headerStyle, err := f.NewStyle(s1)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	dataStyle, err := f.NewStyle(s2)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	streamWriter, err := f.NewStreamWriter(sheet)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if err = streamWriter.SetRow("A1", []interface{}{
		excelize.Cell{StyleID: headerStyle, Value: "Description"},
		excelize.Cell{StyleID: headerStyle, Value: "Category"},
		excelize.Cell{StyleID: headerStyle, Value: "Currency"},
		excelize.Cell{StyleID: headerStyle, Value: "Amount"},
		excelize.Cell{StyleID: headerStyle, Value: "Date"}}); err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	for n, expense := range expenses {
		category := expense.CategoryName
		if category == "" {
			category = "Uncategorized"
		}

		amountFormatted := fmt.Sprintf("%s %s", expense.Currency, humanize.Commaf(expense.Amount))

		row := make([]interface{}, 5)
		row[0] = excelize.Cell{StyleID: dataStyle, Value: expense.Description}
		row[1] = excelize.Cell{StyleID: dataStyle, Value: category}
		row[2] = excelize.Cell{StyleID: dataStyle, Value: expense.Currency}
		row[3] = excelize.Cell{StyleID: dataStyle, Value: amountFormatted}
		row[4] = excelize.Cell{StyleID: dataStyle, Value: expense.Date}

		cell, _ := excelize.CoordinatesToCellName(1, n+2)
		if err = streamWriter.SetRow(cell, row); err != nil {
			sendError(c, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if err := streamWriter.Flush(); err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	fileName := fmt.Sprintf("report_expenses_%s.xlsx", time.Now().UTC().Format("20060102_150405"))

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment;filename=\""+fileName+"\"")

	if _, err := f.WriteTo(c.Writer); err != nil {
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}
}
