package controllers

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"expenseapi/models"

	"github.com/gin-gonic/gin"
)

func (api *API) GetProfile(c *gin.Context) {
	u := ParsePayload(c)

	user, err := api.getUserProfile(u.Id, u.TenantId)
	if err != nil {
		if err == sql.ErrNoRows {
			sendError(c, http.StatusNotFound, "user-not-found")
			return
		}

		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, user)
}

func (api *API) UpdateProfile(c *gin.Context) {
	u := ParsePayload(c)

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Println(err)
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := validateProfileUpdate(&req); err != nil {
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	q := "UPDATE users SET updated_at = CURRENT_TIMESTAMP"
	var stms []interface{}

	if req.Name != nil {
		stms = append(stms, *req.Name)
		q += fmt.Sprintf(", name = $%d", len(stms))
	}

	if req.Currency != nil {
		stms = append(stms, strings.ToUpper(*req.Currency))
		q += fmt.Sprintf(", currency = $%d", len(stms))
	}

	if req.MonthlyBudget != nil {
		stms = append(stms, *req.MonthlyBudget)
		q += fmt.Sprintf(", monthly_budget = $%d", len(stms))
	}

	if len(stms) == 0 {
		sendError(c, http.StatusBadRequest, "missing-fields")
		return
	}

	stms = append(stms, u.Id, u.TenantId)
	q += fmt.Sprintf(" WHERE id = $%d AND tenant_id = $%d", len(stms)-1, len(stms))

	if _, err := api.Db.Exec(q, stms...); err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	user, err := api.getUserProfile(u.Id, u.TenantId)
	if err != nil {
		if err == sql.ErrNoRows {
			sendError(c, http.StatusNotFound, "user-not-found")
			return
		}

		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, user)
}

func (api *API) getUserProfile(userId, tenantId string) (user models.User, err error) {
	var currency sql.NullString
	var budget sql.NullFloat64

	err = api.Db.QueryRow(`
		SELECT u.id, u.tenant_id, u.email, u.name, u.currency, u.monthly_budget,
			u.created_at, u.updated_at, t.name, t.slug
		FROM users u
		JOIN tenants t ON u.tenant_id = t.id
		WHERE u.id = $1 AND u.tenant_id = $2
	`, userId, tenantId).Scan(&user.Id, &user.TenantId, &user.Email, &user.Name,
		&currency, &budget, &user.CreatedAt, &user.UpdatedAt,
		&user.TenantName, &user.TenantSlug)
	if err != nil {
		return
	}

	user.Currency = "USD"
	if currency.Valid && currency.String != "" {
		user.Currency = currency.String
	}

	if budget.Valid {
		b := budget.Float64
		user.MonthlyBudget = &b
	}

	return
}

func validateProfileUpdate(req *models.UpdateProfileRequest) error {
	if req.Name != nil && *req.Name == "" {
		return errors.New("missing-name")
	}

	if req.Currency != nil && len(*req.Currency) != 3 {
		return errors.New("invalid-currency")
	}

	if req.MonthlyBudget != nil && *req.MonthlyBudget < 0 {
		return errors.New("invalid-monthly-budget")
	}

	return nil
}
