package controllers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"expenseapi/models"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

func (api *API) ListCategories(c *gin.Context) {
	u := ParsePayload(c)

	rows, err := api.Db.Query(`
		SELECT id, tenant_id, name, icon, color, type, created_at, updated_at
		FROM categories
		WHERE tenant_id = $1
		ORDER BY name ASC
	`, u.TenantId)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	defer rows.Close()

	list := models.CategoryList{Categories: []models.Category{}}
	for rows.Next() {
		var category models.Category
		var icon, color sql.NullString

		if err := rows.Scan(&category.Id, &category.TenantId, &category.Name, &icon,
			&color, &category.Type, &category.CreatedAt, &category.UpdatedAt); err != nil {
			log.Println(err)
			sendError(c, http.StatusInternalServerError, err.Error())
			return
		}

		category.Icon = icon.String
		category.Color = color.String
		list.Categories = append(list.Categories, category)
	}

	c.JSON(http.StatusOK, list)
}

func (api *API) CreateCategory(c *gin.Context) {
	u := ParsePayload(c)

	var category models.Category
	if err := c.ShouldBindJSON(&category); err != nil {
		log.Println(err)
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if category.Name == "" {
		sendError(c, http.StatusBadRequest, "missing-name")
		return
	}

	if category.Type == "" {
		category.Type = "expense"
	}

	var exists bool
	err := api.Db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM categories WHERE tenant_id = $1 AND name = $2)
	`, u.TenantId, category.Name).Scan(&exists)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if exists {
		sendError(c, http.StatusConflict, "category-already-exist")
		return
	}

	category.Id = uuid.Must(uuid.NewV4()).String()
	category.TenantId = u.TenantId

	err = api.Db.QueryRow(`
		INSERT INTO categories (id, tenant_id, name, icon, color, type, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at
	`, category.Id, category.TenantId, category.Name, nullable(category.Icon),
		nullable(category.Color), category.Type).Scan(&category.CreatedAt, &category.UpdatedAt)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, category)
}

func (api *API) UpdateCategory(c *gin.Context) {
	u := ParsePayload(c)

	id := c.Param("id")
	if _, err := uuid.FromString(id); err != nil {
		sendError(c, http.StatusBadRequest, "invalid-category-id")
		return
	}

	var req models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Println(err)
		sendError(c, http.StatusBadRequest, err.Error())
		return
	}

	if req.Name != nil && *req.Name == "" {
		sendError(c, http.StatusBadRequest, "missing-name")
		return
	}

	if req.Name != nil {
		var exists bool
		err := api.Db.QueryRow(`
			SELECT EXISTS(SELECT 1 FROM categories WHERE tenant_id = $1 AND name = $2 AND id <> $3)
		`, u.TenantId, *req.Name, id).Scan(&exists)
		if err != nil {
			log.Println(err)
			sendError(c, http.StatusInternalServerError, err.Error())
			return
		}

		if exists {
			sendError(c, http.StatusConflict, "category-already-exist")
			return
		}
	}

	q := "UPDATE categories SET updated_at = CURRENT_TIMESTAMP"
	var stms []interface{}

	if req.Name != nil {
		stms = append(stms, *req.Name)
		q += fmt.Sprintf(", name = $%d", len(stms))
	}

	if req.Icon != nil {
		stms = append(stms, nullable(*req.Icon))
		q += fmt.Sprintf(", icon = $%d", len(stms))
	}

	if req.Color != nil {
		stms = append(stms, nullable(*req.Color))
		q += fmt.Sprintf(", color = $%d", len(stms))
	}

	if req.Type != nil {
		stms = append(stms, *req.Type)
		q += fmt.Sprintf(", type = $%d", len(stms))
	}

	if len(stms) == 0 {
		sendError(c, http.StatusBadRequest, "missing-fields")
		return
	}

	stms = append(stms, id, u.TenantId)
	q += fmt.Sprintf(" WHERE id = $%d AND tenant_id = $%d", len(stms)-1, len(stms))

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
		sendError(c, http.StatusNotFound, "category-not-found")
		return
	}

	c.JSON(http.StatusOK, genericOK)
}

// DeleteCategory removes the category and detaches its expenses so they stay
// queryable as uncategorized.
func (api *API) DeleteCategory(c *gin.Context) {
	u := ParsePayload(c)

	id := c.Param("id")
	if _, err := uuid.FromString(id); err != nil {
		sendError(c, http.StatusBadRequest, "invalid-category-id")
		return
	}

	tx, err := api.Db.Begin()
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	defer tx.Rollback()

	if _, err := tx.Exec(`
		UPDATE expenses SET category_id = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE category_id = $1 AND tenant_id = $2
	`, id, u.TenantId); err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	res, err := tx.Exec("DELETE FROM categories WHERE id = $1 AND tenant_id = $2", id, u.TenantId)
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
		sendError(c, http.StatusNotFound, "category-not-found")
		return
	}

	if err := tx.Commit(); err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, genericOK)
}

func (api *API) tenantCategories(tenantId string) ([]models.Category, error) {
	rows, err := api.Db.Query(`
		SELECT id, name FROM categories WHERE tenant_id = $1 ORDER BY name ASC
	`, tenantId)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var category models.Category
		if err := rows.Scan(&category.Id, &category.Name); err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}

	return categories, rows.Err()
}
