package controllers

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"expenseapi/models"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const maxReceiptSize = 5 << 20

var receiptExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

func uploadRoot() string {
	if dir := os.Getenv("UPLOAD_DIR"); dir != "" {
		return dir
	}
	return "uploads"
}

func (api *API) UploadReceipt(c *gin.Context) {
	u := ParsePayload(c)

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
	ext, ok := receiptExtensions[mimeType]
	if !ok {
		sendError(c, http.StatusBadRequest, "unsupported-file-type")
		return
	}

	id := uuid.Must(uuid.NewV4()).String()
	dir := filepath.Join(uploadRoot(), "receipts", u.TenantId)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	dst := filepath.Join(dir, id+ext)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	receipt := models.Receipt{
		Id:       id,
		TenantId: u.TenantId,
		UserId:   u.Id,
		Url:      fmt.Sprintf("/uploads/receipts/%s/%s%s", u.TenantId, id, ext),
	}

	err = api.Db.QueryRow(`
		INSERT INTO receipts (id, tenant_id, user_id, url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING created_at, updated_at
	`, receipt.Id, receipt.TenantId, receipt.UserId, receipt.Url).Scan(&receipt.CreatedAt, &receipt.UpdatedAt)
	if err != nil {
		log.Println(err)
		os.Remove(dst)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, receipt)
}

func (api *API) GetReceipts(c *gin.Context) {
	u := ParsePayload(c)

	rows, err := api.Db.Query(`
		SELECT id, tenant_id, user_id, url, ocr_text, created_at, updated_at
		FROM receipts
		WHERE tenant_id = $1 AND user_id = $2
		ORDER BY created_at DESC
	`, u.TenantId, u.Id)
	if err != nil {
		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	defer rows.Close()

	list := models.ReceiptList{Receipts: []models.Receipt{}}
	for rows.Next() {
		var receipt models.Receipt
		var ocrText sql.NullString

		if err := rows.Scan(&receipt.Id, &receipt.TenantId, &receipt.UserId, &receipt.Url,
			&ocrText, &receipt.CreatedAt, &receipt.UpdatedAt); err != nil {
			log.Println(err)
			sendError(c, http.StatusInternalServerError, err.Error())
			return
		}

		receipt.OcrText = ocrText.String
		list.Receipts = append(list.Receipts, receipt)
	}

	c.JSON(http.StatusOK, list)
}

func (api *API) GetReceipt(c *gin.Context) {
	u := ParsePayload(c)

	id := c.Param("id")
	if _, err := uuid.FromString(id); err != nil {
		sendError(c, http.StatusBadRequest, "invalid-receipt-id")
		return
	}

	receipt, err := api.getReceipt(id, u.TenantId, u.Id)
	if err != nil {
		if err == sql.ErrNoRows {
			sendError(c, http.StatusNotFound, "receipt-not-found")
			return
		}

		log.Println(err)
		sendError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, receipt)
}

func (api *API) getReceipt(id, tenantId, userId string) (receipt models.Receipt, err error) {
	var ocrText sql.NullString

	err = api.Db.QueryRow(`
		SELECT id, tenant_id, user_id, url, ocr_text, created_at, updated_at
		FROM receipts
		WHERE id = $1 AND tenant_id = $2 AND user_id = $3
	`, id, tenantId, userId).Scan(&receipt.Id, &receipt.TenantId, &receipt.UserId, &receipt.Url,
		&ocrText, &receipt.CreatedAt, &receipt.UpdatedAt)
	if err != nil {
		return
	}

	receipt.OcrText = ocrText.String
	return
}

func receiptMimeType(url string) string {
	switch strings.ToLower(filepath.Ext(url)) {
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
