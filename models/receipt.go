package models

import "time"

type Receipt struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Id        string    `json:"id"`
	TenantId  string    `json:"tenant_id"`
	UserId    string    `json:"user_id"`
	Url       string    `json:"url"`
	OcrText   string    `json:"ocr_text,omitempty"`
}

type ReceiptList struct {
	Receipts []Receipt `json:"receipts"`
}
