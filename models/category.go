package models

import "time"

type Category struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Id        string    `json:"id"`
	TenantId  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Icon      string    `json:"icon,omitempty"`
	Color     string    `json:"color,omitempty"`
	Type      string    `json:"type"`
}

type CategoryList struct {
	Categories []Category `json:"categories"`
}

type UpdateCategoryRequest struct {
	Name  *string `json:"name"`
	Icon  *string `json:"icon"`
	Color *string `json:"color"`
	Type  *string `json:"type"`
}
