package dto

// ActivityFilter is bound from the query string of GET /v1/activity.
type ActivityFilter struct {
	EntityType string `form:"entity_type"`
	EntityID   int64  `form:"entity_id"        validate:"min=0"`
	BatchID    string `form:"batch_id"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type ActivityResponse struct {
	ID          int64   `json:"id"`
	Action      string  `json:"action"`
	EntityType  string  `json:"entity_type"`
	EntityID    int64   `json:"entity_id"`
	Description string  `json:"description"`
	Actor       string  `json:"actor"`
	BatchID     *string `json:"batch_id"`
	CreatedAt   string  `json:"created_at"`
}

type ActivityListResponse struct {
	Data  []ActivityResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
