package handlers

import "github.com/roksva123/kinerja-planner/internal/model"

// BatchUpdateResponse reports how many of the requested updates landed.
// Items that failed are absent from Tasks.
type BatchUpdateResponse struct {
	Requested int          `json:"requested"`
	Updated   int          `json:"updated"`
	Tasks     []model.Task `json:"tasks"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
	Sessions int    `json:"sessions"`
}
