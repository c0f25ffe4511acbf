package models

// Status summarizes the knowledge base, as served by GET /api/v1/status.
type Status struct {
	Documents      int64         `json:"documents"`
	Chunks         int64         `json:"chunks"`
	Sessions       int           `json:"sessions,omitempty"`
	DiskUsageBytes *int64        `json:"disk_usage_bytes,omitempty"`
	Config         *StatusConfig `json:"config,omitempty"`
}

// StatusConfig is the effective configuration reported with Status.
type StatusConfig struct {
	Backend      string  `json:"backend"`
	DatabasePath string  `json:"database_path,omitempty"`
	ChunkSize    int     `json:"chunk_size"`
	ChunkOverlap int     `json:"chunk_overlap"`
	TopK         int     `json:"top_k"`
	MinScore     float64 `json:"min_score"`
	Model        string  `json:"model,omitempty"`
	Catalog      bool    `json:"catalog"`
}
