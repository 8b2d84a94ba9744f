package model

import (
	"time"
)

// AuditLog is one complete record of a gateway operation: the request, the
// response, and any business context the handlers attached along the way.
type AuditLog struct {
	ID        string `json:"id" gorm:"primaryKey;size:64"`
	Method    string `json:"method" gorm:"size:16"`
	Path      string `json:"path" gorm:"size:256;index"`
	IP        string `json:"ip" gorm:"size:64"`
	UserAgent string `json:"user_agent" gorm:"size:256"`

	// Bodies are stored redacted; credentials and signatures never land here.
	RequestBody  string `json:"request_body"`
	ResponseBody string `json:"response_body"`

	StatusCode int   `json:"status_code"`
	LatencyMs  int64 `json:"latency_ms"`

	// Context carries operation-level detail (order id, reject reason, raw
	// upstream error) serialized as JSON.
	Context map[string]interface{} `json:"context" gorm:"serializer:json"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
