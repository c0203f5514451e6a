// Package model defines the persistence models and data transfer structures.
package model

import "time"

// Document status tokens. The lifecycle is strictly forward:
// PENDING -> UPLOADED -> INDEXED.
const (
	StatusPending  = "PENDING"
	StatusUploaded = "UPLOADED"
	StatusIndexed  = "INDEXED"
)

// Document is the ORM model for the 'pdfs' table. It is mutated only through
// the status transitions implemented by service.DocumentService.
type Document struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Filename       string    `gorm:"type:varchar(255);not null;index" json:"filename"`
	S3Key          string    `gorm:"type:varchar(500);not null;uniqueIndex" json:"s3Key"`
	FileSize       *int64    `gorm:"default:null" json:"fileSize"`
	UploadDate     time.Time `gorm:"autoCreateTime" json:"uploadDate"`
	Status         string    `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	VectorIndexID  *string   `gorm:"type:varchar(255);default:null" json:"vectorIndexId"`
	ContentSummary *string   `gorm:"type:text;default:null" json:"contentSummary"`
}

// TableName maps the model to its database table.
func (Document) TableName() string {
	return "pdfs"
}
