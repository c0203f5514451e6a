// Package repository implements the data access layer.
package repository

import (
	"errors"

	"pdf-rag-go/internal/model"

	"gorm.io/gorm"
)

// DocumentRepository persists Document records. Lookups return (nil, nil)
// when no record matches; the service layer turns that into its typed
// not-found error.
type DocumentRepository interface {
	Create(doc *model.Document) error
	FindByID(id uint) (*model.Document, error)
	FindByFilename(filename string) (*model.Document, error)
	FindAll(skip, limit int) ([]model.Document, int64, error)
	MarkUploaded(id uint, fileSize *int64) error
	MarkIndexed(id uint, vectorIndexID, summary string) error
	Delete(id uint) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a gorm-backed DocumentRepository.
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Create inserts a new document record.
func (r *documentRepository) Create(doc *model.Document) error {
	return r.db.Create(doc).Error
}

// FindByID looks a document up by primary key.
func (r *documentRepository) FindByID(id uint) (*model.Document, error) {
	var doc model.Document
	err := r.db.First(&doc, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByFilename looks a document up by its display filename.
func (r *documentRepository) FindByFilename(filename string) (*model.Document, error) {
	var doc model.Document
	err := r.db.Where("filename = ?", filename).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindAll returns a page of documents plus the total count.
func (r *documentRepository) FindAll(skip, limit int) ([]model.Document, int64, error) {
	var docs []model.Document
	if err := r.db.Order("id asc").Offset(skip).Limit(limit).Find(&docs).Error; err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.db.Model(&model.Document{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// MarkUploaded moves a document to UPLOADED, recording the blob size when it
// is known.
func (r *documentRepository) MarkUploaded(id uint, fileSize *int64) error {
	updates := map[string]interface{}{"status": model.StatusUploaded}
	if fileSize != nil {
		updates["file_size"] = *fileSize
	}
	return r.db.Model(&model.Document{}).Where("id = ?", id).Updates(updates).Error
}

// MarkIndexed moves a document to INDEXED in a single update. This is the
// commit point of the parse transition: until it runs, the row is untouched.
func (r *documentRepository) MarkIndexed(id uint, vectorIndexID, summary string) error {
	return r.db.Model(&model.Document{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":          model.StatusIndexed,
		"vector_index_id": vectorIndexID,
		"content_summary": summary,
	}).Error
}

// Delete removes the document record.
func (r *documentRepository) Delete(id uint) error {
	return r.db.Delete(&model.Document{}, id).Error
}
