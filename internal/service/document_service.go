// Package service contains the application's business logic.
package service

import (
	"context"
	"fmt"
	"time"

	"pdf-rag-go/internal/apperr"
	"pdf-rag-go/internal/model"
	"pdf-rag-go/internal/repository"
	"pdf-rag-go/internal/segment"
	"pdf-rag-go/pkg/embedding"
	"pdf-rag-go/pkg/es"
	"pdf-rag-go/pkg/kafka"
	"pdf-rag-go/pkg/log"
	"pdf-rag-go/pkg/storage"
)

// indexedSummary is the fixed summary recorded when a parse completes.
const indexedSummary = "PDF content has been extracted, embedded, and indexed in vector database"

// UploadTicket is handed back from RequestUpload: where to PUT the bytes and
// which document record the upload belongs to.
type UploadTicket struct {
	UploadURL string `json:"upload_url"`
	PDFID     uint   `json:"pdf_id"`
	S3Key     string `json:"s3_key"`
}

// DocumentService drives the document lifecycle:
// PENDING -> UPLOADED -> INDEXED, plus deletion.
//
// Concurrent parse calls on the same document converge because index entries
// are keyed by "{pdf_id}_{segment_index}" and upserts overwrite. Concurrent
// delete and parse on the same document is not resolved here; callers must
// serialize lifecycle mutations per document id.
type DocumentService interface {
	RequestUpload(ctx context.Context, filename string) (*UploadTicket, error)
	ConfirmUpload(ctx context.Context, id uint) (*model.Document, error)
	Parse(ctx context.Context, id uint) (*model.Document, error)
	Delete(ctx context.Context, id uint) error
	Get(ctx context.Context, id uint) (*model.Document, error)
	List(ctx context.Context, skip, limit int) ([]model.Document, int64, error)
}

type documentService struct {
	docRepo   repository.DocumentRepository
	blobStore storage.BlobStore
	index     es.VectorIndex
	embedder  embedding.Client
	segmenter segment.Segmenter
	events    kafka.EventPublisher
}

// NewDocumentService wires the ingestion pipeline's collaborators.
func NewDocumentService(
	docRepo repository.DocumentRepository,
	blobStore storage.BlobStore,
	index es.VectorIndex,
	embedder embedding.Client,
	segmenter segment.Segmenter,
	events kafka.EventPublisher,
) DocumentService {
	return &documentService{
		docRepo:   docRepo,
		blobStore: blobStore,
		index:     index,
		embedder:  embedder,
		segmenter: segmenter,
		events:    events,
	}
}

// RequestUpload allocates a blob key for the filename, signs an upload URL
// and creates the PENDING record. A repeated request for a filename that is
// still PENDING is idempotent: it re-signs a URL for the existing key and
// returns the existing id. Any other existing status is a conflict.
func (s *documentService) RequestUpload(ctx context.Context, filename string) (*UploadTicket, error) {
	existing, err := s.docRepo.FindByFilename(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to look up filename '%s': %w", filename, err)
	}
	if existing != nil {
		if existing.Status != model.StatusPending {
			return nil, &apperr.ConflictError{Filename: filename, Status: existing.Status}
		}
		uploadURL, err := s.blobStore.PresignedUploadURL(ctx, existing.S3Key)
		if err != nil {
			return nil, fmt.Errorf("%w: presign upload url: %v", apperr.ErrBlob, err)
		}
		log.Infof("[DocumentService] re-issued upload URL for pending pdf %d ('%s')", existing.ID, filename)
		return &UploadTicket{UploadURL: uploadURL, PDFID: existing.ID, S3Key: existing.S3Key}, nil
	}

	s3Key := storage.NewObjectKey(filename)
	uploadURL, err := s.blobStore.PresignedUploadURL(ctx, s3Key)
	if err != nil {
		return nil, fmt.Errorf("%w: presign upload url: %v", apperr.ErrBlob, err)
	}

	doc := &model.Document{
		Filename: filename,
		S3Key:    s3Key,
		Status:   model.StatusPending,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, fmt.Errorf("failed to create pdf record: %w", err)
	}

	log.Infof("[DocumentService] created pdf %d ('%s') with key '%s'", doc.ID, filename, s3Key)
	return &UploadTicket{UploadURL: uploadURL, PDFID: doc.ID, S3Key: s3Key}, nil
}

// ConfirmUpload moves a PENDING document to UPLOADED, recording the blob
// size when the store can report it. A missing size is tolerated.
func (s *documentService) ConfirmUpload(ctx context.Context, id uint) (*model.Document, error) {
	doc, err := s.findByID(id)
	if err != nil {
		return nil, err
	}
	if doc.Status != model.StatusPending {
		return nil, &apperr.InvalidStateError{PDFID: id, Have: doc.Status, Want: model.StatusPending}
	}

	size := s.blobStore.ObjectSize(ctx, doc.S3Key)
	if err := s.docRepo.MarkUploaded(id, size); err != nil {
		return nil, fmt.Errorf("failed to mark pdf %d uploaded: %w", id, err)
	}

	doc.Status = model.StatusUploaded
	if size != nil {
		doc.FileSize = size
	}
	log.Infof("[DocumentService] pdf %d confirmed uploaded", id)
	return doc, nil
}

// Parse runs the ingestion pipeline: fetch blob bytes, segment, embed, index
// one entry per segment, then commit the status in a single update. Any
// failure before the commit leaves the record's status unchanged; entries
// already written are tolerated as garbage and reclaimed by the
// delete-before-upsert step of the next successful parse.
func (s *documentService) Parse(ctx context.Context, id uint) (*model.Document, error) {
	doc, err := s.findByID(id)
	if err != nil {
		return nil, err
	}
	switch doc.Status {
	case model.StatusIndexed:
		return nil, &apperr.AlreadyIndexedError{PDFID: id}
	case model.StatusPending:
		return nil, &apperr.NotUploadedError{PDFID: id}
	}

	log.Infof("[DocumentService] parsing pdf %d ('%s')", id, doc.Filename)

	pdfBytes, err := s.blobStore.GetObject(ctx, doc.S3Key)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch object '%s': %v", apperr.ErrBlob, doc.S3Key, err)
	}

	segments, err := s.segmenter.Segment(ctx, pdfBytes)
	if err != nil {
		return nil, err
	}
	log.Infof("[DocumentService] pdf %d produced %d segments", id, len(segments))

	vectors, err := s.embedder.CreateEmbeddings(ctx, segments)
	if err != nil {
		return nil, err
	}

	// Clear any entries left by an earlier run so re-indexing converges to
	// exactly one entry per segment.
	if err := s.index.DeleteByDocument(ctx, id); err != nil {
		return nil, err
	}

	vectorIndexID := fmt.Sprintf("pdf_%d", id)
	for i, text := range segments {
		entry := model.IndexEntry{
			SegmentID: fmt.Sprintf("%d_%d", id, i),
			PDFID:     id,
			Filename:  doc.Filename,
			Text:      text,
			Vector:    vectors[i],
			Title:     fmt.Sprintf("%s_segment_%d", doc.Filename, i),
			Author:    vectorIndexID,
		}
		if err := s.index.Upsert(ctx, entry); err != nil {
			return nil, err
		}
	}

	if err := s.docRepo.MarkIndexed(id, vectorIndexID, indexedSummary); err != nil {
		return nil, fmt.Errorf("failed to mark pdf %d indexed: %w", id, err)
	}

	doc.Status = model.StatusIndexed
	doc.VectorIndexID = &vectorIndexID
	summary := indexedSummary
	doc.ContentSummary = &summary

	s.publish(ctx, kafka.DocumentEvent{
		Type:      kafka.EventIndexed,
		PDFID:     id,
		Filename:  doc.Filename,
		Segments:  len(segments),
		Timestamp: time.Now(),
	})

	log.Infof("[DocumentService] pdf %d indexed as '%s' (%d segments)", id, vectorIndexID, len(segments))
	return doc, nil
}

// Delete removes the blob and the document's index entries before the
// metadata record, so a failure mid-sequence leaves the record behind as the
// recovery anchor. Documents that were never indexed delete cleanly.
func (s *documentService) Delete(ctx context.Context, id uint) error {
	doc, err := s.findByID(id)
	if err != nil {
		return err
	}

	if err := s.blobStore.RemoveObject(ctx, doc.S3Key); err != nil {
		return fmt.Errorf("%w: remove object '%s': %v", apperr.ErrBlob, doc.S3Key, err)
	}
	if err := s.index.DeleteByDocument(ctx, id); err != nil {
		return err
	}
	if err := s.docRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete pdf record %d: %w", id, err)
	}

	s.publish(ctx, kafka.DocumentEvent{
		Type:      kafka.EventDeleted,
		PDFID:     id,
		Filename:  doc.Filename,
		Timestamp: time.Now(),
	})

	log.Infof("[DocumentService] pdf %d ('%s') deleted", id, doc.Filename)
	return nil
}

// Get returns a document's metadata.
func (s *documentService) Get(ctx context.Context, id uint) (*model.Document, error) {
	return s.findByID(id)
}

// List returns a page of documents plus the total count.
func (s *documentService) List(ctx context.Context, skip, limit int) ([]model.Document, int64, error) {
	return s.docRepo.FindAll(skip, limit)
}

func (s *documentService) findByID(id uint) (*model.Document, error) {
	doc, err := s.docRepo.FindByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up pdf %d: %w", id, err)
	}
	if doc == nil {
		return nil, &apperr.NotFoundError{PDFID: id}
	}
	return doc, nil
}

// publish emits a lifecycle event; failures are logged, never surfaced.
func (s *documentService) publish(ctx context.Context, event kafka.DocumentEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		log.Warnf("[DocumentService] failed to publish %s event for pdf %d: %v", event.Type, event.PDFID, err)
	}
}
