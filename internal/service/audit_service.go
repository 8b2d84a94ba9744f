package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/GoPolymarket/polyagent/internal/model"
	"github.com/GoPolymarket/polyagent/internal/pkg/logger"
)

// AuditRepo persists audit entries beyond the process lifetime.
type AuditRepo interface {
	Insert(ctx context.Context, entry *model.AuditLog) error
	List(ctx context.Context, limit int, from, to *time.Time) ([]*model.AuditLog, error)
}

// AuditService records every gateway operation to a daily JSONL file, an
// in-memory ring for fast queries, and optionally a database repo. Writes
// are asynchronous; a full buffer drops entries rather than blocking the
// trading path.
type AuditService struct {
	logChan chan *model.AuditLog
	logFile *os.File
	buffer  *auditBuffer
	repo    AuditRepo
}

func NewAuditService(logDir string, repo AuditRepo) (*AuditService, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	filename := filepath.Join(logDir, "audit-"+time.Now().Format("2006-01-02")+".jsonl")
	f, err := os.OpenFile(filename, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	svc := &AuditService{
		logChan: make(chan *model.AuditLog, 1000),
		logFile: f,
		buffer:  newAuditBuffer(1000),
		repo:    repo,
	}
	go svc.processLogs()

	return svc, nil
}

// Log enqueues one entry. Never blocks.
func (s *AuditService) Log(entry *model.AuditLog) {
	s.buffer.Add(entry)
	select {
	case s.logChan <- entry:
	default:
		logger.Warn("audit buffer full, dropping entry", "path", entry.Path)
	}
}

// List returns recent entries, newest first, from the database when one is
// configured and from the in-memory ring otherwise.
func (s *AuditService) List(ctx context.Context, limit int, from, to *time.Time) ([]*model.AuditLog, error) {
	if s.repo != nil {
		records, err := s.repo.List(ctx, limit, from, to)
		if err == nil {
			return records, nil
		}
		logger.Warn("audit repo query failed, serving from memory", "error", err)
	}
	return s.buffer.List(limit), nil
}

func (s *AuditService) processLogs() {
	encoder := json.NewEncoder(s.logFile)
	for entry := range s.logChan {
		if s.repo != nil {
			if err := s.repo.Insert(context.Background(), entry); err != nil {
				logger.Error("audit db insert failed", "error", err)
			}
		}
		if err := encoder.Encode(entry); err != nil {
			logger.Error("audit file write failed", "error", err)
		}
	}
}

func (s *AuditService) Close() {
	close(s.logChan)
	s.logFile.Close()
}

// auditBuffer is a fixed-size ring of recent entries.
type auditBuffer struct {
	mu        sync.Mutex
	maxSize   int
	records   []*model.AuditLog
	nextIndex int
}

func newAuditBuffer(maxSize int) *auditBuffer {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &auditBuffer{
		maxSize: maxSize,
		records: make([]*model.AuditLog, 0, maxSize),
	}
}

func (b *auditBuffer) Add(entry *model.AuditLog) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.records) < b.maxSize {
		b.records = append(b.records, entry)
		return
	}
	b.records[b.nextIndex] = entry
	b.nextIndex = (b.nextIndex + 1) % b.maxSize
}

// List returns up to limit entries, newest first.
func (b *auditBuffer) List(limit int) []*model.AuditLog {
	b.mu.Lock()
	defer b.mu.Unlock()
	if limit <= 0 || limit > b.maxSize {
		limit = b.maxSize
	}
	total := len(b.records)
	results := make([]*model.AuditLog, 0, limit)
	for i := 0; i < total && len(results) < limit; i++ {
		idx := (b.nextIndex + total - 1 - i) % total
		if entry := b.records[idx]; entry != nil {
			results = append(results, entry)
		}
	}
	return results
}
