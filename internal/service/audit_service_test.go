package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPolymarket/polyagent/internal/model"
)

func TestAuditBuffer_NewestFirst(t *testing.T) {
	b := newAuditBuffer(3)
	for i := 1; i <= 3; i++ {
		b.Add(&model.AuditLog{ID: fmt.Sprintf("e%d", i)})
	}

	got := b.List(10)
	require.Len(t, got, 3)
	assert.Equal(t, "e3", got[0].ID)
	assert.Equal(t, "e1", got[2].ID)
}

func TestAuditBuffer_OverwritesOldest(t *testing.T) {
	b := newAuditBuffer(3)
	for i := 1; i <= 5; i++ {
		b.Add(&model.AuditLog{ID: fmt.Sprintf("e%d", i)})
	}

	got := b.List(10)
	require.Len(t, got, 3)
	assert.Equal(t, "e5", got[0].ID)
	assert.Equal(t, "e3", got[2].ID)
}

func TestAuditBuffer_Limit(t *testing.T) {
	b := newAuditBuffer(10)
	for i := 1; i <= 5; i++ {
		b.Add(&model.AuditLog{ID: fmt.Sprintf("e%d", i)})
	}
	assert.Len(t, b.List(2), 2)
}

func TestAuditService_WritesJSONLAndServesFromMemory(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewAuditService(dir, nil)
	require.NoError(t, err)

	svc.Log(&model.AuditLog{ID: "req-1", Method: "POST", Path: "/v1/orders", StatusCode: 200})
	svc.Log(&model.AuditLog{ID: "req-2", Method: "GET", Path: "/v1/orders", StatusCode: 200})

	// Close drains the channel through the writer goroutine.
	time.Sleep(50 * time.Millisecond)
	svc.Close()

	records, err := svc.List(context.Background(), 10, nil, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "req-2", records[0].ID)

	files, err := filepath.Glob(filepath.Join(dir, "audit-*.jsonl"))
	require.NoError(t, err)
	require.Len(t, files, 1)

	f, err := os.Open(files[0])
	require.NoError(t, err)
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry model.AuditLog
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines++
	}
	assert.Equal(t, 2, lines)
}
