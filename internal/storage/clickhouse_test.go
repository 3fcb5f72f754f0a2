package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeBatch struct {
	driver.Batch
	conn *fakeConn
	rows [][]any
}

func (b *fakeBatch) Append(v ...any) error {
	b.rows = append(b.rows, v)
	return nil
}

func (b *fakeBatch) Send() error {
	b.conn.mu.Lock()
	defer b.conn.mu.Unlock()
	b.conn.sent = append(b.conn.sent, b.rows...)
	return nil
}

type fakeConn struct {
	mu         sync.Mutex
	sent       [][]any
	prepareErr error
	closed     bool
}

func (c *fakeConn) PrepareBatch(_ context.Context, _ string, _ ...driver.PrepareBatchOption) (driver.Batch, error) {
	if c.prepareErr != nil {
		return nil, c.prepareErr
	}
	return &fakeBatch{conn: c}, nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) rowsSent() [][]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]any(nil), c.sent...)
}

func TestClickHouseWriter_CloseDrainsBuffer(t *testing.T) {
	conn := &fakeConn{}
	w := newClickHouseWriter(conn, zap.NewNop())

	for i := 0; i < 3; i++ {
		w.Write(&CatalogEvent{
			EventID:   "evt",
			Timestamp: time.Now(),
			Kind:      KindSuggest,
			Success:   true,
			Query:     "align reads",
			ToolName:  "BWA",
		})
	}
	w.Close()

	rows := conn.rowsSent()
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows sent, got %d", len(rows))
	}
	if !conn.closed {
		t.Fatal("expected connection closed")
	}

	row := rows[0]
	if len(row) != 10 {
		t.Fatalf("expected 10 columns, got %d", len(row))
	}
	if row[2] != KindSuggest {
		t.Fatalf("expected kind column %q, got %v", KindSuggest, row[2])
	}
	if row[3] != uint8(1) || row[4] != uint8(0) {
		t.Fatalf("expected success=1 cached=0, got %v %v", row[3], row[4])
	}
}

func TestClickHouseWriter_FlushesOnTicker(t *testing.T) {
	conn := &fakeConn{}
	w := newClickHouseWriter(conn, zap.NewNop())
	defer w.Close()

	w.Write(&CatalogEvent{EventID: "evt", Kind: KindFetch, Success: true, ToolCount: 12})

	deadline := time.Now().Add(5 * time.Second)
	for len(conn.rowsSent()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("expected ticker flush within deadline")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestClickHouseWriter_PrepareFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	conn := &fakeConn{prepareErr: errors.New("connection refused")}
	w := newClickHouseWriter(conn, zap.New(core))

	w.Write(&CatalogEvent{EventID: "evt", Kind: KindFetch})
	w.Close()

	if logs.FilterMessage("clickhouse prepare batch failed").Len() != 1 {
		t.Fatalf("expected prepare failure logged, got %v", logs.All())
	}
	if len(conn.rowsSent()) != 0 {
		t.Fatal("expected no rows sent")
	}
}

func TestLogWriter_Write(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	w := NewLogWriter(zap.New(core))

	w.Write(&CatalogEvent{EventID: "evt-1", Kind: KindFetch, Success: true, ToolCount: 4})
	w.Close()

	entries := logs.FilterMessage("catalog_event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 catalog_event entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["kind"] != KindFetch || fields["tool_count"] != int32(4) {
		t.Fatalf("unexpected fields: %v", fields)
	}
}
