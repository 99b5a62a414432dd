// Package storage persists rage-click detections to PostgreSQL through a
// buffered batch writer.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonesrussell/rage-tracker/internal/domain"
	"github.com/jonesrussell/rage-tracker/internal/logger"
)

const (
	// columnsPerRow is the number of columns inserted per detection row.
	columnsPerRow = 9

	// insertBatchSize is the maximum number of rows per INSERT statement.
	insertBatchSize = 50

	// flushTimeout is the context timeout for each flush operation.
	flushTimeout = 5 * time.Second
)

// Buffer is a channel-based buffer for non-blocking detection writes. The
// detection path must never wait on the database.
type Buffer struct {
	detections chan domain.Detection
	closed     chan struct{}
	once       sync.Once
}

// NewBuffer creates a buffer with a buffered channel of the given capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{
		detections: make(chan domain.Detection, capacity),
		closed:     make(chan struct{}),
	}
}

// Send performs a non-blocking send of a detection into the buffer.
// It returns false if the buffer channel is full.
func (b *Buffer) Send(d domain.Detection) bool {
	select {
	case b.detections <- d:
		return true
	default:
		return false
	}
}

// Len returns the number of detections currently in the buffer channel.
func (b *Buffer) Len() int {
	return len(b.detections)
}

// Close signals the buffer to stop accepting detections.
// It is safe to call multiple times.
func (b *Buffer) Close() {
	b.once.Do(func() {
		close(b.closed)
	})
}

// Store manages buffered writes of detections to PostgreSQL and serves
// the read side of the reporting API.
type Store struct {
	db             *sql.DB
	buffer         *Buffer
	log            logger.Logger
	flushInterval  time.Duration
	flushThreshold int
	wg             sync.WaitGroup
}

// NewStore creates a Store that reads detections from buffer and
// batch-inserts them.
func NewStore(
	db *sql.DB,
	buffer *Buffer,
	log logger.Logger,
	flushInterval time.Duration,
	flushThreshold int,
) *Store {
	return &Store{
		db:             db,
		buffer:         buffer,
		log:            log,
		flushInterval:  flushInterval,
		flushThreshold: flushThreshold,
	}
}

// Start launches the background goroutine that reads detections and
// flushes batches.
func (s *Store) Start() {
	s.wg.Add(1)
	go s.flushLoop()
}

// Stop signals the buffer to close and waits for the flush goroutine to
// finish draining.
func (s *Store) Stop() {
	s.buffer.Close()
	s.wg.Wait()
}

// flushLoop accumulates a batch and flushes when it reaches
// flushThreshold or the flushInterval ticker fires.
func (s *Store) flushLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	batch := make([]domain.Detection, 0, s.flushThreshold)

	for {
		select {
		case d := <-s.buffer.detections:
			batch = append(batch, d)
			if len(batch) >= s.flushThreshold {
				s.flush(batch)
				batch = make([]domain.Detection, 0, s.flushThreshold)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(batch)
				batch = make([]domain.Detection, 0, s.flushThreshold)
			}

		case <-s.buffer.closed:
			s.drain(&batch)
			if len(batch) > 0 {
				s.flush(batch)
			}
			return
		}
	}
}

// drain reads all remaining detections from the buffer channel into the
// batch.
func (s *Store) drain(batch *[]domain.Detection) {
	for {
		select {
		case d := <-s.buffer.detections:
			*batch = append(*batch, d)
		default:
			return
		}
	}
}

// flush writes a batch of detections to PostgreSQL in chunks of
// insertBatchSize.
func (s *Store) flush(batch []domain.Detection) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	for start := 0; start < len(batch); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(batch) {
			end = len(batch)
		}

		if err := s.batchInsert(ctx, batch[start:end]); err != nil {
			s.log.Error("Failed to insert rage clicks",
				logger.Error(err),
				logger.Int("batch_size", end-start),
			)
		}
	}

	s.log.Debug("Flushed rage clicks",
		logger.Int("total", len(batch)),
	)
}

// batchInsert builds and executes a single INSERT statement with multiple
// value tuples.
func (s *Store) batchInsert(ctx context.Context, detections []domain.Detection) error {
	if len(detections) == 0 {
		return nil
	}

	args := make([]any, 0, len(detections)*columnsPerRow)
	var sb strings.Builder

	sb.WriteString("INSERT INTO rage_clicks (id, session_id, element, x, y, " +
		"clicks, url, episode_started_at, detected_at) VALUES ")

	for i := range detections {
		if i > 0 {
			sb.WriteString(", ")
		}

		writeValueTuple(&sb, i)

		args = append(args,
			detections[i].ID, detections[i].SessionID, detections[i].Element,
			detections[i].X, detections[i].Y, detections[i].Clicks,
			detections[i].URL, detections[i].Timestamp, detections[i].DetectedAt,
		)
	}

	_, err := s.db.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return fmt.Errorf("exec batch insert: %w", err)
	}

	return nil
}

// Recent returns up to limit persisted detections, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]domain.Detection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, element, x, y, clicks, url, episode_started_at, detected_at
		FROM rage_clicks
		ORDER BY detected_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent rage clicks: %w", err)
	}
	defer rows.Close()

	detections := make([]domain.Detection, 0, limit)
	for rows.Next() {
		var d domain.Detection
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Element, &d.X, &d.Y,
			&d.Clicks, &d.URL, &d.Timestamp, &d.DetectedAt); err != nil {
			return nil, fmt.Errorf("scan rage click row: %w", err)
		}
		detections = append(detections, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rage click rows: %w", err)
	}

	return detections, nil
}

// Placeholder column offsets within a single row tuple (1-indexed for
// PostgreSQL $N params).
const (
	colID               = 1
	colSessionID        = 2
	colElement          = 3
	colX                = 4
	colY                = 5
	colClicks           = 6
	colURL              = 7
	colEpisodeStartedAt = 8
	colDetectedAt       = 9
)

// writeValueTuple writes a single ($1, $2, ..., $9) placeholder tuple to
// the builder, offset by the row index.
func writeValueTuple(sb *strings.Builder, rowIndex int) {
	base := rowIndex * columnsPerRow
	fmt.Fprintf(sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
		base+colID, base+colSessionID, base+colElement, base+colX,
		base+colY, base+colClicks, base+colURL,
		base+colEpisodeStartedAt, base+colDetectedAt,
	)
}
