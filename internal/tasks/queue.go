package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
	"go.uber.org/zap"

	"github.com/khaleelElias/YA/internal/auth"
	"github.com/khaleelElias/YA/internal/entities"
)

const dsnOptions = "?_journal=WAL&_timeout=5000&_busy_timeout=5000"

// Downloads is what the queue drives: the download itself and the
// download_queue status rows.
type Downloads interface {
	BookDownloader
	DownloadQueue
}

// Queue runs book downloads in the background. Tasks live in their own
// SQLite file so they survive restarts without touching the local store.
type Queue struct {
	client *backlite.Client
	db     *sql.DB
	cfg    Config
	status DownloadQueue
	logger *zap.Logger

	mu      sync.Mutex
	running bool
}

// PathFor returns the task database path that sits next to the local store:
// the same name with a "-tasks" suffix before the extension.
func PathFor(storePath string) string {
	ext := filepath.Ext(storePath)
	return strings.TrimSuffix(storePath, ext) + "-tasks" + ext
}

// Open opens or creates the task database at path and registers the
// download queue against downloads.
func Open(path string, cfg Config, downloads Downloads, logger *zap.Logger) (*Queue, error) {
	cfg = cfg.withDefaults()
	logger = logger.Named("tasks")

	db, err := sql.Open("sqlite3", path+dsnOptions)
	if err != nil {
		return nil, fmt.Errorf("open task database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          zapLogger{logger.Sugar()},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create task client: %w", err)
	}
	if err := client.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("install task schema: %w", err)
	}
	client.Register(NewDownloadBookQueue(downloads, logger))

	return &Queue{
		client: client,
		db:     db,
		cfg:    cfg,
		status: downloads,
		logger: logger,
	}, nil
}

// Start begins handing tasks to workers until ctx is cancelled or Stop is
// called. Calling it on a running queue does nothing.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	q.client.Start(ctx)
	q.logger.Info("Download queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop waits for running downloads to finish. Without a deadline on ctx it
// waits at most Config.DrainTimeout. It reports whether every worker
// finished in time.
func (q *Queue) Stop(ctx context.Context) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		return true
	}
	q.running = false

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.cfg.DrainTimeout)
		defer cancel()
	}
	drained := q.client.Stop(ctx)
	if drained {
		q.logger.Info("Download queue stopped")
	} else {
		q.logger.Warn("Download queue stopped before running downloads finished")
	}
	return drained
}

// Close stops the queue and closes the task database.
func (q *Queue) Close(ctx context.Context) error {
	var errList []error
	if !q.Stop(ctx) {
		errList = append(errList, errors.New("download queue did not drain"))
	}
	if err := q.db.Close(); err != nil {
		errList = append(errList, fmt.Errorf("close task database: %w", err))
	}
	return errors.Join(errList...)
}

// Enqueue checks the download preconditions, marks the book pending and adds
// a DownloadBookTask. It returns the task id.
func (q *Queue) Enqueue(ctx context.Context, book *entities.Book, owner auth.Identity) (string, error) {
	if err := q.status.MarkQueued(ctx, book); err != nil {
		return "", err
	}

	ids, err := q.client.Add(DownloadBookTask{Book: *book, UserID: owner.Key()}).Ctx(ctx).Save()
	if err == nil && len(ids) == 0 {
		err = errors.New("no task id returned")
	}
	if err != nil {
		err = fmt.Errorf("enqueue download of %s: %w", book.ID, err)
		_ = q.status.MarkFailed(ctx, book.ID, err)
		return "", err
	}
	q.logger.Debug("Queued download", zap.String("book_id", book.ID), zap.String("task_id", ids[0]))
	return ids[0], nil
}

// TaskStatus returns backlite's view of a queued task.
func (q *Queue) TaskStatus(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return q.client.Status(ctx, taskID)
}

// zapLogger adapts a sugared zap logger to backlite.Logger.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Info(message string, params ...any) {
	l.s.Infow(message, params...)
}

func (l zapLogger) Error(message string, params ...any) {
	l.s.Errorw(message, params...)
}
