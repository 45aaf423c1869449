package session

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/premhagargi/Kollab/domain"
)

const (
	columnWriterBuffer  = 64
	columnWriteTimeout  = 30 * time.Second
	columnWriterHandoff = 15 * time.Millisecond
)

type columnJob struct {
	boardID string
	columns []domain.Column
}

// columnWriter persists column structure in the background for the
// fire-and-forget tier: failures are reported to the notifier but never
// block or roll back the operation that launched the write.
type columnWriter struct {
	remote   Remote
	notifier Notifier
	logger   *log.Logger

	jobs      chan columnJob
	wg        sync.WaitGroup
	overflow  sync.WaitGroup
	closeOnce sync.Once
}

func newColumnWriter(remote Remote, notifier Notifier, logger *log.Logger) *columnWriter {
	w := &columnWriter{
		remote:   remote,
		notifier: notifier,
		logger:   logger,
		jobs:     make(chan columnJob, columnWriterBuffer),
	}
	w.wg.Add(1)
	go w.worker()
	return w
}

func (w *columnWriter) worker() {
	defer w.wg.Done()
	for job := range w.jobs {
		w.write(job)
	}
}

func (w *columnWriter) write(job columnJob) {
	ctx, cancel := context.WithTimeout(context.Background(), columnWriteTimeout)
	err := w.remote.WriteBoardColumns(ctx, job.boardID, job.columns)
	cancel()
	if err != nil {
		w.logger.WithError(err).WithField("board", job.boardID).Error("background column write failed")
		w.notifier.Notify(Notification{
			Op:      "persist_columns",
			Message: "saving the board layout failed; it will be corrected on the next reload",
			Err:     err,
		})
	}
}

// enqueue hands the job to the worker, falling back to a detached goroutine
// when the buffer stays full past the handoff window. The write is never
// dropped.
func (w *columnWriter) enqueue(job columnJob) {
	select {
	case w.jobs <- job:
		return
	default:
	}

	timer := time.NewTimer(columnWriterHandoff)
	defer timer.Stop()
	select {
	case w.jobs <- job:
	case <-timer.C:
		w.overflow.Add(1)
		go func() {
			defer w.overflow.Done()
			w.write(job)
		}()
	}
}

func (w *columnWriter) close() {
	w.closeOnce.Do(func() { close(w.jobs) })
	w.wg.Wait()
	w.overflow.Wait()
}
