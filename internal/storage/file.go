package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourname/healthday/internal"
)

// fileSnapshot is the on-disk layout of FileStorage.
type fileSnapshot struct {
	Steps     []internal.StepsSample     `json:"steps"`
	HeartRate []internal.HeartRateRecord `json:"heart_rate"`
	Sleep     []internal.SleepSession    `json:"sleep"`
}

// FileStorage keeps every record in memory and persists them as one JSON
// document. Writes are batched by a background worker.
type FileStorage struct {
	steps        []internal.StepsSample
	heartRate    []internal.HeartRateRecord
	sleep        []internal.SleepSession
	mu           sync.RWMutex
	saveMu       sync.Mutex
	dataFile     string
	saveChan     chan struct{}
	shutdownChan chan struct{}
	workerDone   chan struct{}
	closeOnce    sync.Once
	saveDelay    time.Duration
	logger       internal.Logger
}

func NewFileStorage(dataFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		dataFile:     dataFile,
		saveChan:     make(chan struct{}, 1),
		shutdownChan: make(chan struct{}),
		workerDone:   make(chan struct{}),
		saveDelay:    500 * time.Millisecond,
		logger:       logger,
	}

	if err := s.load(); err != nil {
		logger.Errorf("storage: failed to load health records: %v", err)
		return nil, err
	}

	go s.saveWorker()

	return s, nil
}

func (s *FileStorage) load() error {
	file, err := os.Open(s.dataFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	var snap fileSnapshot
	if err := json.NewDecoder(file).Decode(&snap); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.steps = snap.Steps
	s.heartRate = snap.HeartRate
	s.sleep = snap.Sleep
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	snap := fileSnapshot{
		Steps:     append([]internal.StepsSample{}, s.steps...),
		HeartRate: append([]internal.HeartRateRecord{}, s.heartRate...),
		Sleep:     append([]internal.SleepSession{}, s.sleep...),
	}
	s.mu.RUnlock()

	return atomicWriteFileJSON(s.dataFile, snap)
}

func (s *FileStorage) saveWorker() {
	defer close(s.workerDone)
	timer := time.NewTimer(s.saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-s.saveChan:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := s.save(); err != nil {
				s.logger.Errorf("storage: error saving health records: %v", err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func (s *FileStorage) signalSave() {
	select {
	case s.saveChan <- struct{}{}:
	default:
	}
}

// Close stops the worker and flushes pending records to disk.
func (s *FileStorage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.shutdownChan)
		<-s.workerDone
		err = s.save()
	})
	return err
}

func (s *FileStorage) Insert(ctx context.Context, records ...internal.Record) error {
	if err := ctx.Err(); err != nil {
		return internal.NewWriteError("insert", err)
	}
	for _, r := range records {
		if err := r.Validate(); err != nil {
			return internal.NewWriteError("insert", fmt.Errorf("%s record rejected: %w", r.Kind(), err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		switch rec := r.(type) {
		case internal.StepsSample:
			if rec.ID == "" {
				rec.ID = uuid.NewString()
			}
			s.steps = append(s.steps, rec)
		case internal.HeartRateRecord:
			if rec.ID == "" {
				rec.ID = uuid.NewString()
			}
			rec.Samples = append([]internal.HeartRateSample(nil), rec.Samples...)
			s.heartRate = append(s.heartRate, rec)
		case internal.SleepSession:
			if rec.ID == "" {
				rec.ID = uuid.NewString()
			}
			s.sleep = append(s.sleep, rec)
		default:
			return internal.NewWriteError("insert", fmt.Errorf("unsupported record type %T", r))
		}
	}
	s.signalSave()
	return nil
}

func (s *FileStorage) ReadHeartRate(ctx context.Context, r internal.Interval) ([]internal.HeartRateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, internal.NewReadError("heart rate", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []internal.HeartRateRecord{}
	for _, rec := range s.heartRate {
		if r.Overlaps(rec.Interval) {
			rec.Samples = append([]internal.HeartRateSample(nil), rec.Samples...)
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Interval.Start.Before(out[j].Interval.Start) })
	return out, nil
}

func (s *FileStorage) ReadSleepSessions(ctx context.Context, r internal.Interval) ([]internal.SleepSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, internal.NewReadError("sleep sessions", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []internal.SleepSession{}
	for _, rec := range s.sleep {
		if r.Overlaps(rec.Interval) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Interval.Start.Before(out[j].Interval.Start) })
	return out, nil
}

func (s *FileStorage) AggregateStepTotal(ctx context.Context, r internal.Interval) (*int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, internal.NewReadError("steps aggregate", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	found := false
	for _, rec := range s.steps {
		if r.Contains(rec.Interval.Start) {
			total += rec.Count
			found = true
		}
	}
	if !found {
		return nil, nil
	}
	return &total, nil
}

func (s *FileStorage) DeleteSteps(ctx context.Context, r internal.Interval) error {
	if err := ctx.Err(); err != nil {
		return internal.NewWriteError("delete steps", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.steps[:0]
	removed := 0
	for _, rec := range s.steps {
		if r.Contains(rec.Interval.Start) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	s.steps = kept
	if removed > 0 {
		s.logger.Debugf("storage: deleted %d steps samples in [%s, %s)", removed, r.Start, r.End)
		s.signalSave()
	}
	return nil
}

// --- Compile-time assertions ---
var _ Gateway = (*FileStorage)(nil)
