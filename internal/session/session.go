package session

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/relistr/mediakit/internal/registry"
	"github.com/relistr/mediakit/internal/transport"
	"github.com/relistr/mediakit/pkg/asset"
	pkgerrors "github.com/relistr/mediakit/pkg/errors"
	"github.com/relistr/mediakit/pkg/logger"
	"github.com/relistr/mediakit/pkg/metrics"
	"github.com/relistr/mediakit/pkg/scope"
	"github.com/relistr/mediakit/pkg/scopelock"
)

// State describes what a session is doing right now. Exactly one
// operation runs per scope at a time, so the state never interleaves.
type State string

const (
	StateIdle      State = "idle"
	StateFetching  State = "fetching"
	StateUploading State = "uploading"
	StateMutating  State = "mutating"
)

const (
	opFetch      = "fetch"
	opUpload     = "upload"
	opDelete     = "delete"
	opReorder    = "reorder"
	opSetPrimary = "set_primary"
)

// Backend is the remote media API a session talks to. *transport.Client
// satisfies it.
type Backend interface {
	FetchImages(ctx context.Context, sc scope.Scope) ([]asset.Record, error)
	UploadBatch(ctx context.Context, sc scope.Scope, files []transport.File, onProgress transport.ProgressFunc) ([]asset.Record, error)
	DeleteImage(ctx context.Context, id int64) error
	PersistOrder(ctx context.Context, sc scope.Scope, orders []transport.ImageOrder) error
	SetPrimary(ctx context.Context, id int64) error
}

// Recorder receives an audit entry after each successful operation.
// *journal.Journal satisfies it.
type Recorder interface {
	Record(ctx context.Context, sc scope.Scope, operation, detail string) error
}

// Options carries the session's collaborators. Backend is required;
// everything else falls back to a working default.
type Options struct {
	Backend  Backend
	Locker   scopelock.Locker
	Logger   *logger.Logger
	Metrics  *metrics.UploadMetrics
	Recorder Recorder

	// ProgressHold is how long per-file progress stays visible after an
	// upload settles. Zero clears immediately.
	ProgressHold time.Duration
}

// Session owns one scope's media collection: it hydrates the registry
// from the backend, validates and transfers uploads, and applies
// mutations locally once the backend confirms them. Reordering is the
// one optimistic operation, and it rolls back on persistence failure.
//
// All operations serialize on the scope key through the Locker, so two
// sessions over the same scope on the same Locker never interleave.
type Session struct {
	cfg       scope.UploadConfig
	sc        scope.Scope
	backend   Backend
	validator Validator
	errs      *ErrorLog
	locks     scopelock.Locker
	logg      *logger.Logger
	metrics   *metrics.UploadMetrics
	recorder  Recorder
	hold      time.Duration

	mu          sync.Mutex
	reg         *registry.Registry
	state       State
	uploading   bool
	progress    map[string]int
	progressGen uint64
}

func New(cfg scope.UploadConfig, opts Options) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Backend == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "backend is required")
	}
	if opts.Locker == nil {
		opts.Locker = scopelock.NewKeyedMutex()
	}
	if opts.Logger == nil {
		opts.Logger = logger.New(logger.Options{ServiceName: "mediakit", Level: zerolog.Disabled, Output: io.Discard})
	}

	reg, err := registry.New(cfg.Scope(), cfg.MaxFiles)
	if err != nil {
		return nil, err
	}

	return &Session{
		cfg:       cfg,
		sc:        cfg.Scope(),
		backend:   opts.Backend,
		validator: NewValidator(cfg),
		errs:      NewErrorLog(),
		locks:     opts.Locker,
		logg:      opts.Logger,
		metrics:   opts.Metrics,
		recorder:  opts.Recorder,
		hold:      opts.ProgressHold,
		reg:       reg,
		state:     StateIdle,
		progress:  make(map[string]int),
	}, nil
}

func (s *Session) Scope() scope.Scope {
	return s.sc
}

// Records returns the current collection in display order.
func (s *Session) Records() []asset.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Records()
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Len()
}

// Primary returns the scope's primary record, if any.
func (s *Session) Primary() (asset.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Primary()
}

// Errors returns the accumulated failure messages in append order.
func (s *Session) Errors() []string {
	return s.errs.All()
}

func (s *Session) ClearErrors() {
	s.errs.Clear()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Uploading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploading
}

// Progress returns per-file upload percentages for the batch in flight
// (or the most recently settled one, until the hold elapses).
func (s *Session) Progress() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.progress))
	for name, percent := range s.progress {
		out[name] = percent
	}
	return out
}

// Fetch replaces the local collection with the backend's view of the
// scope. Failures are logged and returned but never accumulated: a
// transient load error should not linger in the error log the way a
// rejected upload does.
func (s *Session) Fetch(ctx context.Context) error {
	release, err := s.locks.Acquire(ctx, s.sc.Key())
	if err != nil {
		return err
	}
	defer release()

	s.setState(StateFetching)
	defer s.setState(StateIdle)

	start := time.Now()
	records, err := s.backend.FetchImages(ctx, s.sc)
	s.metrics.ObserveDuration(opFetch, string(s.sc.EntityType), time.Since(start))
	if err != nil {
		s.observeFailure(ctx, opFetch, err)
		return err
	}

	s.mu.Lock()
	err = s.reg.Hydrate(records)
	s.mu.Unlock()
	if err != nil {
		s.observeFailure(ctx, opFetch, err)
		return err
	}

	s.metrics.IncSuccess(opFetch, string(s.sc.EntityType))
	s.record(ctx, opFetch, fmt.Sprintf("hydrated %d records", len(records)))
	return nil
}

// Upload validates the batch and transfers the surviving files.
// Individually invalid files are dropped with a message in the error
// log while their valid siblings still upload. If the files that pass
// per-file checks would overflow the scope's file cap, the batch is
// rejected whole, before any network traffic.
func (s *Session) Upload(ctx context.Context, files []transport.File) error {
	if len(files) == 0 {
		return nil
	}

	release, err := s.locks.Acquire(ctx, s.sc.Key())
	if err != nil {
		return err
	}
	defer release()

	accepted, rejections := s.validator.Partition(files)
	s.errs.Append(rejections...)
	for i := 0; i < len(files)-len(accepted); i++ {
		s.metrics.IncRejected()
	}
	if len(accepted) == 0 {
		return nil
	}

	if err := s.validator.CheckQuota(s.Len(), len(accepted)); err != nil {
		s.errs.Append(userMessage(err))
		for range accepted {
			s.metrics.IncRejected()
		}
		s.logg.Warn(s.opCtx(ctx, opUpload), "upload batch rejected: over quota")
		return err
	}

	s.beginUpload(accepted)
	defer s.settleUpload()

	start := time.Now()
	created, err := s.backend.UploadBatch(ctx, s.sc, accepted, s.broadcastProgress(accepted))
	s.metrics.ObserveDuration(opUpload, string(s.sc.EntityType), time.Since(start))
	if err != nil {
		s.errs.Append(userMessage(err))
		s.observeFailure(ctx, opUpload, err)
		return err
	}

	s.mu.Lock()
	err = s.reg.Append(created)
	s.mu.Unlock()
	if err != nil {
		s.errs.Append(userMessage(err))
		s.observeFailure(ctx, opUpload, err)
		return err
	}

	for _, file := range accepted {
		s.metrics.AddUploadBytes(file.Size)
	}
	s.metrics.IncSuccess(opUpload, string(s.sc.EntityType))
	s.record(ctx, opUpload, fmt.Sprintf("uploaded %d files", len(created)))
	return nil
}

// Delete removes the image on the backend, then mirrors the removal
// locally. If the deleted image was primary, the registry promotes the
// first remaining record.
func (s *Session) Delete(ctx context.Context, id int64) error {
	release, err := s.locks.Acquire(ctx, s.sc.Key())
	if err != nil {
		return err
	}
	defer release()

	s.setState(StateMutating)
	defer s.setState(StateIdle)

	if _, ok := s.get(id); !ok {
		err := pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("image %d not in this scope", id))
		s.errs.Append(userMessage(err))
		return err
	}

	start := time.Now()
	err = s.backend.DeleteImage(ctx, id)
	s.metrics.ObserveDuration(opDelete, string(s.sc.EntityType), time.Since(start))
	if err != nil {
		s.errs.Append(userMessage(err))
		s.observeFailure(ctx, opDelete, err)
		return err
	}

	s.mu.Lock()
	_, err = s.reg.Remove(id)
	s.mu.Unlock()
	if err != nil {
		s.observeFailure(ctx, opDelete, err)
		return err
	}

	s.metrics.IncSuccess(opDelete, string(s.sc.EntityType))
	s.record(ctx, opDelete, fmt.Sprintf("deleted image %d", id))
	return nil
}

// Reorder applies the new ordering locally first, then persists it.
// If the backend rejects the ordering the local change is rolled back,
// so the registry never drifts from what the server last confirmed.
func (s *Session) Reorder(ctx context.Context, ids []int64) error {
	release, err := s.locks.Acquire(ctx, s.sc.Key())
	if err != nil {
		return err
	}
	defer release()

	s.setState(StateMutating)
	defer s.setState(StateIdle)

	s.mu.Lock()
	prev := s.reg.Order()
	err = s.reg.Reorder(ids)
	s.mu.Unlock()
	if err != nil {
		s.errs.Append(userMessage(err))
		return err
	}

	orders := make([]transport.ImageOrder, len(ids))
	for i, id := range ids {
		orders[i] = transport.ImageOrder{ImageID: id, SortOrder: i}
	}

	start := time.Now()
	err = s.backend.PersistOrder(ctx, s.sc, orders)
	s.metrics.ObserveDuration(opReorder, string(s.sc.EntityType), time.Since(start))
	if err != nil {
		s.mu.Lock()
		_ = s.reg.Reorder(prev)
		s.mu.Unlock()
		s.errs.Append(userMessage(err))
		s.observeFailure(ctx, opReorder, err)
		return err
	}

	s.metrics.IncSuccess(opReorder, string(s.sc.EntityType))
	s.record(ctx, opReorder, fmt.Sprintf("reordered %d images", len(ids)))
	return nil
}

// Move shifts the record at position from to position to, keeping the
// relative order of everything else. Positions index the current
// display order.
func (s *Session) Move(ctx context.Context, from, to int) error {
	s.mu.Lock()
	ids := s.reg.Order()
	s.mu.Unlock()

	if from < 0 || from >= len(ids) || to < 0 || to >= len(ids) {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("move %d -> %d out of range for %d images", from, to, len(ids)))
	}
	if from == to {
		return nil
	}

	id := ids[from]
	ids = append(ids[:from], ids[from+1:]...)
	rest := append([]int64{}, ids[to:]...)
	ids = append(append(ids[:to], id), rest...)

	return s.Reorder(ctx, ids)
}

// SetPrimary marks the image primary on the backend and then flips the
// local flags atomically. Setting the current primary again is a no-op.
func (s *Session) SetPrimary(ctx context.Context, id int64) error {
	release, err := s.locks.Acquire(ctx, s.sc.Key())
	if err != nil {
		return err
	}
	defer release()

	s.setState(StateMutating)
	defer s.setState(StateIdle)

	record, ok := s.get(id)
	if !ok {
		err := pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("image %d not in this scope", id))
		s.errs.Append(userMessage(err))
		return err
	}
	if record.IsPrimary {
		return nil
	}

	start := time.Now()
	err = s.backend.SetPrimary(ctx, id)
	s.metrics.ObserveDuration(opSetPrimary, string(s.sc.EntityType), time.Since(start))
	if err != nil {
		s.errs.Append(userMessage(err))
		s.observeFailure(ctx, opSetPrimary, err)
		return err
	}

	s.mu.Lock()
	err = s.reg.SetPrimary(id)
	s.mu.Unlock()
	if err != nil {
		s.observeFailure(ctx, opSetPrimary, err)
		return err
	}

	s.metrics.IncSuccess(opSetPrimary, string(s.sc.EntityType))
	s.record(ctx, opSetPrimary, fmt.Sprintf("image %d is now primary", id))
	return nil
}

// userMessage extracts the user-facing text for the error log,
// falling back to the raw error for untyped failures.
func userMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return err.Error()
}

func (s *Session) get(id int64) (asset.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg.Get(id)
}

func (s *Session) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

func (s *Session) beginUpload(files []transport.File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUploading
	s.uploading = true
	s.progressGen++
	s.progress = make(map[string]int, len(files))
	for _, file := range files {
		s.progress[file.Name] = 0
	}
}

// settleUpload drops the uploading flag unconditionally and clears
// progress after the hold, unless a newer batch has started meanwhile.
func (s *Session) settleUpload() {
	s.mu.Lock()
	s.state = StateIdle
	s.uploading = false
	gen := s.progressGen
	s.mu.Unlock()

	clear := func() {
		s.mu.Lock()
		if s.progressGen == gen {
			s.progress = make(map[string]int)
		}
		s.mu.Unlock()
	}
	if s.hold <= 0 {
		clear()
		return
	}
	time.AfterFunc(s.hold, clear)
}

// broadcastProgress fans one batch-level percentage out to every file
// in the batch. Per-file byte accounting is not available on a single
// multipart request, so each file reports the batch's percentage.
func (s *Session) broadcastProgress(files []transport.File) transport.ProgressFunc {
	names := make([]string, len(files))
	for i, file := range files {
		names[i] = file.Name
	}
	return func(percent int) {
		s.mu.Lock()
		for _, name := range names {
			s.progress[name] = percent
		}
		s.mu.Unlock()
	}
}

func (s *Session) opCtx(ctx context.Context, operation string) context.Context {
	ctx = s.logg.WithScope(ctx, s.sc.Key())
	return s.logg.WithOperation(ctx, operation)
}

func (s *Session) observeFailure(ctx context.Context, operation string, err error) {
	s.metrics.IncFailure(operation, string(s.sc.EntityType))
	s.logg.Error(s.opCtx(ctx, operation), operation+" failed", err)
}

func (s *Session) record(ctx context.Context, operation, detail string) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, s.sc, operation, detail); err != nil {
		s.logg.Warn(s.opCtx(ctx, operation), "journal write failed")
	}
}
