package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mandoub-dev/mandoub-api/internal/models"
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
	"github.com/mandoub-dev/mandoub-api/pkg/jobs"
	"github.com/mandoub-dev/mandoub-api/pkg/storage"
)

type backupStudentSource interface {
	All(ctx context.Context) ([]models.Student, error)
}

type backupCommissionSource interface {
	All(ctx context.Context) ([]models.Commission, error)
}

type backupUserSource interface {
	All(ctx context.Context) ([]models.User, error)
}

type backupDelegateSource interface {
	All(ctx context.Context) ([]models.Delegate, error)
}

type backupBankAccountSource interface {
	All(ctx context.Context) ([]models.BankAccount, error)
}

type backupCourseSource interface {
	All(ctx context.Context) ([]models.Course, error)
}

type snapshotRestorer interface {
	Restore(ctx context.Context, data models.BackupData) error
}

type backupStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	List() ([]storage.FileInfo, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// BackupServiceConfig tunes backup generation and retention.
type BackupServiceConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// BackupServiceParams groups constructor dependencies.
type BackupServiceParams struct {
	Students     backupStudentSource
	Commissions  backupCommissionSource
	Users        backupUserSource
	Delegates    backupDelegateSource
	BankAccounts backupBankAccountSource
	Courses      backupCourseSource
	Restorer     snapshotRestorer
	Storage      backupStorage
	Signer       *storage.SignedURLSigner
	Queue        jobDispatcher
	Activity     activityWriter
	Logger       *zap.Logger
	Config       BackupServiceConfig
}

// BackupDownload aggregates resolved download data.
type BackupDownload struct {
	File      *os.File
	Filename  string
	ExpiresAt time.Time
}

// BackupService snapshots the six persisted collections to local disk and
// restores them from uploaded snapshot files.
type BackupService struct {
	students     backupStudentSource
	commissions  backupCommissionSource
	users        backupUserSource
	delegates    backupDelegateSource
	bankAccounts backupBankAccountSource
	courses      backupCourseSource
	restorer     snapshotRestorer
	storage      backupStorage
	signer       *storage.SignedURLSigner
	queue        jobDispatcher
	activity     activityWriter
	logger       *zap.Logger
	cfg          BackupServiceConfig
	now          func() time.Time
}

type backupJobPayload struct {
	Name string
}

const backupJobType = "backup"

// NewBackupService constructs the backup service.
func NewBackupService(params BackupServiceParams) *BackupService {
	cfg := params.Config
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 30 * 24 * time.Hour
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupService{
		students:     params.Students,
		commissions:  params.Commissions,
		users:        params.Users,
		delegates:    params.Delegates,
		bankAccounts: params.BankAccounts,
		courses:      params.Courses,
		restorer:     params.Restorer,
		storage:      params.Storage,
		signer:       params.Signer,
		queue:        params.Queue,
		activity:     params.Activity,
		logger:       logger,
		cfg:          cfg,
		now:          time.Now,
	}
}

// Create enqueues snapshot generation and returns the assigned backup id. The
// snapshot shows up in List once the worker has written it.
func (s *BackupService) Create(ctx context.Context, name string, actorID *int64) (*models.BackupInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("نسخة احتياطية %s", s.now().UTC().Format("2006-01-02"))
	}
	id := uuid.NewString()
	if err := s.queue.Enqueue(jobs.Job{ID: id, Type: backupJobType, Payload: backupJobPayload{Name: name}}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue backup job")
	}
	s.logActivity(ctx, actorID, models.ActivityActionAdd, fmt.Sprintf("backup %q queued", name))
	return &models.BackupInfo{
		ID:   id,
		Name: name,
		Date: s.now().UTC().Format(time.RFC3339),
	}, nil
}

// Generate composes the snapshot document and writes it to storage. Invoked by
// the queue worker.
func (s *BackupService) Generate(ctx context.Context, id, name string) error {
	data, err := s.collect(ctx)
	if err != nil {
		return err
	}

	snapshot := models.BackupSnapshot{
		Name: name,
		Date: s.now().UTC().Format(time.RFC3339),
		Data: *data,
	}
	dataBytes, err := json.Marshal(snapshot.Data)
	if err != nil {
		return fmt.Errorf("marshal backup data: %w", err)
	}
	snapshot.Size = int64(len(dataBytes))

	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal backup snapshot: %w", err)
	}
	if _, err := s.storage.Save(backupFilename(id), payload); err != nil {
		return fmt.Errorf("persist backup snapshot: %w", err)
	}
	s.logger.Info("backup snapshot written",
		zap.String("backup_id", id),
		zap.Int64("size", snapshot.Size))
	return nil
}

// List returns stored snapshots, newest first, each with a signed download URL.
func (s *BackupService) List(ctx context.Context) ([]models.BackupInfo, error) {
	files, err := s.storage.List()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list backups")
	}

	infos := make([]models.BackupInfo, 0, len(files))
	for _, file := range files {
		if !strings.HasSuffix(file.Name, ".json") {
			continue
		}
		id := strings.TrimSuffix(file.Name, ".json")
		info := models.BackupInfo{ID: id, Size: file.Size}
		if err := s.readHeader(file.Name, &info); err != nil {
			s.logger.Warn("skipping unreadable backup file", zap.String("file", file.Name), zap.Error(err))
			continue
		}
		if s.signer != nil {
			token, _, err := s.signer.Generate(id, file.Name)
			if err != nil {
				s.logger.Warn("failed to sign backup download url", zap.String("file", file.Name), zap.Error(err))
			} else {
				info.DownloadURL = fmt.Sprintf("%s/backups/download?token=%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token)
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// ResolveDownload validates the signed token and opens the snapshot file.
func (s *BackupService) ResolveDownload(token string) (*BackupDownload, error) {
	_, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open backup file")
	}
	return &BackupDownload{File: file, Filename: relPath, ExpiresAt: expiresAt}, nil
}

// Restore replaces the persisted collections with those from an uploaded
// snapshot. Only the presence of name and data is validated.
func (s *BackupService) Restore(ctx context.Context, r io.Reader, actorID *int64) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		return appErrors.Clone(appErrors.ErrInvalidBackup, "failed to read backup file")
	}

	var probe struct {
		Name string          `json:"name"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return appErrors.ErrInvalidBackup
	}
	if probe.Name == "" || len(probe.Data) == 0 || string(probe.Data) == "null" {
		return appErrors.ErrInvalidBackup
	}

	var snapshot models.BackupSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return appErrors.ErrInvalidBackup
	}

	if err := s.restorer.Restore(ctx, snapshot.Data); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore backup")
	}
	s.logActivity(ctx, actorID, models.ActivityActionUpdate, fmt.Sprintf("backup %q restored", snapshot.Name))
	s.logger.Info("backup restored", zap.String("name", snapshot.Name))
	return nil
}

// StartCleanup boots a goroutine that purges expired snapshots periodically.
func (s *BackupService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				deleted, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
				if err != nil {
					s.logger.Warn("backup cleanup failed", zap.Error(err))
					continue
				}
				if len(deleted) > 0 {
					s.logger.Info("expired backups removed", zap.Int("count", len(deleted)))
				}
			}
		}
	}()
}

func (s *BackupService) collect(ctx context.Context) (*models.BackupData, error) {
	students, err := s.students.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect students: %w", err)
	}
	commissions, err := s.commissions.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect commissions: %w", err)
	}
	users, err := s.users.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect users: %w", err)
	}
	delegates, err := s.delegates.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect delegates: %w", err)
	}
	bankAccounts, err := s.bankAccounts.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect bank accounts: %w", err)
	}
	courses, err := s.courses.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect courses: %w", err)
	}
	return &models.BackupData{
		Students:     students,
		Commissions:  commissions,
		Users:        users,
		Delegates:    delegates,
		BankAccounts: bankAccounts,
		Courses:      courses,
	}, nil
}

func (s *BackupService) readHeader(filename string, info *models.BackupInfo) error {
	file, err := s.storage.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close() //nolint:errcheck

	var header struct {
		Name string `json:"name"`
		Date string `json:"date"`
	}
	if err := json.NewDecoder(file).Decode(&header); err != nil {
		return err
	}
	info.Name = header.Name
	info.Date = header.Date
	return nil
}

func (s *BackupService) logActivity(ctx context.Context, actorID *int64, action, details string) {
	if s.activity == nil {
		return
	}
	entry := &models.ActivityLog{Action: action, Target: "backup", Details: details, UserID: actorID}
	if err := s.activity.Create(ctx, entry); err != nil {
		s.logger.Warn("failed to record backup activity", zap.Error(err))
	}
}

func backupFilename(id string) string {
	return id + ".json"
}

// BackupWorker bridges queue jobs to snapshot generation.
type BackupWorker struct {
	backups *BackupService
	logger  *zap.Logger
}

// NewBackupWorker constructs a worker.
func NewBackupWorker(backups *BackupService, logger *zap.Logger) *BackupWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupWorker{backups: backups, logger: logger}
}

// Handle processes a queue job.
func (w *BackupWorker) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(backupJobPayload)
	if !ok {
		w.logger.Error("unexpected backup job payload", zap.String("job_id", job.ID))
		return fmt.Errorf("unexpected payload for job %s", job.ID)
	}
	return w.backups.Generate(ctx, job.ID, payload.Name)
}
