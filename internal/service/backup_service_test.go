package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mandoub-dev/mandoub-api/internal/models"
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
	"github.com/mandoub-dev/mandoub-api/pkg/jobs"
	"github.com/mandoub-dev/mandoub-api/pkg/storage"
)

type backupSourceStub struct {
	students     []models.Student
	commissions  []models.Commission
	users        []models.User
	delegates    []models.Delegate
	bankAccounts []models.BankAccount
	courses      []models.Course
	restored     *models.BackupData
}

func (b *backupSourceStub) All(ctx context.Context) ([]models.Student, error) {
	return b.students, nil
}

func (b *backupSourceStub) Restore(ctx context.Context, data models.BackupData) error {
	b.restored = &data
	return nil
}

type commissionSourceStub struct{ items []models.Commission }

func (c *commissionSourceStub) All(ctx context.Context) ([]models.Commission, error) {
	return c.items, nil
}

type userSourceStub struct{ items []models.User }

func (u *userSourceStub) All(ctx context.Context) ([]models.User, error) { return u.items, nil }

type delegateSourceStub struct{ items []models.Delegate }

func (d *delegateSourceStub) All(ctx context.Context) ([]models.Delegate, error) {
	return d.items, nil
}

type bankAccountSourceStub struct{ items []models.BankAccount }

func (b *bankAccountSourceStub) All(ctx context.Context) ([]models.BankAccount, error) {
	return b.items, nil
}

type courseSourceStub struct{ items []models.Course }

func (c *courseSourceStub) All(ctx context.Context) ([]models.Course, error) { return c.items, nil }

type queueStub struct {
	jobs []jobs.Job
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

func newBackupServiceForTest(t *testing.T, sources *backupSourceStub, queue *queueStub, activity *activityStub) *BackupService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewBackupService(BackupServiceParams{
		Students:     sources,
		Commissions:  &commissionSourceStub{items: sources.commissions},
		Users:        &userSourceStub{items: sources.users},
		Delegates:    &delegateSourceStub{items: sources.delegates},
		BankAccounts: &bankAccountSourceStub{items: sources.bankAccounts},
		Courses:      &courseSourceStub{items: sources.courses},
		Restorer:     sources,
		Storage:      store,
		Signer:       storage.NewSignedURLSigner("test-secret", time.Hour),
		Queue:        queue,
		Activity:     activity,
		Config:       BackupServiceConfig{APIPrefix: "/api/v1"},
	})
}

func seededBackupSources() *backupSourceStub {
	return &backupSourceStub{
		students:    []models.Student{{ID: 1, FirstName: "أحمد", LastName: "الحسن", DelegateID: 7}},
		commissions: []models.Commission{{ID: 1, StudentID: 1, DelegateID: 7, Amount: 500, Status: models.CommissionPending}},
		users:       []models.User{{ID: 70, Username: "salim"}},
		delegates:   []models.Delegate{{ID: 7, UserID: 70, Name: "سالم"}},
		courses:     []models.Course{{ID: 1, Name: "إنجليزي"}},
	}
}

func TestBackupServiceCreateEnqueuesJob(t *testing.T) {
	queue := &queueStub{}
	activity := &activityStub{}
	svc := newBackupServiceForTest(t, seededBackupSources(), queue, activity)

	info, err := svc.Create(context.Background(), "  ", nil)
	require.NoError(t, err)
	require.NotEmpty(t, info.ID)
	// A blank name falls back to the localized default.
	require.Contains(t, info.Name, "نسخة احتياطية")

	require.Len(t, queue.jobs, 1)
	require.Equal(t, info.ID, queue.jobs[0].ID)
	require.Equal(t, "backup", queue.jobs[0].Type)
	require.Len(t, activity.entries, 1)
	require.Equal(t, "backup", activity.entries[0].Target)
}

func TestBackupServiceGenerateListDownloadRoundTrip(t *testing.T) {
	sources := seededBackupSources()
	svc := newBackupServiceForTest(t, sources, &queueStub{}, &activityStub{})

	require.NoError(t, svc.Generate(context.Background(), "backup-1", "قبل الفصل الجديد"))

	infos, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, "backup-1", infos[0].ID)
	require.Equal(t, "قبل الفصل الجديد", infos[0].Name)
	require.Greater(t, infos[0].Size, int64(0))
	require.Contains(t, infos[0].DownloadURL, "/api/v1/backups/download?token=")

	token := strings.TrimPrefix(infos[0].DownloadURL, "/api/v1/backups/download?token=")
	download, err := svc.ResolveDownload(token)
	require.NoError(t, err)
	defer download.File.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(download.File)
	require.NoError(t, err)

	// The downloaded snapshot restores the exact collections it was built from.
	require.NoError(t, svc.Restore(context.Background(), &buf, nil))
	require.NotNil(t, sources.restored)
	require.Len(t, sources.restored.Students, 1)
	require.Equal(t, "أحمد", sources.restored.Students[0].FirstName)
	require.Len(t, sources.restored.Delegates, 1)
	require.Len(t, sources.restored.Commissions, 1)
}

func TestBackupServiceResolveDownloadRejectsBadToken(t *testing.T) {
	svc := newBackupServiceForTest(t, seededBackupSources(), &queueStub{}, &activityStub{})

	_, err := svc.ResolveDownload("not-a-token")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestBackupServiceRestoreRejectsMalformedFiles(t *testing.T) {
	sources := seededBackupSources()
	svc := newBackupServiceForTest(t, sources, &queueStub{}, &activityStub{})

	for _, payload := range []string{
		"not json",
		`{"date":"2026-01-01"}`,
		`{"name":"backup","data":null}`,
	} {
		err := svc.Restore(context.Background(), strings.NewReader(payload), nil)
		require.Error(t, err, payload)
		require.Equal(t, appErrors.ErrInvalidBackup.Code, appErrors.FromError(err).Code)
	}
	require.Nil(t, sources.restored)
}

func TestBackupWorkerHandlesQueueJob(t *testing.T) {
	sources := seededBackupSources()
	svc := newBackupServiceForTest(t, sources, &queueStub{}, &activityStub{})
	worker := NewBackupWorker(svc, nil)

	job := jobs.Job{ID: "backup-2", Type: "backup", Payload: backupJobPayload{Name: "دوري"}}
	require.NoError(t, worker.Handle(context.Background(), job))

	infos, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	require.Equal(t, "دوري", infos[0].Name)

	require.Error(t, worker.Handle(context.Background(), jobs.Job{ID: "bad", Payload: "nope"}))
}
