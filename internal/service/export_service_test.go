package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mandoub-dev/mandoub-api/internal/models"
)

type exportStudentsStub struct{ items []models.Student }

func (e *exportStudentsStub) All(ctx context.Context) ([]models.Student, error) {
	return e.items, nil
}

func newExportServiceForTest(students []models.Student, commissions []models.Commission, delegates []models.Delegate) *ExportService {
	return NewExportService(
		&exportStudentsStub{items: students},
		&commissionSourceStub{items: commissions},
		&delegateSourceStub{items: delegates},
		nil, nil, nil,
	)
}

func TestExportServiceStudentsCSV(t *testing.T) {
	svc := newExportServiceForTest(
		[]models.Student{
			{ID: 1, FirstName: "أحمد", SecondName: "محمد", ThirdName: "علي", LastName: "الحسن", Phone: "0912345678", Course: "إنجليزي", Schedule: models.ScheduleMorning, DelegateID: 7},
			{ID: 2, FirstName: "ليلى", SecondName: "خالد", ThirdName: "سعيد", LastName: "العمر", Phone: "0923456789", Course: "إنجليزي", Schedule: models.ScheduleEvening, DelegateID: 7},
		},
		nil,
		[]models.Delegate{{ID: 7, Name: "سالم"}},
	)

	file, err := svc.StudentsCSV(context.Background())
	require.NoError(t, err)
	require.Equal(t, "text/csv; charset=utf-8", file.ContentType)
	require.True(t, strings.HasPrefix(file.Filename, "students_"))
	require.True(t, strings.HasSuffix(file.Filename, ".csv"))

	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "الاسم_الأول,الاسم_الثاني,الاسم_الثالث,اللقب,الهاتف,الدورة,الوقت,المندوب", lines[0])
	require.Contains(t, lines[1], "صباحي")
	require.Contains(t, lines[2], "مسائي")
	require.Contains(t, lines[1], "سالم")
}

// An exported roster must survive a round trip through the importer.
func TestExportServiceStudentsCSVReimports(t *testing.T) {
	exporter := newExportServiceForTest(
		[]models.Student{
			{ID: 1, FirstName: "أحمد", SecondName: "محمد", ThirdName: "علي", LastName: "الحسن", Phone: "0912345678", Course: "إنجليزي", Schedule: models.ScheduleMorning, DelegateID: 7},
		},
		nil,
		[]models.Delegate{{ID: 7, Name: "سالم"}},
	)
	file, err := exporter.StudentsCSV(context.Background())
	require.NoError(t, err)

	registrar := &registrarStub{}
	importer := newImportServiceForTest(registrar, 0)
	result, err := importer.ImportStudents(context.Background(), bytes.NewReader(file.Data), nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.ImportedCount)
	require.Equal(t, 0, result.SkippedCount)
	require.Equal(t, "أحمد", registrar.requests[0].FirstName)
	require.Equal(t, models.ScheduleMorning, registrar.requests[0].Schedule)
}

func TestExportServiceCommissionsPDF(t *testing.T) {
	confirmed := "2026-03-15"
	svc := newExportServiceForTest(
		nil,
		[]models.Commission{
			{ID: 1, StudentName: "أحمد محمد علي الحسن", DelegateID: 7, Amount: 500, Status: models.CommissionConfirmed, ConfirmedDate: &confirmed},
		},
		[]models.Delegate{{ID: 7, Name: "سالم"}},
	)

	file, err := svc.CommissionsPDF(context.Background())
	require.NoError(t, err)
	require.Equal(t, "application/pdf", file.ContentType)
	require.True(t, strings.HasPrefix(file.Filename, "commissions_"))
	require.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))
}
