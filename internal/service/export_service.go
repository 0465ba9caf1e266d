package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mandoub-dev/mandoub-api/internal/models"
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
	"github.com/mandoub-dev/mandoub-api/pkg/export"
)

type exportStudentSource interface {
	All(ctx context.Context) ([]models.Student, error)
}

type exportCommissionSource interface {
	All(ctx context.Context) ([]models.Commission, error)
}

type exportDelegateSource interface {
	All(ctx context.Context) ([]models.Delegate, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered download payload.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders the student roster as CSV and commission statements
// as PDF tables.
type ExportService struct {
	students    exportStudentSource
	commissions exportCommissionSource
	delegates   exportDelegateSource
	csv         csvRenderer
	pdf         pdfRenderer
	logger      *zap.Logger
	now         func() time.Time
}

// Student sheets use the same localized headers the importer accepts, so an
// exported file can be re-imported unchanged.
var studentExportHeaders = []string{
	"الاسم_الأول", "الاسم_الثاني", "الاسم_الثالث", "اللقب", "الهاتف", "الدورة", "الوقت", "المندوب",
}

// NewExportService constructs the export service.
func NewExportService(students exportStudentSource, commissions exportCommissionSource, delegates exportDelegateSource, csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		students:    students,
		commissions: commissions,
		delegates:   delegates,
		csv:         csv,
		pdf:         pdf,
		logger:      logger,
		now:         time.Now,
	}
}

// StudentsCSV renders the full student roster.
func (s *ExportService) StudentsCSV(ctx context.Context) (*ExportFile, error) {
	students, err := s.students.All(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students for export")
	}
	delegateNames, err := s.delegateNames(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]map[string]string, 0, len(students))
	for _, student := range students {
		rows = append(rows, map[string]string{
			"الاسم_الأول":  student.FirstName,
			"الاسم_الثاني": student.SecondName,
			"الاسم_الثالث": student.ThirdName,
			"اللقب":        student.LastName,
			"الهاتف":       student.Phone,
			"الدورة":       student.Course,
			"الوقت":        localizedSchedule(student.Schedule),
			"المندوب":      delegateNames[student.DelegateID],
		})
	}

	payload, err := s.csv.Render(export.Dataset{Headers: studentExportHeaders, Rows: rows})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render student export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("students_%s.csv", s.now().UTC().Format("20060102_150405")),
		ContentType: "text/csv; charset=utf-8",
		Data:        payload,
	}, nil
}

// CommissionsPDF renders a commission statement table.
func (s *ExportService) CommissionsPDF(ctx context.Context) (*ExportFile, error) {
	commissions, err := s.commissions.All(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load commissions for export")
	}
	delegateNames, err := s.delegateNames(ctx)
	if err != nil {
		return nil, err
	}

	headers := []string{"ID", "Student", "Delegate", "Amount", "Status", "Confirmed", "Paid"}
	rows := make([]map[string]string, 0, len(commissions))
	for _, commission := range commissions {
		rows = append(rows, map[string]string{
			"ID":        fmt.Sprintf("%d", commission.ID),
			"Student":   commission.StudentName,
			"Delegate":  delegateNames[commission.DelegateID],
			"Amount":    fmt.Sprintf("%.2f", commission.Amount),
			"Status":    string(commission.Status),
			"Confirmed": derefDate(commission.ConfirmedDate),
			"Paid":      derefDate(commission.PaidDate),
		})
	}

	payload, err := s.pdf.Render(export.Dataset{Headers: headers, Rows: rows}, "Commission Statement")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render commission export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("commissions_%s.pdf", s.now().UTC().Format("20060102_150405")),
		ContentType: "application/pdf",
		Data:        payload,
	}, nil
}

func (s *ExportService) delegateNames(ctx context.Context) (map[int64]string, error) {
	delegates, err := s.delegates.All(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load delegates for export")
	}
	names := make(map[int64]string, len(delegates))
	for _, delegate := range delegates {
		names[delegate.ID] = delegate.Name
	}
	return names, nil
}

func localizedSchedule(schedule models.Schedule) string {
	switch schedule {
	case models.ScheduleMorning:
		return "صباحي"
	case models.ScheduleEvening:
		return "مسائي"
	default:
		return string(schedule)
	}
}

func derefDate(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
