package service

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/mandoub-dev/mandoub-api/internal/models"
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
)

type studentRegistrar interface {
	Register(ctx context.Context, req RegisterStudentRequest) (*RegistrationResult, error)
}

type importDelegateResolver interface {
	FindByName(ctx context.Context, name string) (*models.Delegate, error)
}

type importCourseResolver interface {
	FindByName(ctx context.Context, name string) (*models.Course, error)
}

// ImportResult reports the outcome of a bulk student upload.
type ImportResult struct {
	ImportedCount int `json:"imported_count"`
	SkippedCount  int `json:"skipped_count"`
}

// importColumns maps the localized spreadsheet headers onto field slots.
var importColumns = map[string]int{
	"الاسم_الأول":  colFirstName,
	"الاسم_الثاني": colSecondName,
	"الاسم_الثالث": colThirdName,
	"اللقب":        colLastName,
	"الهاتف":       colPhone,
	"الدورة":       colCourse,
	"الوقت":        colSchedule,
	"المندوب":      colDelegate,
}

const (
	colFirstName = iota
	colSecondName
	colThirdName
	colLastName
	colPhone
	colCourse
	colSchedule
	colDelegate
	colCount
)

// ImportService turns delegate-submitted CSV sheets into registrations.
type ImportService struct {
	students  studentRegistrar
	delegates importDelegateResolver
	courses   importCourseResolver
	logger    *zap.Logger
	maxRows   int
}

// NewImportService constructs the import service.
func NewImportService(students studentRegistrar, delegates importDelegateResolver, courses importCourseResolver, logger *zap.Logger, maxRows int) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRows <= 0 {
		maxRows = 1000
	}
	return &ImportService{
		students:  students,
		delegates: delegates,
		courses:   courses,
		logger:    logger,
		maxRows:   maxRows,
	}
}

// ImportStudents reads a CSV sheet with localized headers and registers every
// resolvable row. Rows with an unknown delegate, course, or schedule, and rows
// that collide with an existing student, are counted as skipped rather than
// failing the whole upload.
func (s *ImportService) ImportStudents(ctx context.Context, r io.Reader, actorID *int64) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "import file is empty or malformed")
	}
	slots, err := resolveHeader(header)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	rows := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "import file is malformed")
		}
		rows++
		if rows > s.maxRows {
			return nil, appErrors.Clone(appErrors.ErrValidation, "import file exceeds the row limit")
		}
		if isEmptyRecord(record) {
			continue
		}

		req, ok := s.buildRequest(ctx, record, slots, actorID)
		if !ok {
			result.SkippedCount++
			continue
		}

		if _, err := s.students.Register(ctx, *req); err != nil {
			var appErr *appErrors.Error
			if errors.As(err, &appErr) && appErr.Status < 500 {
				s.logger.Debug("import row skipped",
					zap.Int("row", rows),
					zap.String("reason", appErr.Code))
				result.SkippedCount++
				continue
			}
			return nil, err
		}
		result.ImportedCount++
	}
	return result, nil
}

func (s *ImportService) buildRequest(ctx context.Context, record []string, slots []int, actorID *int64) (*RegisterStudentRequest, bool) {
	fields := make([]string, colCount)
	for i, slot := range slots {
		if slot < 0 || i >= len(record) {
			continue
		}
		fields[slot] = strings.TrimSpace(record[i])
	}

	schedule, ok := parseSchedule(fields[colSchedule])
	if !ok {
		return nil, false
	}

	delegate, err := s.delegates.FindByName(ctx, fields[colDelegate])
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("delegate lookup failed during import", zap.Error(err))
		}
		return nil, false
	}

	course, err := s.courses.FindByName(ctx, fields[colCourse])
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Warn("course lookup failed during import", zap.Error(err))
		}
		return nil, false
	}

	return &RegisterStudentRequest{
		FirstName:  fields[colFirstName],
		SecondName: fields[colSecondName],
		ThirdName:  fields[colThirdName],
		LastName:   fields[colLastName],
		Phone:      fields[colPhone],
		Course:     course.Name,
		Schedule:   schedule,
		DelegateID: delegate.ID,
		Silent:     true,
		ActorID:    actorID,
	}, true
}

func resolveHeader(header []string) ([]int, error) {
	slots := make([]int, len(header))
	seen := make(map[int]bool, colCount)
	for i, raw := range header {
		name := strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF"))
		slot, ok := importColumns[name]
		if !ok {
			slots[i] = -1
			continue
		}
		slots[i] = slot
		seen[slot] = true
	}
	if len(seen) != colCount {
		return nil, appErrors.Clone(appErrors.ErrValidation, "import file is missing required columns")
	}
	return slots, nil
}

func parseSchedule(raw string) (models.Schedule, bool) {
	value := strings.TrimSpace(raw)
	switch {
	case value == string(models.ScheduleMorning), strings.Contains(value, "صباح"):
		return models.ScheduleMorning, true
	case value == string(models.ScheduleEvening), strings.Contains(value, "مساء"):
		return models.ScheduleEvening, true
	default:
		return "", false
	}
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
