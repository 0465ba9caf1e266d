package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mandoub-dev/mandoub-api/internal/models"
	appErrors "github.com/mandoub-dev/mandoub-api/pkg/errors"
)

type registrarStub struct {
	requests []RegisterStudentRequest
	fail     func(req RegisterStudentRequest) error
}

func (r *registrarStub) Register(ctx context.Context, req RegisterStudentRequest) (*RegistrationResult, error) {
	if r.fail != nil {
		if err := r.fail(req); err != nil {
			return nil, err
		}
	}
	r.requests = append(r.requests, req)
	return &RegistrationResult{
		Student:    &models.Student{ID: int64(len(r.requests))},
		Commission: &models.Commission{},
	}, nil
}

type delegateByNameStub struct {
	delegates map[string]*models.Delegate
}

func (d *delegateByNameStub) FindByName(ctx context.Context, name string) (*models.Delegate, error) {
	if del, ok := d.delegates[name]; ok {
		return del, nil
	}
	return nil, sql.ErrNoRows
}

type courseByNameStub struct {
	courses map[string]*models.Course
}

func (c *courseByNameStub) FindByName(ctx context.Context, name string) (*models.Course, error) {
	if course, ok := c.courses[name]; ok {
		return course, nil
	}
	return nil, sql.ErrNoRows
}

const importHeader = "الاسم_الأول,الاسم_الثاني,الاسم_الثالث,اللقب,الهاتف,الدورة,الوقت,المندوب"

func newImportServiceForTest(registrar *registrarStub, maxRows int) *ImportService {
	delegates := &delegateByNameStub{delegates: map[string]*models.Delegate{
		"سالم": {ID: 7, Name: "سالم"},
	}}
	courses := &courseByNameStub{courses: map[string]*models.Course{
		"إنجليزي": {ID: 1, Name: "إنجليزي"},
	}}
	return NewImportService(registrar, delegates, courses, nil, maxRows)
}

func TestImportServiceImportsResolvableRows(t *testing.T) {
	registrar := &registrarStub{}
	svc := newImportServiceForTest(registrar, 0)

	sheet := importHeader + "\n" +
		"أحمد,محمد,علي,الحسن,0912345678,إنجليزي,صباحي,سالم\n" +
		"ليلى,خالد,سعيد,العمر,0923456789,إنجليزي,مسائي,سالم\n"
	result, err := svc.ImportStudents(context.Background(), strings.NewReader(sheet), nil)
	require.NoError(t, err)
	require.Equal(t, 2, result.ImportedCount)
	require.Equal(t, 0, result.SkippedCount)

	require.Len(t, registrar.requests, 2)
	require.Equal(t, models.ScheduleMorning, registrar.requests[0].Schedule)
	require.Equal(t, models.ScheduleEvening, registrar.requests[1].Schedule)
	require.Equal(t, int64(7), registrar.requests[0].DelegateID)
	require.True(t, registrar.requests[0].Silent)
}

func TestImportServiceSkipsUnresolvableRows(t *testing.T) {
	registrar := &registrarStub{}
	svc := newImportServiceForTest(registrar, 0)

	sheet := importHeader + "\n" +
		"أحمد,محمد,علي,الحسن,0912345678,إنجليزي,صباحي,مجهول\n" + // unknown delegate
		"ليلى,خالد,سعيد,العمر,0923456789,فرنسي,مسائي,سالم\n" + // unknown course
		"زيد,عمر,حسن,البدر,0934567890,إنجليزي,ظهراً,سالم\n" + // unknown schedule
		"هدى,علي,محمد,السالم,0945678901,إنجليزي,مسائي,سالم\n"
	result, err := svc.ImportStudents(context.Background(), strings.NewReader(sheet), nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.ImportedCount)
	require.Equal(t, 3, result.SkippedCount)
}

func TestImportServiceSkipsDuplicateStudents(t *testing.T) {
	registrar := &registrarStub{fail: func(req RegisterStudentRequest) error {
		if req.FirstName == "أحمد" {
			return appErrors.Clone(appErrors.ErrDuplicateStudent, "")
		}
		return nil
	}}
	svc := newImportServiceForTest(registrar, 0)

	sheet := importHeader + "\n" +
		"أحمد,محمد,علي,الحسن,0912345678,إنجليزي,صباحي,سالم\n" +
		"ليلى,خالد,سعيد,العمر,0923456789,إنجليزي,مسائي,سالم\n"
	result, err := svc.ImportStudents(context.Background(), strings.NewReader(sheet), nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.ImportedCount)
	require.Equal(t, 1, result.SkippedCount)
}

func TestImportServiceAbortsOnInternalError(t *testing.T) {
	registrar := &registrarStub{fail: func(req RegisterStudentRequest) error {
		return appErrors.Clone(appErrors.ErrInternal, "database down")
	}}
	svc := newImportServiceForTest(registrar, 0)

	sheet := importHeader + "\n" +
		"أحمد,محمد,علي,الحسن,0912345678,إنجليزي,صباحي,سالم\n"
	_, err := svc.ImportStudents(context.Background(), strings.NewReader(sheet), nil)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestImportServiceRequiresAllColumns(t *testing.T) {
	svc := newImportServiceForTest(&registrarStub{}, 0)

	sheet := "الاسم_الأول,اللقب\nأحمد,الحسن\n"
	_, err := svc.ImportStudents(context.Background(), strings.NewReader(sheet), nil)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportServiceAcceptsBOMAndReorderedColumns(t *testing.T) {
	registrar := &registrarStub{}
	svc := newImportServiceForTest(registrar, 0)

	sheet := "\uFEFFالمندوب,الوقت,الدورة,الهاتف,اللقب,الاسم_الثالث,الاسم_الثاني,الاسم_الأول\n" +
		"سالم,مسائي,إنجليزي,0912345678,الحسن,علي,محمد,أحمد\n"
	result, err := svc.ImportStudents(context.Background(), strings.NewReader(sheet), nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.ImportedCount)
	require.Equal(t, "أحمد", registrar.requests[0].FirstName)
	require.Equal(t, "الحسن", registrar.requests[0].LastName)
}

func TestImportServiceSkipsBlankRowsAndEnforcesLimit(t *testing.T) {
	registrar := &registrarStub{}
	svc := newImportServiceForTest(registrar, 2)

	withBlank := importHeader + "\n" +
		",,,,,,,\n" +
		"أحمد,محمد,علي,الحسن,0912345678,إنجليزي,صباحي,سالم\n"
	result, err := svc.ImportStudents(context.Background(), strings.NewReader(withBlank), nil)
	require.NoError(t, err)
	require.Equal(t, 1, result.ImportedCount)
	require.Equal(t, 0, result.SkippedCount)

	tooMany := importHeader + "\n" +
		"أحمد,محمد,علي,الحسن,0912345678,إنجليزي,صباحي,سالم\n" +
		"ليلى,خالد,سعيد,العمر,0923456789,إنجليزي,مسائي,سالم\n" +
		"زيد,عمر,حسن,البدر,0934567890,إنجليزي,صباحي,سالم\n"
	_, err = svc.ImportStudents(context.Background(), strings.NewReader(tooMany), nil)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportServiceRejectsEmptyFile(t *testing.T) {
	svc := newImportServiceForTest(&registrarStub{}, 0)
	_, err := svc.ImportStudents(context.Background(), strings.NewReader(""), nil)
	require.Error(t, err)
}
