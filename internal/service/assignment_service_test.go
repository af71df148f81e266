package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/dto"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/guard"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/language"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/models"
)

func newAssignmentService(assignments *fakeAssignmentRepo, subjects *fakeSubjectRepo) AssignmentService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewAssignmentService(assignments, subjects, language.Default(), validate, nil, testLogger())
}

func hodSession(id uint) guard.Session {
	return guard.Authenticated(guard.Actor{ID: id, Role: models.RoleHOD})
}

func TestAssignmentServiceCreatePractical(t *testing.T) {
	subjects := newFakeSubjectRepo(models.Subject{ID: 5, Name: "Databases", Code: "DB101", TeacherID: 20})
	assignments := newFakeAssignmentRepo()
	svc := newAssignmentService(assignments, subjects)

	result, err := svc.Create(context.Background(), teacherSession(20), dto.AssignmentCreateRequest{
		SubjectID:           5,
		Title:               "Joins Lab",
		Description:         "Implement a hash join",
		Type:                models.AssignmentTypePractical,
		ProgrammingLanguage: "Python",
		Deadline:            time.Now().Add(7 * 24 * time.Hour),
		MaxMarks:            100,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, models.AssignmentTypePractical, result.Type)
	// Identifiers are normalized on the way in.
	require.Equal(t, "python", result.ProgrammingLanguage)
}

func TestAssignmentServiceCreatePracticalUnknownLanguage(t *testing.T) {
	subjects := newFakeSubjectRepo(models.Subject{ID: 5, Name: "Databases", Code: "DB101", TeacherID: 20})
	assignments := newFakeAssignmentRepo()
	svc := newAssignmentService(assignments, subjects)

	_, err := svc.Create(context.Background(), teacherSession(20), dto.AssignmentCreateRequest{
		SubjectID:           5,
		Title:               "Legacy Lab",
		Description:         "x",
		Type:                models.AssignmentTypePractical,
		ProgrammingLanguage: "cobol",
		Deadline:            time.Now().Add(24 * time.Hour),
		MaxMarks:            100,
	}, nil)
	require.ErrorIs(t, err, ErrUnknownAssignmentLanguage)
	require.Empty(t, assignments.byID)
}

func TestAssignmentServiceCreatePracticalWithoutLanguage(t *testing.T) {
	subjects := newFakeSubjectRepo(models.Subject{ID: 5, Name: "Databases", Code: "DB101", TeacherID: 20})
	svc := newAssignmentService(newFakeAssignmentRepo(), subjects)

	_, err := svc.Create(context.Background(), teacherSession(20), dto.AssignmentCreateRequest{
		SubjectID:   5,
		Title:       "Lab",
		Description: "x",
		Type:        models.AssignmentTypePractical,
		Deadline:    time.Now().Add(24 * time.Hour),
		MaxMarks:    100,
	}, nil)
	require.ErrorIs(t, err, ErrUnknownAssignmentLanguage)
}

func TestAssignmentServiceCreateTheorySkipsRegistry(t *testing.T) {
	subjects := newFakeSubjectRepo(models.Subject{ID: 5, Name: "Databases", Code: "DB101", TeacherID: 20})
	svc := newAssignmentService(newFakeAssignmentRepo(), subjects)

	result, err := svc.Create(context.Background(), teacherSession(20), dto.AssignmentCreateRequest{
		SubjectID:   5,
		Title:       "Normalization Essay",
		Description: "Explain BCNF",
		Type:        models.AssignmentTypeTheory,
		Deadline:    time.Now().Add(24 * time.Hour),
		MaxMarks:    50,
	}, nil)
	require.NoError(t, err)
	require.Equal(t, models.AssignmentTypeTheory, result.Type)
}

func TestAssignmentServiceCreateUnassignedTeacherDenied(t *testing.T) {
	subjects := newFakeSubjectRepo(models.Subject{ID: 5, Name: "Databases", Code: "DB101", TeacherID: 20})
	assignments := newFakeAssignmentRepo()
	svc := newAssignmentService(assignments, subjects)

	_, err := svc.Create(context.Background(), teacherSession(99), dto.AssignmentCreateRequest{
		SubjectID:   5,
		Title:       "Lab",
		Description: "x",
		Type:        models.AssignmentTypeTheory,
		Deadline:    time.Now().Add(24 * time.Hour),
		MaxMarks:    10,
	}, nil)
	require.ErrorIs(t, err, ErrAccessDenied)
	require.Empty(t, assignments.byID)
}

func TestAssignmentServiceCreateHODSpansSubjects(t *testing.T) {
	subjects := newFakeSubjectRepo(models.Subject{ID: 5, Name: "Databases", Code: "DB101", TeacherID: 20})
	svc := newAssignmentService(newFakeAssignmentRepo(), subjects)

	_, err := svc.Create(context.Background(), hodSession(1), dto.AssignmentCreateRequest{
		SubjectID:   5,
		Title:       "Lab",
		Description: "x",
		Type:        models.AssignmentTypeTheory,
		Deadline:    time.Now().Add(24 * time.Hour),
		MaxMarks:    10,
	}, nil)
	require.NoError(t, err)
}

func TestAssignmentServiceUpdatePracticalLanguageRevalidated(t *testing.T) {
	subjects := newFakeSubjectRepo(models.Subject{ID: 5, Name: "Databases", Code: "DB101", TeacherID: 20})
	assignments := newFakeAssignmentRepo(practicalAssignment(time.Now().Add(time.Hour)))
	svc := newAssignmentService(assignments, subjects)

	bad := "fortran"
	_, err := svc.Update(context.Background(), teacherSession(20), 2, dto.AssignmentUpdateRequest{ProgrammingLanguage: &bad})
	require.ErrorIs(t, err, ErrUnknownAssignmentLanguage)
	require.Equal(t, "python", assignments.byID[2].ProgrammingLanguage)

	good := "go"
	result, err := svc.Update(context.Background(), teacherSession(20), 2, dto.AssignmentUpdateRequest{ProgrammingLanguage: &good})
	require.NoError(t, err)
	require.Equal(t, "go", result.ProgrammingLanguage)
}

func TestAssignmentServiceDeleteScopedToSubjectStaff(t *testing.T) {
	subjects := newFakeSubjectRepo(models.Subject{ID: 5, Name: "Databases", Code: "DB101", TeacherID: 20})
	assignments := newFakeAssignmentRepo(theoryAssignment(time.Now().Add(time.Hour)))
	svc := newAssignmentService(assignments, subjects)

	err := svc.Delete(context.Background(), teacherSession(99), 1)
	require.ErrorIs(t, err, ErrAccessDenied)
	require.Len(t, assignments.byID, 1)

	require.NoError(t, svc.Delete(context.Background(), teacherSession(20), 1))
	require.Empty(t, assignments.byID)
}
