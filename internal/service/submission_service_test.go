package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/dto"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/guard"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/models"
)

func theoryAssignment(deadline time.Time) models.Assignment {
	return models.Assignment{
		ID:        1,
		SubjectID: 5,
		Title:     "Normal Forms",
		Type:      models.AssignmentTypeTheory,
		Deadline:  deadline,
		MaxMarks:  50,
	}
}

func practicalAssignment(deadline time.Time) models.Assignment {
	return models.Assignment{
		ID:                  2,
		SubjectID:           5,
		Title:               "Sorting",
		Type:                models.AssignmentTypePractical,
		ProgrammingLanguage: "python",
		Deadline:            deadline,
		MaxMarks:            100,
	}
}

func newSubmissionService(submissions *fakeSubmissionRepo, assignments *fakeAssignmentRepo, subjects *fakeSubjectRepo, runs *fakeRunRepo) SubmissionService {
	validate := validator.New(validator.WithRequiredStructEnabled())
	return NewSubmissionService(submissions, assignments, subjects, runs, nil, nil, validate, testLogger())
}

func studentSession(id uint) guard.Session {
	return guard.Authenticated(guard.Actor{ID: id, Role: models.RoleStudent})
}

func teacherSession(id uint) guard.Session {
	return guard.Authenticated(guard.Actor{ID: id, Role: models.RoleTeacher})
}

func TestSubmissionServiceSaveDraftCreatesThenRewrites(t *testing.T) {
	assignment := theoryAssignment(time.Now().Add(24 * time.Hour))
	submissions := newFakeSubmissionRepo()
	svc := newSubmissionService(submissions, newFakeAssignmentRepo(assignment), newFakeSubjectRepo(), &fakeRunRepo{})

	created, err := svc.SaveDraft(context.Background(), studentSession(7), dto.SaveDraftRequest{AssignmentID: assignment.ID, Content: "x"})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusDraft, created.Status)
	require.Equal(t, "x", created.Content)

	updated, err := svc.SaveDraft(context.Background(), studentSession(7), dto.SaveDraftRequest{AssignmentID: assignment.ID, Content: "y"})
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "y", updated.Content)
	require.Equal(t, models.SubmissionStatusDraft, updated.Status)
}

func TestSubmissionServiceSaveDraftAfterSubmitConflict(t *testing.T) {
	assignment := theoryAssignment(time.Now().Add(24 * time.Hour))
	submittedAt := time.Now()
	submissions := newFakeSubmissionRepo(models.Submission{
		ID:           3,
		AssignmentID: assignment.ID,
		StudentID:    7,
		Content:      "final",
		Status:       models.SubmissionStatusSubmitted,
		SubmittedAt:  &submittedAt,
		Assignment:   assignment,
	})
	svc := newSubmissionService(submissions, newFakeAssignmentRepo(assignment), newFakeSubjectRepo(), &fakeRunRepo{})

	_, err := svc.SaveDraft(context.Background(), studentSession(7), dto.SaveDraftRequest{AssignmentID: assignment.ID, Content: "late edit"})
	require.ErrorIs(t, err, ErrStateConflict)
	require.Equal(t, 0, submissions.saveDraftCalls)
	require.Equal(t, "final", submissions.byID[3].Content)
}

func TestSubmissionServiceSubmitHappyPath(t *testing.T) {
	assignment := theoryAssignment(time.Now().Add(time.Hour))
	submissions := newFakeSubmissionRepo(models.Submission{
		ID:           4,
		AssignmentID: assignment.ID,
		StudentID:    7,
		Content:      "answer",
		Status:       models.SubmissionStatusDraft,
		Assignment:   assignment,
	})
	svc := newSubmissionService(submissions, newFakeAssignmentRepo(assignment), newFakeSubjectRepo(), &fakeRunRepo{})

	result, err := svc.Submit(context.Background(), studentSession(7), 4)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, result.Status)
	require.NotNil(t, result.SubmittedAt)
}

func TestSubmissionServiceSubmitAfterDeadlineLeavesRecordUntouched(t *testing.T) {
	assignment := theoryAssignment(time.Now().Add(-time.Hour))
	submissions := newFakeSubmissionRepo(models.Submission{
		ID:           4,
		AssignmentID: assignment.ID,
		StudentID:    7,
		Status:       models.SubmissionStatusDraft,
		Assignment:   assignment,
	})
	svc := newSubmissionService(submissions, newFakeAssignmentRepo(assignment), newFakeSubjectRepo(), &fakeRunRepo{})

	_, err := svc.Submit(context.Background(), studentSession(7), 4)
	require.ErrorIs(t, err, ErrDeadlinePassed)
	require.Equal(t, 0, submissions.markSubmittedCalls)
	require.Equal(t, models.SubmissionStatusDraft, submissions.byID[4].Status)
}

func TestSubmissionServiceSubmitLostRaceIsConflict(t *testing.T) {
	assignment := theoryAssignment(time.Now().Add(time.Hour))
	submissions := newFakeSubmissionRepo(models.Submission{
		ID:           4,
		AssignmentID: assignment.ID,
		StudentID:    7,
		Status:       models.SubmissionStatusDraft,
		Assignment:   assignment,
	})
	submissions.forceSubmitMiss = true
	svc := newSubmissionService(submissions, newFakeAssignmentRepo(assignment), newFakeSubjectRepo(), &fakeRunRepo{})

	_, err := svc.Submit(context.Background(), studentSession(7), 4)
	require.ErrorIs(t, err, ErrStateConflict)
	require.Equal(t, 1, submissions.markSubmittedCalls)
}

func TestSubmissionServiceSubmitTwiceSecondConflicts(t *testing.T) {
	assignment := theoryAssignment(time.Now().Add(time.Hour))
	submissions := newFakeSubmissionRepo(models.Submission{
		ID:           4,
		AssignmentID: assignment.ID,
		StudentID:    7,
		Status:       models.SubmissionStatusDraft,
		Assignment:   assignment,
	})
	svc := newSubmissionService(submissions, newFakeAssignmentRepo(assignment), newFakeSubjectRepo(), &fakeRunRepo{})

	_, err := svc.Submit(context.Background(), studentSession(7), 4)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), studentSession(7), 4)
	require.ErrorIs(t, err, ErrStateConflict)
}

func TestSubmissionServiceSubmitPracticalBlockedByRejectedRun(t *testing.T) {
	assignment := practicalAssignment(time.Now().Add(time.Hour))
	submissions := newFakeSubmissionRepo(models.Submission{
		ID:           9,
		AssignmentID: assignment.ID,
		StudentID:    7,
		Content:      "print('hi')",
		Status:       models.SubmissionStatusDraft,
		Assignment:   assignment,
	})
	runs := &fakeRunRepo{}
	require.NoError(t, runs.Create(context.Background(), &models.ExecutionRun{
		SubmissionID: 9,
		StudentID:    7,
		LanguageID:   "cobol",
		Outcome:      models.ExecutionOutcomeRejected,
	}))
	svc := newSubmissionService(submissions, newFakeAssignmentRepo(assignment), newFakeSubjectRepo(), runs)

	_, err := svc.Submit(context.Background(), studentSession(7), 9)
	require.ErrorIs(t, err, ErrUnsupportedLanguageRun)
	require.Equal(t, models.SubmissionStatusDraft, submissions.byID[9].Status)
}

func TestSubmissionServiceSubmitPracticalRuntimeErrorStillSubmits(t *testing.T) {
	assignment := practicalAssignment(time.Now().Add(time.Hour))
	submissions := newFakeSubmissionRepo(models.Submission{
		ID:           9,
		AssignmentID: assignment.ID,
		StudentID:    7,
		Content:      "raise Exception()",
		Status:       models.SubmissionStatusDraft,
		Assignment:   assignment,
	})
	runs := &fakeRunRepo{}
	require.NoError(t, runs.Create(context.Background(), &models.ExecutionRun{
		SubmissionID: 9,
		StudentID:    7,
		LanguageID:   "python",
		Outcome:      models.ExecutionOutcomeRuntimeError,
	}))
	svc := newSubmissionService(submissions, newFakeAssignmentRepo(assignment), newFakeSubjectRepo(), runs)

	result, err := svc.Submit(context.Background(), studentSession(7), 9)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, result.Status)
}

func TestSubmissionServiceSubmitNotOwnerDenied(t *testing.T) {
	assignment := theoryAssignment(time.Now().Add(time.Hour))
	submissions := newFakeSubmissionRepo(models.Submission{
		ID:           4,
		AssignmentID: assignment.ID,
		StudentID:    7,
		Status:       models.SubmissionStatusDraft,
		Assignment:   assignment,
	})
	svc := newSubmissionService(submissions, newFakeAssignmentRepo(assignment), newFakeSubjectRepo(), &fakeRunRepo{})

	_, err := svc.Submit(context.Background(), studentSession(8), 4)
	require.ErrorIs(t, err, ErrAccessDenied)

	var denial *AccessDeniedError
	require.ErrorAs(t, err, &denial)
	require.Equal(t, guard.ReasonNotOwner, denial.Reason)
	require.Equal(t, 0, submissions.markSubmittedCalls)
}

func TestSubmissionServiceEvaluateMarksOutOfRange(t *testing.T) {
	assignment := theoryAssignment(time.Now().Add(-time.Hour))
	subjects := newFakeSubjectRepo(models.Subject{ID: 5, Name: "Databases", Code: "DB101", TeacherID: 20})
	submittedAt := time.Now()
	submissions := newFakeSubmissionRepo(models.Submission{
		ID:           4,
		AssignmentID: assignment.ID,
		StudentID:    7,
		Status:       models.SubmissionStatusSubmitted,
		SubmittedAt:  &submittedAt,
		Assignment:   assignment,
	})
	svc := newSubmissionService(submissions, newFakeAssignmentRepo(assignment), subjects, &fakeRunRepo{})

	_, err := svc.Evaluate(context.Background(), teacherSession(20), 4, dto.EvaluateRequest{Marks: 51})
	require.ErrorIs(t, err, ErrMarksOutOfRange)
	require.Equal(t, 0, submissions.applyCalls)
	require.Nil(t, submissions.byID[4].Marks)
}

func TestSubmissionServiceEvaluateSanitizesFeedback(t *testing.T) {
	assignment := theoryAssignment(time.Now().Add(-time.Hour))
	subjects := newFakeSubjectRepo(models.Subject{ID: 5, Name: "Databases", Code: "DB101", TeacherID: 20})
	submittedAt := time.Now()
	submissions := newFakeSubmissionRepo(models.Submission{
		ID:           4,
		AssignmentID: assignment.ID,
		StudentID:    7,
		Status:       models.SubmissionStatusSubmitted,
		SubmittedAt:  &submittedAt,
		Assignment:   assignment,
	})
	svc := newSubmissionService(submissions, newFakeAssignmentRepo(assignment), subjects, &fakeRunRepo{})

	result, err := svc.Evaluate(context.Background(), teacherSession(20), 4, dto.EvaluateRequest{
		Marks:    40,
		Feedback: `Good work<script>alert("x")</script>`,
	})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusEvaluated, result.Status)
	require.NotNil(t, result.Feedback)
	require.Equal(t, "Good work", *result.Feedback)
	require.Equal(t, 40.0, *result.Marks)
}

func TestSubmissionServiceEvaluateRegradeKeepsStatus(t *testing.T) {
	assignment := theoryAssignment(time.Now().Add(-time.Hour))
	subjects := newFakeSubjectRepo(models.Subject{ID: 5, Name: "Databases", Code: "DB101", TeacherID: 20})
	marks := 30.0
	evaluator := uint(20)
	evaluatedAt := time.Now().Add(-time.Minute)
	submittedAt := evaluatedAt.Add(-time.Hour)
	submissions := newFakeSubmissionRepo(models.Submission{
		ID:           4,
		AssignmentID: assignment.ID,
		StudentID:    7,
		Status:       models.SubmissionStatusEvaluated,
		SubmittedAt:  &submittedAt,
		Marks:        &marks,
		EvaluatedBy:  &evaluator,
		EvaluatedAt:  &evaluatedAt,
		Assignment:   assignment,
	})
	svc := newSubmissionService(submissions, newFakeAssignmentRepo(assignment), subjects, &fakeRunRepo{})

	result, err := svc.Evaluate(context.Background(), teacherSession(20), 4, dto.EvaluateRequest{Marks: 45})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusEvaluated, result.Status)
	require.Equal(t, 45.0, *result.Marks)
	require.Equal(t, 1, submissions.applyCalls)
}

func TestSubmissionServiceEvaluateDraftConflicts(t *testing.T) {
	assignment := theoryAssignment(time.Now().Add(time.Hour))
	subjects := newFakeSubjectRepo(models.Subject{ID: 5, Name: "Databases", Code: "DB101", TeacherID: 20})
	submissions := newFakeSubmissionRepo(models.Submission{
		ID:           4,
		AssignmentID: assignment.ID,
		StudentID:    7,
		Status:       models.SubmissionStatusDraft,
		Assignment:   assignment,
	})
	svc := newSubmissionService(submissions, newFakeAssignmentRepo(assignment), subjects, &fakeRunRepo{})

	_, err := svc.Evaluate(context.Background(), teacherSession(20), 4, dto.EvaluateRequest{Marks: 10})
	require.ErrorIs(t, err, ErrStateConflict)
	require.Equal(t, 0, submissions.applyCalls)
}

func TestSubmissionServiceEvaluateUnassignedTeacherDenied(t *testing.T) {
	assignment := theoryAssignment(time.Now().Add(-time.Hour))
	subjects := newFakeSubjectRepo(models.Subject{ID: 5, Name: "Databases", Code: "DB101", TeacherID: 20})
	submittedAt := time.Now()
	submissions := newFakeSubmissionRepo(models.Submission{
		ID:           4,
		AssignmentID: assignment.ID,
		StudentID:    7,
		Status:       models.SubmissionStatusSubmitted,
		SubmittedAt:  &submittedAt,
		Assignment:   assignment,
	})
	svc := newSubmissionService(submissions, newFakeAssignmentRepo(assignment), subjects, &fakeRunRepo{})

	_, err := svc.Evaluate(context.Background(), teacherSession(99), 4, dto.EvaluateRequest{Marks: 10})
	require.ErrorIs(t, err, ErrAccessDenied)
	require.Equal(t, 0, submissions.applyCalls)
}

func TestSubmissionServiceEvaluateStudentDenied(t *testing.T) {
	assignment := theoryAssignment(time.Now().Add(-time.Hour))
	submittedAt := time.Now()
	submissions := newFakeSubmissionRepo(models.Submission{
		ID:           4,
		AssignmentID: assignment.ID,
		StudentID:    7,
		Status:       models.SubmissionStatusSubmitted,
		SubmittedAt:  &submittedAt,
		Assignment:   assignment,
	})
	svc := newSubmissionService(submissions, newFakeAssignmentRepo(assignment), newFakeSubjectRepo(), &fakeRunRepo{})

	_, err := svc.Evaluate(context.Background(), studentSession(7), 4, dto.EvaluateRequest{Marks: 10})

	var denial *AccessDeniedError
	require.ErrorAs(t, err, &denial)
	require.Equal(t, guard.ReasonInsufficientRole, denial.Reason)
}

func TestSubmissionServiceGetResolvingSessionDenied(t *testing.T) {
	assignment := theoryAssignment(time.Now().Add(time.Hour))
	submissions := newFakeSubmissionRepo(models.Submission{
		ID:           4,
		AssignmentID: assignment.ID,
		StudentID:    7,
		Status:       models.SubmissionStatusDraft,
		Assignment:   assignment,
	})
	svc := newSubmissionService(submissions, newFakeAssignmentRepo(assignment), newFakeSubjectRepo(), &fakeRunRepo{})

	_, err := svc.Get(context.Background(), guard.Session{}, 4)

	var denial *AccessDeniedError
	require.ErrorAs(t, err, &denial)
	require.Equal(t, guard.ReasonSessionResolving, denial.Reason)
}

func TestSubmissionServiceListPinsStudentsToOwnRecords(t *testing.T) {
	assignment := theoryAssignment(time.Now().Add(time.Hour))
	other := uint(8)
	submissions := newFakeSubmissionRepo(
		models.Submission{ID: 1, AssignmentID: assignment.ID, StudentID: 7, Status: models.SubmissionStatusDraft, Assignment: assignment},
		models.Submission{ID: 2, AssignmentID: assignment.ID, StudentID: other, Status: models.SubmissionStatusDraft, Assignment: assignment},
	)
	svc := newSubmissionService(submissions, newFakeAssignmentRepo(assignment), newFakeSubjectRepo(), &fakeRunRepo{})

	// The student asks for someone else's records; the filter is overridden.
	results, err := svc.List(context.Background(), studentSession(7), dto.SubmissionFilter{StudentID: &other})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, uint(7), results[0].StudentID)
}

func TestSubmissionServiceListScopesStaffToTheirSubjects(t *testing.T) {
	assignment := theoryAssignment(time.Now().Add(time.Hour))
	foreign := models.Assignment{ID: 3, SubjectID: 6, Title: "Graphs", Type: models.AssignmentTypeTheory, Deadline: time.Now().Add(time.Hour), MaxMarks: 20}
	subjects := newFakeSubjectRepo(
		models.Subject{ID: 5, Name: "Databases", Code: "DB101", TeacherID: 20},
		models.Subject{ID: 6, Name: "Algorithms", Code: "AL201", TeacherID: 21},
	)
	submissions := newFakeSubmissionRepo(
		models.Submission{ID: 1, AssignmentID: assignment.ID, StudentID: 7, Status: models.SubmissionStatusSubmitted, Assignment: assignment},
		models.Submission{ID: 2, AssignmentID: foreign.ID, StudentID: 7, Status: models.SubmissionStatusSubmitted, Assignment: foreign},
	)
	svc := newSubmissionService(submissions, newFakeAssignmentRepo(assignment, foreign), subjects, &fakeRunRepo{})

	results, err := svc.List(context.Background(), teacherSession(20), dto.SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, uint(1), results[0].ID)
}
