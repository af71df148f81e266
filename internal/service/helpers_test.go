package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/models"
	"github.com/kc-conquers-code11/AcadFlow-sub001/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// fakeSubmissionRepo mimics the conditional-update contract of the real
// repository: transitions only match rows in the expected state, and
// forceSubmitMiss simulates a concurrent writer winning between the
// service's read and its write.
type fakeSubmissionRepo struct {
	byID               map[uint]models.Submission
	nextID             uint
	forceSubmitMiss    bool
	saveDraftCalls     int
	markSubmittedCalls int
	applyCalls         int
}

func newFakeSubmissionRepo(submissions ...models.Submission) *fakeSubmissionRepo {
	repo := &fakeSubmissionRepo{byID: make(map[uint]models.Submission), nextID: 1}
	for _, submission := range submissions {
		repo.byID[submission.ID] = submission
		if submission.ID >= repo.nextID {
			repo.nextID = submission.ID + 1
		}
	}
	return repo
}

func (f *fakeSubmissionRepo) List(ctx context.Context, filter repository.SubmissionFilter) ([]models.Submission, error) {
	var out []models.Submission
	for _, submission := range f.byID {
		if filter.AssignmentID != nil && submission.AssignmentID != *filter.AssignmentID {
			continue
		}
		if filter.StudentID != nil && submission.StudentID != *filter.StudentID {
			continue
		}
		if filter.Status != nil && submission.Status != *filter.Status {
			continue
		}
		out = append(out, submission)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	submission, ok := f.byID[id]
	if !ok {
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return submission, nil
}

func (f *fakeSubmissionRepo) GetByAssignmentAndStudent(ctx context.Context, assignmentID, studentID uint) (models.Submission, error) {
	for _, submission := range f.byID {
		if submission.AssignmentID == assignmentID && submission.StudentID == studentID {
			return submission, nil
		}
	}
	return models.Submission{}, gorm.ErrRecordNotFound
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, submission *models.Submission) error {
	submission.ID = f.nextID
	f.nextID++
	f.byID[submission.ID] = *submission
	return nil
}

func (f *fakeSubmissionRepo) SaveDraftContent(ctx context.Context, id uint, content string, savedAt time.Time) (bool, error) {
	f.saveDraftCalls++
	submission, ok := f.byID[id]
	if !ok || !submission.IsDraft() {
		return false, nil
	}
	submission.Content = content
	submission.LastSavedAt = savedAt
	f.byID[id] = submission
	return true, nil
}

func (f *fakeSubmissionRepo) MarkSubmitted(ctx context.Context, id uint, submittedAt time.Time) (bool, error) {
	f.markSubmittedCalls++
	if f.forceSubmitMiss {
		return false, nil
	}
	submission, ok := f.byID[id]
	if !ok || !submission.IsDraft() {
		return false, nil
	}
	submission.Status = models.SubmissionStatusSubmitted
	submission.SubmittedAt = &submittedAt
	f.byID[id] = submission
	return true, nil
}

func (f *fakeSubmissionRepo) ApplyEvaluation(ctx context.Context, id uint, update repository.EvaluationUpdate) (bool, error) {
	f.applyCalls++
	submission, ok := f.byID[id]
	if !ok || submission.IsDraft() {
		return false, nil
	}
	submission.Status = models.SubmissionStatusEvaluated
	submission.Marks = &update.Marks
	submission.Feedback = &update.Feedback
	submission.PlagiarismScore = update.PlagiarismScore
	submission.EvaluatedBy = &update.EvaluatedBy
	submission.EvaluatedAt = &update.EvaluatedAt
	f.byID[id] = submission
	return true, nil
}

type fakeAssignmentRepo struct {
	byID   map[uint]models.Assignment
	nextID uint
}

func newFakeAssignmentRepo(assignments ...models.Assignment) *fakeAssignmentRepo {
	repo := &fakeAssignmentRepo{byID: make(map[uint]models.Assignment), nextID: 1}
	for _, assignment := range assignments {
		repo.byID[assignment.ID] = assignment
		if assignment.ID >= repo.nextID {
			repo.nextID = assignment.ID + 1
		}
	}
	return repo
}

func (f *fakeAssignmentRepo) List(ctx context.Context, filter repository.AssignmentFilter) ([]models.Assignment, int64, error) {
	var out []models.Assignment
	for _, assignment := range f.byID {
		if filter.SubjectID != nil && assignment.SubjectID != *filter.SubjectID {
			continue
		}
		if filter.Type != nil && assignment.Type != *filter.Type {
			continue
		}
		out = append(out, assignment)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (f *fakeAssignmentRepo) GetByID(ctx context.Context, id uint) (models.Assignment, error) {
	assignment, ok := f.byID[id]
	if !ok {
		return models.Assignment{}, gorm.ErrRecordNotFound
	}
	return assignment, nil
}

func (f *fakeAssignmentRepo) Create(ctx context.Context, assignment *models.Assignment) error {
	assignment.ID = f.nextID
	f.nextID++
	f.byID[assignment.ID] = *assignment
	return nil
}

func (f *fakeAssignmentRepo) Update(ctx context.Context, assignment *models.Assignment) error {
	f.byID[assignment.ID] = *assignment
	return nil
}

func (f *fakeAssignmentRepo) Delete(ctx context.Context, id uint) error {
	if _, ok := f.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.byID, id)
	return nil
}

type fakeSubjectRepo struct {
	byID map[uint]models.Subject
}

func newFakeSubjectRepo(subjects ...models.Subject) *fakeSubjectRepo {
	repo := &fakeSubjectRepo{byID: make(map[uint]models.Subject)}
	for _, subject := range subjects {
		repo.byID[subject.ID] = subject
	}
	return repo
}

func (f *fakeSubjectRepo) GetByID(ctx context.Context, id uint) (models.Subject, error) {
	subject, ok := f.byID[id]
	if !ok {
		return models.Subject{}, gorm.ErrRecordNotFound
	}
	return subject, nil
}

func (f *fakeSubjectRepo) Create(ctx context.Context, subject *models.Subject) error {
	f.byID[subject.ID] = *subject
	return nil
}

func (f *fakeSubjectRepo) TeacherOwnsSubject(ctx context.Context, teacherID, subjectID uint) (bool, error) {
	subject, ok := f.byID[subjectID]
	return ok && subject.TeacherID == teacherID, nil
}

type fakeRunRepo struct {
	runs        []models.ExecutionRun
	createCalls int
}

func (f *fakeRunRepo) Create(ctx context.Context, run *models.ExecutionRun) error {
	f.createCalls++
	run.ID = uint(len(f.runs) + 1)
	run.CreatedAt = time.Now()
	f.runs = append(f.runs, *run)
	return nil
}

func (f *fakeRunRepo) LatestForSubmission(ctx context.Context, submissionID uint) (models.ExecutionRun, error) {
	for i := len(f.runs) - 1; i >= 0; i-- {
		if f.runs[i].SubmissionID == submissionID {
			return f.runs[i], nil
		}
	}
	return models.ExecutionRun{}, gorm.ErrRecordNotFound
}

func (f *fakeRunRepo) ListForSubmission(ctx context.Context, submissionID uint, limit int) ([]models.ExecutionRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []models.ExecutionRun
	for i := len(f.runs) - 1; i >= 0 && len(out) < limit; i-- {
		if f.runs[i].SubmissionID == submissionID {
			out = append(out, f.runs[i])
		}
	}
	return out, nil
}
