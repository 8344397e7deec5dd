package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorhive/tutorhive-api/internal/models"
	appErrors "github.com/tutorhive/tutorhive-api/pkg/errors"
)

type mockTaskRepo struct {
	tasks       map[string]models.Task
	assignments []models.TaskAssignment
	unassigned  [][2]string
}

func (m *mockTaskRepo) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	tasks := make([]models.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		tasks = append(tasks, t)
	}
	return tasks, len(tasks), nil
}

func (m *mockTaskRepo) FindByID(ctx context.Context, teacherID, id string) (*models.Task, error) {
	if t, ok := m.tasks[id]; ok && t.TeacherID == teacherID {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTaskRepo) Create(ctx context.Context, task *models.Task) error {
	if m.tasks == nil {
		m.tasks = make(map[string]models.Task)
	}
	if task.ID == "" {
		task.ID = "task-1"
	}
	m.tasks[task.ID] = *task
	return nil
}

func (m *mockTaskRepo) Update(ctx context.Context, task *models.Task) error {
	m.tasks[task.ID] = *task
	return nil
}

func (m *mockTaskRepo) Delete(ctx context.Context, teacherID, id string) error {
	delete(m.tasks, id)
	return nil
}

func (m *mockTaskRepo) Assign(ctx context.Context, assignment *models.TaskAssignment) error {
	m.assignments = append(m.assignments, *assignment)
	return nil
}

func (m *mockTaskRepo) Unassign(ctx context.Context, taskID, studentID string) error {
	m.unassigned = append(m.unassigned, [2]string{taskID, studentID})
	return nil
}

func (m *mockTaskRepo) ListAssignedToStudent(ctx context.Context, studentID string) ([]models.AssignedTask, error) {
	return nil, nil
}

type mockTaskStudentRepo struct {
	students map[string]models.StudentDetail
}

func (m *mockTaskStudentRepo) FindByID(ctx context.Context, teacherID, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func TestTaskCreateText(t *testing.T) {
	repo := &mockTaskRepo{}
	svc := NewTaskService(repo, &mockTaskStudentRepo{}, nil, nil)

	task, err := svc.Create(context.Background(), "teacher-1", CreateTaskRequest{
		Title:    "Essay",
		TaskType: models.TaskTypeText,
	})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusTodo, task.Status)
	assert.Len(t, repo.tasks, 1)
}

func TestTaskCreateTextRejectsPayload(t *testing.T) {
	svc := NewTaskService(&mockTaskRepo{}, &mockTaskStudentRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), "teacher-1", CreateTaskRequest{
		Title:    "Essay",
		TaskType: models.TaskTypeText,
		Spec: models.TaskSpec{
			MultipleChoice: &models.MultipleChoiceSpec{Choices: []string{"a", "b"}},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTaskCreateMultipleChoice(t *testing.T) {
	svc := NewTaskService(&mockTaskRepo{}, &mockTaskStudentRepo{}, nil, nil)

	task, err := svc.Create(context.Background(), "teacher-1", CreateTaskRequest{
		Title:    "Quiz",
		TaskType: models.TaskTypeMultipleChoice,
		Spec: models.TaskSpec{
			MultipleChoice: &models.MultipleChoiceSpec{Choices: []string{"a", "b", "c"}, CorrectIndex: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.TaskTypeMultipleChoice, task.TaskType)
}

func TestTaskCreateMultipleChoiceValidation(t *testing.T) {
	svc := NewTaskService(&mockTaskRepo{}, &mockTaskStudentRepo{}, nil, nil)

	cases := []models.TaskSpec{
		{},
		{MultipleChoice: &models.MultipleChoiceSpec{Choices: []string{"only"}}},
		{MultipleChoice: &models.MultipleChoiceSpec{Choices: []string{"a", "b"}, CorrectIndex: 2}},
		{MultipleChoice: &models.MultipleChoiceSpec{Choices: []string{"a", "b"}, CorrectIndex: -1}},
	}
	for i, spec := range cases {
		_, err := svc.Create(context.Background(), "teacher-1", CreateTaskRequest{
			Title:    "Quiz",
			TaskType: models.TaskTypeMultipleChoice,
			Spec:     spec,
		})
		assert.Error(t, err, "case %d should fail", i)
	}
}

func TestTaskCreateFileUploadRequiresSpec(t *testing.T) {
	svc := NewTaskService(&mockTaskRepo{}, &mockTaskStudentRepo{}, nil, nil)

	_, err := svc.Create(context.Background(), "teacher-1", CreateTaskRequest{
		Title:    "Upload homework",
		TaskType: models.TaskTypeFileUpload,
	})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), "teacher-1", CreateTaskRequest{
		Title:    "Upload homework",
		TaskType: models.TaskTypeFileUpload,
		Spec: models.TaskSpec{
			FileUpload: &models.FileUploadSpec{AllowedExtensions: []string{".pdf"}, MaxSizeBytes: 1 << 20},
		},
	})
	require.NoError(t, err)
}

func TestTaskUpdateKeepsType(t *testing.T) {
	repo := &mockTaskRepo{tasks: map[string]models.Task{
		"task-1": {ID: "task-1", TeacherID: "teacher-1", Title: "Quiz", TaskType: models.TaskTypeMultipleChoice, Status: models.TaskStatusTodo},
	}}
	svc := NewTaskService(repo, &mockTaskStudentRepo{}, nil, nil)

	// the stored type still governs spec validation, so a bare spec fails
	_, err := svc.Update(context.Background(), "teacher-1", "task-1", UpdateTaskRequest{
		Title:  "Quiz v2",
		Status: models.TaskStatusInProgress,
	})
	require.Error(t, err)

	updated, err := svc.Update(context.Background(), "teacher-1", "task-1", UpdateTaskRequest{
		Title:  "Quiz v2",
		Status: models.TaskStatusInProgress,
		Spec: models.TaskSpec{
			MultipleChoice: &models.MultipleChoiceSpec{Choices: []string{"a", "b"}, CorrectIndex: 0},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.TaskTypeMultipleChoice, updated.TaskType)
	assert.Equal(t, models.TaskStatusInProgress, updated.Status)
}

func TestTaskAssign(t *testing.T) {
	repo := &mockTaskRepo{tasks: map[string]models.Task{
		"task-1": {ID: "task-1", TeacherID: "teacher-1", Title: "Essay", TaskType: models.TaskTypeText},
	}}
	students := &mockTaskStudentRepo{students: map[string]models.StudentDetail{
		"student-1": {Student: models.Student{ID: "student-1", TeacherID: "teacher-1"}},
	}}
	svc := NewTaskService(repo, students, nil, nil)

	err := svc.Assign(context.Background(), "teacher-1", "task-1", AssignTaskRequest{StudentID: "student-1"})
	require.NoError(t, err)
	assert.Len(t, repo.assignments, 1)

	err = svc.Assign(context.Background(), "teacher-1", "task-1", AssignTaskRequest{StudentID: "ghost"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestTaskAssignForeignTask(t *testing.T) {
	repo := &mockTaskRepo{tasks: map[string]models.Task{
		"task-1": {ID: "task-1", TeacherID: "someone-else", Title: "Essay", TaskType: models.TaskTypeText},
	}}
	svc := NewTaskService(repo, &mockTaskStudentRepo{}, nil, nil)

	err := svc.Assign(context.Background(), "teacher-1", "task-1", AssignTaskRequest{StudentID: "student-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
