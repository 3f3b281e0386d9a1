package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	delivery "aprendo-backend/internal/delivery/http"
	"aprendo-backend/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAssessmentUsecase struct {
	mock.Mock
}

func (m *MockAssessmentUsecase) SelectExam(ctx context.Context, userID uint, courseID string, scope domain.ExamScope) (*domain.ExamView, error) {
	args := m.Called(ctx, userID, courseID, scope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExamView), args.Error(1)
}

func (m *MockAssessmentUsecase) Submit(ctx context.Context, userID uint, examID, courseID string, answers []domain.AnswerSubmission) (*domain.SubmitResult, error) {
	args := m.Called(ctx, userID, examID, courseID, answers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SubmitResult), args.Error(1)
}

func (m *MockAssessmentUsecase) ListResults(ctx context.Context, userID uint, courseID string) ([]domain.ExamResult, error) {
	args := m.Called(ctx, userID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExamResult), args.Error(1)
}

func setupExamRouter(mockUsecase *MockAssessmentUsecase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := &delivery.Handler{AssessmentUsecase: mockUsecase}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", uint(1))
		c.Set("role", "student")
		c.Next()
	})
	router.GET("/api/v1/courses/:id/exam", handler.GetExam)
	router.POST("/api/v1/courses/:id/exams/:examId/submit", handler.SubmitExam)
	return router
}

func TestGetExamRoutes(t *testing.T) {
	mockUsecase := new(MockAssessmentUsecase)
	router := setupExamRouter(mockUsecase)

	t.Run("Final Exam Delivered", func(t *testing.T) {
		view := &domain.ExamView{ID: "exam-final", Type: domain.ExamFinal}
		mockUsecase.On("SelectExam", mock.Anything, uint(1), "course-1",
			domain.ExamScope{Final: true}).Return(view, nil).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/courses/course-1/exam?final=true", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var body domain.ExamView
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "exam-final", body.ID)
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Prerequisites Missing", func(t *testing.T) {
		mockUsecase.On("SelectExam", mock.Anything, uint(1), "course-1",
			domain.ExamScope{SectionID: "sec-1"}).
			Return(nil, &domain.PrerequisiteError{Reason: "2 lesson(s) must be completed before taking this exam"}).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/courses/course-1/exam?section_id=sec-1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Unknown Course", func(t *testing.T) {
		mockUsecase.On("SelectExam", mock.Anything, uint(1), "missing",
			domain.ExamScope{}).Return(nil, &domain.NotFoundError{Resource: "course"}).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/courses/missing/exam", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockUsecase.AssertExpectations(t)
	})
}

func TestSubmitExamRoutes(t *testing.T) {
	mockUsecase := new(MockAssessmentUsecase)
	router := setupExamRouter(mockUsecase)

	answers := []domain.AnswerSubmission{{QuestionID: "q-1", OptionID: "q1-a"}}
	payload, _ := json.Marshal(gin.H{"answers": answers})

	t.Run("Graded Submission", func(t *testing.T) {
		result := &domain.SubmitResult{Passed: true, Percent: 100, Attempt: 1, AttemptsRemaining: 2}
		mockUsecase.On("Submit", mock.Anything, uint(1), "exam-1", "course-1", answers).
			Return(result, nil).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/courses/course-1/exams/exam-1/submit", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var body domain.SubmitResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.Passed)
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Already Certified", func(t *testing.T) {
		conflict := &domain.ConflictError{
			Reason: "course already completed",
			Certificate: &domain.CertificateRef{
				ID:       7,
				URL:      "/api/v1/certificates/files/abc",
				IssuedAt: time.Now(),
			},
		}
		mockUsecase.On("Submit", mock.Anything, uint(1), "exam-1", "course-1", answers).
			Return(nil, conflict).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/courses/course-1/exams/exam-1/submit", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Contains(t, body, "certificate")
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Attempt Limit Reached", func(t *testing.T) {
		mockUsecase.On("Submit", mock.Anything, uint(1), "exam-1", "course-1", answers).
			Return(nil, &domain.AttemptLimitError{MaxAttempts: 3}).Once()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/courses/course-1/exams/exam-1/submit", bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.EqualValues(t, 3, body["max_attempts"])
		mockUsecase.AssertExpectations(t)
	})

	t.Run("Malformed Payload", func(t *testing.T) {
		freshUsecase := new(MockAssessmentUsecase)
		freshRouter := setupExamRouter(freshUsecase)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/courses/course-1/exams/exam-1/submit", bytes.NewReader([]byte(`{}`)))
		req.Header.Set("Content-Type", "application/json")
		freshRouter.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		freshUsecase.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
