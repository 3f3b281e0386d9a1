package usecase_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"aprendo-backend/internal/domain"
	"aprendo-backend/internal/usecase"
	"aprendo-backend/pkg/pdf"
	"aprendo-backend/pkg/realtime"
)

// ========== IN-MEMORY REPOSITORIES ==========

type fakeCourseRepo struct {
	mu         sync.Mutex
	courses    map[string]*domain.Course
	increments map[string]int
}

func newFakeCourseRepo() *fakeCourseRepo {
	return &fakeCourseRepo{
		courses:    make(map[string]*domain.Course),
		increments: make(map[string]int),
	}
}

func (r *fakeCourseRepo) Create(ctx context.Context, course *domain.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.courses[course.ID] = course
	return nil
}

func (r *fakeCourseRepo) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.courses[id], nil
}

func (r *fakeCourseRepo) GetAllActive(ctx context.Context) ([]domain.Course, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Course
	for _, c := range r.courses {
		if c.Active {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCourseRepo) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.courses)), nil
}

func (r *fakeCourseRepo) IncrementEnrolledCount(ctx context.Context, id string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.increments[id] += delta
	if c, ok := r.courses[id]; ok {
		c.EnrolledCount += int64(delta)
	}
	return nil
}

type fakeEnrollmentRepo struct {
	mu          sync.Mutex
	enrollments map[string]*domain.Enrollment
	nextID      uint
	resetErr    error
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{enrollments: make(map[string]*domain.Enrollment)}
}

func enrollmentKey(userID uint, courseID string) string {
	return fmt.Sprintf("%d:%s", userID, courseID)
}

func (r *fakeEnrollmentRepo) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	enrollment.ID = r.nextID
	for i := range enrollment.Lessons {
		r.nextID++
		enrollment.Lessons[i].ID = r.nextID
		enrollment.Lessons[i].EnrollmentID = enrollment.ID
	}
	r.enrollments[enrollmentKey(enrollment.UserID, enrollment.CourseID)] = enrollment
	return nil
}

func (r *fakeEnrollmentRepo) GetByUserAndCourse(ctx context.Context, userID uint, courseID string) (*domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enrollments[enrollmentKey(userID, courseID)], nil
}

func (r *fakeEnrollmentRepo) GetByUserID(ctx context.Context, userID uint) ([]domain.Enrollment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Enrollment
	for _, e := range r.enrollments {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEnrollmentRepo) Update(ctx context.Context, enrollment *domain.Enrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enrollments[enrollmentKey(enrollment.UserID, enrollment.CourseID)] = enrollment
	return nil
}

func (r *fakeEnrollmentRepo) SaveLessonProgress(ctx context.Context, entry *domain.LessonProgress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID == 0 {
		r.nextID++
		entry.ID = r.nextID
	}
	return nil
}

func (r *fakeEnrollmentRepo) ResetProgress(ctx context.Context, enrollmentID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resetErr != nil {
		return r.resetErr
	}
	for _, e := range r.enrollments {
		if e.ID != enrollmentID {
			continue
		}
		for i := range e.Lessons {
			e.Lessons[i].VideoWatched = false
			e.Lessons[i].Completed = false
			e.Lessons[i].Percent = 0
			e.Lessons[i].CompletedAt = nil
		}
		e.Status = domain.EnrollmentActive
		e.Progress = 0
		e.LastSectionID = ""
		e.LastLessonID = ""
		return nil
	}
	return fmt.Errorf("enrollment %d not found", enrollmentID)
}

type fakeAttemptRepo struct {
	mu       sync.Mutex
	attempts []*domain.ExamAttempt
	nextID   uint
}

func newFakeAttemptRepo() *fakeAttemptRepo { return &fakeAttemptRepo{} }

func (r *fakeAttemptRepo) Create(ctx context.Context, attempt *domain.ExamAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	attempt.ID = r.nextID
	r.attempts = append(r.attempts, attempt)
	return nil
}

func (r *fakeAttemptRepo) CountByUserAndExam(ctx context.Context, userID uint, examID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, a := range r.attempts {
		if a.UserID == userID && a.ExamID == examID {
			count++
		}
	}
	return count, nil
}

func (r *fakeAttemptRepo) GetByUserAndCourse(ctx context.Context, userID uint, courseID string) ([]domain.ExamAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ExamAttempt
	for _, a := range r.attempts {
		if a.UserID == userID && a.CourseID == courseID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *fakeAttemptRepo) DeleteByUserAndCourse(ctx context.Context, userID uint, courseID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*domain.ExamAttempt
	for _, a := range r.attempts {
		if a.UserID == userID && a.CourseID == courseID {
			continue
		}
		kept = append(kept, a)
	}
	r.attempts = kept
	return nil
}

type fakeCertRepo struct {
	mu     sync.Mutex
	certs  map[string]*domain.Certificate
	nextID uint
}

func newFakeCertRepo() *fakeCertRepo {
	return &fakeCertRepo{certs: make(map[string]*domain.Certificate)}
}

func (r *fakeCertRepo) Upsert(ctx context.Context, cert *domain.Certificate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := enrollmentKey(cert.UserID, cert.CourseID)
	if existing, ok := r.certs[key]; ok {
		cert.ID = existing.ID
	} else {
		r.nextID++
		cert.ID = r.nextID
	}
	stored := *cert
	r.certs[key] = &stored
	return nil
}

func (r *fakeCertRepo) GetByUserAndCourse(ctx context.Context, userID uint, courseID string) (*domain.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cert, ok := r.certs[enrollmentKey(userID, courseID)]
	if !ok {
		return nil, nil
	}
	copied := *cert
	return &copied, nil
}

func (r *fakeCertRepo) GetByFileID(ctx context.Context, fileID string) (*domain.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, cert := range r.certs {
		if cert.FileID == fileID {
			copied := *cert
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeCertRepo) GetByUserID(ctx context.Context, userID uint) ([]domain.Certificate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Certificate
	for _, cert := range r.certs {
		if cert.UserID == userID {
			out = append(out, *cert)
		}
	}
	return out, nil
}

type fakeNotificationRepo struct {
	mu            sync.Mutex
	notifications []*domain.Notification
	nextID        uint
}

func newFakeNotificationRepo() *fakeNotificationRepo { return &fakeNotificationRepo{} }

func (r *fakeNotificationRepo) Create(ctx context.Context, notification *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	notification.ID = r.nextID
	r.notifications = append(r.notifications, notification)
	return nil
}

func (r *fakeNotificationRepo) GetByUserID(ctx context.Context, userID uint, onlyUnread bool, limit int) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.notifications {
		if n.UserID != userID {
			continue
		}
		if onlyUnread && n.Read {
			continue
		}
		out = append(out, *n)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, n := range r.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeNotificationRepo) GetByIDAndUser(ctx context.Context, id, userID uint) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id && n.UserID == userID {
			return n, nil
		}
	}
	return nil, nil
}

func (r *fakeNotificationRepo) Update(ctx context.Context, notification *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.notifications {
		if n.ID == notification.ID {
			r.notifications[i] = notification
			return nil
		}
	}
	return fmt.Errorf("notification %d not found", notification.ID)
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.UserID == userID {
			n.Read = true
		}
	}
	return nil
}

func (r *fakeNotificationRepo) Delete(ctx context.Context, id, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var kept []*domain.Notification
	for _, n := range r.notifications {
		if n.ID == id && n.UserID == userID {
			continue
		}
		kept = append(kept, n)
	}
	r.notifications = kept
	return nil
}

type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[uint]*domain.User
	nextID uint
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uint]*domain.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[id], nil
}

// ========== ARTIFACT STORE & RENDERER ==========

type fakeArtifactStore struct {
	mu     sync.Mutex
	files  map[string][]byte
	nextID int
}

func newFakeArtifactStore() *fakeArtifactStore {
	return &fakeArtifactStore{files: make(map[string][]byte)}
}

func (s *fakeArtifactStore) Upload(ctx context.Context, fileName, contentType string, data []byte, userID uint, courseID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("file-%d", s.nextID)
	s.files[id] = data
	return id, nil
}

func (s *fakeArtifactStore) Download(ctx context.Context, fileID string) (io.ReadCloser, *domain.ArtifactInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[fileID]
	if !ok {
		return nil, nil, fmt.Errorf("file %s not found", fileID)
	}
	info := &domain.ArtifactInfo{ID: fileID, ContentType: "application/pdf", Size: int64(len(data))}
	return io.NopCloser(bytes.NewReader(data)), info, nil
}

func (s *fakeArtifactStore) Delete(ctx context.Context, fileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[fileID]; !ok {
		return fmt.Errorf("file %s not found", fileID)
	}
	delete(s.files, fileID)
	return nil
}

func (s *fakeArtifactStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

type stubRenderer struct{}

func (stubRenderer) Render(data pdf.CertificateData) ([]byte, error) {
	return []byte("%PDF-1.4 " + data.StudentName), nil
}

// ========== TEST ENVIRONMENT ==========

type testEnv struct {
	courses       *fakeCourseRepo
	enrollmentsDB *fakeEnrollmentRepo
	attempts      *fakeAttemptRepo
	certsDB       *fakeCertRepo
	notifsDB      *fakeNotificationRepo
	users         *fakeUserRepo
	store         *fakeArtifactStore
	hub           *realtime.Hub

	enrollments   domain.EnrollmentUsecase
	assessment    domain.AssessmentUsecase
	certs         domain.CertificateUsecase
	notifications domain.NotificationUsecase
	dashboard     domain.DashboardUsecase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		courses:       newFakeCourseRepo(),
		enrollmentsDB: newFakeEnrollmentRepo(),
		attempts:      newFakeAttemptRepo(),
		certsDB:       newFakeCertRepo(),
		notifsDB:      newFakeNotificationRepo(),
		users:         newFakeUserRepo(),
		store:         newFakeArtifactStore(),
		hub:           realtime.NewHub(),
	}

	env.notifications = usecase.NewNotificationUsecase(env.notifsDB, env.hub)
	env.enrollments = usecase.NewEnrollmentUsecase(env.enrollmentsDB, env.courses, env.notifications)
	env.certs = usecase.NewCertificateUsecase(env.certsDB, env.store, stubRenderer{})
	env.assessment = usecase.NewAssessmentUsecase(
		env.courses, env.enrollmentsDB, env.attempts, env.certsDB, env.users,
		env.enrollments, env.certs, env.notifications)
	env.dashboard = usecase.NewDashboardUsecase(env.enrollments, env.certsDB, env.notifsDB)

	env.users.Create(context.Background(), &domain.User{Name: "Ada Lovelace", Email: "ada@example.com"})
	env.courses.Create(context.Background(), testCourse())

	return env
}

// testCourse is a two-lesson course with a section exam and a final exam,
// both capped at two attempts.
func testCourse() *domain.Course {
	return &domain.Course{
		ID:     "course-1",
		Title:  "Intro to Testing",
		Active: true,
		Sections: []domain.Section{
			{
				ID:    "sec-1",
				Title: "Basics",
				Order: 1,
				Lessons: []domain.Lesson{
					{ID: "les-1", Title: "Welcome", Type: domain.LessonVideo, Order: 1},
					{ID: "les-2", Title: "Reading", Type: domain.LessonText, Order: 2},
				},
			},
		},
		Exams: []domain.Exam{
			{
				ID:             "exam-sec",
				SectionID:      "sec-1",
				Title:          "Section Quiz",
				Type:           domain.ExamSection,
				MaxAttempts:    2,
				PassingPercent: 70,
				Active:         true,
				Questions: []domain.Question{
					{
						ID: "sq-1", Prompt: "Pick A", Type: domain.QuestionMultipleChoice, Points: 1, Order: 1,
						Options: []domain.Option{
							{ID: "sq1-a", Text: "A", IsCorrect: true},
							{ID: "sq1-b", Text: "B"},
						},
					},
				},
			},
			{
				ID:             "exam-final",
				Title:          "Final",
				Type:           domain.ExamFinal,
				MaxAttempts:    2,
				PassingPercent: 70,
				Active:         true,
				Questions: []domain.Question{
					{
						ID: "fq-1", Prompt: "Pick the right one", Type: domain.QuestionMultipleChoice, Points: 2, Order: 1,
						Options: []domain.Option{
							{ID: "fq1-a", Text: "Right", IsCorrect: true},
							{ID: "fq1-b", Text: "Wrong"},
							{ID: "fq1-c", Text: "Also wrong"},
						},
					},
					{
						ID: "fq-2", Prompt: "The sky is blue.", Type: domain.QuestionTrueFalse, Points: 1, Order: 2,
						Options: []domain.Option{
							{ID: "fq2-t", Text: "True", IsCorrect: true},
							{ID: "fq2-f", Text: "False"},
						},
					},
					{
						ID: "fq-3", Prompt: "Name the entry package", Type: domain.QuestionFreeText, Points: 1, Order: 3,
						Options: []domain.Option{
							{ID: "fq3-a", Text: "main", IsCorrect: true},
						},
					},
				},
			},
		},
	}
}

// completeAllLessons walks the test course to a fully-completed state.
func completeAllLessons(t *testing.T, env *testEnv, userID uint) {
	t.Helper()
	ctx := context.Background()
	if _, err := env.enrollments.RecordVideoWatched(ctx, userID, "course-1", "les-1"); err != nil {
		t.Fatalf("record video: %v", err)
	}
	done := true
	for _, lessonID := range []string{"les-1", "les-2"} {
		if _, err := env.enrollments.UpdateLessonProgress(ctx, userID, "course-1", lessonID, domain.LessonProgressUpdate{Completed: &done}); err != nil {
			t.Fatalf("complete lesson %s: %v", lessonID, err)
		}
	}
}

// passingFinalAnswers scores 3 of 4 points (75%): both gradeable questions
// correct, while the free-text answer is held for manual review.
func passingFinalAnswers() []domain.AnswerSubmission {
	return []domain.AnswerSubmission{
		{QuestionID: "fq-1", OptionID: "fq1-a"},
		{QuestionID: "fq-2", Value: "TRUE"},
		{QuestionID: "fq-3", Value: "main"},
	}
}

func wrongFinalAnswers() []domain.AnswerSubmission {
	return []domain.AnswerSubmission{
		{QuestionID: "fq-1", OptionID: "fq1-b"},
		{QuestionID: "fq-2", Value: "false"},
		{QuestionID: "fq-3", Value: "fmt"},
	}
}
