package domain

import (
	"context"
	"io"
	"time"
)

type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uint) (*User, error)
}

type CourseRepository interface { // MongoDB
	Create(ctx context.Context, course *Course) error
	GetByID(ctx context.Context, id string) (*Course, error)
	GetAllActive(ctx context.Context) ([]Course, error)
	Count(ctx context.Context) (int64, error)
	IncrementEnrolledCount(ctx context.Context, id string, delta int) error
}

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *Enrollment) error
	// GetByUserAndCourse returns (nil, nil) when no enrollment exists.
	GetByUserAndCourse(ctx context.Context, userID uint, courseID string) (*Enrollment, error)
	GetByUserID(ctx context.Context, userID uint) ([]Enrollment, error)
	Update(ctx context.Context, enrollment *Enrollment) error
	SaveLessonProgress(ctx context.Context, entry *LessonProgress) error
	// ResetProgress zeroes every lesson entry and the enrollment aggregate in
	// one transaction.
	ResetProgress(ctx context.Context, enrollmentID uint) error
}

type AttemptRepository interface {
	Create(ctx context.Context, attempt *ExamAttempt) error
	CountByUserAndExam(ctx context.Context, userID uint, examID string) (int64, error)
	GetByUserAndCourse(ctx context.Context, userID uint, courseID string) ([]ExamAttempt, error)
	DeleteByUserAndCourse(ctx context.Context, userID uint, courseID string) error
}

type CertificateRepository interface {
	// Upsert inserts or overwrites the row keyed by (user_id, course_id) and
	// leaves cert.ID set to the stored row's id.
	Upsert(ctx context.Context, cert *Certificate) error
	// GetByUserAndCourse returns (nil, nil) when no certificate exists.
	GetByUserAndCourse(ctx context.Context, userID uint, courseID string) (*Certificate, error)
	GetByFileID(ctx context.Context, fileID string) (*Certificate, error)
	GetByUserID(ctx context.Context, userID uint) ([]Certificate, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	GetByUserID(ctx context.Context, userID uint, onlyUnread bool, limit int) ([]Notification, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	GetByIDAndUser(ctx context.Context, id, userID uint) (*Notification, error)
	Update(ctx context.Context, notification *Notification) error
	MarkAllRead(ctx context.Context, userID uint) error
	Delete(ctx context.Context, id, userID uint) error
}

// ArtifactInfo describes a stored certificate artifact.
type ArtifactInfo struct {
	ID          string
	FileName    string
	ContentType string
	Size        int64
	UploadDate  time.Time
}

// ArtifactStore persists rendered certificate files (GridFS-backed).
type ArtifactStore interface {
	Upload(ctx context.Context, fileName, contentType string, data []byte, userID uint, courseID string) (string, error)
	Download(ctx context.Context, fileID string) (io.ReadCloser, *ArtifactInfo, error)
	Delete(ctx context.Context, fileID string) error
}

type AuthUsecase interface {
	Register(ctx context.Context, user *User) error
	Login(ctx context.Context, email, password string) (string, error)
	GetUserByID(ctx context.Context, id uint) (*User, error)
}

type CatalogUsecase interface {
	GetAllCourses(ctx context.Context) ([]Course, error)
	GetCourse(ctx context.Context, id string) (*Course, error)
}

type EnrollmentUsecase interface {
	// Enroll is idempotent: the bool reports whether a new enrollment was
	// created on this call.
	Enroll(ctx context.Context, userID uint, courseID string) (*Enrollment, bool, error)
	GetEnrollment(ctx context.Context, userID uint, courseID string) (*Enrollment, error)
	ListByUser(ctx context.Context, userID uint) ([]EnrollmentWithCourse, error)
	UpdateLessonProgress(ctx context.Context, userID uint, courseID, lessonID string, upd LessonProgressUpdate) (*Enrollment, error)
	RecordVideoWatched(ctx context.Context, userID uint, courseID, lessonID string) (*Enrollment, error)
	MarkCompleted(ctx context.Context, userID uint, courseID string) error
	Reset(ctx context.Context, userID uint, courseID string) error
}

type AssessmentUsecase interface {
	SelectExam(ctx context.Context, userID uint, courseID string, scope ExamScope) (*ExamView, error)
	Submit(ctx context.Context, userID uint, examID, courseID string, answers []AnswerSubmission) (*SubmitResult, error)
	ListResults(ctx context.Context, userID uint, courseID string) ([]ExamResult, error)
}

type CertificateUsecase interface {
	Issue(ctx context.Context, user *User, course *Course, percent int, examID string, score, maxScore int) (*Certificate, error)
	ListByUser(ctx context.Context, userID uint) ([]Certificate, error)
	GetByCourse(ctx context.Context, userID uint, courseID string) (*Certificate, error)
	Download(ctx context.Context, userID uint, fileID string) (io.ReadCloser, *Certificate, error)
}

type NotificationUsecase interface {
	Notify(ctx context.Context, userID uint, title, message string, typ NotificationType, link string) (*Notification, error)
	List(ctx context.Context, userID uint, onlyUnread bool, limit int) ([]Notification, int64, error)
	MarkRead(ctx context.Context, id, userID uint) (*Notification, error)
	MarkAllRead(ctx context.Context, userID uint) error
	Delete(ctx context.Context, id, userID uint) error
}

type DashboardUsecase interface {
	GetStudentDashboard(ctx context.Context, userID uint) (*StudentDashboardData, error)
}
