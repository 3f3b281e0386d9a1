package domain

import (
	"time"

	"gorm.io/datatypes"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	Role      Role      `json:"role" gorm:"type:varchar(20);default:'student'"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentPaused    EnrollmentStatus = "paused"
	EnrollmentCancelled EnrollmentStatus = "cancelled"
)

// Enrollment tracks one user's participation in one course. The composite
// unique index guarantees at most one record per (user, course) pair.
type Enrollment struct {
	ID            uint             `json:"id" gorm:"primaryKey"`
	UserID        uint             `json:"user_id" gorm:"not null;uniqueIndex:idx_enrollments_user_course"`
	CourseID      string           `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollments_user_course"`
	Status        EnrollmentStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	Progress      int              `json:"progress" gorm:"default:0"` // 0-100, derived from lesson entries
	LastSectionID string           `json:"last_section_id"`
	LastLessonID  string           `json:"last_lesson_id"`
	LastAccessAt  time.Time        `json:"last_access_at"`
	CreatedAt     time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time        `json:"updated_at" gorm:"autoUpdateTime"`

	// Relations
	Lessons []LessonProgress `json:"lessons,omitempty" gorm:"foreignKey:EnrollmentID"`
	User    User             `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// LessonProgress is the per-lesson state inside an enrollment. For
// video-typed lessons Completed=true implies VideoWatched=true.
type LessonProgress struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	EnrollmentID uint       `json:"enrollment_id" gorm:"not null;uniqueIndex:idx_lesson_progress_entry"`
	LessonID     string     `json:"lesson_id" gorm:"not null;uniqueIndex:idx_lesson_progress_entry"`
	VideoWatched bool       `json:"video_watched" gorm:"default:false"`
	Completed    bool       `json:"completed" gorm:"default:false"`
	Percent      int        `json:"percent" gorm:"default:0"`
	CompletedAt  *time.Time `json:"completed_at"`
}

// ExamAttempt is one graded submission. Append-only, except that exhausting
// the attempt budget deletes every attempt for the (user, course) pair.
type ExamAttempt struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	UserID     uint           `json:"user_id" gorm:"not null;index"`
	ExamID     string         `json:"exam_id" gorm:"not null;index"`
	CourseID   string         `json:"course_id" gorm:"not null;index"`
	Attempt    int            `json:"attempt" gorm:"not null"`
	Answers    datatypes.JSON `json:"answers"`
	Score      int            `json:"score"`
	MaxScore   int            `json:"max_score"`
	Percent    int            `json:"percent"`
	Passed     bool           `json:"passed" gorm:"default:false"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// Certificate is the proof of completion for a (user, course) pair. The
// composite unique index plus upsert-only writes keep it at one row per pair.
type Certificate struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"not null;uniqueIndex:idx_certificates_user_course"`
	CourseID  string         `json:"course_id" gorm:"not null;uniqueIndex:idx_certificates_user_course"`
	ExamID    string         `json:"exam_id"`
	FileID    string         `json:"file_id"` // GridFS object id of the PDF
	FileName  string         `json:"file_name"`
	PublicURL string         `json:"url"`
	Percent   int            `json:"percent"`
	Metadata  datatypes.JSON `json:"metadata"`
	IssuedAt  time.Time      `json:"issued_at"`
}

type NotificationType string

const (
	NotificationCertificate NotificationType = "certificate"
	NotificationCourse      NotificationType = "course"
	NotificationSystem      NotificationType = "system"
)

// Notification is the source of truth for user-facing events; the realtime
// channel is best-effort on top of it.
type Notification struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	UserID    uint             `json:"user_id" gorm:"not null;index:idx_notifications_user_read"`
	Title     string           `json:"title" gorm:"not null"`
	Message   string           `json:"message" gorm:"type:text"`
	Type      NotificationType `json:"type" gorm:"type:varchar(20);default:'system'"`
	Link      string           `json:"link,omitempty"`
	Read      bool             `json:"read" gorm:"default:false;index:idx_notifications_user_read"`
	CreatedAt time.Time        `json:"created_at" gorm:"autoCreateTime"`
	ReadAt    *time.Time       `json:"read_at"`
}

// ========== ASSESSMENT DTOs ==========

// ExamScope selects either a section exam or the course final.
type ExamScope struct {
	SectionID string
	Final     bool
}

// ExamView is the exam as delivered to a student: options shuffled, no
// correctness markers anywhere.
type ExamView struct {
	ID             string         `json:"id"`
	CourseID       string         `json:"course_id"`
	SectionID      string         `json:"section_id,omitempty"`
	Title          string         `json:"title"`
	Description    string         `json:"description,omitempty"`
	Type           ExamType       `json:"type"`
	TimeLimit      int            `json:"time_limit"`
	MaxAttempts    int            `json:"max_attempts"`
	PassingPercent int            `json:"passing_percent"`
	Questions      []QuestionView `json:"questions"`
}

type QuestionView struct {
	ID      string       `json:"id"`
	Prompt  string       `json:"prompt"`
	Type    QuestionType `json:"type"`
	Points  int          `json:"points"`
	Order   int          `json:"order"`
	Options []OptionView `json:"options,omitempty"`
}

type OptionView struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// AnswerSubmission is one answer in a submission payload. OptionID carries
// the choice for multiple-choice questions; Value carries "true"/"false" for
// true/false questions and free text otherwise.
type AnswerSubmission struct {
	QuestionID string `json:"question_id" binding:"required"`
	OptionID   string `json:"option_id,omitempty"`
	Value      string `json:"value,omitempty"`
}

// AnswerRecord is a graded answer as persisted inside an attempt.
type AnswerRecord struct {
	QuestionID     string `json:"question_id"`
	OptionID       string `json:"option_id,omitempty"`
	Value          string `json:"value,omitempty"`
	Correct        bool   `json:"correct"`
	PointsEarned   int    `json:"points_earned"`
	PointsPossible int    `json:"points_possible"`
}

// CertificateRef is the lightweight certificate reference surfaced in exam
// responses and conflict errors.
type CertificateRef struct {
	ID       uint      `json:"id"`
	URL      string    `json:"url"`
	FileName string    `json:"file_name"`
	IssuedAt time.Time `json:"issued_at"`
}

// SubmitResult reports the outcome of grading one submission.
type SubmitResult struct {
	Passed            bool            `json:"passed"`
	Percent           int             `json:"percent"`
	Score             int             `json:"score"`
	MaxScore          int             `json:"max_score"`
	PassingPercent    int             `json:"passing_percent"`
	Attempt           int             `json:"attempt"`
	AttemptsRemaining int             `json:"attempts_remaining"`
	Reset             bool            `json:"reset"`
	Certificate       *CertificateRef `json:"certificate"`
	Answers           []AnswerRecord  `json:"answers"`
}

// ExamResult pairs a stored attempt with exam info for history listings.
type ExamResult struct {
	ExamAttempt
	ExamTitle string   `json:"exam_title"`
	ExamType  ExamType `json:"exam_type"`
}

// ========== PROGRESS DTOs ==========

// LessonProgressUpdate carries the optional fields of a progress touch.
type LessonProgressUpdate struct {
	Completed    *bool `json:"completed,omitempty"`
	Percent      *int  `json:"percent,omitempty"`
	VideoWatched *bool `json:"video_watched,omitempty"`
}

// EnrollmentWithCourse decorates an enrollment with catalog info.
type EnrollmentWithCourse struct {
	Enrollment
	CourseTitle      string `json:"course_title"`
	CourseImage      string `json:"course_image,omitempty"`
	LessonCount      int    `json:"lesson_count"`
	CompletedLessons int    `json:"completed_lessons"`
}

// ========== DASHBOARD DTOs ==========

type StudentDashboardData struct {
	TotalEnrollments    int                    `json:"total_enrollments"`
	CompletedCourses    int                    `json:"completed_courses"`
	InProgressCourses   int                    `json:"in_progress_courses"`
	TotalCertificates   int                    `json:"total_certificates"`
	UnreadNotifications int64                  `json:"unread_notifications"`
	RecentCertificates  []Certificate          `json:"recent_certificates"`
	OngoingEnrollments  []EnrollmentWithCourse `json:"ongoing_enrollments"`
}
