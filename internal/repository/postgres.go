package repository

import (
	"context"
	"errors"
	"time"

	"aprendo-backend/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ========== USER REPOSITORY ==========

type userRepo struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepo{db}
}

func (r *userRepo) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

func (r *userRepo) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

// ========== ENROLLMENT REPOSITORY ==========

type enrollmentRepo struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) domain.EnrollmentRepository {
	return &enrollmentRepo{db}
}

func (r *enrollmentRepo) Create(ctx context.Context, enrollment *domain.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepo) GetByUserAndCourse(ctx context.Context, userID uint, courseID string) (*domain.Enrollment, error) {
	var enrollment domain.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Preload("Lessons").
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &enrollment, err
}

func (r *enrollmentRepo) GetByUserID(ctx context.Context, userID uint) ([]domain.Enrollment, error) {
	var enrollments []domain.Enrollment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Lessons").
		Order("updated_at DESC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *enrollmentRepo) Update(ctx context.Context, enrollment *domain.Enrollment) error {
	// Lesson entries are written through SaveLessonProgress, never here.
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(enrollment).Error
}

func (r *enrollmentRepo) SaveLessonProgress(ctx context.Context, entry *domain.LessonProgress) error {
	return r.db.WithContext(ctx).Save(entry).Error
}

func (r *enrollmentRepo) ResetProgress(ctx context.Context, enrollmentID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&domain.LessonProgress{}).
			Where("enrollment_id = ?", enrollmentID).
			Updates(map[string]interface{}{
				"video_watched": false,
				"completed":     false,
				"percent":       0,
				"completed_at":  nil,
			}).Error
		if err != nil {
			return err
		}
		return tx.Model(&domain.Enrollment{}).
			Where("id = ?", enrollmentID).
			Updates(map[string]interface{}{
				"status":          domain.EnrollmentActive,
				"progress":        0,
				"last_section_id": "",
				"last_lesson_id":  "",
			}).Error
	})
}

// ========== ATTEMPT REPOSITORY ==========

type attemptRepo struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) domain.AttemptRepository {
	return &attemptRepo{db}
}

func (r *attemptRepo) Create(ctx context.Context, attempt *domain.ExamAttempt) error {
	return r.db.WithContext(ctx).Create(attempt).Error
}

func (r *attemptRepo) CountByUserAndExam(ctx context.Context, userID uint, examID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.ExamAttempt{}).
		Where("user_id = ? AND exam_id = ?", userID, examID).
		Count(&count).Error
	return count, err
}

func (r *attemptRepo) GetByUserAndCourse(ctx context.Context, userID uint, courseID string) ([]domain.ExamAttempt, error) {
	var attempts []domain.ExamAttempt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("finished_at DESC").
		Find(&attempts).Error
	return attempts, err
}

func (r *attemptRepo) DeleteByUserAndCourse(ctx context.Context, userID uint, courseID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&domain.ExamAttempt{}).Error
}

// ========== CERTIFICATE REPOSITORY ==========

type certRepo struct {
	db *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) domain.CertificateRepository {
	return &certRepo{db}
}

func (r *certRepo) Upsert(ctx context.Context, cert *domain.Certificate) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"exam_id", "file_id", "file_name", "public_url", "percent", "metadata", "issued_at",
		}),
	}).Create(cert).Error
	if err != nil {
		return err
	}
	if cert.ID != 0 {
		return nil
	}
	// Conflict path without RETURNING support: read back the stored row id.
	stored, err := r.GetByUserAndCourse(ctx, cert.UserID, cert.CourseID)
	if err != nil {
		return err
	}
	if stored != nil {
		cert.ID = stored.ID
	}
	return nil
}

func (r *certRepo) GetByUserAndCourse(ctx context.Context, userID uint, courseID string) (*domain.Certificate, error) {
	var cert domain.Certificate
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &cert, err
}

func (r *certRepo) GetByFileID(ctx context.Context, fileID string) (*domain.Certificate, error) {
	var cert domain.Certificate
	err := r.db.WithContext(ctx).Where("file_id = ?", fileID).First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &cert, err
}

func (r *certRepo) GetByUserID(ctx context.Context, userID uint) ([]domain.Certificate, error) {
	var certs []domain.Certificate
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("issued_at DESC").
		Find(&certs).Error
	return certs, err
}

// ========== NOTIFICATION REPOSITORY ==========

type notificationRepo struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) domain.NotificationRepository {
	return &notificationRepo{db}
}

func (r *notificationRepo) Create(ctx context.Context, notification *domain.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *notificationRepo) GetByUserID(ctx context.Context, userID uint, onlyUnread bool, limit int) ([]domain.Notification, error) {
	var notifications []domain.Notification
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if onlyUnread {
		query = query.Where("read = ?", false)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("created_at DESC").Find(&notifications).Error
	return notifications, err
}

func (r *notificationRepo) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepo) GetByIDAndUser(ctx context.Context, id, userID uint) (*domain.Notification, error) {
	var notification domain.Notification
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&notification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &notification, err
}

func (r *notificationRepo) Update(ctx context.Context, notification *domain.Notification) error {
	return r.db.WithContext(ctx).Save(notification).Error
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&domain.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).
		Updates(map[string]interface{}{"read": true, "read_at": now}).Error
}

func (r *notificationRepo) Delete(ctx context.Context, id, userID uint) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Notification{}).Error
}
