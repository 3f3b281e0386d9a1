package usecase

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"aprendo-backend/internal/domain"
)

type enrollmentUsecase struct {
	enrollmentRepo domain.EnrollmentRepository
	courseRepo     domain.CourseRepository
	notifier       domain.NotificationUsecase
}

func NewEnrollmentUsecase(
	er domain.EnrollmentRepository,
	cr domain.CourseRepository,
	nu domain.NotificationUsecase,
) domain.EnrollmentUsecase {
	return &enrollmentUsecase{
		enrollmentRepo: er,
		courseRepo:     cr,
		notifier:       nu,
	}
}

func (uc *enrollmentUsecase) loadCourse(ctx context.Context, courseID string) (*domain.Course, *domain.CourseIndex, error) {
	course, err := uc.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}
	if course == nil || !course.Active {
		return nil, nil, &domain.NotFoundError{Resource: "course"}
	}
	return course, domain.NewCourseIndex(course), nil
}

func (uc *enrollmentUsecase) Enroll(ctx context.Context, userID uint, courseID string) (*domain.Enrollment, bool, error) {
	course, idx, err := uc.loadCourse(ctx, courseID)
	if err != nil {
		return nil, false, err
	}

	existing, err := uc.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	enrollment := &domain.Enrollment{
		UserID:       userID,
		CourseID:     courseID,
		Status:       domain.EnrollmentActive,
		LastAccessAt: time.Now(),
	}
	for _, lessonID := range idx.AllLessonIDs() {
		enrollment.Lessons = append(enrollment.Lessons, domain.LessonProgress{LessonID: lessonID})
	}
	if err := uc.enrollmentRepo.Create(ctx, enrollment); err != nil {
		return nil, false, err
	}

	if err := uc.courseRepo.IncrementEnrolledCount(ctx, courseID, 1); err != nil {
		log.Printf("Warning: failed to bump enrolled count for course %s: %v", courseID, err)
	}

	if uc.notifier != nil {
		_, err := uc.notifier.Notify(ctx, userID,
			"Enrollment confirmed",
			fmt.Sprintf("You are now enrolled in %q. Good luck!", course.Title),
			domain.NotificationCourse,
			"/courses/"+courseID,
		)
		if err != nil {
			log.Printf("Warning: failed to send enrollment notification: %v", err)
		}
	}

	return enrollment, true, nil
}

func (uc *enrollmentUsecase) GetEnrollment(ctx context.Context, userID uint, courseID string) (*domain.Enrollment, error) {
	enrollment, err := uc.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, &domain.NotFoundError{Resource: "enrollment"}
	}
	return enrollment, nil
}

func (uc *enrollmentUsecase) ListByUser(ctx context.Context, userID uint) ([]domain.EnrollmentWithCourse, error) {
	enrollments, err := uc.enrollmentRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make([]domain.EnrollmentWithCourse, 0, len(enrollments))
	for _, enrollment := range enrollments {
		item := domain.EnrollmentWithCourse{Enrollment: enrollment}
		for _, entry := range enrollment.Lessons {
			if entry.Completed {
				item.CompletedLessons++
			}
		}
		course, err := uc.courseRepo.GetByID(ctx, enrollment.CourseID)
		if err != nil {
			return nil, err
		}
		if course != nil {
			item.CourseTitle = course.Title
			item.CourseImage = course.Image
			item.LessonCount = domain.NewCourseIndex(course).LessonCount()
		}
		result = append(result, item)
	}
	return result, nil
}

func (uc *enrollmentUsecase) UpdateLessonProgress(ctx context.Context, userID uint, courseID, lessonID string, upd domain.LessonProgressUpdate) (*domain.Enrollment, error) {
	_, idx, err := uc.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	lesson := idx.Lesson(lessonID)
	if lesson == nil {
		return nil, &domain.NotFoundError{Resource: "lesson"}
	}

	enrollment, err := uc.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil || enrollment.Status == domain.EnrollmentCancelled {
		return nil, &domain.AuthorizationError{Reason: "no active enrollment for this course"}
	}

	entry := findLessonEntry(enrollment, lessonID)
	if entry == nil {
		// Lesson added to the catalog after enrollment: create the entry lazily.
		enrollment.Lessons = append(enrollment.Lessons, domain.LessonProgress{
			EnrollmentID: enrollment.ID,
			LessonID:     lessonID,
		})
		entry = &enrollment.Lessons[len(enrollment.Lessons)-1]
	}
	entry.EnrollmentID = enrollment.ID

	if upd.VideoWatched != nil && *upd.VideoWatched {
		entry.VideoWatched = true
	}
	if upd.Percent != nil {
		percent := *upd.Percent
		if percent < 0 || percent > 100 {
			return nil, &domain.ValidationError{Reason: "percent must be between 0 and 100"}
		}
		if percent > entry.Percent {
			entry.Percent = percent
		}
	}
	if upd.Completed != nil && *upd.Completed && !entry.Completed {
		if lesson.Type == domain.LessonVideo && !entry.VideoWatched {
			return nil, &domain.PrerequisiteError{Reason: "video must be watched before completing this lesson"}
		}
		now := time.Now()
		entry.Completed = true
		entry.CompletedAt = &now
		entry.Percent = 100
	}

	if err := uc.enrollmentRepo.SaveLessonProgress(ctx, entry); err != nil {
		return nil, err
	}

	enrollment.Progress = aggregateProgress(enrollment, idx)
	enrollment.LastLessonID = lessonID
	enrollment.LastSectionID = idx.SectionOfLesson(lessonID)
	enrollment.LastAccessAt = time.Now()
	if err := uc.enrollmentRepo.Update(ctx, enrollment); err != nil {
		return nil, err
	}

	return enrollment, nil
}

func (uc *enrollmentUsecase) RecordVideoWatched(ctx context.Context, userID uint, courseID, lessonID string) (*domain.Enrollment, error) {
	watched := true
	return uc.UpdateLessonProgress(ctx, userID, courseID, lessonID, domain.LessonProgressUpdate{VideoWatched: &watched})
}

func (uc *enrollmentUsecase) MarkCompleted(ctx context.Context, userID uint, courseID string) error {
	enrollment, err := uc.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return err
	}
	enrollment.Status = domain.EnrollmentCompleted
	enrollment.Progress = 100
	return uc.enrollmentRepo.Update(ctx, enrollment)
}

// Reset wipes lesson progress and reactivates the enrollment. Used when the
// attempt budget of an exam runs out.
func (uc *enrollmentUsecase) Reset(ctx context.Context, userID uint, courseID string) error {
	enrollment, err := uc.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return err
	}
	return uc.enrollmentRepo.ResetProgress(ctx, enrollment.ID)
}

func findLessonEntry(enrollment *domain.Enrollment, lessonID string) *domain.LessonProgress {
	for i := range enrollment.Lessons {
		if enrollment.Lessons[i].LessonID == lessonID {
			return &enrollment.Lessons[i]
		}
	}
	return nil
}

// aggregateProgress recomputes the 0-100 enrollment progress from completed
// lessons that still exist in the catalog.
func aggregateProgress(enrollment *domain.Enrollment, idx *domain.CourseIndex) int {
	total := idx.LessonCount()
	if total == 0 {
		return 0
	}
	completed := 0
	for i := range enrollment.Lessons {
		if enrollment.Lessons[i].Completed && idx.Lesson(enrollment.Lessons[i].LessonID) != nil {
			completed++
		}
	}
	return int(math.Round(100 * float64(completed) / float64(total)))
}
