package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"aprendo-backend/internal/domain"
)

const (
	defaultMaxAttempts    = 3
	defaultPassingPercent = 70
	issueTimeout          = 15 * time.Second
)

type assessmentUsecase struct {
	courseRepo     domain.CourseRepository
	enrollmentRepo domain.EnrollmentRepository
	attemptRepo    domain.AttemptRepository
	certRepo       domain.CertificateRepository
	userRepo       domain.UserRepository
	enrollments    domain.EnrollmentUsecase
	certs          domain.CertificateUsecase
	notifier       domain.NotificationUsecase

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewAssessmentUsecase(
	cr domain.CourseRepository,
	er domain.EnrollmentRepository,
	ar domain.AttemptRepository,
	certr domain.CertificateRepository,
	ur domain.UserRepository,
	eu domain.EnrollmentUsecase,
	cu domain.CertificateUsecase,
	nu domain.NotificationUsecase,
) domain.AssessmentUsecase {
	return &assessmentUsecase{
		courseRepo:     cr,
		enrollmentRepo: er,
		attemptRepo:    ar,
		certRepo:       certr,
		userRepo:       ur,
		enrollments:    eu,
		certs:          cu,
		notifier:       nu,
		locks:          make(map[string]*sync.Mutex),
	}
}

// courseLock serializes submissions per (user, course) so concurrent submits
// cannot double-count attempts.
func (uc *assessmentUsecase) courseLock(userID uint, courseID string) *sync.Mutex {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	key := fmt.Sprintf("%d:%s", userID, courseID)
	m, ok := uc.locks[key]
	if !ok {
		m = &sync.Mutex{}
		uc.locks[key] = m
	}
	return m
}

// releaseCourseLock drops the lock entry once the course is completed so the
// map stays bounded. Waiters holding the old mutex still get stopped by the
// certificate-conflict guard.
func (uc *assessmentUsecase) releaseCourseLock(userID uint, courseID string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	delete(uc.locks, fmt.Sprintf("%d:%s", userID, courseID))
}

func (uc *assessmentUsecase) loadCourse(ctx context.Context, courseID string) (*domain.Course, *domain.CourseIndex, error) {
	course, err := uc.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, nil, err
	}
	if course == nil || !course.Active {
		return nil, nil, &domain.NotFoundError{Resource: "course"}
	}
	return course, domain.NewCourseIndex(course), nil
}

func (uc *assessmentUsecase) activeEnrollment(ctx context.Context, userID uint, courseID string) (*domain.Enrollment, error) {
	enrollment, err := uc.enrollmentRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil || enrollment.Status == domain.EnrollmentCancelled {
		return nil, &domain.AuthorizationError{Reason: "no active enrollment for this course"}
	}
	return enrollment, nil
}

// existingCertificate reports the certificate conflict for a completed course,
// or nil when exams are still open.
func (uc *assessmentUsecase) existingCertificate(ctx context.Context, userID uint, courseID string, enrollment *domain.Enrollment) (*domain.ConflictError, error) {
	cert, err := uc.certRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if cert == nil && enrollment.Status != domain.EnrollmentCompleted {
		return nil, nil
	}
	conflict := &domain.ConflictError{Reason: "course already completed"}
	if cert != nil {
		conflict.Certificate = certificateRef(cert)
	}
	return conflict, nil
}

func (uc *assessmentUsecase) SelectExam(ctx context.Context, userID uint, courseID string, scope domain.ExamScope) (*domain.ExamView, error) {
	_, idx, err := uc.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	enrollment, err := uc.activeEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	var exam *domain.Exam
	switch {
	case scope.Final:
		exam = idx.FinalExam()
	case scope.SectionID != "":
		if idx.Section(scope.SectionID) == nil {
			return nil, &domain.NotFoundError{Resource: "section"}
		}
		exam = idx.SectionExam(scope.SectionID)
	default:
		exam = idx.FirstSectionExam()
	}
	if exam == nil {
		return nil, &domain.NotFoundError{Resource: "exam"}
	}

	conflict, err := uc.existingCertificate(ctx, userID, courseID, enrollment)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, conflict
	}

	if err := uc.checkPrerequisites(enrollment, idx, exam); err != nil {
		return nil, err
	}

	return buildExamView(courseID, exam), nil
}

// checkPrerequisites requires every lesson in the exam's reach to be
// completed: the whole course for a final exam, the owning section otherwise.
func (uc *assessmentUsecase) checkPrerequisites(enrollment *domain.Enrollment, idx *domain.CourseIndex, exam *domain.Exam) error {
	completed := make(map[string]bool, len(enrollment.Lessons))
	for _, entry := range enrollment.Lessons {
		if entry.Completed {
			completed[entry.LessonID] = true
		}
	}

	var required []string
	if exam.Type == domain.ExamFinal {
		required = idx.AllLessonIDs()
	} else {
		required = idx.SectionLessonIDs(exam.SectionID)
	}

	missing := 0
	for _, lessonID := range required {
		if !completed[lessonID] {
			missing++
		}
	}
	if missing > 0 {
		return &domain.PrerequisiteError{
			Reason: fmt.Sprintf("%d lesson(s) must be completed before taking this exam", missing),
		}
	}
	return nil
}

// buildExamView strips correctness and shuffles options per question.
func buildExamView(courseID string, exam *domain.Exam) *domain.ExamView {
	view := &domain.ExamView{
		ID:             exam.ID,
		CourseID:       courseID,
		SectionID:      exam.SectionID,
		Title:          exam.Title,
		Description:    exam.Description,
		Type:           exam.Type,
		TimeLimit:      exam.TimeLimit,
		MaxAttempts:    maxAttempts(exam),
		PassingPercent: passingPercent(exam),
	}

	questions := make([]domain.Question, len(exam.Questions))
	copy(questions, exam.Questions)
	sort.SliceStable(questions, func(i, j int) bool { return questions[i].Order < questions[j].Order })

	for _, q := range questions {
		qv := domain.QuestionView{
			ID:     q.ID,
			Prompt: q.Prompt,
			Type:   q.Type,
			Points: questionPoints(&q),
			Order:  q.Order,
		}
		if q.Type != domain.QuestionFreeText {
			for _, opt := range q.Options {
				qv.Options = append(qv.Options, domain.OptionView{ID: opt.ID, Text: opt.Text})
			}
			rand.Shuffle(len(qv.Options), func(i, j int) {
				qv.Options[i], qv.Options[j] = qv.Options[j], qv.Options[i]
			})
		}
		view.Questions = append(view.Questions, qv)
	}
	return view
}

func (uc *assessmentUsecase) Submit(ctx context.Context, userID uint, examID, courseID string, answers []domain.AnswerSubmission) (*domain.SubmitResult, error) {
	if len(answers) == 0 {
		return nil, &domain.ValidationError{Reason: "answers must not be empty"}
	}

	course, idx, err := uc.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	exam := idx.Exam(examID)
	if exam == nil || !exam.Active {
		return nil, &domain.NotFoundError{Resource: "exam"}
	}

	lock := uc.courseLock(userID, courseID)
	lock.Lock()
	defer lock.Unlock()

	enrollment, err := uc.activeEnrollment(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	conflict, err := uc.existingCertificate(ctx, userID, courseID, enrollment)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, conflict
	}

	limit := maxAttempts(exam)
	prior, err := uc.attemptRepo.CountByUserAndExam(ctx, userID, examID)
	if err != nil {
		return nil, err
	}
	if int(prior) >= limit {
		return nil, &domain.AttemptLimitError{MaxAttempts: limit}
	}

	records, score, maxScore, err := gradeSubmission(exam, answers)
	if err != nil {
		return nil, err
	}

	percent := 0
	if maxScore > 0 {
		percent = int(math.Round(100 * float64(score) / float64(maxScore)))
	}
	passing := passingPercent(exam)
	passed := percent >= passing
	attempt := int(prior) + 1

	recordsJSON, err := json.Marshal(records)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	stored := &domain.ExamAttempt{
		UserID:     userID,
		ExamID:     examID,
		CourseID:   courseID,
		Attempt:    attempt,
		Answers:    recordsJSON,
		Score:      score,
		MaxScore:   maxScore,
		Percent:    percent,
		Passed:     passed,
		StartedAt:  now,
		FinishedAt: now,
	}
	if err := uc.attemptRepo.Create(ctx, stored); err != nil {
		return nil, err
	}

	result := &domain.SubmitResult{
		Passed:            passed,
		Percent:           percent,
		Score:             score,
		MaxScore:          maxScore,
		PassingPercent:    passing,
		Attempt:           attempt,
		AttemptsRemaining: limit - attempt,
		Answers:           records,
	}

	if !passed && attempt >= limit {
		uc.resetCourse(ctx, userID, courseID, limit, result)
	}

	if passed && exam.Type == domain.ExamFinal {
		uc.completeCourse(ctx, userID, course, exam, percent, score, maxScore, result)
	}

	if passed && exam.Type == domain.ExamFinal {
		uc.releaseCourseLock(userID, courseID)
	}

	return result, nil
}

// resetCourse wipes lesson progress and the attempt history once the budget
// runs out, giving the student a fresh start.
func (uc *assessmentUsecase) resetCourse(ctx context.Context, userID uint, courseID string, limit int, result *domain.SubmitResult) {
	// Progress first: if it fails the attempt history stays intact and the
	// budget remains exhausted, so the response can truthfully say reset=false.
	if err := uc.enrollments.Reset(ctx, userID, courseID); err != nil {
		log.Printf("Warning: failed to reset progress for user %d course %s: %v", userID, courseID, err)
		return
	}
	if err := uc.attemptRepo.DeleteByUserAndCourse(ctx, userID, courseID); err != nil {
		log.Printf("Warning: failed to clear attempts for user %d course %s: %v", userID, courseID, err)
		return
	}
	result.Reset = true
	result.AttemptsRemaining = limit
	if uc.notifier != nil {
		_, err := uc.notifier.Notify(ctx, userID,
			"Course restarted",
			"You ran out of exam attempts, so your course progress was reset. You can start over right away.",
			domain.NotificationCourse,
			"/courses/"+courseID,
		)
		if err != nil {
			log.Printf("Warning: failed to send reset notification: %v", err)
		}
	}
}

// completeCourse marks the enrollment finished and issues the certificate.
// Every step is best-effort: the graded result stands even when issuance or
// notifications fail.
func (uc *assessmentUsecase) completeCourse(ctx context.Context, userID uint, course *domain.Course, exam *domain.Exam, percent, score, maxScore int, result *domain.SubmitResult) {
	if err := uc.enrollments.MarkCompleted(ctx, userID, course.ID); err != nil {
		log.Printf("Warning: failed to mark enrollment completed for user %d course %s: %v", userID, course.ID, err)
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil || user == nil {
		log.Printf("Warning: cannot load user %d for certificate issuance: %v", userID, err)
		return
	}

	issueCtx, cancel := context.WithTimeout(ctx, issueTimeout)
	defer cancel()
	cert, err := uc.certs.Issue(issueCtx, user, course, percent, exam.ID, score, maxScore)
	if err != nil {
		log.Printf("Warning: failed to issue certificate for user %d course %s: %v", userID, course.ID, err)
		return
	}
	result.Certificate = certificateRef(cert)

	if uc.notifier != nil {
		_, err := uc.notifier.Notify(ctx, userID,
			"Certificate ready",
			fmt.Sprintf("Congratulations! You completed %q with %d%%. Your certificate is ready to download.", course.Title, percent),
			domain.NotificationCertificate,
			cert.PublicURL,
		)
		if err != nil {
			log.Printf("Warning: failed to send certificate notification: %v", err)
		}
	}
}

func (uc *assessmentUsecase) ListResults(ctx context.Context, userID uint, courseID string) ([]domain.ExamResult, error) {
	attempts, err := uc.attemptRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}

	var idx *domain.CourseIndex
	if course, err := uc.courseRepo.GetByID(ctx, courseID); err == nil && course != nil {
		idx = domain.NewCourseIndex(course)
	}

	results := make([]domain.ExamResult, 0, len(attempts))
	for _, attempt := range attempts {
		item := domain.ExamResult{ExamAttempt: attempt}
		if idx != nil {
			if exam := idx.Exam(attempt.ExamID); exam != nil {
				item.ExamTitle = exam.Title
				item.ExamType = exam.Type
			}
		}
		results = append(results, item)
	}
	return results, nil
}

// ========== GRADING ==========

// gradeSubmission scores every question of the exam; unanswered questions
// count as incorrect.
func gradeSubmission(exam *domain.Exam, answers []domain.AnswerSubmission) ([]domain.AnswerRecord, int, int, error) {
	byQuestion := make(map[string]domain.AnswerSubmission, len(answers))
	for _, answer := range answers {
		if _, dup := byQuestion[answer.QuestionID]; dup {
			return nil, 0, 0, &domain.ValidationError{Reason: "duplicate answer for question " + answer.QuestionID}
		}
		byQuestion[answer.QuestionID] = answer
	}

	questionIDs := make(map[string]bool, len(exam.Questions))
	for i := range exam.Questions {
		questionIDs[exam.Questions[i].ID] = true
	}
	for questionID := range byQuestion {
		if !questionIDs[questionID] {
			return nil, 0, 0, &domain.ValidationError{Reason: "unknown question " + questionID}
		}
	}

	var records []domain.AnswerRecord
	score, maxScore := 0, 0
	for i := range exam.Questions {
		question := &exam.Questions[i]
		points := questionPoints(question)
		maxScore += points

		record := domain.AnswerRecord{
			QuestionID:     question.ID,
			PointsPossible: points,
		}
		if answer, ok := byQuestion[question.ID]; ok {
			record.OptionID = answer.OptionID
			record.Value = answer.Value
			record.Correct = isCorrect(question, answer)
		}
		if record.Correct {
			record.PointsEarned = points
			score += points
		}
		records = append(records, record)
	}
	return records, score, maxScore, nil
}

func isCorrect(question *domain.Question, answer domain.AnswerSubmission) bool {
	switch question.Type {
	case domain.QuestionMultipleChoice:
		for _, opt := range question.Options {
			if opt.ID == answer.OptionID {
				return opt.IsCorrect
			}
		}
		return false
	case domain.QuestionTrueFalse:
		if answer.OptionID != "" {
			for _, opt := range question.Options {
				if opt.ID == answer.OptionID {
					return opt.IsCorrect
				}
			}
			return false
		}
		submitted, ok := parseBool(answer.Value)
		if !ok {
			return false
		}
		for _, opt := range question.Options {
			if opt.IsCorrect {
				return submitted == strings.EqualFold(opt.Text, "true")
			}
		}
		return false
	case domain.QuestionFreeText:
		// Never auto-scored: the answer is recorded for manual review and
		// earns no points here.
		return false
	default:
		return false
	}
}

func parseBool(value string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true":
		return true, true
	case "false":
		return false, true
	default:
		return false, false
	}
}

func maxAttempts(exam *domain.Exam) int {
	if exam.MaxAttempts > 0 {
		return exam.MaxAttempts
	}
	return defaultMaxAttempts
}

func passingPercent(exam *domain.Exam) int {
	if exam.PassingPercent > 0 {
		return exam.PassingPercent
	}
	return defaultPassingPercent
}

func questionPoints(question *domain.Question) int {
	if question.Points > 0 {
		return question.Points
	}
	return 1
}

func certificateRef(cert *domain.Certificate) *domain.CertificateRef {
	return &domain.CertificateRef{
		ID:       cert.ID,
		URL:      cert.PublicURL,
		FileName: cert.FileName,
		IssuedAt: cert.IssuedAt,
	}
}
