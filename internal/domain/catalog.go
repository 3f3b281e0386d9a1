package domain

import (
	"time"
)

// ========== COURSE CATALOG (MongoDB) ==========

type LessonType string

const (
	LessonVideo LessonType = "video"
	LessonAudio LessonType = "audio"
	LessonText  LessonType = "text"
)

type ExamType string

const (
	ExamSection ExamType = "section"
	ExamFinal   ExamType = "final"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "multiple_choice"
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionFreeText       QuestionType = "free_text"
)

// Course is the catalog document: sections, lessons and exams are embedded
// and ordered. The catalog is read-only for this service except for the
// denormalized EnrolledCount.
type Course struct {
	ID            string    `json:"id" bson:"_id,omitempty"`
	Title         string    `json:"title" bson:"title"`
	Description   string    `json:"description" bson:"description"`
	Image         string    `json:"image,omitempty" bson:"image,omitempty"`
	Level         string    `json:"level,omitempty" bson:"level,omitempty"`
	Language      string    `json:"language,omitempty" bson:"language,omitempty"`
	Active        bool      `json:"active" bson:"active"`
	EnrolledCount int64     `json:"enrolled_count" bson:"enrolled_count"`
	Sections      []Section `json:"sections" bson:"sections"`
	Exams         []Exam    `json:"exams,omitempty" bson:"exams,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

type Section struct {
	ID      string   `json:"id" bson:"id"`
	Title   string   `json:"title" bson:"title"`
	Order   int      `json:"order" bson:"order"`
	Lessons []Lesson `json:"lessons" bson:"lessons"`
}

type Lesson struct {
	ID       string     `json:"id" bson:"id"`
	Title    string     `json:"title" bson:"title"`
	Type     LessonType `json:"type" bson:"type"`
	MediaURL string     `json:"media_url,omitempty" bson:"media_url,omitempty"`
	Duration int        `json:"duration,omitempty" bson:"duration,omitempty"` // minutes
	Order    int        `json:"order" bson:"order"`
}

// Exam lives embedded in its course. SectionID is empty for the final exam.
type Exam struct {
	ID             string     `json:"id" bson:"id"`
	SectionID      string     `json:"section_id,omitempty" bson:"section_id,omitempty"`
	Title          string     `json:"title" bson:"title"`
	Description    string     `json:"description,omitempty" bson:"description,omitempty"`
	Type           ExamType   `json:"type" bson:"type"`
	TimeLimit      int        `json:"time_limit" bson:"time_limit"` // minutes, 0 = unlimited
	MaxAttempts    int        `json:"max_attempts" bson:"max_attempts"`
	PassingPercent int        `json:"passing_percent" bson:"passing_percent"`
	Active         bool       `json:"active" bson:"active"`
	Questions      []Question `json:"questions" bson:"questions"`
}

type Question struct {
	ID      string       `json:"id" bson:"id"`
	Prompt  string       `json:"prompt" bson:"prompt"`
	Type    QuestionType `json:"type" bson:"type"`
	Options []Option     `json:"options,omitempty" bson:"options,omitempty"`
	Points  int          `json:"points" bson:"points"`
	Order   int          `json:"order" bson:"order"`
}

// Option never serializes its correctness to JSON: graded state must not be
// observable by clients before submission.
type Option struct {
	ID        string `json:"id" bson:"id"`
	Text      string `json:"text" bson:"text"`
	IsCorrect bool   `json:"-" bson:"is_correct"`
}

// ========== COURSE INDEX ==========

// CourseIndex provides keyed lookup into a course document so callers never
// scan the embedded arrays by hand.
type CourseIndex struct {
	course          *Course
	sections        map[string]*Section
	lessons         map[string]*Lesson
	lessonSection   map[string]string
	exams           map[string]*Exam
	sectionExams    map[string]*Exam
	finalExam       *Exam
	orderedLessons  []string
	sectionLessons  map[string][]string
}

func NewCourseIndex(course *Course) *CourseIndex {
	idx := &CourseIndex{
		course:         course,
		sections:       make(map[string]*Section),
		lessons:        make(map[string]*Lesson),
		lessonSection:  make(map[string]string),
		exams:          make(map[string]*Exam),
		sectionExams:   make(map[string]*Exam),
		sectionLessons: make(map[string][]string),
	}

	for i := range course.Sections {
		sec := &course.Sections[i]
		idx.sections[sec.ID] = sec
		for j := range sec.Lessons {
			lesson := &sec.Lessons[j]
			idx.lessons[lesson.ID] = lesson
			idx.lessonSection[lesson.ID] = sec.ID
			idx.orderedLessons = append(idx.orderedLessons, lesson.ID)
			idx.sectionLessons[sec.ID] = append(idx.sectionLessons[sec.ID], lesson.ID)
		}
	}

	for i := range course.Exams {
		exam := &course.Exams[i]
		idx.exams[exam.ID] = exam
		if !exam.Active {
			continue
		}
		if exam.Type == ExamFinal {
			idx.finalExam = exam
		} else if exam.SectionID != "" {
			idx.sectionExams[exam.SectionID] = exam
		}
	}

	return idx
}

func (idx *CourseIndex) Course() *Course { return idx.course }

func (idx *CourseIndex) Section(id string) *Section { return idx.sections[id] }

func (idx *CourseIndex) Lesson(id string) *Lesson { return idx.lessons[id] }

// SectionOfLesson returns the owning section id, or "" when unknown.
func (idx *CourseIndex) SectionOfLesson(lessonID string) string {
	return idx.lessonSection[lessonID]
}

func (idx *CourseIndex) Exam(id string) *Exam { return idx.exams[id] }

// SectionExam returns the active exam attached to a section, if any.
func (idx *CourseIndex) SectionExam(sectionID string) *Exam {
	return idx.sectionExams[sectionID]
}

// FinalExam returns the active final exam, if any.
func (idx *CourseIndex) FinalExam() *Exam { return idx.finalExam }

// FirstSectionExam returns the first active section exam in section order.
// Used when a caller asks for a section exam without naming the section.
func (idx *CourseIndex) FirstSectionExam() *Exam {
	for i := range idx.course.Sections {
		if exam := idx.sectionExams[idx.course.Sections[i].ID]; exam != nil {
			return exam
		}
	}
	return nil
}

// AllLessonIDs returns every lesson id in course order.
func (idx *CourseIndex) AllLessonIDs() []string { return idx.orderedLessons }

// SectionLessonIDs returns the lesson ids of one section in order.
func (idx *CourseIndex) SectionLessonIDs(sectionID string) []string {
	return idx.sectionLessons[sectionID]
}

func (idx *CourseIndex) LessonCount() int { return len(idx.orderedLessons) }
