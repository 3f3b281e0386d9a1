package main

import (
	"context"
	"log"
	"os"

	"aprendo-backend/config"
	httpDelivery "aprendo-backend/internal/delivery/http"
	"aprendo-backend/internal/domain"
	"aprendo-backend/internal/repository"
	"aprendo-backend/internal/usecase"
	"aprendo-backend/pkg/pdf"
	"aprendo-backend/pkg/realtime"

	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Connect to databases
	db := config.ConnectDB()
	postgres := db.PG
	mongo := db.Mongo

	// Auto migrate
	if err := config.AutoMigrate(postgres); err != nil {
		log.Fatal("Migration failed:", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(postgres)
	enrollmentRepo := repository.NewEnrollmentRepository(postgres)
	attemptRepo := repository.NewAttemptRepository(postgres)
	certRepo := repository.NewCertificateRepository(postgres)
	notificationRepo := repository.NewNotificationRepository(postgres)
	courseRepo := repository.NewCourseRepository(mongo)
	artifactStore, err := repository.NewArtifactStore(mongo)
	if err != nil {
		log.Fatal("Failed to initialize artifact store:", err)
	}

	// Initialize usecases
	hub := realtime.NewHub()
	renderer := pdf.NewCertificateRenderer(os.Getenv("CERTIFICATE_ISSUER"))

	authUsecase := usecase.NewAuthUsecase(userRepo)
	catalogUsecase := usecase.NewCatalogUsecase(courseRepo)
	notificationUsecase := usecase.NewNotificationUsecase(notificationRepo, hub)
	enrollmentUsecase := usecase.NewEnrollmentUsecase(enrollmentRepo, courseRepo, notificationUsecase)
	certUsecase := usecase.NewCertificateUsecase(certRepo, artifactStore, renderer)
	assessmentUsecase := usecase.NewAssessmentUsecase(
		courseRepo, enrollmentRepo, attemptRepo, certRepo, userRepo,
		enrollmentUsecase, certUsecase, notificationUsecase)
	dashboardUsecase := usecase.NewDashboardUsecase(enrollmentUsecase, certRepo, notificationRepo)

	// Seed demo data
	seedUsers(authUsecase)
	seedCatalog(courseRepo)

	// Initialize handlers and router
	handler := httpDelivery.NewHandler(
		authUsecase, catalogUsecase, enrollmentUsecase, assessmentUsecase,
		certUsecase, notificationUsecase, dashboardUsecase)
	router := httpDelivery.InitRouter(handler, hub)

	// Get port from environment or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server running on port %s", port)
	log.Printf("API: http://localhost:%s/api/v1", port)

	if err := router.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func seedUsers(authUsecase domain.AuthUsecase) {
	student := &domain.User{
		Name:     "Demo Student",
		Email:    "student@aprendo.com",
		Password: "password123",
		Role:     domain.RoleStudent,
	}
	err := authUsecase.Register(context.Background(), student)
	if err != nil && err.Error() != "email already exists" {
		log.Printf("Failed to seed student: %v", err)
	}

	admin := &domain.User{
		Name:     "Demo Admin",
		Email:    "admin@aprendo.com",
		Password: "password123",
		Role:     domain.RoleAdmin,
	}
	err = authUsecase.Register(context.Background(), admin)
	if err != nil && err.Error() != "email already exists" {
		log.Printf("Failed to seed admin: %v", err)
	}
}

// seedCatalog inserts a demo course the first time the service boots against
// an empty catalog.
func seedCatalog(courseRepo domain.CourseRepository) {
	ctx := context.Background()
	count, err := courseRepo.Count(ctx)
	if err != nil {
		log.Printf("Failed to inspect catalog: %v", err)
		return
	}
	if count > 0 {
		return
	}

	course := &domain.Course{
		ID:          "go-fundamentals",
		Title:       "Go Fundamentals",
		Description: "Learn the basics of the Go programming language.",
		Level:       "beginner",
		Language:    "en",
		Active:      true,
		Sections: []domain.Section{
			{
				ID:    "sec-1",
				Title: "Getting Started",
				Order: 1,
				Lessons: []domain.Lesson{
					{ID: "les-1", Title: "Installing Go", Type: domain.LessonVideo, Duration: 10, Order: 1},
					{ID: "les-2", Title: "Your First Program", Type: domain.LessonText, Order: 2},
				},
			},
		},
		Exams: []domain.Exam{
			{
				ID:             "exam-sec-1",
				SectionID:      "sec-1",
				Title:          "Getting Started Quiz",
				Type:           domain.ExamSection,
				MaxAttempts:    3,
				PassingPercent: 70,
				Active:         true,
				Questions: []domain.Question{
					{
						ID:     "q-1",
						Prompt: "Which command compiles and runs a Go program?",
						Type:   domain.QuestionMultipleChoice,
						Points: 1,
						Order:  1,
						Options: []domain.Option{
							{ID: "q1-a", Text: "go run"},
							{ID: "q1-b", Text: "go fmt"},
							{ID: "q1-c", Text: "go mod"},
						},
					},
					{
						ID:     "q-2",
						Prompt: "Go source files end with the .go extension.",
						Type:   domain.QuestionTrueFalse,
						Points: 1,
						Order:  2,
						Options: []domain.Option{
							{ID: "q2-t", Text: "True"},
							{ID: "q2-f", Text: "False"},
						},
					},
				},
			},
			{
				ID:             "exam-final",
				Title:          "Final Exam",
				Type:           domain.ExamFinal,
				MaxAttempts:    3,
				PassingPercent: 70,
				Active:         true,
				Questions: []domain.Question{
					{
						ID:     "qf-1",
						Prompt: "Which keyword declares a new function in Go?",
						Type:   domain.QuestionMultipleChoice,
						Points: 2,
						Order:  1,
						Options: []domain.Option{
							{ID: "qf1-a", Text: "func"},
							{ID: "qf1-b", Text: "def"},
							{ID: "qf1-c", Text: "fn"},
						},
					},
					{
						ID:     "qf-2",
						Prompt: "Every Go executable starts in the main package.",
						Type:   domain.QuestionTrueFalse,
						Points: 2,
						Order:  2,
						Options: []domain.Option{
							{ID: "qf2-t", Text: "True"},
							{ID: "qf2-f", Text: "False"},
						},
					},
					{
						ID:     "qf-3",
						Prompt: "In your own words, what does the go.mod file declare?",
						Type:   domain.QuestionFreeText,
						Points: 1,
						Order:  3,
					},
				},
			},
		},
	}

	// Correct answers live only in the stored document.
	course.Exams[0].Questions[0].Options[0].IsCorrect = true
	course.Exams[0].Questions[1].Options[0].IsCorrect = true
	course.Exams[1].Questions[0].Options[0].IsCorrect = true
	course.Exams[1].Questions[1].Options[0].IsCorrect = true

	if err := courseRepo.Create(ctx, course); err != nil {
		log.Printf("Failed to seed catalog: %v", err)
		return
	}
	log.Println("Seeded demo course:", course.ID)
}
