package http

import (
	"aprendo-backend/pkg/realtime"

	"github.com/gin-gonic/gin"
)

func InitRouter(handler *Handler, hub *realtime.Hub) *gin.Engine {
	r := gin.Default()

	// Public Routes
	api := r.Group("/api/v1")
	{
		api.POST("/register", handler.Register)
		api.POST("/login", handler.Login)
		api.GET("/courses", handler.GetCourses)
		api.GET("/courses/:id", handler.GetCourseDetail)
	}

	// Protected Routes (any authenticated user)
	protected := api.Group("/")
	protected.Use(AuthMiddleware())
	{
		protected.POST("/courses/:id/enroll", handler.Enroll)
		protected.GET("/enrollments", handler.GetMyEnrollments)
		protected.GET("/courses/:id/enrollment", handler.GetEnrollment)
		protected.PATCH("/courses/:id/lessons/:lessonId/progress", handler.UpdateLessonProgress)
		protected.POST("/courses/:id/lessons/:lessonId/video-watched", handler.RecordVideoWatched)

		protected.GET("/courses/:id/exam", handler.GetExam)
		protected.POST("/courses/:id/exams/:examId/submit", handler.SubmitExam)
		protected.GET("/courses/:id/results", handler.GetExamResults)

		protected.GET("/certificates", handler.GetMyCertificates)
		protected.GET("/courses/:id/certificate", handler.GetCourseCertificate)
		protected.GET("/certificates/files/:fileId", handler.DownloadCertificate)

		protected.GET("/notifications", handler.GetNotifications)
		protected.PATCH("/notifications/:id/read", handler.MarkNotificationRead)
		protected.PUT("/notifications/read-all", handler.MarkAllNotificationsRead)
		protected.DELETE("/notifications/:id", handler.DeleteNotification)

		protected.GET("/dashboard", handler.GetStudentDashboard)
		protected.GET("/notifications/stream", handler.NotificationStream(hub))
	}

	return r
}
