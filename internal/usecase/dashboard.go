package usecase

import (
	"context"

	"aprendo-backend/internal/domain"
)

const (
	recentCertificateLimit = 5
	ongoingCourseLimit     = 5
)

type dashboardUsecase struct {
	enrollments      domain.EnrollmentUsecase
	certRepo         domain.CertificateRepository
	notificationRepo domain.NotificationRepository
}

func NewDashboardUsecase(
	eu domain.EnrollmentUsecase,
	cr domain.CertificateRepository,
	nr domain.NotificationRepository,
) domain.DashboardUsecase {
	return &dashboardUsecase{
		enrollments:      eu,
		certRepo:         cr,
		notificationRepo: nr,
	}
}

func (uc *dashboardUsecase) GetStudentDashboard(ctx context.Context, userID uint) (*domain.StudentDashboardData, error) {
	enrollments, err := uc.enrollments.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	data := &domain.StudentDashboardData{
		TotalEnrollments: len(enrollments),
	}
	for _, item := range enrollments {
		switch item.Status {
		case domain.EnrollmentCompleted:
			data.CompletedCourses++
		case domain.EnrollmentActive:
			data.InProgressCourses++
			if len(data.OngoingEnrollments) < ongoingCourseLimit {
				data.OngoingEnrollments = append(data.OngoingEnrollments, item)
			}
		}
	}

	certs, err := uc.certRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	data.TotalCertificates = len(certs)
	if len(certs) > recentCertificateLimit {
		certs = certs[:recentCertificateLimit]
	}
	data.RecentCertificates = certs

	unread, err := uc.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	data.UnreadNotifications = unread

	return data, nil
}
