package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"aprendo-backend/internal/domain"
	"aprendo-backend/pkg/pdf"
	"aprendo-backend/pkg/utils"
)

const certificateRoutePrefix = "/api/v1/certificates/files/"

type certificateUsecase struct {
	certRepo domain.CertificateRepository
	store    domain.ArtifactStore
	renderer pdf.Renderer
}

func NewCertificateUsecase(
	cr domain.CertificateRepository,
	store domain.ArtifactStore,
	renderer pdf.Renderer,
) domain.CertificateUsecase {
	return &certificateUsecase{
		certRepo: cr,
		store:    store,
		renderer: renderer,
	}
}

// Issue renders, stores and records the certificate for a passed final exam.
// Re-issuing for the same (user, course) replaces the stored row and file, so
// the pair never holds more than one certificate.
func (uc *certificateUsecase) Issue(ctx context.Context, user *domain.User, course *domain.Course, percent int, examID string, score, maxScore int) (*domain.Certificate, error) {
	previous, err := uc.certRepo.GetByUserAndCourse(ctx, user.ID, course.ID)
	if err != nil {
		return nil, err
	}

	issuedAt := time.Now()
	serial := fmt.Sprintf("APR-%d-%s-%d", user.ID, utils.Slugify(course.ID), issuedAt.Unix())
	data, err := uc.renderer.Render(pdf.CertificateData{
		StudentName: user.Name,
		CourseTitle: course.Title,
		Percent:     percent,
		IssuedAt:    issuedAt,
		Serial:      serial,
	})
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("certificate-%s-%s-%s.pdf",
		utils.Slugify(user.Name), utils.Slugify(course.Title), uuid.NewString()[:8])
	fileID, err := uc.store.Upload(ctx, fileName, "application/pdf", data, user.ID, course.ID)
	if err != nil {
		return nil, err
	}

	metadata, _ := json.Marshal(map[string]interface{}{
		"serial":    serial,
		"score":     score,
		"max_score": maxScore,
	})

	cert := &domain.Certificate{
		UserID:    user.ID,
		CourseID:  course.ID,
		ExamID:    examID,
		FileID:    fileID,
		FileName:  fileName,
		PublicURL: certificateRoutePrefix + fileID,
		Percent:   percent,
		Metadata:  metadata,
		IssuedAt:  issuedAt,
	}
	if err := uc.certRepo.Upsert(ctx, cert); err != nil {
		// The row is the source of truth: drop the orphaned file.
		if delErr := uc.store.Delete(ctx, fileID); delErr != nil {
			log.Printf("Warning: failed to remove orphaned certificate file %s: %v", fileID, delErr)
		}
		return nil, err
	}

	if previous != nil && previous.FileID != "" && previous.FileID != fileID {
		if err := uc.store.Delete(ctx, previous.FileID); err != nil {
			log.Printf("Warning: failed to remove replaced certificate file %s: %v", previous.FileID, err)
		}
	}

	return cert, nil
}

func (uc *certificateUsecase) ListByUser(ctx context.Context, userID uint) ([]domain.Certificate, error) {
	return uc.certRepo.GetByUserID(ctx, userID)
}

func (uc *certificateUsecase) GetByCourse(ctx context.Context, userID uint, courseID string) (*domain.Certificate, error) {
	cert, err := uc.certRepo.GetByUserAndCourse(ctx, userID, courseID)
	if err != nil {
		return nil, err
	}
	if cert == nil {
		return nil, &domain.NotFoundError{Resource: "certificate"}
	}
	return cert, nil
}

// Download streams the PDF after checking the file belongs to the caller.
func (uc *certificateUsecase) Download(ctx context.Context, userID uint, fileID string) (io.ReadCloser, *domain.Certificate, error) {
	cert, err := uc.certRepo.GetByFileID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if cert == nil {
		return nil, nil, &domain.NotFoundError{Resource: "certificate"}
	}
	if cert.UserID != userID {
		return nil, nil, &domain.AuthorizationError{Reason: "certificate belongs to another user"}
	}

	stream, _, err := uc.store.Download(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	return stream, cert, nil
}
