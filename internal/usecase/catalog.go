package usecase

import (
	"context"

	"aprendo-backend/internal/domain"
)

type catalogUsecase struct {
	courseRepo domain.CourseRepository
}

func NewCatalogUsecase(cr domain.CourseRepository) domain.CatalogUsecase {
	return &catalogUsecase{courseRepo: cr}
}

func (uc *catalogUsecase) GetAllCourses(ctx context.Context) ([]domain.Course, error) {
	return uc.courseRepo.GetAllActive(ctx)
}

func (uc *catalogUsecase) GetCourse(ctx context.Context, id string) (*domain.Course, error) {
	course, err := uc.courseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course == nil || !course.Active {
		return nil, &domain.NotFoundError{Resource: "course"}
	}
	return course, nil
}
