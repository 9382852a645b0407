package service

import (
	"context"
	"errors"
	"sync"

	experienceserrors "bookit/internal/experiences/errors"
	"bookit/internal/experiences/repository"
	"bookit/pkg/config"
	apperrors "bookit/pkg/errors"
	"bookit/pkg/model"
)

type ExperienceService interface {
	GetByID(ctx context.Context, id string) (*model.Experience, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Experience, int64, error)
}

type experienceService struct {
	repo repository.ExperienceRepository
	cfg  *config.Config
}

func NewExperienceService(repo repository.ExperienceRepository, cfg *config.Config) ExperienceService {
	return &experienceService{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *experienceService) GetByID(ctx context.Context, id string) (*model.Experience, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Experience ID cannot be empty")
	}

	experience, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, experienceserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Experience", id)
		}
		if errors.Is(err, experienceserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid experience ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve experience", err)
	}

	return experience, nil
}

func (s *experienceService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Experience, int64, error) {
	var count int64
	var experiences []*model.Experience
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count experiences", "error", errCount)
			errCount = apperrors.Internal("Failed to count experiences", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		experiences, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list experiences", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve experiences", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return experiences, count, nil
}
