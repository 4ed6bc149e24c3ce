package service

import (
	"context"

	"github.com/oralis/viva-backend/internal/model"
	"github.com/oralis/viva-backend/internal/repository"
)

// ExaminerService handles examiner account logic.
type ExaminerService struct {
	examinerRepo *repository.ExaminerRepository
}

// NewExaminerService creates a new ExaminerService.
func NewExaminerService(examinerRepo *repository.ExaminerRepository) *ExaminerService {
	return &ExaminerService{examinerRepo: examinerRepo}
}

// GetByEmail retrieves an examiner by email.
func (s *ExaminerService) GetByEmail(ctx context.Context, email string) (*model.Examiner, error) {
	return s.examinerRepo.GetByEmail(ctx, email)
}

// GetByID retrieves an examiner by ID.
func (s *ExaminerService) GetByID(ctx context.Context, id int) (*model.Examiner, error) {
	return s.examinerRepo.GetByID(ctx, id)
}
