// internal/services/project_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/launchkit/launchkit-backend/internal/apperrors"
	"github.com/launchkit/launchkit-backend/internal/models"
	"github.com/launchkit/launchkit-backend/internal/utils"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type CreateProjectRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=2000"`
	WebsiteURL  string `json:"website_url,omitempty" validate:"omitempty,url"`
}

func (s *ProjectService) Create(userID uuid.UUID, req *CreateProjectRequest) (*models.Project, error) {
	project := &models.Project{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		WebsiteURL:  req.WebsiteURL,
	}

	if err := s.db.Create(project).Error; err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

func (s *ProjectService) List(userID uuid.UUID, params utils.PaginationParams) ([]models.Project, int64, error) {
	query := s.db.Model(&models.Project{}).Where("user_id = ?", userID)

	if params.Search != "" {
		query = query.Where("name ILIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	allowedSortFields := []string{"created_at", "name"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var projects []models.Project
	if err := query.Find(&projects).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch projects: %w", err)
	}

	return projects, total, nil
}

func (s *ProjectService) Get(userID, projectID uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := s.db.Preload("Products").First(&project, "id = ? AND user_id = ?", projectID, userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("project")
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}
	return &project, nil
}
