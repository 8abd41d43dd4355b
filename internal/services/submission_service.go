package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"signupvault/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const SubmissionsPerPage = 50

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

var submissionSortColumns = map[string]string{
	"timestamp": `"timestamp"`,
	"email":     `"email"`,
	"country":   `"country"`,
	"ip":        `"ip"`,
	"userAgent": `"user_agent"`,
}

type CreateSubmissionInput struct {
	ProjectID string
	Email     string
	IP        *string
	Country   *string
	UserAgent *string
}

type SubmissionQuery struct {
	Page      int
	Search    string
	Country   string
	SortBy    string
	SortOrder string
}

type SubmissionPage struct {
	Emails      []model.EmailSubmission `json:"emails"`
	TotalCount  int64                   `json:"totalCount"`
	TotalPages  int64                   `json:"totalPages"`
	CurrentPage int                     `json:"currentPage"`
}

type SubmissionService struct {
	database *gorm.DB
	now      func() time.Time
}

func NewSubmissionService(database *gorm.DB) *SubmissionService {
	return &SubmissionService{
		database: database,
		now:      time.Now,
	}
}

// Create stores one submission with a server-assigned timestamp. Identical emails are
// stored as separate rows.
func (ss *SubmissionService) Create(ctx context.Context, input CreateSubmissionInput) (*model.EmailSubmission, error) {
	submission := &model.EmailSubmission{
		ID:        uuid.NewString(),
		Email:     input.Email,
		ProjectID: input.ProjectID,
		IP:        input.IP,
		Country:   input.Country,
		UserAgent: input.UserAgent,
		Timestamp: ss.now(),
	}

	err := gorm.G[model.EmailSubmission](ss.database).Create(ctx, submission)

	if err != nil {
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	return submission, nil
}

func (q SubmissionQuery) normalize() SubmissionQuery {
	if q.Page < 1 {
		q.Page = 1
	}

	if _, ok := submissionSortColumns[q.SortBy]; !ok {
		q.SortBy = "timestamp"
	}

	if q.SortOrder != "asc" {
		q.SortOrder = "desc"
	}

	return q
}

func (ss *SubmissionService) List(ctx context.Context, projectID string, query SubmissionQuery) (*SubmissionPage, error) {
	query = query.normalize()

	filtered := func() *gorm.DB {
		db := ss.database.WithContext(ctx).Model(&model.EmailSubmission{}).Where("project_id = ?", projectID)

		if query.Search != "" {
			search := likeEscaper.Replace(query.Search)
			pattern := "%" + strings.ToLower(search) + "%"
			db = db.Where(`(LOWER(email) LIKE ? ESCAPE '\' OR ip LIKE ? ESCAPE '\' OR LOWER(user_agent) LIKE ? ESCAPE '\')`, pattern, "%"+search+"%", pattern)
		}

		if query.Country != "" {
			db = db.Where("country = ?", query.Country)
		}

		return db
	}

	var total int64

	if err := filtered().Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}

	emails := make([]model.EmailSubmission, 0)

	err := filtered().
		Order(fmt.Sprintf("%s %s", submissionSortColumns[query.SortBy], query.SortOrder)).
		Offset((query.Page - 1) * SubmissionsPerPage).
		Limit(SubmissionsPerPage).
		Find(&emails).Error

	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	return &SubmissionPage{
		Emails:      emails,
		TotalCount:  total,
		TotalPages:  (total + SubmissionsPerPage - 1) / SubmissionsPerPage,
		CurrentPage: query.Page,
	}, nil
}

// DeleteMany removes the given submissions, ignoring any id that belongs to another
// project.
func (ss *SubmissionService) DeleteMany(ctx context.Context, projectID string, ids []string) (int, error) {
	deleted, err := gorm.G[model.EmailSubmission](ss.database).
		Where("project_id = ? AND id IN ?", projectID, ids).
		Delete(ctx)

	if err != nil {
		return 0, fmt.Errorf("failed to delete submissions: %w", err)
	}

	return deleted, nil
}

func (ss *SubmissionService) CountByProject(ctx context.Context, projectIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(projectIDs))

	if len(projectIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		ProjectID string
		Count     int64
	}

	err := ss.database.WithContext(ctx).
		Model(&model.EmailSubmission{}).
		Select("project_id, COUNT(*) AS count").
		Where("project_id IN ?", projectIDs).
		Group("project_id").
		Scan(&rows).Error

	if err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}

	for _, row := range rows {
		counts[row.ProjectID] = row.Count
	}

	return counts, nil
}
