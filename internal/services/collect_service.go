package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"regexp"
	"time"

	"signupvault/internal/model"

	"github.com/rs/zerolog/log"
)

// UnknownClientAddress is recorded in rate limit keys when no proxy header names the
// caller. It is never persisted.
const UnknownClientAddress = "unknown"

var submissionEmailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

type ProjectStore interface {
	FindByID(ctx context.Context, id string) (*model.Project, error)
}

type SubmissionStore interface {
	Create(ctx context.Context, input CreateSubmissionInput) (*model.EmailSubmission, error)
}

type Limiter interface {
	CheckAndRecord(key string) RateLimitDecision
}

type CollectServiceConfig struct {
	StoreTimeout time.Duration
}

type CollectRequest struct {
	ProjectID string
	APIKey    string
	Email     any
	IP        string
	Country   string
	UserAgent string
}

type CollectResult struct {
	Submission *model.EmailSubmission
	RateLimit  *RateLimitDecision
}

type CollectService struct {
	config      CollectServiceConfig
	projects    ProjectStore
	submissions SubmissionStore
	limiter     Limiter
}

func NewCollectService(config CollectServiceConfig, projects ProjectStore, submissions SubmissionStore, limiter Limiter) *CollectService {
	return &CollectService{
		config:      config,
		projects:    projects,
		submissions: submissions,
		limiter:     limiter,
	}
}

// IsValidSubmissionEmail reports whether v is a string shaped like
// nonspace@nonspace.nonspace. It does not normalize.
func IsValidSubmissionEmail(v any) bool {
	email, ok := v.(string)
	return ok && submissionEmailPattern.MatchString(email)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Collect runs an already-parsed submission through the checks in a fixed order:
// email shape, credential presence, project and key, rate limit, then persistence.
// The returned result carries the rate limit decision whenever the limiter was
// consulted, even if the error is ErrRateLimited.
func (cs *CollectService) Collect(ctx context.Context, req CollectRequest) (CollectResult, error) {
	var result CollectResult

	if !IsValidSubmissionEmail(req.Email) {
		return result, ErrInvalidEmail
	}

	if req.APIKey == "" {
		return result, ErrMissingCredential
	}

	project, err := cs.projects.FindByID(ctx, req.ProjectID)

	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Error().Err(err).Str("project_id", req.ProjectID).Msg("failed to fetch project")
		return result, ErrInvalidRequest
	}

	if project == nil || subtle.ConstantTimeCompare([]byte(project.APIKey), []byte(req.APIKey)) != 1 {
		return result, ErrUnauthorized
	}

	ip := req.IP

	if ip == "" {
		ip = UnknownClientAddress
	}

	decision := cs.limiter.CheckAndRecord(project.ID + ":" + ip)
	result.RateLimit = &decision

	if !decision.Allowed {
		return result, ErrRateLimited
	}

	if ip == UnknownClientAddress {
		ip = ""
	}

	storeCtx := ctx

	if cs.config.StoreTimeout > 0 {
		var cancel context.CancelFunc
		storeCtx, cancel = context.WithTimeout(ctx, cs.config.StoreTimeout)
		defer cancel()
	}

	submission, err := cs.submissions.Create(storeCtx, CreateSubmissionInput{
		ProjectID: project.ID,
		Email:     req.Email.(string),
		IP:        optional(ip),
		Country:   optional(req.Country),
		UserAgent: optional(req.UserAgent),
	})

	if err != nil {
		log.Error().Err(err).Str("project_id", project.ID).Msg("failed to store submission")
		return result, ErrInvalidRequest
	}

	result.Submission = submission
	return result, nil
}
