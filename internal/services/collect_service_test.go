package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"signupvault/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProjectStore struct {
	projects map[string]*model.Project
	err      error
	calls    int
}

func (f *fakeProjectStore) FindByID(ctx context.Context, id string) (*model.Project, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	project, ok := f.projects[id]

	if !ok {
		return nil, ErrNotFound
	}

	return project, nil
}

type fakeSubmissionStore struct {
	inputs   []CreateSubmissionInput
	err      error
	deadline bool
}

func (f *fakeSubmissionStore) Create(ctx context.Context, input CreateSubmissionInput) (*model.EmailSubmission, error) {
	_, f.deadline = ctx.Deadline()

	if f.err != nil {
		return nil, f.err
	}

	f.inputs = append(f.inputs, input)

	return &model.EmailSubmission{
		ID:        "sub-1",
		Email:     input.Email,
		ProjectID: input.ProjectID,
		IP:        input.IP,
		Country:   input.Country,
		UserAgent: input.UserAgent,
		Timestamp: time.Now(),
	}, nil
}

type fakeLimiter struct {
	keys  []string
	allow bool
}

func (f *fakeLimiter) CheckAndRecord(key string) RateLimitDecision {
	f.keys = append(f.keys, key)

	if f.allow {
		return RateLimitDecision{Allowed: true, Limit: 30, Used: 1, Remaining: 29}
	}

	return RateLimitDecision{Allowed: false, Limit: 30, Used: 31, Remaining: 0}
}

type collectFixture struct {
	projects    *fakeProjectStore
	submissions *fakeSubmissionStore
	limiter     *fakeLimiter
	service     *CollectService
}

func newCollectFixture() *collectFixture {
	f := &collectFixture{
		projects: &fakeProjectStore{projects: map[string]*model.Project{
			"proj1": {ID: "proj1", Name: "Launch", APIKey: "key-1"},
		}},
		submissions: &fakeSubmissionStore{},
		limiter:     &fakeLimiter{allow: true},
	}

	f.service = NewCollectService(CollectServiceConfig{StoreTimeout: 10 * time.Second}, f.projects, f.submissions, f.limiter)

	return f
}

func validRequest() CollectRequest {
	return CollectRequest{
		ProjectID: "proj1",
		APIKey:    "key-1",
		Email:     "a@b.co",
		IP:        "1.2.3.4",
		Country:   "DE",
		UserAgent: "curl/8",
	}
}

func TestIsValidSubmissionEmail(t *testing.T) {
	tests := []struct {
		name  string
		value any
		valid bool
	}{
		{"simple", "a@b.co", true},
		{"subdomain", "user@mail.example.com", true},
		{"not normalized", "  A@B.CO", false},
		{"uppercase", "A@B.CO", true},
		{"no at", "ab.co", false},
		{"no dot after at", "a@bco", false},
		{"space inside", "a b@c.d", false},
		{"empty", "", false},
		{"number", 42, false},
		{"nil", nil, false},
		{"object", map[string]any{"email": "a@b.co"}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.valid, IsValidSubmissionEmail(test.value))
		})
	}
}

func TestCollectStoresSubmission(t *testing.T) {
	f := newCollectFixture()

	result, err := f.service.Collect(context.Background(), validRequest())

	require.NoError(t, err)
	require.NotNil(t, result.Submission)
	require.NotNil(t, result.RateLimit)
	assert.Equal(t, 29, result.RateLimit.Remaining)
	assert.Equal(t, []string{"proj1:1.2.3.4"}, f.limiter.keys)
	assert.True(t, f.submissions.deadline)

	require.Len(t, f.submissions.inputs, 1)
	input := f.submissions.inputs[0]
	assert.Equal(t, "proj1", input.ProjectID)
	assert.Equal(t, "a@b.co", input.Email)
	require.NotNil(t, input.IP)
	assert.Equal(t, "1.2.3.4", *input.IP)
	require.NotNil(t, input.Country)
	assert.Equal(t, "DE", *input.Country)
	require.NotNil(t, input.UserAgent)
	assert.Equal(t, "curl/8", *input.UserAgent)
}

func TestCollectUnknownAddress(t *testing.T) {
	f := newCollectFixture()

	req := validRequest()
	req.IP = ""
	req.Country = ""
	req.UserAgent = ""

	_, err := f.service.Collect(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, []string{"proj1:unknown"}, f.limiter.keys)
	require.Len(t, f.submissions.inputs, 1)
	assert.Nil(t, f.submissions.inputs[0].IP)
	assert.Nil(t, f.submissions.inputs[0].Country)
	assert.Nil(t, f.submissions.inputs[0].UserAgent)
}

func TestCollectCheckOrder(t *testing.T) {
	tests := []struct {
		name            string
		mutate          func(req *CollectRequest, f *collectFixture)
		err             error
		lookedUp        bool
		limiterConsumed bool
	}{
		{
			name: "invalid email wins over missing key",
			mutate: func(req *CollectRequest, f *collectFixture) {
				req.Email = "nope"
				req.APIKey = ""
			},
			err: ErrInvalidEmail,
		},
		{
			name: "missing email",
			mutate: func(req *CollectRequest, f *collectFixture) {
				req.Email = nil
			},
			err: ErrInvalidEmail,
		},
		{
			name: "missing key wins over unknown project",
			mutate: func(req *CollectRequest, f *collectFixture) {
				req.APIKey = ""
				req.ProjectID = "missing"
			},
			err: ErrMissingCredential,
		},
		{
			name: "unknown project",
			mutate: func(req *CollectRequest, f *collectFixture) {
				req.ProjectID = "missing"
			},
			err:      ErrUnauthorized,
			lookedUp: true,
		},
		{
			name: "wrong key",
			mutate: func(req *CollectRequest, f *collectFixture) {
				req.APIKey = "key-2"
			},
			err:      ErrUnauthorized,
			lookedUp: true,
		},
		{
			name: "lookup failure",
			mutate: func(req *CollectRequest, f *collectFixture) {
				f.projects.err = errors.New("connection refused")
			},
			err:      ErrInvalidRequest,
			lookedUp: true,
		},
		{
			name: "rate limited",
			mutate: func(req *CollectRequest, f *collectFixture) {
				f.limiter.allow = false
			},
			err:             ErrRateLimited,
			lookedUp:        true,
			limiterConsumed: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			f := newCollectFixture()
			req := validRequest()
			test.mutate(&req, f)

			result, err := f.service.Collect(context.Background(), req)

			require.ErrorIs(t, err, test.err)
			assert.Equal(t, test.lookedUp, f.projects.calls > 0)
			assert.Equal(t, test.limiterConsumed, len(f.limiter.keys) > 0)
			assert.Empty(t, f.submissions.inputs)
			assert.Nil(t, result.Submission)

			if test.limiterConsumed {
				require.NotNil(t, result.RateLimit)
				assert.False(t, result.RateLimit.Allowed)
			} else {
				assert.Nil(t, result.RateLimit)
			}
		})
	}
}

func TestCollectStoreFailure(t *testing.T) {
	f := newCollectFixture()
	f.submissions.err = errors.New("disk full")

	result, err := f.service.Collect(context.Background(), validRequest())

	require.ErrorIs(t, err, ErrInvalidRequest)
	assert.Nil(t, result.Submission)
	assert.Len(t, f.limiter.keys, 1)
}

func TestCollectDoesNotNormalizeEmail(t *testing.T) {
	f := newCollectFixture()

	req := validRequest()
	req.Email = "Mixed.Case@Example.COM"

	_, err := f.service.Collect(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "Mixed.Case@Example.COM", f.submissions.inputs[0].Email)
}
