package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/exception"
	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/view"
)

func TestGetTokensForFlow_ResolvesAllRequirements(t *testing.T) {
	coordinator := &mockRefreshCoordinator{
		GetValidTokenFunc: func(ctx context.Context, userId string, service string) (string, error) {
			assert.Equal(t, "user-1", userId)
			return "token-" + service, nil
		},
	}
	flowTokenService := NewFlowTokenService(coordinator)

	response, err := flowTokenService.GetTokensForFlow(context.Background(), view.FlowTokensRequest{
		UserId: "user-1",
		Requirements: map[string]string{
			"githubToken": "github",
			"jiraToken":   "jira",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, map[string]string{
		"githubToken": "token-github",
		"jiraToken":   "token-jira",
	}, response.Tokens)
}

// A single unresolvable token fails the whole request, the workflow engine
// must never receive a partial credential set.
func TestGetTokensForFlow_AllOrNothing(t *testing.T) {
	coordinator := &mockRefreshCoordinator{
		GetValidTokenFunc: func(ctx context.Context, userId string, service string) (string, error) {
			if service == "jira" {
				return "", fmt.Errorf("refresh failed")
			}
			return "token-" + service, nil
		},
	}
	flowTokenService := NewFlowTokenService(coordinator)

	response, err := flowTokenService.GetTokensForFlow(context.Background(), view.FlowTokensRequest{
		UserId: "user-1",
		Requirements: map[string]string{
			"githubToken": "github",
			"jiraToken":   "jira",
		},
	})
	assert.Nil(t, response)
	customError := assertCustomError(t, err, http.StatusFailedDependency, exception.MissingToken)
	assert.Equal(t, "jira", customError.Params["service"])
}

func TestGetTokensForFlow_UnsupportedServicePassedThrough(t *testing.T) {
	coordinator := &mockRefreshCoordinator{
		GetValidTokenFunc: func(ctx context.Context, userId string, service string) (string, error) {
			return "", &exception.CustomError{
				Status:  http.StatusBadRequest,
				Code:    exception.UnsupportedService,
				Message: exception.UnsupportedServiceMsg,
				Params:  map[string]interface{}{"service": service},
			}
		},
	}
	flowTokenService := NewFlowTokenService(coordinator)

	_, err := flowTokenService.GetTokensForFlow(context.Background(), view.FlowTokensRequest{
		UserId:       "user-1",
		Requirements: map[string]string{"token": "bitbucket"},
	})
	assertCustomError(t, err, http.StatusBadRequest, exception.UnsupportedService)
}

func TestGetTokensForFlow_ReconnectRequiredSurfacedAsMissingToken(t *testing.T) {
	coordinator := &mockRefreshCoordinator{
		GetValidTokenFunc: func(ctx context.Context, userId string, service string) (string, error) {
			return "", &exception.CustomError{
				Status:  http.StatusFailedDependency,
				Code:    exception.ReconnectRequired,
				Message: exception.ReconnectRequiredMsg,
				Params:  map[string]interface{}{"service": service},
			}
		},
	}
	flowTokenService := NewFlowTokenService(coordinator)

	_, err := flowTokenService.GetTokensForFlow(context.Background(), view.FlowTokensRequest{
		UserId:       "user-1",
		Requirements: map[string]string{"token": "github"},
	})
	customError := assertCustomError(t, err, http.StatusFailedDependency, exception.MissingToken)
	assert.Equal(t, "github", customError.Params["service"])
}

type mockRefreshCoordinator struct {
	GetValidTokenFunc         func(ctx context.Context, userId string, service string) (string, error)
	InvalidateIntegrationFunc func(userId string, service string)
}

func (m mockRefreshCoordinator) GetValidToken(ctx context.Context, userId string, service string) (string, error) {
	if m.GetValidTokenFunc == nil {
		return "", nil
	}
	return m.GetValidTokenFunc(ctx, userId, service)
}

func (m mockRefreshCoordinator) InvalidateIntegration(userId string, service string) {
	if m.InvalidateIntegrationFunc != nil {
		m.InvalidateIntegrationFunc(userId, service)
	}
}
