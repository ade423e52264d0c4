package service

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/exception"
)

const testProvidersJson = `[
	{
		"service": "github",
		"displayName": "GitHub",
		"authorizationUrl": "https://github.example.com/oauth/authorize",
		"tokenUrl": "https://github.example.com/oauth/token",
		"userinfoUrl": "https://github.example.com/api/user",
		"clientId": "github-client",
		"clientSecret": "github-secret",
		"scopes": ["repo", "user"],
		"usePkce": true
	},
	{
		"service": "gitlab",
		"displayName": "GitLab",
		"authorizationUrl": "https://gitlab.example.com/oauth/authorize",
		"tokenUrl": "https://gitlab.example.com/oauth/token",
		"clientId": "gitlab-client",
		"scopes": ["read"],
		"offlineAccess": true
	}
]`

func TestNewProviderRegistry_ParsesConfiguredProviders(t *testing.T) {
	registry, err := NewProviderRegistry(systemInfoServiceStub{providers: testProvidersJson})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	github, err := registry.GetProvider("github")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, "github-client", github.ClientId)
	assert.Equal(t, "github-secret", github.ClientSecret)
	assert.Equal(t, []string{"repo", "user"}, github.Scopes)
	assert.True(t, github.UsePkce)
	assert.False(t, github.OfflineAccess)

	gitlab, err := registry.GetProvider("gitlab")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.True(t, gitlab.OfflineAccess)
	assert.False(t, gitlab.UsePkce)
}

func TestProviderRegistry_ListProvidersSortedWithoutSecrets(t *testing.T) {
	registry, err := NewProviderRegistry(systemInfoServiceStub{providers: testProvidersJson})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	providers := registry.ListProviders()
	if assert.Len(t, providers, 2) {
		assert.Equal(t, "github", providers[0].Service)
		assert.Equal(t, "GitHub", providers[0].DisplayName)
		assert.Equal(t, []string{"repo", "user"}, providers[0].Scopes)
		assert.Equal(t, "gitlab", providers[1].Service)
	}
}

func TestProviderRegistry_UnknownServiceRejected(t *testing.T) {
	registry, err := NewProviderRegistry(systemInfoServiceStub{providers: testProvidersJson})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = registry.GetProvider("bitbucket")
	assertCustomError(t, err, http.StatusBadRequest, exception.UnsupportedService)
}

func TestNewProviderRegistry_EmptyListRejected(t *testing.T) {
	_, err := NewProviderRegistry(systemInfoServiceStub{providers: `[]`})
	assertCustomError(t, err, http.StatusInternalServerError, exception.IntegrationProvidersInvalid)
}

func TestNewProviderRegistry_MalformedJsonRejected(t *testing.T) {
	_, err := NewProviderRegistry(systemInfoServiceStub{providers: `{not json`})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	assert.Contains(t, err.Error(), INTEGRATION_PROVIDERS)
}

func TestNewProviderRegistry_DuplicateServiceRejected(t *testing.T) {
	duplicated := `[
		{
			"service": "github",
			"displayName": "GitHub",
			"authorizationUrl": "https://github.example.com/oauth/authorize",
			"tokenUrl": "https://github.example.com/oauth/token",
			"clientId": "github-client"
		},
		{
			"service": "github",
			"displayName": "GitHub Enterprise",
			"authorizationUrl": "https://ghe.example.com/oauth/authorize",
			"tokenUrl": "https://ghe.example.com/oauth/token",
			"clientId": "ghe-client"
		}
	]`
	_, err := NewProviderRegistry(systemInfoServiceStub{providers: duplicated})
	assertCustomError(t, err, http.StatusInternalServerError, exception.IntegrationProvidersInvalid)
}

func TestNewProviderRegistry_MissingRequiredFieldRejected(t *testing.T) {
	missingTokenUrl := `[
		{
			"service": "github",
			"displayName": "GitHub",
			"authorizationUrl": "https://github.example.com/oauth/authorize",
			"clientId": "github-client"
		}
	]`
	_, err := NewProviderRegistry(systemInfoServiceStub{providers: missingTokenUrl})
	customError := assertCustomError(t, err, http.StatusBadRequest, exception.RequiredParamsMissing)
	assert.Contains(t, customError.Params["params"], "tokenUrl")
}
