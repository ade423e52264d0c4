// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/context"
	"golang.org/x/time/rate"

	"github.com/inqory/inqory-flowhub-backend/inqory-flowhub-service/view"
)

const DefaultProviderTimeout = time.Second * 10

// OauthProviderClient talks to the token and userinfo endpoints of external
// OAuth services. Exchange and refresh requests are form-encoded POSTs per
// RFC 6749; credentials never travel in the query string.
type OauthProviderClient interface {
	ExchangeCode(ctx context.Context, provider *view.ProviderConfig, code string, redirectUri string, codeVerifier string) (*view.OAuthAccessResponse, int, error)
	RefreshToken(ctx context.Context, provider *view.ProviderConfig, refreshToken string) (*view.OAuthAccessResponse, int, error)
	ProbeToken(ctx context.Context, provider *view.ProviderConfig, accessToken string) error
}

func NewOauthProviderClient() OauthProviderClient {
	restyClient := resty.New().
		SetTimeout(DefaultProviderTimeout).
		SetRetryCount(2).
		SetRetryWaitTime(time.Millisecond * 250).
		SetRetryMaxWaitTime(time.Second * 2).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			// provider 4xx responses are definitive, retry transport failures and 5xx only
			return err != nil || resp.StatusCode() >= http.StatusInternalServerError
		})
	return &oauthProviderClientImpl{
		client:      restyClient,
		rateLimiter: rate.NewLimiter(50, 1),
	}
}

type oauthProviderClientImpl struct {
	client      *resty.Client
	rateLimiter *rate.Limiter
}

func (c *oauthProviderClientImpl) ExchangeCode(ctx context.Context, provider *view.ProviderConfig, code string, redirectUri string, codeVerifier string) (*view.OAuthAccessResponse, int, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", redirectUri)
	data.Set("client_id", provider.ClientId)
	if provider.ClientSecret != "" {
		data.Set("client_secret", provider.ClientSecret)
	}
	if codeVerifier != "" {
		data.Set("code_verifier", codeVerifier)
	}
	return c.postTokenRequest(ctx, provider, data)
}

func (c *oauthProviderClientImpl) RefreshToken(ctx context.Context, provider *view.ProviderConfig, refreshToken string) (*view.OAuthAccessResponse, int, error) {
	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)
	data.Set("client_id", provider.ClientId)
	if provider.ClientSecret != "" {
		data.Set("client_secret", provider.ClientSecret)
	}
	return c.postTokenRequest(ctx, provider, data)
}

func (c *oauthProviderClientImpl) postTokenRequest(ctx context.Context, provider *view.ProviderConfig, data url.Values) (*view.OAuthAccessResponse, int, error) {
	err := c.rateLimiter.Wait(ctx)
	if err != nil {
		return nil, 0, err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetFormDataFromValues(data).
		Post(provider.TokenUrl)
	if err != nil {
		return nil, 0, fmt.Errorf("token request to service %s failed: %w", provider.Service, err)
	}

	var tokenResponse view.OAuthAccessResponse
	if err := json.Unmarshal(resp.Body(), &tokenResponse); err != nil {
		return nil, resp.StatusCode(), fmt.Errorf("failed to parse token response from service %s: status code %d: %w", provider.Service, resp.StatusCode(), err)
	}
	return &tokenResponse, resp.StatusCode(), nil
}

func (c *oauthProviderClientImpl) ProbeToken(ctx context.Context, provider *view.ProviderConfig, accessToken string) error {
	if provider.UserinfoUrl == "" {
		return nil
	}
	err := c.rateLimiter.Wait(ctx)
	if err != nil {
		return err
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetAuthToken(accessToken).
		Get(provider.UserinfoUrl)
	if err != nil {
		return fmt.Errorf("userinfo request to service %s failed: %w", provider.Service, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("retrieved access token is not functional for service %s: status code %d", provider.Service, resp.StatusCode())
	}
	return nil
}
