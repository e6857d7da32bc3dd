// Package zoho implements the Zoho CRM synchronization engine: the OAuth
// credential lifecycle, field mapping, and the reconciliation of remote
// leads, contacts, pipeline stages and users into local records.
package zoho

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAccountsURL = "https://accounts.zoho.com"
	defaultAPIBaseURL  = "https://www.zohoapis.com"

	oauthScope = "ZohoCRM.modules.ALL,ZohoCRM.settings.fields.READ,ZohoCRM.users.READ,ZohoCRM.coql.READ"

	recordsPerPage = 200
)

// Record is one raw remote CRM record.
type Record map[string]any

// RemoteUser is a Zoho CRM user record.
type RemoteUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Status   string `json:"status"`
	Role     struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"role"`
}

// Active reports whether the remote user should be synced at all.
func (u RemoteUser) Active() bool {
	return strings.EqualFold(u.Status, "active")
}

// TokenResponse is the body of a token endpoint response.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	APIDomain    string `json:"api_domain"`
	Error        string `json:"error"`
}

// Client is a low-level Zoho CRM HTTP client. It knows the wire protocol
// but nothing about tenants or local records.
type Client struct {
	httpClient   *http.Client
	accountsURL  string
	apiBaseURL   string
	clientID     string
	clientSecret string
	log          *zap.Logger
}

type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithAccountsURL overrides the OAuth accounts base URL.
func WithAccountsURL(u string) ClientOption {
	return func(c *Client) { c.accountsURL = strings.TrimRight(u, "/") }
}

// WithAPIBaseURL overrides the REST API base URL.
func WithAPIBaseURL(u string) ClientOption {
	return func(c *Client) { c.apiBaseURL = strings.TrimRight(u, "/") }
}

func NewClient(clientID, clientSecret string, logger *zap.Logger, opts ...ClientOption) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		accountsURL:  defaultAccountsURL,
		apiBaseURL:   defaultAPIBaseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		log:          logger.Named("zoho"),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// AuthorizationURL builds the user-facing consent URL. The caller's state
// value (the tenant id) is echoed back on the callback.
func (c *Client) AuthorizationURL(state, redirectURI string) string {
	params := url.Values{}
	params.Set("scope", oauthScope)
	params.Set("client_id", c.clientID)
	params.Set("response_type", "code")
	params.Set("access_type", "offline")
	params.Set("redirect_uri", redirectURI)
	params.Set("state", state)

	return c.accountsURL + "/oauth/v2/auth?" + params.Encode()
}

// ExchangeCode trades an authorization code for a token bundle.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)

	return c.postToken(ctx, form)
}

// RefreshAccessToken trades a refresh token for a new access token.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)

	return c.postToken(ctx, form)
}

func (c *Client) postToken(ctx context.Context, form url.Values) (*TokenResponse, error) {
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.accountsURL+"/oauth/v2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	var body TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	// Zoho returns 200 with an error field for rejected grants.
	if body.Error != "" || resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Code:       body.Error,
			Message:    body.Error,
		}
	}

	return &body, nil
}

type recordsResponse struct {
	Data []Record `json:"data"`
	Info struct {
		MoreRecords bool `json:"more_records"`
	} `json:"info"`
}

// ListRecords fetches every record of a remote module, paging until the
// provider reports no more.
func (c *Client) ListRecords(ctx context.Context, accessToken, module string) ([]Record, error) {
	var all []Record

	for page := 1; ; page++ {
		endpoint := fmt.Sprintf("%s/crm/v2/%s?page=%d&per_page=%d", c.apiBaseURL, module, page, recordsPerPage)

		var body recordsResponse
		if err := c.getJSON(ctx, accessToken, endpoint, &body); err != nil {
			return nil, err
		}

		all = append(all, body.Data...)

		if !body.Info.MoreRecords {
			return all, nil
		}
	}
}

// QueryRecords runs a COQL query against the query endpoint. Used for delta
// fetches restricted by Modified_Time.
func (c *Client) QueryRecords(ctx context.Context, accessToken, query string) ([]Record, error) {
	payload, err := json.Marshal(map[string]string{"select_query": query})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBaseURL+"/crm/v2/coql", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Zoho-oauthtoken "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, c.decodeAPIError(resp)
	}

	var body recordsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}

	return body.Data, nil
}

// DeltaQuery builds the COQL statement selecting records modified at or
// after since. The timestamp is second precision, space separated, no zone
// suffix.
func DeltaQuery(module string, since time.Time) string {
	return fmt.Sprintf("SELECT * FROM %s WHERE Modified_Time >= '%s'",
		module, since.UTC().Format("2006-01-02 15:04:05"))
}

type fieldsResponse struct {
	Fields []struct {
		APIName        string `json:"api_name"`
		PickListValues []struct {
			DisplayValue string `json:"display_value"`
		} `json:"pick_list_values"`
	} `json:"fields"`
}

// LeadStatusPicklist fetches the picklist values of the Lead_Status field,
// in the provider's display order.
func (c *Client) LeadStatusPicklist(ctx context.Context, accessToken string) ([]string, error) {
	endpoint := c.apiBaseURL + "/crm/v2/settings/fields?module=Leads"

	var body fieldsResponse
	if err := c.getJSON(ctx, accessToken, endpoint, &body); err != nil {
		return nil, err
	}

	for _, field := range body.Fields {
		if field.APIName != "Lead_Status" {
			continue
		}

		values := make([]string, 0, len(field.PickListValues))
		for _, v := range field.PickListValues {
			if v.DisplayValue != "" {
				values = append(values, v.DisplayValue)
			}
		}

		return values, nil
	}

	return nil, fmt.Errorf("Lead_Status field not found in remote schema")
}

type usersResponse struct {
	Users []RemoteUser `json:"users"`
	Info  struct {
		MoreRecords bool `json:"more_records"`
	} `json:"info"`
}

// ListUsers fetches all remote CRM users.
func (c *Client) ListUsers(ctx context.Context, accessToken string) ([]RemoteUser, error) {
	var all []RemoteUser

	for page := 1; ; page++ {
		endpoint := c.apiBaseURL + "/crm/v2/users?type=AllUsers&page=" + strconv.Itoa(page)

		var body usersResponse
		if err := c.getJSON(ctx, accessToken, endpoint, &body); err != nil {
			return nil, err
		}

		all = append(all, body.Users...)

		if !body.Info.MoreRecords {
			return all, nil
		}
	}
}

func (c *Client) getJSON(ctx context.Context, accessToken, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Zoho-oauthtoken "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return c.decodeAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode api response: %w", err)
	}

	return nil
}

func (c *Client) decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Code = body.Code
		apiErr.Message = body.Message
	}

	return apiErr
}
