package api

import (
	"context"
	"errors"
	"net/url"

	"github.com/bellinghamdata/portalkit/core/httpclient"
	"github.com/bellinghamdata/portalkit/core/session"
)

// ErrMissingHTTPClient is returned when a Client is constructed without an
// HTTP client.
var ErrMissingHTTPClient = errors.New("api: http client is required")

// Client exposes the portal's REST surface as typed calls. Every request
// flows through the shared httpclient, so credential attachment, retry, and
// 401 signaling apply uniformly.
//
// Client implements session.Backend; the session manager drives the
// /api/session, /api/profile, and /api/logout endpoints through it.
type Client struct {
	http *httpclient.Client
}

// New creates an API client on top of the shared HTTP client.
func New(hc *httpclient.Client) (*Client, error) {
	if hc == nil {
		return nil, ErrMissingHTTPClient
	}
	return &Client{http: hc}, nil
}

// Authenticate exchanges credentials for session facts. A 403 means the
// credentials were rejected; the error carries the backend's message.
func (c *Client) Authenticate(ctx context.Context, username, password string) (AuthResult, error) {
	var result AuthResult
	err := c.http.PostJSON(ctx, "/api/authenticate", Credentials{Username: username, Password: password}, &result)
	return result, err
}

// Register submits a new account application.
func (c *Client) Register(ctx context.Context, form Registration) error {
	return c.http.PostJSON(ctx, "/api/register", form, nil)
}

// Session checks whether a valid server-side session exists.
// Implements session.Backend.
func (c *Client) Session(ctx context.Context) (session.Info, error) {
	var info session.Info
	err := c.http.GetJSON(ctx, "/api/session", &info)
	return info, err
}

// Logout invalidates the server-side session. Implements session.Backend.
func (c *Client) Logout(ctx context.Context) error {
	return c.http.PostJSON(ctx, "/api/logout", nil, nil)
}

// Profile fetches the authenticated principal's role and permissions.
// Implements session.Backend.
func (c *Client) Profile(ctx context.Context) (session.Profile, error) {
	account, err := c.Account(ctx)
	if err != nil {
		return session.Profile{}, err
	}
	return session.Profile{Role: account.Role, Permissions: account.Permissions}, nil
}

// Account fetches the full profile object.
func (c *Client) Account(ctx context.Context) (Account, error) {
	var account Account
	err := c.http.GetJSON(ctx, "/api/profile", &account)
	return account, err
}

// UpdateAccount saves profile changes and returns the stored result.
func (c *Client) UpdateAccount(ctx context.Context, account Account) (Account, error) {
	var updated Account
	err := c.http.PutJSON(ctx, "/api/profile", account, &updated)
	return updated, err
}

// AvailableContracts lists contracts open for purchase.
func (c *Client) AvailableContracts(ctx context.Context) ([]Contract, error) {
	var contracts []Contract
	err := c.http.GetJSON(ctx, "/api/contracts/available", &contracts)
	return contracts, err
}

// MarketContracts lists contracts with live market data.
func (c *Client) MarketContracts(ctx context.Context) ([]Contract, error) {
	var contracts []Contract
	err := c.http.GetJSON(ctx, "/api/contracts/market", &contracts)
	return contracts, err
}

// PurchasedContracts lists contracts the account has bought.
func (c *Client) PurchasedContracts(ctx context.Context) ([]Contract, error) {
	var contracts []Contract
	err := c.http.GetJSON(ctx, "/api/contracts/purchased", &contracts)
	return contracts, err
}

// ContractHistory lists the account's past contracts. The backend serves
// this endpoint paginated; the page envelope is unwrapped here.
func (c *Client) ContractHistory(ctx context.Context) ([]Contract, error) {
	var page contractPage
	err := c.http.GetJSON(ctx, "/api/contracts/history", &page)
	return page.Content, err
}

// SoldContracts lists contracts the account has sold, unwrapping the same
// page envelope as ContractHistory.
func (c *Client) SoldContracts(ctx context.Context) ([]Contract, error) {
	var page contractPage
	err := c.http.GetJSON(ctx, "/api/contracts/sold", &page)
	return page.Content, err
}

// Contract fetches a single listing by id.
func (c *Client) Contract(ctx context.Context, id string) (Contract, error) {
	var contract Contract
	err := c.http.GetJSON(ctx, "/api/contracts/"+url.PathEscape(id), &contract)
	return contract, err
}

// CreateContract submits a new listing.
func (c *Client) CreateContract(ctx context.Context, form NewContract) (Contract, error) {
	var created Contract
	err := c.http.PostJSON(ctx, "/api/contracts", form, &created)
	return created, err
}

// BuyContract purchases a listing. The signature is optional and only sent
// when the agreement requires one.
func (c *Client) BuyContract(ctx context.Context, contractID, signature string) (Contract, error) {
	var purchased Contract
	var payload any
	if signature != "" {
		payload = Purchase{Signature: signature}
	}
	err := c.http.PostJSON(ctx, "/api/contracts/"+url.PathEscape(contractID)+"/buy", payload, &purchased)
	return purchased, err
}

// AcceptBid accepts a bid offered on one of the account's listings. The
// identifiers come from the bid notification that announced the offer.
func (c *Client) AcceptBid(ctx context.Context, contractID, bidID string) error {
	return c.http.PostJSON(ctx, bidPath(contractID, bidID, "accept"), nil, nil)
}

// RejectBid declines a bid offered on one of the account's listings.
func (c *Client) RejectBid(ctx context.Context, contractID, bidID string) error {
	return c.http.PostJSON(ctx, bidPath(contractID, bidID, "reject"), nil, nil)
}

func bidPath(contractID, bidID, action string) string {
	return "/api/contracts/" + url.PathEscape(contractID) + "/bids/" + url.PathEscape(bidID) + "/" + action
}

// Notifications fetches the account's notification feed.
func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	var notifications []Notification
	err := c.http.GetJSON(ctx, "/api/notifications", &notifications)
	return notifications, err
}

// MarkNotificationRead flags one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.http.PostJSON(ctx, "/api/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// SavedSearches lists the account's pinned contract filters.
func (c *Client) SavedSearches(ctx context.Context) ([]SavedSearch, error) {
	var searches []SavedSearch
	err := c.http.GetJSON(ctx, "/api/saved-searches", &searches)
	return searches, err
}

// CreateSavedSearch pins a new filter.
func (c *Client) CreateSavedSearch(ctx context.Context, search SavedSearch) (SavedSearch, error) {
	var created SavedSearch
	err := c.http.PostJSON(ctx, "/api/saved-searches", search, &created)
	return created, err
}

// DeleteSavedSearch removes a pinned filter.
func (c *Client) DeleteSavedSearch(ctx context.Context, id string) error {
	return c.http.DeleteJSON(ctx, "/api/saved-searches/"+url.PathEscape(id), nil)
}

// Users lists every account, including each one's permission grants.
// Requires admin access; other callers receive a 403.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	err := c.http.GetJSON(ctx, "/api/admin/users", &users)
	return users, err
}

// UpdateUserPermissions replaces a user's permission set and returns the
// stored result.
func (c *Client) UpdateUserPermissions(ctx context.Context, userID string, permissions []string) (User, error) {
	var updated User
	payload := struct {
		Permissions []string `json:"permissions"`
	}{Permissions: permissions}
	err := c.http.PutJSON(ctx, "/api/admin/users/"+url.PathEscape(userID)+"/permissions", payload, &updated)
	return updated, err
}
