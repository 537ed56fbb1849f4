// Package remote talks to the HassBox store service.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hass-box/hassbox-store/internal/models"
	"github.com/sirupsen/logrus"
)

// Credentials identify this Home Assistant instance to the store
type Credentials struct {
	UUID        string
	Token       string
	Certificate string
}

func (c Credentials) query() map[string]string {
	return map[string]string{
		"uuid":        c.UUID,
		"token":       c.Token,
		"certificate": c.Certificate,
	}
}

// StoreData is the response of the store data endpoint
type StoreData struct {
	Message       string                    `json:"message"`
	Integration   *models.PackageDescriptor `json:"integration"`
	DataSourceURL string                    `json:"data_source_url"`
}

// QRCode is the response of the QR login endpoint
type QRCode struct {
	Token  string `json:"token"`
	URL    string `json:"url"`
	ErrMsg string `json:"errmsg"`
}

type errorBody struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// Options configures a Client
type Options struct {
	APIBase         string
	DownloadBase    string
	AppID           string
	DownloadTimeout time.Duration

	// HTTPClient replaces the default transport, mostly for tests
	HTTPClient *http.Client
}

// Client is the store API client. It never retries: every user action is
// a single attempt.
type Client struct {
	resty           *resty.Client
	apiBase         string
	downloadBase    string
	appID           string
	downloadTimeout time.Duration
}

// NewClient creates a store client
func NewClient(opts Options) *Client {
	var rc *resty.Client
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	} else {
		rc = resty.New()
	}
	rc.SetRetryCount(0).
		SetTimeout(60*time.Second).
		SetHeader("User-Agent", "hassbox-store")

	timeout := opts.DownloadTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		resty:           rc,
		apiBase:         strings.TrimRight(opts.APIBase, "/") + "/",
		downloadBase:    strings.TrimRight(opts.DownloadBase, "/"),
		appID:           opts.AppID,
		downloadTimeout: timeout,
	}
}

// BindToken binds a store token to this instance and returns the
// certificate issued for it
func (c *Client) BindToken(ctx context.Context, uuid, token string) (string, error) {
	var out struct {
		Certificate string `json:"certificate"`
	}

	resp, err := c.resty.R().
		SetContext(ctx).
		SetBody(map[string]string{"uuid": uuid, "token": token}).
		Post(c.apiBase + "integration/bindToken")
	if err := c.check(resp, err, &out); err != nil {
		return "", err
	}

	return out.Certificate, nil
}

// CheckValid asks whether the account may use the store. A refusal is not
// an error: it is reported as enabled=false with the service's reason.
func (c *Client) CheckValid(ctx context.Context, creds Credentials) (bool, string, error) {
	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParams(creds.query()).
		Get(c.apiBase + "integration/checkValid")
	if err != nil {
		return false, "", remoteError(fmt.Errorf("error fetching data from HassBox Store: %w", err))
	}

	if resp.StatusCode() == http.StatusOK {
		return true, "", nil
	}

	reason := errMsg(resp)
	logrus.Errorf("Store access disabled: %s", reason)
	return false, reason, nil
}

// FetchData returns the store announcement, the store component's own
// descriptor and the catalog location
func (c *Client) FetchData(ctx context.Context, creds Credentials) (*StoreData, error) {
	var out StoreData

	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParams(creds.query()).
		Get(c.apiBase + "integration/data")
	if err := c.check(resp, err, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

// FetchCatalog downloads the catalog. Entries that fail validation are
// dropped with a warning.
func (c *Client) FetchCatalog(ctx context.Context, source string, creds Credentials) ([]models.PackageDescriptor, error) {
	var raw []models.PackageDescriptor

	resp, err := c.resty.R().
		SetContext(ctx).
		SetQueryParams(creds.query()).
		Get(source)
	if err := c.check(resp, err, &raw); err != nil {
		return nil, err
	}

	catalog := make([]models.PackageDescriptor, 0, len(raw))
	for i := range raw {
		if err := raw[i].Normalize(); err != nil {
			logrus.Warnf("Skipping catalog entry: %v", err)
			continue
		}
		catalog = append(catalog, raw[i])
	}

	logrus.Infof("Fetched %d packages from the store", len(catalog))
	return catalog, nil
}

// GetQRCode starts a QR-code login
func (c *Client) GetQRCode(ctx context.Context, token string) (*QRCode, error) {
	var out QRCode
	if err := c.post(ctx, "store/getQRCode", map[string]string{"token": token}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckState polls a QR-code login. It returns the bound token once the
// code has been scanned, or the service's message while it is pending.
func (c *Client) CheckState(ctx context.Context, token string) (string, string, error) {
	var out QRCode
	if err := c.post(ctx, "store/checkState", map[string]string{"token": token}, &out); err != nil {
		return "", "", err
	}
	return out.Token, out.ErrMsg, nil
}

func (c *Client) post(ctx context.Context, api string, body map[string]string, out interface{}) error {
	body["appId"] = c.appID

	resp, err := c.resty.R().
		SetContext(ctx).
		SetBody(body).
		Post(c.apiBase + api)
	return c.check(resp, err, out)
}

// AssetURL returns the download location of a release asset
func (c *Client) AssetURL(id, version, asset string) string {
	return c.downloadBase + "/" + id + "/" + url.PathEscape(version) + "/" + url.PathEscape(asset)
}

// Download fetches location within the download timeout
func (c *Client) Download(ctx context.Context, location string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.downloadTimeout)
	defer cancel()

	resp, err := c.resty.R().
		SetContext(ctx).
		Get(location)
	if err != nil {
		return nil, &models.StoreError{
			Type: models.ErrDownloadFailed,
			Err:  fmt.Errorf("download of %s failed: %w", location, err),
		}
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, &models.StoreError{
			Type: models.ErrDownloadFailed,
			Err:  fmt.Errorf("download of %s failed with status %d", location, resp.StatusCode()),
		}
	}

	logrus.Debugf("Downloaded %s (%d bytes)", location, len(resp.Body()))
	return resp.Body(), nil
}

func (c *Client) check(resp *resty.Response, err error, out interface{}) error {
	if err != nil {
		return remoteError(fmt.Errorf("error fetching data from HassBox Store: %w", err))
	}

	if resp.IsError() {
		return remoteError(errors.New(errMsg(resp)))
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return remoteError(fmt.Errorf("invalid response from %s: %w", resp.Request.URL, err))
		}
	}
	return nil
}

func errMsg(resp *resty.Response) string {
	var body errorBody
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.ErrMsg != "" {
		return body.ErrMsg
	}
	return fmt.Sprintf("store responded with status %d", resp.StatusCode())
}

func remoteError(err error) error {
	return &models.StoreError{Type: models.ErrRemote, Err: err}
}
