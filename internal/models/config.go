package models

import "time"

// StoreConfig contains the runtime configuration of the store client
type StoreConfig struct {
	// Home Assistant configuration directory
	ConfigDir string `envconfig:"CONFIG_DIR" default:"."`

	// Host version override; read from .HA_VERSION when empty
	HostVersion string `envconfig:"HA_VERSION"`

	// Remote endpoints
	APIBase      string `envconfig:"API_BASE" default:"https://hassbox.cn/api/public/"`
	DownloadBase string `envconfig:"DOWNLOAD_BASE" default:"https://get.hassbox.cn/integration"`
	AppID        string `envconfig:"APP_ID" default:"gh_07ec63f43481"`

	// DownloadTimeout bounds a single asset download
	DownloadTimeout time.Duration `envconfig:"DOWNLOAD_TIMEOUT" default:"30s"`

	// TrustedKeyPath is an armored OpenPGP public key. When set, every
	// downloaded asset must carry a valid detached signature.
	TrustedKeyPath string `envconfig:"TRUSTED_KEY"`
}

// AccountConfig is the persisted account document of the store
type AccountConfig struct {
	Token       string `json:"token,omitempty"`
	Certificate string `json:"certificate,omitempty"`

	// Message is the announcement shown on the status screen
	Message string `json:"message,omitempty"`

	// Integration describes the store component itself, for self-update
	Integration *PackageDescriptor `json:"integration,omitempty"`

	// LastUpdate is the unix time of the last catalog refresh
	LastUpdate float64 `json:"last_time_update,omitempty"`
}

// LoggedIn reports whether a token has been bound
func (c *AccountConfig) LoggedIn() bool {
	return c != nil && c.Token != ""
}
