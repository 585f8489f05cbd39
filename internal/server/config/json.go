package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/remotefiles/internal/flagx"
	"github.com/dmitrijs2005/remotefiles/internal/timex"
	"github.com/dmitrijs2005/remotefiles/internal/upload"
)

var jsonConfigPath = flagx.JsonConfigFlags

// JsonConfig is the on-disk shape of the configuration file. Durations use
// timex.Duration so "10s" and integer nanoseconds both decode. Values left
// out of the file keep their defaults.
type JsonConfig struct {
	HTTPAddr              string         `json:"http_addr"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	MaxUploadMB           int64          `json:"max_upload_mb"`

	RemoteStorage string     `json:"remote_storage"`
	GlobalPrefix  string     `json:"global_prefix"`
	S3            *jsonS3    `json:"s3"`
	Minio         *jsonMinio `json:"minio"`
	Memory        *struct {
		BaseURL string `json:"base_url"`
	} `json:"memory"`

	Cloudflare *jsonCloudflare `json:"cloudflare"`

	Fields map[string]jsonField `json:"fields"`
}

type jsonS3 struct {
	Bucket       string `json:"bucket"`
	Prefix       string `json:"prefix"`
	Region       string `json:"region"`
	AccessKey    string `json:"access_key"`
	SecretKey    string `json:"secret_key"`
	BaseEndpoint string `json:"base_endpoint"`
	UsePathStyle *bool  `json:"use_path_style"`
	PublicURL    string `json:"public_url"`
}

type jsonMinio struct {
	Endpoint     string `json:"endpoint"`
	AccessKey    string `json:"access_key"`
	SecretKey    string `json:"secret_key"`
	Bucket       string `json:"bucket"`
	Prefix       string `json:"prefix"`
	UseSSL       *bool  `json:"use_ssl"`
	CreateBucket *bool  `json:"create_bucket"`
	PublicURL    string `json:"public_url"`
}

type jsonCloudflare struct {
	Token    string         `json:"token"`
	Account  string         `json:"account"`
	APIURL   string         `json:"api_url"`
	Timeout  timex.Duration `json:"timeout"`
	Delivery struct {
		URL     string `json:"url"`
		Hash    string `json:"hash"`
		Variant string `json:"variant"`
	} `json:"delivery"`
}

type jsonField struct {
	RemoteField     string `json:"remote_field"`
	ExtField        string `json:"ext_field"`
	CloudflareImage bool   `json:"cloudflare_image"`
	DeleteEnabled   *bool  `json:"delete_enabled"`
	Prefix          string `json:"prefix"`
	AllowEmpty      bool   `json:"allow_empty"`
}

// parseJson overlays the file at path onto config. An empty path loads
// nothing.
func parseJson(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.apply(config)
	return nil
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.TokenValidityDuration.Duration > 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.MaxUploadMB > 0 {
		config.MaxUploadMB = c.MaxUploadMB
	}
	setString(&config.RemoteStorage, c.RemoteStorage)
	setString(&config.GlobalPrefix, c.GlobalPrefix)

	if s := c.S3; s != nil {
		setString(&config.S3.Bucket, s.Bucket)
		setString(&config.S3.Prefix, s.Prefix)
		setString(&config.S3.Region, s.Region)
		setString(&config.S3.AccessKey, s.AccessKey)
		setString(&config.S3.SecretKey, s.SecretKey)
		setString(&config.S3.BaseEndpoint, s.BaseEndpoint)
		setString(&config.S3.PublicURL, s.PublicURL)
		setBool(&config.S3.UsePathStyle, s.UsePathStyle)
	}

	if m := c.Minio; m != nil {
		setString(&config.Minio.Endpoint, m.Endpoint)
		setString(&config.Minio.AccessKey, m.AccessKey)
		setString(&config.Minio.SecretKey, m.SecretKey)
		setString(&config.Minio.Bucket, m.Bucket)
		setString(&config.Minio.Prefix, m.Prefix)
		setString(&config.Minio.PublicURL, m.PublicURL)
		setBool(&config.Minio.UseSSL, m.UseSSL)
		setBool(&config.Minio.CreateBucket, m.CreateBucket)
	}

	if c.Memory != nil {
		setString(&config.Memory.BaseURL, c.Memory.BaseURL)
	}

	if cf := c.Cloudflare; cf != nil {
		setString(&config.Cloudflare.Token, cf.Token)
		setString(&config.Cloudflare.Account, cf.Account)
		setString(&config.Cloudflare.APIURL, cf.APIURL)
		if cf.Timeout.Duration > 0 {
			config.Cloudflare.Timeout = cf.Timeout.Duration
		}
		setString(&config.Cloudflare.Delivery.URL, cf.Delivery.URL)
		setString(&config.Cloudflare.Delivery.Hash, cf.Delivery.Hash)
		setString(&config.Cloudflare.Delivery.Variant, cf.Delivery.Variant)
	}

	// A fields section replaces the default field set entirely.
	if len(c.Fields) > 0 {
		config.Fields = make(map[string]upload.FieldConfig, len(c.Fields))
		for name, f := range c.Fields {
			fc := upload.DefaultField()
			setString(&fc.RemoteField, f.RemoteField)
			setString(&fc.ExtField, f.ExtField)
			setBool(&fc.DeleteEnabled, f.DeleteEnabled)
			fc.CloudflareImage = f.CloudflareImage
			fc.Prefix = f.Prefix
			fc.AllowEmpty = f.AllowEmpty
			config.Fields[name] = fc
		}
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
