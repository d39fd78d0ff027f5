package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/oauth2"

	sessions "github.com/youwol/cdn-sessions-storage"
	"github.com/youwol/cdn-sessions-storage/auth"
	sessionshttp "github.com/youwol/cdn-sessions-storage/http"
)

// LogSink selects the log handler of the process.
type LogSink string

const (
	// LogSinkConsole writes colored human readable lines.
	LogSinkConsole LogSink = "console"
	// LogSinkStructured writes one JSON object per line.
	LogSinkStructured LogSink = "structured"
)

type ServerOptions struct {
	Port     int    `yaml:"port" validate:"min=1,max=65535"`
	RootPath string `yaml:"root_path"`
	BasePath string `yaml:"base_path"`
}

// ServiceConfiguration is the resolved configuration of the process. It is
// built once by a Resolver and must not be modified afterwards.
type ServiceConfiguration struct {
	Environment      Environment        `validate:"required"`
	Server           ServerOptions
	Storage          sessions.Storage `validate:"required"`
	Cache            sessions.Cache   `validate:"required"`
	Auth             auth.Descriptor
	Unprotected      PathPolicy
	AdminCredentials oauth2.TokenSource
	LogSink          LogSink `validate:"oneof=console structured"`
	Middleware       sessionshttp.Chain
	Backends         Backends
}

var validate = validator.New()

// Validate checks the configuration is coherent.
func (c *ServiceConfiguration) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if c.Backends.Networked() && c.AdminCredentials == nil {
		return configError("networked storage %s has no admin credentials", c.Backends.StorageURL)
	}
	if !c.Unprotected.Unprotected("/" + SegmentHealth) {
		return configError("%s must be unprotected", SegmentHealth)
	}
	return nil
}

// View is a printable, secret free rendering of a ServiceConfiguration.
type View struct {
	Environment Environment     `yaml:"environment"`
	Server      ServerOptions   `yaml:"server"`
	Backends    Backends        `yaml:"backends"`
	Auth        auth.Descriptor `yaml:"auth"`
	Unprotected []string        `yaml:"unprotected"`
	LogSink     LogSink         `yaml:"log_sink"`
	Middleware  []string        `yaml:"middleware"`
}

// View returns the redacted view of c.
func (c *ServiceConfiguration) View() View {
	var layers []string
	for _, l := range c.Middleware.Layers() {
		layers = append(layers, l.Name)
	}
	return View{
		Environment: c.Environment,
		Server:      c.Server,
		Backends:    c.Backends,
		Auth:        c.Auth.Redacted(),
		Unprotected: c.Unprotected.Segments(),
		LogSink:     c.LogSink,
		Middleware:  layers,
	}
}
