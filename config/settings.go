package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	sessionshttp "github.com/youwol/cdn-sessions-storage/http"
)

// EnvPrefix prefixes the environment variables overriding settings.
const EnvPrefix = "CDN_SESSIONS"

type settingsKey struct{}

// WithContext returns a new context with the settings stored.
func WithContext(ctx context.Context, s *Settings) context.Context {
	return context.WithValue(ctx, settingsKey{}, s)
}

// FromContext retrieves the settings from context.
func FromContext(ctx context.Context) (*Settings, error) {
	s, ok := ctx.Value(settingsKey{}).(*Settings)
	if !ok || s == nil {
		return nil, errors.New("settings not found in context")
	}
	return s, nil
}

// Settings are the operator tunables shared by every environment. Secrets are
// never read from here: they come from the environment variables each
// environment requires, or from the platform secrets file.
type Settings struct {
	Server   ServerSettings          `mapstructure:"server"`
	Local    LocalSettings           `mapstructure:"local"`
	Platform PlatformSettings        `mapstructure:"platform"`
	Remote   RemoteSettings          `mapstructure:"remote"`
	Cache    CacheSettings           `mapstructure:"cache"`
	Peer     PeerSettings            `mapstructure:"peer"`
	Auth     AuthSettings            `mapstructure:"auth"`
	CORS     sessionshttp.CORSConfig `mapstructure:"cors"`
	Log      LogSettings             `mapstructure:"log"`
}

type ServerSettings struct {
	// Port overrides the port of the environment when non-zero.
	Port            int           `mapstructure:"port" validate:"min=0,max=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
}

type LocalSettings struct {
	DatabasesPath string `mapstructure:"databases_path" validate:"required"`
	User          string `mapstructure:"user" validate:"required"`
}

type PlatformSettings struct {
	// Path is the directory holding secrets/tricot.json.
	Path string `mapstructure:"path" validate:"required"`
}

type RemoteSettings struct {
	ClusterHost string `mapstructure:"cluster_host" validate:"required,hostname_port|hostname"`
	OpenIDHost  string `mapstructure:"openid_host" validate:"required,hostname_port|hostname"`
}

type CacheSettings struct {
	Host   string        `mapstructure:"host" validate:"required"`
	MaxTTL time.Duration `mapstructure:"max_ttl" validate:"min=0"`
	Size   int           `mapstructure:"size" validate:"min=1"`
}

type PeerSettings struct {
	Port    int           `mapstructure:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `mapstructure:"timeout" validate:"min=0"`
}

type AuthSettings struct {
	// ValidationRate caps token validations per second; 0 disables the cap.
	ValidationRate  float64 `mapstructure:"validation_rate" validate:"min=0"`
	ValidationBurst int     `mapstructure:"validation_burst" validate:"min=0"`
}

type LogSettings struct {
	Level string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
}

var flagToViperKey = map[string]string{
	"port":          "server.port",
	"peer-port":     "peer.port",
	"databases":     "local.databases_path",
	"platform-path": "platform.path",
	"log-level":     "log.level",
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 0)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	v.SetDefault("local.databases_path", "./databases")
	v.SetDefault("local.user", "local-user")

	v.SetDefault("platform.path", ".")

	v.SetDefault("remote.cluster_host", "gc.platform.youwol.com")
	v.SetDefault("remote.openid_host", "gc.auth.youwol.com")

	v.SetDefault("cache.host", "redis-master.infra.svc.cluster.local")
	v.SetDefault("cache.max_ttl", time.Hour)
	v.SetDefault("cache.size", 1024)

	v.SetDefault("peer.port", 2000)
	v.SetDefault("peer.timeout", DefaultPeerTimeout)

	v.SetDefault("auth.validation_rate", 50.0)
	v.SetDefault("auth.validation_burst", 100)

	v.SetDefault("cors.enabled", false)

	v.SetDefault("log.level", "")
}

// DefaultSettings returns the defaults, ignoring files, environment and flags.
func DefaultSettings() *Settings {
	v := viper.New()
	setDefaults(v)

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		panic(fmt.Sprintf("unmarshal default settings: %v", err))
	}
	return &s
}

// LoadSettings reads settings and validates them.
// Order of precedence (highest to lowest): flags > env > config files > defaults.
// Later files override earlier ones; flags may be nil.
func LoadSettings(configFiles []string, flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	setDefaults(v)

	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bindFlags(v, flags)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := validator.New().Struct(&s); err != nil {
		return nil, fmt.Errorf("validate settings: %w", err)
	}

	return &s, nil
}
