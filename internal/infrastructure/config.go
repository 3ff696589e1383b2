package infra

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix env prefix for viper
const EnvPrefix = "LMSAPP"

// AppConfig client option object
type AppConfig struct {
	AppID string `mapstructure:"app_id" json:"app_id" yaml:"app_id" validate:"required"`            // application ID
	Env   string `mapstructure:"env" json:"env" yaml:"env" validate:"oneof=development production"` // runtime environment
	API   struct {
		BaseURL string        `mapstructure:"base_url" json:"base_url" yaml:"base_url" validate:"required,url"` // backend base URL
		Timeout time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"`                            // transport-level request timeout
	} `mapstructure:"api" json:"api" yaml:"api"`
	Logging struct {
		FilePath string `mapstructure:"file_path" json:"file_path" yaml:"file_path"`                            // log file path
		Level    string `mapstructure:"level" json:"level" yaml:"level" validate:"oneof=debug info warn error"` // global logging level
	} `mapstructure:"logging" json:"logging" yaml:"logging"`
	State struct {
		Host     string `mapstructure:"host" json:"host" yaml:"host"`             // state store host
		Port     int    `mapstructure:"port" json:"port" yaml:"port"`             // state store port
		Password string `mapstructure:"password" json:"password" yaml:"password"` // state store password
	} `mapstructure:"state" json:"state" yaml:"state"`
	Security struct {
		RequestIDLength int `mapstructure:"request_id_length" json:"request_id_length" yaml:"request_id_length" validate:"min=8"` // length of generated request correlation ids
	} `mapstructure:"security" json:"security" yaml:"security"`
}

// InitConfig init app config using viper
func InitConfig() (*AppConfig, error) {
	// app
	pflag.String("app_id", "lms-client", "application identifier")
	pflag.String("env", "development", "runtime environment, can be 'development' or 'production'")

	// api
	pflag.String("api.base_url", "", "backend API base URL (required)")
	pflag.Duration("api.timeout", 15*time.Second, "request timeout(m, s and h units are supported), eg.15s")

	// logging
	pflag.String("logging.level", "info", "logging level")
	pflag.String("logging.file_path", "", "log to file")

	// state store
	pflag.String("state.host", "127.0.0.1", "state store host")
	pflag.Int("state.port", 6379, "state store port")
	pflag.String("state.password", "", "state store password")

	// security
	pflag.Int("security.request_id_length", 24, "length of generated request correlation ids")

	pflag.Parse()
	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return nil, err
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	cfg := new(AppConfig)
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *AppConfig) error {
	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		errs := err.(validator.ValidationErrors)
		fields := make([]string, len(errs))
		for i, fe := range errs {
			fields[i] = fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
	}
	return nil
}
