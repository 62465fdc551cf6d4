package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	FilesystemLocal = "local"
	FilesystemS3    = "s3"
)

const envPrefix = "DREAMFORGE"

type Config struct {
	Port        int       `mapstructure:"port"`
	Host        string    `mapstructure:"host"`
	Environment string    `mapstructure:"environment"`
	HomeDir     string    `mapstructure:"home_dir"`
	OutputsDir  string    `mapstructure:"outputs_dir"`
	Filesystem  string    `mapstructure:"filesystem_type"`
	DB          DBConfig  `mapstructure:"db"`
	S3          *S3Config `mapstructure:"s3"`

	Upstream UpstreamConfig `mapstructure:"upstream"`
	OpenAI   *OpenAIConfig  `mapstructure:"openai"`
}

type DBConfig struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type S3Config struct {
	Folder      string `mapstructure:"folder"`
	Region      string `mapstructure:"region_name"`
	Bucket      string `mapstructure:"bucket_name"`
	AccessKey   string `mapstructure:"access_key"`
	SecretKey   string `mapstructure:"secret_key"`
	EndpointUrl string `mapstructure:"endpoint_url"`
}

// UpstreamConfig addresses the two generation apps. App ids are opaque
// hostnames on the upstream fabric; the scheme is overridable for tests.
type UpstreamConfig struct {
	TextToImageApp string        `mapstructure:"text_to_image_app"`
	ImageTo3DApp   string        `mapstructure:"image_to_3d_app"`
	Scheme         string        `mapstructure:"scheme"`
	UserID         string        `mapstructure:"user_id"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	RetryDelay     time.Duration `mapstructure:"retry_delay"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

var config *Config

// LoadEnvAndConfigFiles resolves the dreamforge home directory, loads the
// optional .env and config.yaml files inside it, and unmarshals the config.
func LoadEnvAndConfigFiles() error {
	homeDir, err := getHomeDir()
	if err != nil {
		return err
	}

	outputsDir := viper.GetString("outputs_dir")
	if outputsDir == "" {
		outputsDir = filepath.Join(homeDir, "outputs")
	}

	viper.Set("home_dir", homeDir)
	viper.Set("outputs_dir", outputsDir)

	envFile := viper.GetString("env_file")
	if envFile == "" {
		envFile = filepath.Join(homeDir, ".env")
	}
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))
	viper.AutomaticEnv()

	configFile := viper.GetString("config_file")
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
		viper.AddConfigPath(homeDir)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("error reading config: %w", err)
		}
	}

	setDefaults()

	config = &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshalling config: %w", err)
	}

	return nil
}

func setDefaults() {
	viper.SetDefault("port", DefaultPort)
	viper.SetDefault("host", DefaultHost)
	viper.SetDefault("environment", "dev")
	viper.SetDefault("filesystem_type", FilesystemLocal)
	viper.SetDefault("db.driver", "sqlite")
	viper.SetDefault("db.dsn", filepath.Join(viper.GetString("home_dir"), "generations.db"))
	viper.SetDefault("upstream.text_to_image_app", DefaultTextToImageApp)
	viper.SetDefault("upstream.image_to_3d_app", DefaultImageTo3DApp)
	viper.SetDefault("upstream.scheme", "https")
	viper.SetDefault("upstream.user_id", DefaultUserID)
	viper.SetDefault("upstream.max_attempts", DefaultMaxAttempts)
	viper.SetDefault("upstream.retry_delay", DefaultRetryDelay)
}

func IsLoaded() bool {
	return config != nil
}

func GetConfig() *Config {
	if config == nil {
		panic("config not loaded")
	}

	return config
}

// Returns the dreamforge home directory path, from the first of:
// 1. The `home_dir` flag bound in viper.
// 2. The `DREAMFORGE_HOME` environment variable.
// 3. The default `~/.dreamforge`.
func getHomeDir() (string, error) {
	homeDir := viper.GetString("home_dir")
	if homeDir == "" {
		homeDir = os.Getenv("DREAMFORGE_HOME")
	}
	if homeDir == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", ErrHomeDirNotSet
		}
		homeDir = filepath.Join(userHome, ".dreamforge")
	}

	if strings.HasPrefix(homeDir, "~") {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand home dir: %w", err)
		}
		homeDir = filepath.Join(userHome, strings.TrimPrefix(homeDir, "~"))
	}

	return homeDir, nil
}
