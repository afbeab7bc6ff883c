package config

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Application config structure
type AppConfig struct {
	Name     string `mapstructure:"service_name" validate:"required"`
	Version  string `mapstructure:"version" validate:"required"`
	Host     string `mapstructure:"host" validate:"required"`
	Port     int    `mapstructure:"port" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"required"`
	LogPath  string `mapstructure:"log_path"`

	// Backend base URL for the presign/confirm endpoints. The dashboard
	// backend and its database are separate services.
	RecruitingBackendHost string `mapstructure:"recruiting_backend_host" validate:"required"`

	// SkipRecording disables the whole capture pipeline. Development
	// convenience only; interview rooms still open without it.
	SkipRecording bool `mapstructure:"skip_recording"`

	RecorderConfig RecorderConfig `mapstructure:"recorder"`
	UploadConfig   UploadConfig   `mapstructure:"upload"`
}

// RecorderConfig tunes the recording session lifecycle.
type RecorderConfig struct {
	// TimesliceMs is how often the engine flushes buffered capture data
	// into a chunk.
	TimesliceMs int `mapstructure:"timeslice_ms" validate:"required"`
	// FlushWaitMs is how long stop() waits for the final data flush.
	FlushWaitMs int `mapstructure:"flush_wait_ms" validate:"required"`
	// TrackGraceMs is the delay before tracks are torn down after stop,
	// so in-flight finalize handlers can complete.
	TrackGraceMs int `mapstructure:"track_grace_ms" validate:"required"`
}

// UploadConfig tunes the transfer strategy selection and retry policy.
type UploadConfig struct {
	// SimpleThresholdBytes is the size above which the resilient
	// (retrying) transfer strategy is used.
	SimpleThresholdBytes int64 `mapstructure:"simple_threshold_bytes" validate:"required"`
	MaxAttempts          int   `mapstructure:"max_attempts" validate:"required"`
	BackoffBaseMs        int   `mapstructure:"backoff_base_ms" validate:"required"`
}

// reading config and intializing configs for application
func InitConfig() (*viper.Viper, error) {
	vConfig := viper.NewWithOptions(viper.KeyDelimiter("__"))

	vConfig.AddConfigPath(".")
	vConfig.SetConfigName(".env")
	path := os.Getenv("ENV_PATH")
	if path != "" {
		log.Printf("env path %v", path)
		vConfig.SetConfigFile(path)
	}
	vConfig.SetConfigType("env")
	vConfig.AutomaticEnv()

	setDefault(vConfig)
	if err := vConfig.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		log.Printf("Reading from env varaibles.")
	}

	return vConfig, nil
}

func setDefault(v *viper.Viper) {
	// setting all default values
	v.SetDefault("SERVICE_NAME", "interview-api")
	v.SetDefault("VERSION", "0.0.1")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", 9096)
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("LOG_PATH", "")

	v.SetDefault("RECRUITING_BACKEND_HOST", "http://localhost:8000")
	v.SetDefault("SKIP_RECORDING", false)

	v.SetDefault("RECORDER__TIMESLICE_MS", 1000)
	v.SetDefault("RECORDER__FLUSH_WAIT_MS", 100)
	v.SetDefault("RECORDER__TRACK_GRACE_MS", 100)

	v.SetDefault("UPLOAD__SIMPLE_THRESHOLD_BYTES", 25*1024*1024)
	v.SetDefault("UPLOAD__MAX_ATTEMPTS", 3)
	v.SetDefault("UPLOAD__BACKOFF_BASE_MS", 1000)
}

// Getting application config from viper
func GetApplicationConfig(v *viper.Viper) (*AppConfig, error) {
	var config AppConfig
	err := v.Unmarshal(&config)
	if err != nil {
		log.Printf("%+v\n", err)
		return nil, err
	}
	validate := validator.New()
	if err := validate.Struct(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
