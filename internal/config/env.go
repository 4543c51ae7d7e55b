package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/text/language"

	"github.com/kazz187/taskforge/internal/task"
)

type BaseEnv struct {
	Env      string `envconfig:"ENV" default:"local"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type ClientEnv struct {
	APIBaseURL  string        `envconfig:"API_BASE_URL" default:"http://localhost:3100/api"`
	APITimeout  time.Duration `envconfig:"API_TIMEOUT" default:"10s"`
	Locale      string        `envconfig:"LOCALE" default:"und"`
	DefaultSort string        `envconfig:"DEFAULT_SORT" default:"byDateAsc"`
}

type StubEnv struct {
	HTTPHost string `envconfig:"HTTP_HOST" default:""`
	HTTPPort string `envconfig:"HTTP_PORT" default:"3100"`
}

type StorageEnv struct {
	Type    string `envconfig:"STORAGE_TYPE" default:"local"`
	BaseDir string `envconfig:"STORAGE_BASE_DIR" default:".taskforge/data"`
	// S3 settings (used when Type == "s3")
	S3Bucket string `envconfig:"S3_BUCKET"`
	S3Prefix string `envconfig:"S3_PREFIX" default:"taskforge/"`
	S3Region string `envconfig:"S3_REGION" default:"ap-northeast-1"`
}

type Env struct {
	BaseEnv
	ClientEnv
	StubEnv
	StorageEnv
}

const namespace = "TASKFORGE"

func LoadEnv() (*Env, error) {
	var env Env
	if err := envconfig.Process(namespace, &env); err != nil {
		return nil, fmt.Errorf("failed to load env: %w", err)
	}
	if _, err := env.Tag(); err != nil {
		return nil, err
	}
	if env.StorageEnv.Type == "s3" && env.S3Bucket == "" {
		return nil, fmt.Errorf("failed to load env: %s_S3_BUCKET is required for s3 storage", namespace)
	}
	return &env, nil
}

func (e *BaseEnv) SlogLevel() slog.Level {
	if e == nil {
		return slog.LevelInfo
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(e.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Tag parses Locale as a BCP 47 tag.
func (e *ClientEnv) Tag() (language.Tag, error) {
	tag, err := language.Parse(e.Locale)
	if err != nil {
		return language.Und, fmt.Errorf("invalid %s_LOCALE %q: %w", namespace, e.Locale, err)
	}
	return tag, nil
}

func (e *ClientEnv) SortKey() task.SortKey {
	return task.SortKey(e.DefaultSort)
}
