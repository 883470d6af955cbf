package docset

import (
	"io"
	"os"
	"time"

	"docset/backend/types"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// Configuration is the configuration of a DocSet.
type Configuration struct {
	// Scheme orders version markers. Required.
	Scheme types.Scheme

	// Engine merges change-sets into documents. Required.
	Engine MergeEngine

	// Identity names the actor of every new document. Required.
	Identity IdentityGenerator

	// StaleStrategy handles changes older than the current snapshot.
	// Defaults to RejectStale.
	StaleStrategy StaleStrategy

	// ConcurrentPolicy handles changes concurrent with the current snapshot.
	// Required when the scheme can yield concurrent versions.
	ConcurrentPolicy ConcurrentPolicy

	// ReplicaID is the actor used when deriving a successor version. Drawn
	// from Identity when empty.
	ReplicaID string

	// Now stamps new snapshots. Defaults to time.Now.
	Now func() time.Time

	// LogWriter receives logs. Defaults to a console writer on stdout.
	LogWriter io.Writer
	LogLevel  zerolog.Level

	// Registerer, when set, receives the docset metrics.
	Registerer prometheus.Registerer
}

// FileConfig is the YAML form of a Configuration. The merge engine and the
// identity generator are wired by the caller.
type FileConfig struct {
	Scheme     string `yaml:"scheme" validate:"required,oneof=scalar vector"`
	Stale      string `yaml:"stale" validate:"omitempty,oneof=reject rebase"`
	Concurrent string `yaml:"concurrent" validate:"omitempty,oneof=reject merge"`
	Identity   string `yaml:"identity" validate:"omitempty,oneof=xid uuid"`
	Replica    string `yaml:"replica"`
	LogLevel   string `yaml:"log_level" validate:"omitempty,oneof=trace debug info warn error disabled"`
}

var validate = validator.New()

// LoadFileConfig reads and validates a YAML configuration file.
func LoadFileConfig(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, xerrors.Errorf("failed to read config: %w", err)
	}
	return ParseFileConfig(data)
}

// ParseFileConfig decodes and validates a YAML configuration.
func ParseFileConfig(data []byte) (FileConfig, error) {
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return FileConfig{}, xerrors.Errorf("failed to decode config: %w", err)
	}
	if err := validate.Struct(fc); err != nil {
		return FileConfig{}, xerrors.Errorf("invalid config: %w", err)
	}
	return fc, nil
}

// Configuration resolves the names of the file into a Configuration.
func (fc FileConfig) Configuration() (Configuration, error) {
	scheme, err := types.SchemeByName(fc.Scheme)
	if err != nil {
		return Configuration{}, err
	}

	staleName := fc.Stale
	if staleName == "" {
		staleName = RejectStale{}.Name()
	}
	stale, err := StaleStrategyByName(staleName)
	if err != nil {
		return Configuration{}, err
	}

	concurrent, err := ConcurrentPolicyByName(fc.Concurrent)
	if err != nil {
		return Configuration{}, err
	}

	level := zerolog.InfoLevel
	if fc.LogLevel != "" {
		level, err = zerolog.ParseLevel(fc.LogLevel)
		if err != nil {
			return Configuration{}, xerrors.Errorf("invalid log level: %w", err)
		}
	}

	return Configuration{
		Scheme:           scheme,
		StaleStrategy:    stale,
		ConcurrentPolicy: concurrent,
		ReplicaID:        fc.Replica,
		LogLevel:         level,
	}, nil
}
