package impl

import (
	"io"
	"os"
	"time"

	"docset/backend/docset"

	"github.com/rs/zerolog"
	"golang.org/x/xerrors"
)

var logIO = zerolog.ConsoleWriter{
	Out:        os.Stdout,
	TimeFormat: time.RFC3339,
}

// NewDocSet creates a new document set. It fails when the configuration is
// incomplete, notably when the version scheme can report concurrent versions
// and no concurrent policy is configured.
func NewDocSet(conf docset.Configuration) (docset.DocSet, error) {
	if conf.Scheme == nil {
		return nil, xerrors.New("configuration without version scheme")
	}
	if conf.Engine == nil {
		return nil, xerrors.New("configuration without merge engine")
	}
	if conf.Identity == nil {
		return nil, xerrors.New("configuration without identity generator")
	}
	if conf.Scheme.Concurrent() && conf.ConcurrentPolicy == nil {
		return nil, xerrors.Errorf("%s scheme: %w", conf.Scheme.Name(), docset.ErrConcurrencyUnresolved)
	}
	if conf.StaleStrategy == nil {
		conf.StaleStrategy = docset.RejectStale{}
	}
	if conf.ReplicaID == "" {
		conf.ReplicaID = conf.Identity.NewActorID()
	}
	if conf.Now == nil {
		conf.Now = time.Now
	}

	var out io.Writer = logIO
	if conf.LogWriter != nil {
		out = conf.LogWriter
	}
	logger := newLogger(out, conf.LogLevel).With().Str("replica", conf.ReplicaID).Logger()
	loggerCRDT := logger.With().Str("component", "crdt").Logger()

	metrics, err := newMetrics(conf.Registerer)
	if err != nil {
		return nil, xerrors.Errorf("failed to register metrics: %w", err)
	}

	ds := docSet{
		conf:     conf,
		log:      logger,
		logCRDT:  loggerCRDT,
		store:    newStore(),
		handlers: newHandlers(),
		metrics:  metrics,
	}

	logger.Debug().
		Str("scheme", conf.Scheme.Name()).
		Str("stale", conf.StaleStrategy.Name()).
		Msg("document set created")

	return &ds, nil
}

// Helper functions

func newLogger(io io.Writer, level zerolog.Level) zerolog.Logger {
	logger := zerolog.New(io).With().Timestamp().Logger()
	return logger.Level(level)
}

// docSet implements a causal document set
//
// - implements docset.DocSet
type docSet struct {
	conf     docset.Configuration
	log      zerolog.Logger
	logCRDT  zerolog.Logger
	store    *Store
	handlers *Handlers
	metrics  *Metrics
}
