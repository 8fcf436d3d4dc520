package backlog

import (
	"github.com/flowtable/backlog/pkg/keyproj"
	"github.com/flowtable/backlog/pkg/multimap"
	"github.com/flowtable/backlog/pkg/srmultimap"
	"github.com/sirupsen/logrus"
)

// New is the allocation factory (spec.md section 4.1/6): it validates cfg,
// picks the single- or multi-user backend exactly as cfg.SharedRead says
// (never auto-promoted — see SPEC_FULL.md's resolved Open Question), and
// returns a matched (reader, writer) pair. The writer starts with
// mem_size == 0; the reader's first TryFindAnd on any key returns
// ErrNotReady until the first Swap.
func New(cfg Config, opts ...OptionFunc) (*ReadHandle, *WriteHandle) {
	if len(cfg.KeyCols) == 0 {
		panic("backlog: key_cols must be non-empty")
	}
	if cfg.Cols <= 0 {
		panic("backlog: cols must be positive")
	}
	for _, idx := range cfg.KeyCols {
		if idx < 0 || idx >= cfg.Cols {
			panic("backlog: key_cols index out of range")
		}
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	logger := cfg.logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logger.WithFields(logrus.Fields{
		"cols":        cfg.Cols,
		"key_cols":    cfg.KeyCols,
		"shared_read": cfg.SharedRead,
		"partial":     cfg.Trigger != nil,
	})

	arity := multimap.ArityOf(len(cfg.KeyCols))
	contiguous := keyproj.Contiguous(cfg.KeyCols)

	writer := &WriteHandle{
		keyCols:        cfg.KeyCols,
		cols:           cfg.Cols,
		contiguous:     contiguous,
		uid:            cfg.UID,
		trigger:        cfg.Trigger,
		evictionSource: cfg.evictionSource,
		logger:         entry,
	}
	if cfg.SharedRead {
		writer.shared = srmultimap.New(arity, cfg.UID)
	} else {
		writer.single = multimap.New(arity)
	}

	reader := writer.newReader()

	entry.Info("allocated backlog handle pair")
	return reader, writer
}
