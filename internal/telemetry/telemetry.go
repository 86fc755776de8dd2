package telemetry

import (
	"context"

	"codeberg.org/veridian/veridianctl/internal/control"
	"codeberg.org/veridian/veridianctl/internal/errors"
	"codeberg.org/veridian/veridianctl/internal/logger"
)

type service struct {
	repo Repository
	cfg  Config
}

// Disabled telemetry still satisfies the Collector interface
type noopCollector struct{}

// NewService builds a Collector for the given configuration. With
// telemetry disabled it returns a no-op collector so the control loop
// does not need to care either way.
func NewService(cfg Config) (Collector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if !cfg.Enabled {
		logger.Debug().Msg("Telemetry disabled, using no-op collector")
		return &noopCollector{}, nil
	}

	repo, err := NewRepository(cfg, logger.Default())
	if err != nil {
		return nil, err
	}

	return &service{
		repo: repo,
		cfg:  cfg,
	}, nil
}

func (s *service) Record(ctx context.Context, snapshot *control.Snapshot) error {
	errFactory := errors.New()

	if snapshot == nil {
		return errFactory.New(ErrInvalidSnapshot)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(errors.ErrTimeout, ctx.Err())
	default:
		if err := s.repo.Record(snapshot); err != nil {
			return errFactory.Wrap(ErrRecordFailed, err)
		}
	}

	return nil
}

func (s *service) Close() error {
	return s.repo.Close()
}

func (*noopCollector) Record(_ context.Context, _ *control.Snapshot) error {
	return nil
}

func (*noopCollector) Close() error {
	return nil
}
