package service

import (
	"context"
	"fmt"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/gogotex/widgets/internal/widget/repository"
)

// Initializer makes sure the database and container exist before the
// service takes traffic. It is meant to run once at startup; errors are
// returned as-is to the caller, which should abort.
type Initializer struct {
	prov      repository.Provisioner
	logger    log.Logger
	database  string
	container string
}

func NewInitializer(l log.Logger, prov repository.Provisioner, database, container string) *Initializer {
	if l == nil {
		l = log.NewNopLogger()
	}
	return &Initializer{prov: prov, logger: log.With(l, "component", "initializer"), database: database, container: container}
}

func status(created bool) string {
	if created {
		return "created"
	}
	return "already exists"
}

func (i *Initializer) EnsureReady(ctx context.Context) error {
	level.Info(i.logger).Log("msg", "ensuring database and container exist", "database", i.database, "container", i.container)

	created, err := i.prov.EnsureDatabase(ctx)
	if err != nil {
		level.Error(i.logger).Log("msg", "error initializing database", "database", i.database, "err", err)
		return fmt.Errorf("ensure database %s: %w", i.database, err)
	}
	level.Info(i.logger).Log("msg", "database ready", "database", i.database, "status", status(created))

	created, err = i.prov.EnsureContainer(ctx)
	if err != nil {
		level.Error(i.logger).Log("msg", "error initializing container", "container", i.container, "err", err)
		return fmt.Errorf("ensure container %s: %w", i.container, err)
	}
	level.Info(i.logger).Log("msg", "container ready", "container", i.container, "status", status(created))
	return nil
}
