package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/storage/memory"
	"github.com/andreasstove999/ecommerce-system/shop-service-go/internal/user"
)

type stores struct {
	users     user.Repository
	products  catalog.Repository
	carts     cart.Repository
	sequences events.Sequencer
	close     func()
}

func openStores(ctx context.Context, cfg config.Config, log *logrus.Entry) (*stores, error) {
	if cfg.StorageDriver == config.StorageMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return &stores{
			users:     memory.NewUserStore(),
			products:  memory.NewProductStore(),
			carts:     memory.NewCartStore(),
			sequences: events.NewMemorySequence(),
			close:     func() {},
		}, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, log); err != nil {
			pool.Close()
			return nil, fmt.Errorf("db migrate: %w", err)
		}
	}

	return &stores{
		users:     user.NewPostgresRepository(pool),
		products:  catalog.NewPostgresRepository(pool),
		carts:     cart.NewPostgresRepository(pool),
		sequences: events.NewSequenceRepository(pool),
		close:     pool.Close,
	}, nil
}
