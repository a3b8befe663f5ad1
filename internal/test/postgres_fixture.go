// Package test holds fixtures shared by integration tests.
package test

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	SkipInfrastructureEnv = "SKIP_INFRASTRUCTURE"
	DatabaseURLEnv        = "DATABASE_URL"

	postgresImage = "postgres:16-alpine"
	postgresPort  = nat.Port("5432/tcp")
)

// PostgresFixture runs a throwaway postgres container. With
// SKIP_INFRASTRUCTURE=true it uses the database at DATABASE_URL instead.
type PostgresFixture struct {
	container *postgres.PostgresContainer
	url       string
}

func NewPostgresFixture() *PostgresFixture {
	return &PostgresFixture{}
}

func (f *PostgresFixture) Start(ctx context.Context) error {
	if skip := os.Getenv(SkipInfrastructureEnv); skip == "true" {
		url, found := os.LookupEnv(DatabaseURLEnv)
		if !found {
			return fmt.Errorf("%s is required when %s is set", DatabaseURLEnv, SkipInfrastructureEnv)
		}
		f.url = url
		return nil
	}

	container, err := postgres.Run(
		ctx,
		postgresImage,
		postgres.WithDatabase("products"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForSQL(postgresPort, "postgres", func(host string, port nat.Port) string {
				return fmt.Sprintf("postgres://postgres:postgres@%s:%s/products?sslmode=disable", host, port.Port())
			}).WithStartupTimeout(time.Minute),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to start postgres container: %w", err)
	}
	f.container = container

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return err
	}
	f.url = url

	return nil
}

func (f *PostgresFixture) URL() string {
	return f.url
}

func (f *PostgresFixture) Stop(ctx context.Context) error {
	if f.container == nil {
		return nil
	}

	return f.container.Terminate(ctx)
}
