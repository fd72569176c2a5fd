package service

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"race-calendar/internal/repository"
	"race-calendar/internal/repository/gatewaytest"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	srv     *gatewaytest.Server
	events  *repository.EventRepository
	users   *repository.UserRepository
	catalog *CatalogService
	detail  *DetailService
}

func newTestEnv(t *testing.T, fixture gatewaytest.Fixture) *testEnv {
	t.Helper()

	srv := gatewaytest.NewServer(t, fixture)
	gw, err := repository.NewGateway(srv.URL, 2*time.Second, discardLogger(), nil)
	require.NoError(t, err)

	events := repository.NewEventRepository(gw)
	users := repository.NewUserRepository(gw)
	catalog := NewCatalogService(
		discardLogger(),
		events,
		repository.NewChampionshipRepository(gw),
		repository.NewCategoryRepository(gw),
		NewImageRotation("/images/newEvent0%d.jpg", 4),
		nil,
	)
	return &testEnv{
		srv:     srv,
		events:  events,
		users:   users,
		catalog: catalog,
		detail:  NewDetailService(discardLogger(), events, users, catalog),
	}
}
