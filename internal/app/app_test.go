package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/ticket-desk/internal/api/dto"
	"github.com/spec-kit/ticket-desk/internal/clock"
	"github.com/spec-kit/ticket-desk/internal/config"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/storage"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util"
)

func testConfig(driver string) *config.Config {
	return &config.Config{
		Store: config.StoreConfig{Driver: driver, Namespace: storage.DefaultNamespace},
		Auth:  config.AuthConfig{BcryptCost: 4},
	}
}

func TestNew_MemoryEndToEnd(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.InfoLevel)
	a, err := New(ctx, testConfig(config.DriverMemory), zap.New(core), Options{
		Clock: clock.Fake(time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	defer a.Close()

	assert.False(t, a.Sessions.IsAuthenticated())
	_, err = a.Client.ListTickets(ctx, domain.TicketFilter{})
	require.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	_, err = a.Sessions.Signup(ctx, "alice", "secret1")
	require.NoError(t, err)
	ticket, err := a.Client.CreateTicket(ctx, dto.CreateTicketRequest{Title: "Printer broken"})
	require.NoError(t, err)

	list, err := a.Client.ListTickets(ctx, domain.TicketFilter{})
	require.NoError(t, err)
	assert.Equal(t, []dto.TicketResponse{ticket}, list)

	assert.NoError(t, a.Ready(ctx))
	assert.Equal(t, 1, logs.FilterMessage("user_signed_up").Len())
	assert.Equal(t, 1, logs.FilterMessage("ticket_created").Len())
}

func TestNew_FileStoreSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(config.DriverFile)
	cfg.Store.FileDir = t.TempDir()

	first, err := New(ctx, cfg, nil, Options{})
	require.NoError(t, err)
	alice, err := first.Sessions.Signup(ctx, "alice", "secret1")
	require.NoError(t, err)
	created, err := first.Client.CreateTicket(ctx, dto.CreateTicketRequest{Title: "VPN down"})
	require.NoError(t, err)
	first.Close()

	second, err := New(ctx, cfg, nil, Options{})
	require.NoError(t, err)
	defer second.Close()

	current, ok := second.Sessions.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, alice, current)

	list, err := second.Client.ListTickets(ctx, domain.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.True(t, created.CreatedAt.Equal(list[0].CreatedAt))

	require.NoError(t, second.Sessions.Logout(ctx))
	third, err := New(ctx, cfg, nil, Options{})
	require.NoError(t, err)
	defer third.Close()
	assert.False(t, third.Sessions.IsAuthenticated())
}

func TestNew_SQLiteStore(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(config.DriverSQLite)
	cfg.SQLite = config.SQLiteConfig{
		Path:          filepath.Join(t.TempDir(), "desk.db"),
		RunMigrations: true,
	}

	a, err := New(ctx, cfg, nil, Options{})
	require.NoError(t, err)
	defer a.Close()

	_, err = a.Sessions.Signup(ctx, "alice", "secret1")
	require.NoError(t, err)
	_, err = a.Client.CreateTicket(ctx, dto.CreateTicketRequest{Title: "Disk full"})
	require.NoError(t, err)

	stats, err := a.Client.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, dto.StatsResponse{Total: 1, Open: 1}, stats)
	assert.NoError(t, a.Ready(ctx))
}

func TestNew_NamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	shared := storage.NewMemoryKV()

	cfgA := testConfig(config.DriverMemory)
	cfgA.Store.Namespace = "desk-a"
	a, err := New(ctx, cfgA, nil, Options{Store: shared})
	require.NoError(t, err)
	_, err = a.Sessions.Signup(ctx, "alice", "secret1")
	require.NoError(t, err)

	cfgB := testConfig(config.DriverMemory)
	cfgB.Store.Namespace = "desk-b"
	b, err := New(ctx, cfgB, nil, Options{Store: shared})
	require.NoError(t, err)
	assert.False(t, b.Sessions.IsAuthenticated())
	_, err = b.Sessions.Signup(ctx, "alice", "secret1")
	assert.NoError(t, err)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(context.Background(), testConfig("floppy"), nil, Options{})
	assert.Error(t, err)

	_, err = New(context.Background(), nil, nil, Options{})
	assert.Error(t, err)
}
