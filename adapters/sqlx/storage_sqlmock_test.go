package sqlx_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	libsqlx "github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	storage "promokit/adapters/sqlx"
	"promokit/core"
	"promokit/engine"
)

func newMockStore(t *testing.T) (*storage.Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	xdb := storage.NewWithDB(libsqlx.NewDb(db, "postgres"), storage.DriverPostgres)
	cleanup := func() {
		_ = db.Close()
	}
	return xdb, mock, cleanup
}

func mockPromotion() core.PromotionConfig {
	return core.PromotionConfig{
		ID:      "promo-1",
		Name:    "Provider Discovery",
		Enabled: true,
		StartAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EndAt:   time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Trigger: core.Trigger{
			Kind:    core.TriggerFirstOccurrence,
			Subject: core.SubjectProvider,
		},
		Mechanic: core.Mechanic{
			Type: core.MechanicCollection,
			Collection: &core.CollectionConfig{
				TargetCount: 3,
				CollectBy:   core.SubjectProvider,
			},
		},
		DefaultReward: &core.RewardPayload{Type: core.RewardEntry, Label: "prize draw entry"},
	}
}

func TestSQLMock_SavePromotion_Upsert(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	p := mockPromotion()
	mock.ExpectExec(`INSERT INTO promotions`).
		WithArgs(p.ID, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, store.SavePromotion(context.Background(), p))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_GetPromotion(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	p := mockPromotion()
	raw, err := json.Marshal(p)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT config FROM promotions`).
		WithArgs(p.ID).
		WillReturnRows(sqlmock.NewRows([]string{"config"}).AddRow(string(raw)))

	got, err := store.GetPromotion(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)
	require.Equal(t, core.TriggerFirstOccurrence, got.Trigger.Kind)
	require.NotNil(t, got.Mechanic.Collection)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_GetPromotion_NotFound(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT config FROM promotions`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"config"}))

	_, err := store.GetPromotion(context.Background(), "missing")
	require.ErrorIs(t, err, engine.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_PlayerState_RoundTrip(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	state := core.NewPlayerState("p1")
	state.Promotions["promo-1"] = core.PlayerPromotionState{
		Joined:   true,
		Progress: core.Progress{CollectedItems: []string{"provider-a"}, TriggerCount: 1},
	}
	raw, err := json.Marshal(state)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO player_states`).
		WithArgs("p1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(`SELECT state FROM player_states`).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"state"}).AddRow(string(raw)))

	require.NoError(t, store.SavePlayerState(context.Background(), state))

	got, found, err := store.GetPlayerState(context.Background(), "p1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, []string{"provider-a"}, got.Promotions["promo-1"].Progress.CollectedItems)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_GetPlayerState_Missing(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT state FROM player_states`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"state"}))

	_, found, err := store.GetPlayerState(context.Background(), "ghost")
	require.NoError(t, err)
	require.False(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_AppendLog_InsertAndTrim(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	entry := core.LogEntry{
		PlayerID:  "p1",
		Event:     core.Event{PlayerID: "p1", GameID: "game-1", ProviderID: "provider-a", Vertical: core.VerticalSlots},
		Timestamp: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO player_logs`).
		WithArgs("p1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`DELETE FROM player_logs`).
		WithArgs("p1", "p1", 100).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, store.AppendLog(context.Background(), entry))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_PlayerLogs(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	entry := core.LogEntry{PlayerID: "p1", Timestamp: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)}
	raw, err := json.Marshal(entry)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT entry FROM player_logs`).
		WithArgs("p1", 10).
		WillReturnRows(sqlmock.NewRows([]string{"entry"}).AddRow(string(raw)))

	logs, err := store.PlayerLogs(context.Background(), "p1", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, core.PlayerID("p1"), logs[0].PlayerID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_Reset(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM promotions`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM player_states`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM player_logs`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Reset(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
