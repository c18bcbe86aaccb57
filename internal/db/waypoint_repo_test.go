package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ridewise/internal/types"
)

var testNow = time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)

func newTestWaypoint() *types.Waypoint {
	return &types.Waypoint{
		ID:   "wp_0b4b9a0e-9a57-4c1e-bb3e-6f0c8c1d2a11",
		Name: "Passo dello Stelvio",
		Location: types.Location{
			Lat:         46.5286,
			Lon:         10.4531,
			DisplayName: "Stelvio Pass",
		},
		Notes:     "Open June to October",
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
}

func waypointRow(wp *types.Waypoint) []any {
	var display, notes any
	if wp.Location.DisplayName != "" {
		display = wp.Location.DisplayName
	}
	if wp.Notes != "" {
		notes = wp.Notes
	}
	return []any{wp.ID, wp.Name, wp.Location.Lat, wp.Location.Lon, display, notes, wp.CreatedAt, wp.UpdatedAt}
}

func TestWaypointRepository_Create(t *testing.T) {
	db := new(mockDBTX)
	repo := NewWaypointRepository(db)
	ctx := context.Background()
	wp := newTestWaypoint()
	wp.Notes = ""

	db.On("Exec", ctx, mock.AnythingOfType("string"), mock.MatchedBy(func(args []any) bool {
		notes, ok := args[5].(*string)
		return len(args) == 8 && args[0] == wp.ID && ok && notes == nil
	})).Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	require.NoError(t, repo.Create(ctx, wp))
	db.AssertExpectations(t)
}

func TestWaypointRepository_Create_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewWaypointRepository(db)

	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection refused"))

	err := repo.Create(context.Background(), newTestWaypoint())
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestWaypointRepository_GetByID(t *testing.T) {
	db := new(mockDBTX)
	repo := NewWaypointRepository(db)
	want := newTestWaypoint()

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), []any{want.ID}).
		Return(&mockRow{values: waypointRow(want)})

	got, err := repo.GetByID(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWaypointRepository_GetByID_NullableColumns(t *testing.T) {
	db := new(mockDBTX)
	repo := NewWaypointRepository(db)
	want := newTestWaypoint()
	want.Location.DisplayName = ""
	want.Notes = ""

	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&mockRow{values: waypointRow(want)})

	got, err := repo.GetByID(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Location.DisplayName)
	assert.Empty(t, got.Notes)
}

func TestWaypointRepository_GetByID_Errors(t *testing.T) {
	tests := []struct {
		name    string
		scanErr error
		code    types.ErrorCode
	}{
		{"not found", pgx.ErrNoRows, types.ErrCodeNotFoundWaypoint},
		{"db failure", errors.New("timeout"), types.ErrCodeInternalDB},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := new(mockDBTX)
			repo := NewWaypointRepository(db)
			db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
				Return(&mockRow{scanErr: tt.scanErr})

			_, err := repo.GetByID(context.Background(), "wp_missing")
			var appErr *types.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestWaypointRepository_GetByIDs(t *testing.T) {
	db := new(mockDBTX)
	repo := NewWaypointRepository(db)
	a := newTestWaypoint()
	b := newTestWaypoint()
	b.ID = "wp_b"

	ids := []string{a.ID, b.ID, "wp_gone"}
	db.On("Query", mock.Anything, mock.Anything, []any{ids}).
		Return(newMockRows([][]any{waypointRow(a), waypointRow(b)}), nil)

	got, err := repo.GetByIDs(context.Background(), ids)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, b.ID, got[b.ID].ID)
	assert.NotContains(t, got, "wp_gone")

	empty, err := repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
	db.AssertNumberOfCalls(t, "Query", 1)
}

func TestWaypointRepository_List(t *testing.T) {
	db := new(mockDBTX)
	repo := NewWaypointRepository(db)
	wp := newTestWaypoint()

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), []any{DefaultListLimit}).
		Return(newMockRows([][]any{waypointRow(wp)}), nil)

	got, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, wp.Name, got[0].Name)
}

func TestWaypointRepository_List_EmptyIsNonNil(t *testing.T) {
	db := new(mockDBTX)
	repo := NewWaypointRepository(db)

	db.On("Query", mock.Anything, mock.Anything, []any{10}).Return(newMockRows(nil), nil)

	got, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestWaypointRepository_List_Errors(t *testing.T) {
	t.Run("query", func(t *testing.T) {
		db := new(mockDBTX)
		db.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("boom"))
		_, err := NewWaypointRepository(db).List(context.Background(), 5)
		assert.Error(t, err)
	})
	t.Run("rows err", func(t *testing.T) {
		db := new(mockDBTX)
		rows := newMockRows(nil)
		rows.errVal = errors.New("conn reset")
		db.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(rows, nil)
		_, err := NewWaypointRepository(db).List(context.Background(), 5)
		var appErr *types.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
	})
}

func TestWaypointRepository_UpdateAndDelete(t *testing.T) {
	tests := []struct {
		name string
		tag  string
		code types.ErrorCode
	}{
		{"found", "UPDATE 1", ""},
		{"missing", "UPDATE 0", types.ErrCodeNotFoundWaypoint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := new(mockDBTX)
			repo := NewWaypointRepository(db)
			db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
				Return(pgconn.NewCommandTag(tt.tag), nil)

			for _, err := range []error{
				repo.Update(context.Background(), newTestWaypoint()),
				repo.Delete(context.Background(), "wp_x"),
			} {
				if tt.code == "" {
					assert.NoError(t, err)
					continue
				}
				var appErr *types.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, tt.code, appErr.Code)
			}
		})
	}
}

func TestMigrate(t *testing.T) {
	db := new(mockDBTX)
	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("CREATE TABLE"), nil)

	require.NoError(t, Migrate(context.Background(), db))
	db.AssertNumberOfCalls(t, "Exec", len(migrations))

	failing := new(mockDBTX)
	failing.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("permission denied"))
	err := Migrate(context.Background(), failing)
	assert.ErrorContains(t, err, "migration 0")
}
