package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ridewise/internal/types"
)

func newTestRoute() *types.Route {
	return &types.Route{
		ID:          "rt_5d0f2c55-3f8e-4a73-9d0a-1f0b9b7e4c22",
		Name:        "Dolomites loop",
		WaypointIDs: []string{"wp_a", "wp_b", "wp_c"},
		CreatedAt:   testNow,
		UpdatedAt:   testNow,
	}
}

func routeRow(rt *types.Route) []any {
	var ids any
	if rt.WaypointIDs != nil {
		ids = rt.WaypointIDs
	}
	return []any{rt.ID, rt.Name, ids, rt.CreatedAt, rt.UpdatedAt}
}

func TestRouteRepository_Create(t *testing.T) {
	db := new(mockDBTX)
	repo := NewRouteRepository(db)
	rt := newTestRoute()

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"),
		[]any{rt.ID, rt.Name, rt.WaypointIDs, rt.CreatedAt, rt.UpdatedAt}).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	require.NoError(t, repo.Create(context.Background(), rt))
	db.AssertExpectations(t)
}

func TestRouteRepository_GetByID(t *testing.T) {
	db := new(mockDBTX)
	repo := NewRouteRepository(db)
	want := newTestRoute()

	db.On("QueryRow", mock.Anything, mock.Anything, []any{want.ID}).
		Return(&mockRow{values: routeRow(want)})

	got, err := repo.GetByID(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRouteRepository_GetByID_NullIDsBecomeEmpty(t *testing.T) {
	db := new(mockDBTX)
	repo := NewRouteRepository(db)
	rt := newTestRoute()
	rt.WaypointIDs = nil

	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&mockRow{values: routeRow(rt)})

	got, err := repo.GetByID(context.Background(), rt.ID)
	require.NoError(t, err)
	assert.NotNil(t, got.WaypointIDs)
	assert.Empty(t, got.WaypointIDs)
}

func TestRouteRepository_GetByID_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewRouteRepository(db)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&mockRow{scanErr: pgx.ErrNoRows})

	_, err := repo.GetByID(context.Background(), "rt_missing")
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeNotFoundRoute, appErr.Code)
}

func TestRouteRepository_List(t *testing.T) {
	db := new(mockDBTX)
	repo := NewRouteRepository(db)
	a, b := newTestRoute(), newTestRoute()
	b.ID = "rt_b"

	db.On("Query", mock.Anything, mock.Anything, []any{25}).
		Return(newMockRows([][]any{routeRow(a), routeRow(b)}), nil)

	got, err := repo.List(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "rt_b", got[1].ID)
}

func TestRouteRepository_List_ScanError(t *testing.T) {
	db := new(mockDBTX)
	rows := newMockRows([][]any{routeRow(newTestRoute())})
	rows.scanErr = errors.New("bad column")
	db.On("Query", mock.Anything, mock.Anything, mock.Anything).Return(rows, nil)

	_, err := NewRouteRepository(db).List(context.Background(), 0)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeInternalDB, appErr.Code)
}

func TestRouteRepository_UpdateDelete_NotFound(t *testing.T) {
	db := new(mockDBTX)
	repo := NewRouteRepository(db)
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).
		Return(pgconn.NewCommandTag("DELETE 0"), nil)

	for _, err := range []error{
		repo.Update(context.Background(), newTestRoute()),
		repo.Delete(context.Background(), "rt_x"),
	} {
		var appErr *types.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, types.ErrCodeNotFoundRoute, appErr.Code)
	}
}

func TestRouteRepository_CountReferencing(t *testing.T) {
	db := new(mockDBTX)
	repo := NewRouteRepository(db)

	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), []any{"wp_a"}).
		Return(&mockRow{values: []any{2}})
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), []any{"wp_err"}).
		Return(&mockRow{scanErr: errors.New("timeout")})

	n, err := repo.CountReferencing(context.Background(), "wp_a")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = repo.CountReferencing(context.Background(), "wp_err")
	assert.Error(t, err)
}
