package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"eventregistration/internal/domain"
)

var groupRowColumns = []string{"id", "event_id", "group_type", "status", "captain_user_id", "team_id", "min_size", "max_size", "metadata", "created_at", "updated_at"}

func intRef(n int) *int { return &n }

func TestRegistrationGroupRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		group   *domain.RegistrationGroup
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr bool
	}{
		{
			name: "success with sizes",
			group: &domain.RegistrationGroup{
				EventID: "ev-1", GroupType: domain.GroupTypeRelay, Status: domain.GroupStatusDraft,
				CaptainUserID: "user-1", MinSize: intRef(2), MaxSize: intRef(4),
				Metadata: map[string]any{"division": "open"}, CreatedAt: now, UpdatedAt: now,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO registration_groups \(event_id, group_type, status, captain_user_id, team_id, min_size, max_size, metadata, created_at, updated_at\)`).
					WithArgs("ev-1", "relay", "draft", "user-1", nil, 2, 4, []byte(`{"division":"open"}`), now, now).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("grp-1"))
			},
			wantID: "grp-1",
		},
		{
			name: "nil metadata stored as empty object",
			group: &domain.RegistrationGroup{
				EventID: "ev-1", GroupType: domain.GroupTypePair, Status: domain.GroupStatusDraft,
				CaptainUserID: "user-1", CreatedAt: now, UpdatedAt: now,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO registration_groups`).
					WithArgs("ev-1", "pair", "draft", "user-1", nil, nil, nil, []byte(`{}`), now, now).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("grp-2"))
			},
			wantID: "grp-2",
		},
		{
			name:  "db error",
			group: &domain.RegistrationGroup{EventID: "ev-1", CreatedAt: now, UpdatedAt: now},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO registration_groups`).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			repo := NewRegistrationGroupRepository(db)
			err = repo.Create(ctx, tt.group)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, tt.group.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRegistrationGroupRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("success maps nullable columns", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT id, event_id, group_type, status, captain_user_id, team_id, min_size, max_size, metadata, created_at, updated_at FROM registration_groups WHERE id = \$1`).
			WithArgs("grp-1").
			WillReturnRows(sqlmock.NewRows(groupRowColumns).
				AddRow("grp-1", "ev-1", "team", "pending", "user-1", "team-9", nil, int64(6), []byte(`{"kit":"blue"}`), now, now))

		g, err := NewRegistrationGroupRepository(db).GetByID(ctx, "grp-1")
		require.NoError(t, err)
		require.Equal(t, domain.GroupTypeTeam, g.GroupType)
		require.Equal(t, domain.GroupStatusPending, g.Status)
		require.NotNil(t, g.TeamID)
		require.Equal(t, "team-9", *g.TeamID)
		require.Nil(t, g.MinSize)
		require.NotNil(t, g.MaxSize)
		require.Equal(t, 6, *g.MaxSize)
		require.Equal(t, map[string]any{"kit": "blue"}, g.Metadata)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no rows returns ErrNotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM registration_groups WHERE id = \$1`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err = NewRegistrationGroupRepository(db).GetByID(ctx, "missing")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRegistrationGroupRepository_Update(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	confirmed := domain.GroupStatusConfirmed

	t.Run("only supplied fields are set", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE registration_groups SET updated_at = NOW\(\), status = \$1, max_size = \$2\s+WHERE id = \$3`).
			WithArgs("confirmed", 5, "grp-1").
			WillReturnRows(sqlmock.NewRows(groupRowColumns).
				AddRow("grp-1", "ev-1", "team", "confirmed", "user-1", nil, nil, int64(5), []byte(`{}`), now, now))

		g, err := NewRegistrationGroupRepository(db).Update(ctx, "grp-1", domain.RegistrationGroupPatch{Status: &confirmed, MaxSize: intRef(5)})
		require.NoError(t, err)
		require.Equal(t, domain.GroupStatusConfirmed, g.Status)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty patch reads current row", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`FROM registration_groups WHERE id = \$1`).
			WithArgs("grp-1").
			WillReturnRows(sqlmock.NewRows(groupRowColumns).
				AddRow("grp-1", "ev-1", "team", "draft", "user-1", nil, nil, nil, []byte(`{}`), now, now))

		g, err := NewRegistrationGroupRepository(db).Update(ctx, "grp-1", domain.RegistrationGroupPatch{})
		require.NoError(t, err)
		require.Equal(t, "grp-1", g.ID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row returns ErrNotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`UPDATE registration_groups`).
			WillReturnError(sql.ErrNoRows)

		_, err = NewRegistrationGroupRepository(db).Update(ctx, "missing", domain.RegistrationGroupPatch{Status: &confirmed})
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestRegistrationGroupRepository_ListByEventID(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM registration_groups WHERE event_id = \$1`).
		WithArgs("ev-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`LIMIT \$2 OFFSET \$3`).
		WithArgs("ev-1", 2, 2).
		WillReturnRows(sqlmock.NewRows(groupRowColumns).
			AddRow("grp-3", "ev-1", "pair", "draft", "user-3", nil, nil, nil, []byte(`{}`), now, now))

	groups, total, err := NewRegistrationGroupRepository(db).ListByEventID(ctx, "ev-1", domain.PaginationParams{Page: 2, PageSize: 2})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, groups, 1)
	require.Equal(t, "grp-3", groups[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
