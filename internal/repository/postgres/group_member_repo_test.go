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

var memberRowColumns = []string{"id", "group_id", "user_id", "email", "role", "status", "invited_by_user_id", "invited_at", "joined_at", "roster_metadata", "created_at", "updated_at"}

func strRef(s string) *string { return &s }

func TestGroupMemberRepository_Create(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		member  *domain.GroupMember
		mock    func(mock sqlmock.Sqlmock)
		wantID  string
		wantErr bool
	}{
		{
			name:   "captain",
			member: domain.NewCaptainMember("grp-1", "user-1", "cap@x.com", now),
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO registration_group_members`).
					WithArgs("grp-1", "user-1", "cap@x.com", "captain", "active", "user-1", now, now, []byte(`{}`), now, now).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("mem-1"))
			},
			wantID: "mem-1",
		},
		{
			name: "invitee without account",
			member: &domain.GroupMember{
				GroupID: "grp-1", Email: "p@x.com", Role: domain.MemberRoleMember, Status: domain.MemberStatusInvited,
				InvitedByUserID: strRef("user-1"), InvitedAt: now, CreatedAt: now, UpdatedAt: now,
			},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO registration_group_members`).
					WithArgs("grp-1", nil, "p@x.com", "member", "invited", "user-1", now, nil, []byte(`{}`), now, now).
					WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("mem-2"))
			},
			wantID: "mem-2",
		},
		{
			name:   "db error",
			member: &domain.GroupMember{GroupID: "grp-1"},
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO registration_group_members`).
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
			err = NewGroupMemberRepository(db).Create(ctx, tt.member)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantID, tt.member.ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGroupMemberRepository_ListByGroupID(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM registration_group_members\s+WHERE group_id = \$1`).
		WithArgs("grp-1").
		WillReturnRows(sqlmock.NewRows(memberRowColumns).
			AddRow("mem-1", "grp-1", "user-1", "cap@x.com", "captain", "active", "user-1", now, now, []byte(`{}`), now, now).
			AddRow("mem-2", "grp-1", nil, "p@x.com", "member", "invited", "user-1", now, nil, nil, now, now))

	members, err := NewGroupMemberRepository(db).ListByGroupID(ctx, "grp-1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.Equal(t, domain.MemberRoleCaptain, members[0].Role)
	require.NotNil(t, members[0].JoinedAt)
	require.Nil(t, members[1].UserID)
	require.Nil(t, members[1].JoinedAt)
	require.Equal(t, map[string]any{}, members[1].RosterMetadata)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupMemberRepository_ListByGroupIDs(t *testing.T) {
	ctx := context.Background()

	t.Run("empty input skips query", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		members, err := NewGroupMemberRepository(db).ListByGroupIDs(ctx, nil)
		require.NoError(t, err)
		require.Empty(t, members)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("uses array parameter", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`WHERE group_id = ANY\(\$1\)`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(memberRowColumns))

		members, err := NewGroupMemberRepository(db).ListByGroupIDs(ctx, []string{"grp-1", "grp-2"})
		require.NoError(t, err)
		require.Empty(t, members)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGroupMemberRepository_Update(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	member := &domain.GroupMember{
		ID: "mem-2", UserID: strRef("user-2"), Email: "p@x.com", Role: domain.MemberRoleMember,
		Status: domain.MemberStatusActive, InvitedByUserID: strRef("user-1"), InvitedAt: now, JoinedAt: &now,
	}

	tests := []struct {
		name    string
		mock    func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "success",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE registration_group_members`).
					WithArgs("mem-2", "user-2", "p@x.com", "member", "active", "user-1", now, now).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "no row returns ErrNotFound",
			mock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE registration_group_members`).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.mock(mock)
			err = NewGroupMemberRepository(db).Update(ctx, member)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGroupMemberRepository_UpdateStatusByGroupAndEmail(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE registration_group_members SET status = \$3, updated_at = NOW\(\) WHERE group_id = \$1 AND email = \$2`).
		WithArgs("grp-1", "p@x.com", "removed").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := NewGroupMemberRepository(db).UpdateStatusByGroupAndEmail(ctx, "grp-1", " P@X.com", domain.MemberStatusRemoved)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupMemberRepository_UpdateStatus_not_found(t *testing.T) {
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE registration_group_members SET status = \$2`).
		WithArgs("missing", "removed").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewGroupMemberRepository(db).UpdateStatus(ctx, "missing", domain.MemberStatusRemoved)
	require.ErrorIs(t, err, domain.ErrNotFound)
}
