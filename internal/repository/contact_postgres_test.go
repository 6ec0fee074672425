package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aihubhq/aihub/internal/domain"
	"github.com/aihubhq/aihub/internal/repository/testutil"
)

const contactSelect = `SELECT id, user_id, name, email, phone_number, company_name, contact_position, address, status, tags, added_at_date FROM contacts`

func strPtr(s string) *string { return &s }

func TestBuildContactListQuery(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		q := domain.ContactQuery{UserID: "user-1"}
		require.NoError(t, q.Normalize())

		query, args, err := buildContactListQuery(q).ToSql()
		require.NoError(t, err)
		assert.Equal(t, contactSelect+" WHERE user_id = $1 ORDER BY added_at_date DESC", query)
		assert.Equal(t, []interface{}{"user-1"}, args)
	})

	t.Run("search tags and sort", func(t *testing.T) {
		q := domain.ContactQuery{
			UserID:      "user-1",
			Search:      " 50%_off\\ ",
			SearchField: domain.SearchFieldCompanyName,
			Tags:        []string{"vip", "hot"},
			SortBy:      domain.SortByName,
			SortOrder:   domain.SortAsc,
		}
		require.NoError(t, q.Normalize())

		query, args, err := buildContactListQuery(q).ToSql()
		require.NoError(t, err)
		assert.Equal(t, contactSelect+" WHERE user_id = $1 AND company_name ILIKE $2 AND tags @> $3 ORDER BY name ASC", query)
		require.Len(t, args, 3)
		assert.Equal(t, `%50\%\_off\\%`, args[1])
		assert.Equal(t, pq.Array([]string{"vip", "hot"}), args[2])
	})

	t.Run("whitespace search is ignored", func(t *testing.T) {
		q := domain.ContactQuery{UserID: "user-1", Search: "   "}
		require.NoError(t, q.Normalize())

		query, _, err := buildContactListQuery(q).ToSql()
		require.NoError(t, err)
		assert.NotContains(t, query, "ILIKE")
	})

	t.Run("selected ids", func(t *testing.T) {
		q := domain.ContactQuery{UserID: "user-1", IDs: []string{"c1", "c2"}}
		require.NoError(t, q.Normalize())

		query, args, err := buildContactListQuery(q).ToSql()
		require.NoError(t, err)
		assert.Equal(t, contactSelect+" WHERE user_id = $1 AND id IN ($2,$3) ORDER BY added_at_date DESC", query)
		assert.Equal(t, []interface{}{"user-1", "c1", "c2"}, args)
	})
}

func TestContactRepository_List(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewContactRepository(db)
	added := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("returns contacts", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM contacts WHERE user_id = \$1 AND email ILIKE \$2 ORDER BY added_at_date DESC`).
			WithArgs("user-1", "%acme%").
			WillReturnRows(testutil.ContactRows().
				AddRow("c1", "user-1", "Ann", "ann@acme.com", nil, "Acme", nil, nil, "new", "{vip,hot}", added).
				AddRow("c2", "user-1", nil, "bob@acme.com", nil, nil, nil, nil, "contacted", nil, added))

		contacts, err := repo.List(context.Background(), domain.ContactQuery{
			UserID:      "user-1",
			Search:      "acme",
			SearchField: domain.SearchFieldEmail,
		})
		require.NoError(t, err)
		require.Len(t, contacts, 2)
		assert.Equal(t, "Ann", *contacts[0].Name)
		assert.Equal(t, []string{"vip", "hot"}, contacts[0].Tags)
		assert.Nil(t, contacts[0].PhoneNumber)
		assert.Nil(t, contacts[1].Name)
		assert.Nil(t, contacts[1].Tags)
		assert.Equal(t, added, contacts[1].AddedAtDate)
	})

	t.Run("rejects unknown sort field", func(t *testing.T) {
		_, err := repo.List(context.Background(), domain.ContactQuery{UserID: "user-1", SortBy: "email"})
		var verr domain.ValidationError
		assert.True(t, errors.As(err, &verr))
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT .+ FROM contacts`).WillReturnError(errors.New("connection reset"))

		_, err := repo.List(context.Background(), domain.ContactQuery{UserID: "user-1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list contacts")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_BulkInsert(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewContactRepository(db)
	added := time.Now().UTC()

	t.Run("small batch is one statement", func(t *testing.T) {
		input := []*domain.ContactData{
			{Name: strPtr("Ann"), Email: strPtr("ann@acme.com"), Status: "new", Tags: []string{"imported"}},
			{Name: strPtr("Bob")},
		}

		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO contacts \(id,user_id,name,email,phone_number,company_name,contact_position,address,status,tags\) VALUES \(\$1,\$2,.+\),\(\$11,.+\) RETURNING id, user_id`).
			WithArgs(
				sqlmock.AnyArg(), "user-1", input[0].Name, input[0].Email, nil, nil, nil, nil, "new", pq.Array([]string{"imported"}),
				sqlmock.AnyArg(), "user-1", input[1].Name, nil, nil, nil, nil, nil, "new", nil,
			).
			WillReturnRows(testutil.ContactRows().
				AddRow("c1", "user-1", "Ann", "ann@acme.com", nil, nil, nil, nil, "new", "{imported}", added).
				AddRow("c2", "user-1", "Bob", nil, nil, nil, nil, nil, "new", nil, added))
		mock.ExpectCommit()

		contacts, err := repo.BulkInsert(context.Background(), "user-1", input)
		require.NoError(t, err)
		require.Len(t, contacts, 2)
		assert.Equal(t, "c1", contacts[0].ID)
		assert.Equal(t, []string{"imported"}, contacts[0].Tags)
		assert.Equal(t, "new", contacts[1].Status)
	})

	t.Run("empty input does not touch the database", func(t *testing.T) {
		contacts, err := repo.BulkInsert(context.Background(), "user-1", nil)
		require.NoError(t, err)
		assert.Empty(t, contacts)
	})

	t.Run("insert failure", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO contacts`).WillReturnError(errors.New(`null value in column "user_id"`))
		mock.ExpectRollback()

		_, err := repo.BulkInsert(context.Background(), "user-1", []*domain.ContactData{{Name: strPtr("Ann")}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `null value in column "user_id"`)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func manyContacts(n int) []*domain.ContactData {
	contacts := make([]*domain.ContactData, n)
	for i := range contacts {
		contacts[i] = &domain.ContactData{Name: strPtr(fmt.Sprintf("Lead %d", i))}
	}
	return contacts
}

func TestContactRepository_BulkInsertLargeBatch(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewContactRepository(db)
	added := time.Now().UTC()

	t.Run("splits rows into statements under the parameter limit", func(t *testing.T) {
		// 6600 rows at 10 parameters each would need $66000 in a single statement
		mock.ExpectBegin()
		for i := 0; i < 6; i++ {
			mock.ExpectQuery(`INSERT INTO contacts .+ VALUES \(\$1,.+,\$10000\) RETURNING`).
				WillReturnRows(testutil.ContactRows().
					AddRow(fmt.Sprintf("c%d", i), "user-1", "Lead", nil, nil, nil, nil, nil, "new", nil, added))
		}
		mock.ExpectQuery(`INSERT INTO contacts .+ VALUES \(\$1,.+,\$6000\) RETURNING`).
			WillReturnRows(testutil.ContactRows().
				AddRow("c6", "user-1", "Lead", nil, nil, nil, nil, nil, "new", nil, added))
		mock.ExpectCommit()

		contacts, err := repo.BulkInsert(context.Background(), "user-1", manyContacts(6600))
		require.NoError(t, err)
		require.Len(t, contacts, 7)
		for i, c := range contacts {
			assert.Equal(t, fmt.Sprintf("c%d", i), c.ID)
		}
	})

	t.Run("a failed chunk rolls back the whole batch", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO contacts`).
			WillReturnRows(testutil.ContactRows().
				AddRow("c0", "user-1", "Lead", nil, nil, nil, nil, nil, "new", nil, added))
		mock.ExpectQuery(`INSERT INTO contacts`).WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		contacts, err := repo.BulkInsert(context.Background(), "user-1", manyContacts(1500))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		assert.Nil(t, contacts)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_GetByIDs(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewContactRepository(db)

	mock.ExpectQuery(`SELECT .+ FROM contacts WHERE id IN \(\$1,\$2\) AND user_id = \$3`).
		WithArgs("c1", "c2", "user-1").
		WillReturnRows(testutil.ContactRows().
			AddRow("c1", "user-1", "Ann", nil, nil, nil, nil, nil, "new", "{a,b}", time.Now()))

	contacts, err := repo.GetByIDs(context.Background(), "user-1", []string{"c1", "c2"})
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, []string{"a", "b"}, contacts[0].Tags)

	contacts, err = repo.GetByIDs(context.Background(), "user-1", nil)
	require.NoError(t, err)
	assert.Empty(t, contacts)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_ReplaceTags(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewContactRepository(db)

	t.Run("replaces the list", func(t *testing.T) {
		mock.ExpectExec(`UPDATE contacts SET tags = \$1 WHERE id IN \(\$2,\$3\) AND user_id = \$4`).
			WithArgs(pq.Array([]string{"vip"}), "c1", "c2", "user-1").
			WillReturnResult(sqlmock.NewResult(0, 2))

		n, err := repo.ReplaceTags(context.Background(), "user-1", []string{"c1", "c2"}, []string{"vip"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})

	t.Run("nil clears the tags", func(t *testing.T) {
		mock.ExpectExec(`UPDATE contacts SET tags = \$1`).
			WithArgs(pq.Array([]string{}), "c1", "user-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		n, err := repo.ReplaceTags(context.Background(), "user-1", []string{"c1"}, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_UpdateStatus(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewContactRepository(db)

	mock.ExpectExec(`UPDATE contacts SET status = \$1 WHERE id = \$2 AND user_id = \$3`).
		WithArgs("qualified", "c1", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateStatus(context.Background(), "user-1", "c1", "qualified"))

	mock.ExpectExec(`UPDATE contacts SET status`).
		WithArgs("qualified", "other", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.UpdateStatus(context.Background(), "user-1", "other", "qualified")
	var notFound *domain.ErrNotFound
	assert.True(t, errors.As(err, &notFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_DeleteMany(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewContactRepository(db)

	mock.ExpectExec(`DELETE FROM contacts WHERE id IN \(\$1,\$2\) AND user_id = \$3`).
		WithArgs("c1", "c2", "user-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteMany(context.Background(), "user-1", []string{"c1", "c2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = repo.DeleteMany(context.Background(), "user-1", nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_CountByStatus(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewContactRepository(db)

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) FROM contacts WHERE user_id = \$1 GROUP BY status`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("new", 4).
			AddRow("lost", 1))

	counts, err := repo.CountByStatus(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"new": 4, "lost": 1}, counts)

	assert.NoError(t, mock.ExpectationsWereMet())
}
