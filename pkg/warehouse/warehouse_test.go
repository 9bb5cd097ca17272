package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = Params{Account: "xy12345", User: "careconnect", Password: "secret"}

func TestConnectionLifecycle(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	opened := 0
	conn := NewConnection(testParams, WithOpener(func(context.Context, Params) (*sql.DB, error) {
		opened++
		return db, nil
	}))

	mock.ExpectPing()
	mock.ExpectClose()

	// Session connects lazily.
	session, err := conn.Session(context.Background())
	require.NoError(t, err)
	assert.Same(t, db, session)

	root, err := conn.Root(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, root)
	assert.Equal(t, 1, opened)
	assert.True(t, conn.Connected())

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	assert.False(t, conn.Connected())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnectionReconnectsAfterFailedPing(t *testing.T) {
	ctx := context.Background()
	first, firstMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	second, secondMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	handles := []*sql.DB{first, second}
	opened := 0
	conn := NewConnection(testParams, WithOpener(func(context.Context, Params) (*sql.DB, error) {
		db := handles[opened]
		opened++
		return db, nil
	}))

	firstMock.ExpectPing()
	firstMock.ExpectPing()
	firstMock.ExpectPing().WillReturnError(errors.New("session expired"))
	firstMock.ExpectClose()

	require.NoError(t, conn.Connect(ctx))
	root, err := conn.Root(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.Ping(ctx))

	err = conn.Ping(ctx)
	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Equal(t, "ping", connErr.Op)
	assert.False(t, conn.Connected())

	secondMock.ExpectPing()
	secondMock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"ONE"}).AddRow(1))

	// the registry built before the failure follows the new handle
	rows, err := root.Querier().QueryContext(ctx, "SELECT 1")
	require.NoError(t, err)
	rows.Close()

	assert.Equal(t, 2, opened)
	assert.True(t, conn.Connected())
	assert.NoError(t, firstMock.ExpectationsWereMet())
	assert.NoError(t, secondMock.ExpectationsWereMet())
}

func TestConnectFailures(t *testing.T) {
	t.Run("open fails", func(t *testing.T) {
		cause := errors.New("no such host")
		conn := NewConnection(testParams, WithOpener(func(context.Context, Params) (*sql.DB, error) {
			return nil, cause
		}))

		err := conn.Connect(context.Background())

		var connErr *ConnectionError
		require.ErrorAs(t, err, &connErr)
		assert.Equal(t, "open", connErr.Op)
		assert.Equal(t, "xy12345", connErr.Account)
		assert.ErrorIs(t, err, cause)
		assert.False(t, conn.Connected())
	})

	t.Run("credentials rejected", func(t *testing.T) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		mock.ExpectPing().WillReturnError(errors.New("390100: Incorrect username or password"))
		mock.ExpectClose()

		conn := NewConnection(testParams, WithOpener(func(context.Context, Params) (*sql.DB, error) {
			return db, nil
		}))

		_, err = conn.Root(context.Background())

		var connErr *ConnectionError
		require.ErrorAs(t, err, &connErr)
		assert.Equal(t, "ping", connErr.Op)
		assert.False(t, conn.Connected())
		assert.NoError(t, conn.Close())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRootServiceValidatesIdentifiers(t *testing.T) {
	root := NewRoot(nil)

	svc, err := root.Service("MEDICAL_CORTEX_SEARCH_APP", "DATA", "CC_SEARCH_SERVICE_CS")
	require.NoError(t, err)
	assert.Equal(t, "MEDICAL_CORTEX_SEARCH_APP.DATA.CC_SEARCH_SERVICE_CS", svc.QualifiedName())

	_, err = root.Service("DB", "DATA; DROP TABLE x", "SVC")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
}

func TestSearchServiceSearch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc, err := NewRoot(db).Service("DB", "DATA", "SVC")
	require.NoError(t, err)

	req := SearchRequest{
		Query:   "bike's lubricant",
		Columns: []string{"chunk", "relative_path", "category"},
		Filter:  Eq("category", "Bikes"),
		Limit:   3,
	}
	want := `SELECT SNOWFLAKE.CORTEX.SEARCH_PREVIEW('DB.DATA.SVC', ` +
		`'{"query":"bike''s lubricant","columns":["chunk","relative_path","category"],"filter":{"@eq":{"category":"Bikes"}},"limit":3}') AS RESULTS`

	mock.ExpectQuery(regexp.QuoteMeta(want)).WillReturnRows(
		sqlmock.NewRows([]string{"RESULTS"}).
			AddRow(`{"results":[{"chunk":"Use ceramic lube.","relative_path":"premium_bike.pdf","category":"Bikes"}],"request_id":"r-1"}`),
	)

	resp, err := svc.Search(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "premium_bike.pdf", resp.Results[0]["relative_path"])
	assert.Equal(t, "r-1", resp.RequestID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchServiceOmitsEmptyFilter(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	svc, err := NewRoot(db).Service("DB", "DATA", "SVC")
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`'{"query":"q","columns":["chunk"],"limit":3}'`)).
		WillReturnError(errors.New("service suspended"))

	_, err = svc.Search(context.Background(), SearchRequest{Query: "q", Columns: []string{"chunk"}, Limit: 3})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListStage(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("LIST @data.docs")).WillReturnRows(
		sqlmock.NewRows([]string{"name", "size", "md5", "last_modified"}).
			AddRow("docs/premium_bike.pdf", 10240, "abc", "Mon, 1 Jan 2024 00:00:00 GMT").
			AddRow("docs/ski_boots.docx", 2048, "def", "Tue, 2 Jan 2024 00:00:00 GMT"),
	)

	files, err := ListStage(context.Background(), db, "data.docs")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "docs/premium_bike.pdf", files[0].Name)
	assert.Equal(t, "10240", files[0].Size)

	_, err = ListStage(context.Background(), db, "docs; rm")
	assert.ErrorIs(t, err, ErrInvalidIdentifier)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDistinctValues(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT category FROM data.docs_chunks_table GROUP BY category")).
		WillReturnRows(sqlmock.NewRows([]string{"category"}).AddRow("Bikes").AddRow(nil).AddRow("Snow"))

	values, err := DistinctValues(context.Background(), db, "data.docs_chunks_table", "category")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bikes", "Snow"}, values)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPresignedURL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT GET_PRESIGNED_URL(@docs, ?, ?) AS URL_LINK")).
		WithArgs("premium_bike.pdf", 360).
		WillReturnRows(sqlmock.NewRows([]string{"URL_LINK"}).AddRow("https://stage.example/premium_bike.pdf?sig=1"))

	url, err := PresignedURL(context.Background(), db, "docs", "premium_bike.pdf", 360)
	require.NoError(t, err)
	assert.Equal(t, "https://stage.example/premium_bike.pdf?sig=1", url)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuoteLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "'plain'"},
		{in: "it's", want: "'it''s'"},
		{in: `back\slash`, want: `'back\\slash'`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, QuoteLiteral(tt.in))
		})
	}
}
