package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/ScaffoldNet/internal/domain/scaffold"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/database/postgres"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/ScaffoldNet/pkg/errors"
)

type NetworkRepoTestSuite struct {
	suite.Suite
	db   *sql.DB
	mock sqlmock.Sqlmock
	repo *NetworkRepository
}

func (s *NetworkRepoTestSuite) SetupTest() {
	var err error
	s.db, s.mock, err = sqlmock.New()
	require.NoError(s.T(), err)

	log := logging.NewNopLogger()
	s.repo = NewNetworkRepository(postgres.NewConnectionWithDB(s.db, log), log, nil)
}

func (s *NetworkRepoTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.db.Close()
}

func testRecord(t require.TestingT) *scaffold.NetworkRecord {
	net := scaffold.NewNetwork()
	net.Nodes = []scaffold.CanonicalKey{"C1CC1", "*C1CC1"}
	net.Counts = []int{1, 1}
	net.Edges = []scaffold.Edge{{BeginIdx: 0, EndIdx: 1, Type: scaffold.GenericEdge}}
	rec, err := scaffold.NewNetworkRecord([]string{"C1CC1"}, scaffold.DefaultParams(), net)
	require.NoError(t, err)
	return rec
}

func recordRow(rec *scaffold.NetworkRecord) *sqlmock.Rows {
	inputs, _ := json.Marshal(rec.Inputs)
	params, _ := json.Marshal(rec.Params)
	network, _ := json.Marshal(rec.Network)
	return sqlmock.NewRows([]string{"id", "fingerprint", "inputs", "params", "network", "created_at"}).
		AddRow(rec.ID, rec.Fingerprint, inputs, params, network, rec.CreatedAt)
}

func (s *NetworkRepoTestSuite) TestSave_Success() {
	rec := testRecord(s.T())

	s.mock.ExpectBegin()
	s.mock.ExpectExec("INSERT INTO scaffold_networks").
		WithArgs(rec.ID, rec.Fingerprint, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 2, 1, rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec(`INSERT INTO scaffold_nodes .* VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\), \(\$7`).
		WithArgs(rec.ID, 0, "C1CC1", 1, 3, false, rec.ID, 1, "*C1CC1", 1, 4, false).
		WillReturnResult(sqlmock.NewResult(0, 2))
	s.mock.ExpectCommit()

	s.NoError(s.repo.Save(context.Background(), rec))
}

func (s *NetworkRepoTestSuite) TestSave_Conflict() {
	rec := testRecord(s.T())

	s.mock.ExpectBegin()
	s.mock.ExpectExec("INSERT INTO scaffold_networks").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key"})
	s.mock.ExpectRollback()

	err := s.repo.Save(context.Background(), rec)
	s.True(pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func (s *NetworkRepoTestSuite) TestSave_NodeInsertFailureRollsBack() {
	rec := testRecord(s.T())

	s.mock.ExpectBegin()
	s.mock.ExpectExec("INSERT INTO scaffold_networks").WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectExec("INSERT INTO scaffold_nodes").WillReturnError(sql.ErrConnDone)
	s.mock.ExpectRollback()

	err := s.repo.Save(context.Background(), rec)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
}

func (s *NetworkRepoTestSuite) TestSave_NilRecord() {
	err := s.repo.Save(context.Background(), nil)
	s.True(pkgerrors.IsCode(err, pkgerrors.CodeInvalidParam))
}

func (s *NetworkRepoTestSuite) TestFindByID_Found() {
	rec := testRecord(s.T())
	s.mock.ExpectQuery("SELECT .* FROM scaffold_networks WHERE id =").
		WithArgs(rec.ID).
		WillReturnRows(recordRow(rec))

	got, err := s.repo.FindByID(context.Background(), rec.ID)
	s.Require().NoError(err)
	s.Equal(rec.ID, got.ID)
	s.Equal(rec.Inputs, got.Inputs)
	s.Equal(rec.Params, got.Params)
	s.Equal(rec.Network.Nodes, got.Network.Nodes)
	s.Equal(rec.Network.Edges, got.Network.Edges)
	idx, ok := got.Network.NodeIndex("*C1CC1")
	s.True(ok)
	s.Equal(1, idx)
}

func (s *NetworkRepoTestSuite) TestFindByID_NotFound() {
	id := uuid.New().String()
	s.mock.ExpectQuery("SELECT .* FROM scaffold_networks WHERE id =").
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := s.repo.FindByID(context.Background(), id)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeNetworkNotFound))
	s.True(pkgerrors.IsNotFound(err))
}

func (s *NetworkRepoTestSuite) TestFindByID_InvalidID() {
	_, err := s.repo.FindByID(context.Background(), "not-a-uuid")
	s.True(pkgerrors.IsCode(err, pkgerrors.CodeInvalidParam))
}

func (s *NetworkRepoTestSuite) TestFindByFingerprint() {
	rec := testRecord(s.T())
	s.mock.ExpectQuery("SELECT .* FROM scaffold_networks WHERE fingerprint = .* ORDER BY created_at DESC LIMIT 1").
		WithArgs(rec.Fingerprint).
		WillReturnRows(recordRow(rec))

	got, err := s.repo.FindByFingerprint(context.Background(), rec.Fingerprint)
	s.Require().NoError(err)
	s.Equal(rec.ID, got.ID)
}

func (s *NetworkRepoTestSuite) TestList_DefaultsLimit() {
	a, b := testRecord(s.T()), testRecord(s.T())
	rows := recordRow(a)
	inputs, _ := json.Marshal(b.Inputs)
	params, _ := json.Marshal(b.Params)
	network, _ := json.Marshal(b.Network)
	rows.AddRow(b.ID, b.Fingerprint, inputs, params, network, b.CreatedAt.Add(-time.Minute))

	s.mock.ExpectQuery("SELECT .* FROM scaffold_networks ORDER BY created_at DESC LIMIT").
		WithArgs(20, 0).
		WillReturnRows(rows)

	got, err := s.repo.List(context.Background(), 0, -3)
	s.Require().NoError(err)
	s.Len(got, 2)
	s.Equal(a.ID, got[0].ID)
	s.Equal(b.ID, got[1].ID)
}

func (s *NetworkRepoTestSuite) TestDelete() {
	id := uuid.New().String()
	s.mock.ExpectExec("DELETE FROM scaffold_networks WHERE id =").WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	s.NoError(s.repo.Delete(context.Background(), id))

	s.mock.ExpectExec("DELETE FROM scaffold_networks WHERE id =").WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := s.repo.Delete(context.Background(), id)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeNetworkNotFound))
}

func (s *NetworkRepoTestSuite) TestCount() {
	s.mock.ExpectQuery(`SELECT COUNT\(\*\) FROM scaffold_networks`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(7)))

	n, err := s.repo.Count(context.Background())
	s.Require().NoError(err)
	s.Equal(int64(7), n)
}

func (s *NetworkRepoTestSuite) TestSearchByKey() {
	netID := uuid.New().String()
	s.mock.ExpectQuery("SELECT .* FROM scaffold_nodes n .* WHERE n.key =").
		WithArgs("*C1CC1", 5).
		WillReturnRows(sqlmock.NewRows([]string{"network_id", "idx", "key", "count", "num_atoms", "generic"}).
			AddRow(netID, 1, "*C1CC1", 2, 4, false))

	got, err := s.repo.SearchByKey(context.Background(), "*C1CC1", 5)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(scaffold.ScaffoldNode{NetworkID: netID, Index: 1, Key: "*C1CC1", Count: 2, NumAtoms: 4}, got[0])
}

func (s *NetworkRepoTestSuite) TestIndexNetworkIsNoop() {
	s.NoError(s.repo.IndexNetwork(context.Background(), testRecord(s.T())))
}

func TestNetworkRepoSuite(t *testing.T) {
	suite.Run(t, new(NetworkRepoTestSuite))
}

//Personal.AI order the ending
