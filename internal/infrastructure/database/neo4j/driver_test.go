package neo4j

import (
	"context"
	"errors"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/turtacn/ScaffoldNet/pkg/errors"
)

type mockDriver struct {
	mock.Mock
}

func (m *mockDriver) VerifyConnectivity(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockDriver) NewSession(ctx context.Context, cfg neo4j.SessionConfig) internalSession {
	return m.Called(ctx, cfg).Get(0).(internalSession)
}

func (m *mockDriver) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockSession struct {
	mock.Mock
	tx Transaction
}

func (m *mockSession) ExecuteRead(ctx context.Context, work TransactionWork) (any, error) {
	return work(m.tx)
}

func (m *mockSession) ExecuteWrite(ctx context.Context, work TransactionWork) (any, error) {
	return work(m.tx)
}

func (m *mockSession) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type stubTx struct {
	result Result
	err    error
	cypher []string
}

func (t *stubTx) Run(_ context.Context, cypher string, _ map[string]any) (Result, error) {
	t.cypher = append(t.cypher, cypher)
	return t.result, t.err
}

type sliceResult struct {
	records []*neo4j.Record
	pos     int
	err     error
}

func (r *sliceResult) Next(context.Context) bool {
	if r.pos >= len(r.records) {
		return false
	}
	r.pos++
	return true
}

func (r *sliceResult) Record() *neo4j.Record { return r.records[r.pos-1] }
func (r *sliceResult) Err() error            { return r.err }
func (r *sliceResult) Consume(context.Context) (neo4j.ResultSummary, error) {
	return nil, nil
}

func TestDriver_HealthCheck(t *testing.T) {
	md := new(mockDriver)
	tx := &stubTx{result: &sliceResult{records: []*neo4j.Record{{Keys: []string{"health"}, Values: []any{int64(1)}}}}}
	sess := &mockSession{tx: tx}
	d := newDriver(md, "", nil)

	md.On("VerifyConnectivity", mock.Anything).Return(nil)
	md.On("NewSession", mock.Anything, neo4j.SessionConfig{DatabaseName: "neo4j", AccessMode: neo4j.AccessModeRead}).Return(sess)
	sess.On("Close", mock.Anything).Return(nil)

	require.NoError(t, d.HealthCheck(context.Background()))
	assert.Equal(t, []string{"RETURN 1 AS health"}, tx.cypher)
	md.AssertExpectations(t)
	sess.AssertExpectations(t)
}

func TestDriver_HealthCheck_Unreachable(t *testing.T) {
	md := new(mockDriver)
	md.On("VerifyConnectivity", mock.Anything).Return(errors.New("refused"))
	err := newDriver(md, "graph", nil).HealthCheck(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
}

func TestDriver_ExecuteWrite_WrapsError(t *testing.T) {
	md := new(mockDriver)
	sess := &mockSession{tx: &stubTx{err: errors.New("syntax error")}}
	md.On("NewSession", mock.Anything, neo4j.SessionConfig{DatabaseName: "graph", AccessMode: neo4j.AccessModeWrite}).Return(sess)
	sess.On("Close", mock.Anything).Return(nil)

	d := newDriver(md, "graph", nil)
	_, err := d.ExecuteWrite(context.Background(), func(tx Transaction) (any, error) {
		return tx.Run(context.Background(), "MERGE (n)", nil)
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeDatabaseError))
	sess.AssertExpectations(t)
}

func TestDriver_CloseOnce(t *testing.T) {
	md := new(mockDriver)
	md.On("Close", mock.Anything).Return(nil).Once()
	d := newDriver(md, "", nil)
	require.NoError(t, d.Close(context.Background()))
	require.NoError(t, d.Close(context.Background()))
	md.AssertExpectations(t)
}

func TestCollectRecords(t *testing.T) {
	res := &sliceResult{records: []*neo4j.Record{
		{Keys: []string{"k"}, Values: []any{"a"}},
		{Keys: []string{"k"}, Values: []any{"b"}},
	}}
	got, err := CollectRecords(context.Background(), res, func(r *neo4j.Record) (string, error) {
		return r.Values[0].(string), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	_, err = CollectRecords(context.Background(), &sliceResult{err: errors.New("boom")}, func(*neo4j.Record) (string, error) {
		return "", nil
	})
	assert.EqualError(t, err, "boom")
}

//Personal.AI order the ending
