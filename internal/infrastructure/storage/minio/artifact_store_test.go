package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/ScaffoldNet/internal/config"
	"github.com/turtacn/ScaffoldNet/internal/domain/scaffold"
	pkgerrors "github.com/turtacn/ScaffoldNet/pkg/errors"
)

type MockMinIOAPI struct {
	mock.Mock
	uploaded []byte
}

func (m *MockMinIOAPI) ListBuckets(ctx context.Context) ([]minio.BucketInfo, error) {
	args := m.Called(ctx)
	return nil, args.Error(0)
}

func (m *MockMinIOAPI) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockMinIOAPI) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucketName, opts).Error(0)
}

func (m *MockMinIOAPI) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	m.uploaded, _ = io.ReadAll(reader)
	args := m.Called(ctx, bucketName, objectName, objectSize, opts)
	return minio.UploadInfo{Bucket: bucketName, Key: objectName, Size: objectSize}, args.Error(0)
}

func (m *MockMinIOAPI) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return io.NopCloser(bytes.NewReader(args.Get(0).([]byte))), args.Error(1)
}

func (m *MockMinIOAPI) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	return minio.ObjectInfo{Key: objectName}, args.Error(0)
}

func (m *MockMinIOAPI) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	return m.Called(ctx, bucketName, objectName, opts).Error(0)
}

func (m *MockMinIOAPI) PresignedGetObject(ctx context.Context, bucketName, objectName string, expiry time.Duration, reqParams url.Values) (*url.URL, error) {
	args := m.Called(ctx, bucketName, objectName, expiry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*url.URL), args.Error(1)
}

type ArtifactStoreTestSuite struct {
	suite.Suite
	api    *MockMinIOAPI
	client *Client
	store  *NetworkArtifactStore
	rec    *scaffold.NetworkRecord
}

func (s *ArtifactStoreTestSuite) SetupTest() {
	s.api = new(MockMinIOAPI)
	s.client = NewClientWithAPI(s.api, config.MinIOConfig{BucketName: "nets", ObjectPrefix: "networks/"}, nil)
	s.store = NewNetworkArtifactStore(s.client, nil)

	net := scaffold.NewNetwork()
	net.Nodes = []scaffold.CanonicalKey{"c1ccccc1CC1CCCCC1", "*C1CCCCC1"}
	net.Counts = []int{1, 1}
	net.Edges = []scaffold.Edge{{BeginIdx: 0, EndIdx: 1, Type: scaffold.FragmentEdge}}
	rec, err := scaffold.NewNetworkRecord([]string{"c1ccccc1CC1CCCCC1"}, scaffold.DefaultParams(), net)
	s.Require().NoError(err)
	s.rec = rec
}

func (s *ArtifactStoreTestSuite) TestExportNetwork() {
	name := "networks/" + s.rec.ID + ".json"
	s.api.On("PutObject", mock.Anything, "nets", name, mock.AnythingOfType("int64"),
		mock.MatchedBy(func(o minio.PutObjectOptions) bool {
			return o.ContentType == "application/json" && o.UserMetadata["fingerprint"] == s.rec.Fingerprint
		})).Return(nil)

	loc, err := s.store.ExportNetwork(context.Background(), s.rec)
	s.Require().NoError(err)
	s.Equal("nets/"+name, loc)

	var got scaffold.NetworkRecord
	s.Require().NoError(json.Unmarshal(s.api.uploaded, &got))
	s.Equal(s.rec.Network.Nodes, got.Network.Nodes)
	s.api.AssertExpectations(s.T())
}

func (s *ArtifactStoreTestSuite) TestExportNetwork_Failure() {
	s.api.On("PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("denied"))
	_, err := s.store.ExportNetwork(context.Background(), s.rec)
	s.True(pkgerrors.IsCode(err, pkgerrors.ErrCodeExternalService))

	_, err = s.store.ExportNetwork(context.Background(), nil)
	s.True(pkgerrors.IsCode(err, pkgerrors.CodeInvalidParam))
}

func (s *ArtifactStoreTestSuite) TestLoadNetwork() {
	body, err := json.Marshal(s.rec)
	s.Require().NoError(err)
	s.api.On("GetObject", mock.Anything, "nets", "networks/"+s.rec.ID+".json", mock.Anything).Return(body, nil)

	got, err := s.store.LoadNetwork(context.Background(), s.rec.ID)
	s.Require().NoError(err)
	s.Equal(s.rec.ID, got.ID)
	idx, ok := got.Network.NodeIndex("*C1CCCCC1")
	s.True(ok)
	s.Equal(1, idx)
}

func (s *ArtifactStoreTestSuite) TestLoadNetwork_NotFound() {
	s.api.On("GetObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, minio.ErrorResponse{Code: "NoSuchKey"})
	_, err := s.store.LoadNetwork(context.Background(), "missing")
	s.True(pkgerrors.IsNotFound(err))
}

func (s *ArtifactStoreTestSuite) TestExists() {
	s.api.On("StatObject", mock.Anything, "nets", "networks/a.json", mock.Anything).Return(nil).Once()
	s.api.On("StatObject", mock.Anything, "nets", "networks/b.json", mock.Anything).Return(minio.ErrorResponse{Code: "NoSuchKey"}).Once()
	s.api.On("StatObject", mock.Anything, "nets", "networks/c.json", mock.Anything).Return(errors.New("timeout")).Once()

	ok, err := s.store.Exists(context.Background(), "a")
	s.NoError(err)
	s.True(ok)
	ok, err = s.store.Exists(context.Background(), "b")
	s.NoError(err)
	s.False(ok)
	_, err = s.store.Exists(context.Background(), "c")
	s.Error(err)
}

func (s *ArtifactStoreTestSuite) TestDelete() {
	s.api.On("RemoveObject", mock.Anything, "nets", "networks/a.json", mock.Anything).Return(nil)
	s.NoError(s.store.Delete(context.Background(), "a"))
}

func (s *ArtifactStoreTestSuite) TestClosedClient() {
	s.Require().NoError(s.client.Close())
	_, err := s.store.ExportNetwork(context.Background(), s.rec)
	s.ErrorIs(err, ErrMinIOClientClosed)
	_, err = s.store.LoadNetwork(context.Background(), s.rec.ID)
	s.ErrorIs(err, ErrMinIOClientClosed)
}

func TestArtifactStoreSuite(t *testing.T) {
	suite.Run(t, new(ArtifactStoreTestSuite))
}

func TestClient_EnsureBucket(t *testing.T) {
	api := new(MockMinIOAPI)
	c := NewClientWithAPI(api, config.MinIOConfig{Region: "eu-west-1"}, nil)
	assert.Equal(t, config.DefaultMinIOBucket, c.Bucket())

	api.On("BucketExists", mock.Anything, config.DefaultMinIOBucket).Return(false, nil).Once()
	api.On("MakeBucket", mock.Anything, config.DefaultMinIOBucket, minio.MakeBucketOptions{Region: "eu-west-1"}).Return(nil).Once()
	require.NoError(t, c.EnsureBucket(context.Background()))

	api.On("BucketExists", mock.Anything, config.DefaultMinIOBucket).Return(true, nil).Once()
	require.NoError(t, c.EnsureBucket(context.Background()))
	api.AssertExpectations(t)
}

func TestClient_HealthCheck(t *testing.T) {
	api := new(MockMinIOAPI)
	c := NewClientWithAPI(api, config.MinIOConfig{BucketName: "nets"}, nil)

	api.On("ListBuckets", mock.Anything).Return(nil)
	api.On("BucketExists", mock.Anything, "nets").Return(false, nil)
	err := c.HealthCheck(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeServiceUnavailable))
}

func TestClient_PresignedGetURL(t *testing.T) {
	api := new(MockMinIOAPI)
	c := NewClientWithAPI(api, config.MinIOConfig{BucketName: "nets", PresignExpiry: 5 * time.Minute}, nil)
	u, _ := url.Parse("http://minio/nets/a.json?sig=1")
	api.On("PresignedGetObject", mock.Anything, "nets", "a.json", 5*time.Minute).Return(u, nil)

	got, err := c.PresignedGetURL(context.Background(), "a.json", 0)
	require.NoError(t, err)
	assert.Equal(t, "http://minio/nets/a.json?sig=1", got)
}

//Personal.AI order the ending
