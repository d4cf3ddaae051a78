package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/ScaffoldNet/internal/domain/scaffold"
	"github.com/turtacn/ScaffoldNet/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ScaffoldNet/pkg/errors"
)

const jsonContentType = "application/json"

// NetworkArtifactStore exports network records as JSON documents.
type NetworkArtifactStore struct {
	client *Client
	logger logging.Logger
}

// NewNetworkArtifactStore returns a store writing into the client's bucket.
func NewNetworkArtifactStore(client *Client, log logging.Logger) *NetworkArtifactStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &NetworkArtifactStore{client: client, logger: log}
}

// ObjectName returns the object key for network id.
func (s *NetworkArtifactStore) ObjectName(id string) string {
	return path.Join(s.client.config.ObjectPrefix, id+".json")
}

// ExportNetwork writes rec and returns "bucket/object".
func (s *NetworkArtifactStore) ExportNetwork(ctx context.Context, rec *scaffold.NetworkRecord) (string, error) {
	if err := s.client.checkOpen(); err != nil {
		return "", err
	}
	if rec == nil || rec.Network == nil {
		return "", errors.InvalidParam("network record must not be nil")
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode network record")
	}

	name := s.ObjectName(rec.ID)
	_, err = s.client.api.PutObject(ctx, s.client.Bucket(), name, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: jsonContentType,
		UserMetadata: map[string]string{
			"fingerprint": rec.Fingerprint,
		},
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "failed to upload network").WithDetail(name)
	}

	location := s.client.Bucket() + "/" + name
	s.logger.Debug("exported network",
		logging.String("network_id", rec.ID),
		logging.String("location", location),
		logging.Int("bytes", len(body)))
	return location, nil
}

// LoadNetwork reads back an exported record.
func (s *NetworkArtifactStore) LoadNetwork(ctx context.Context, id string) (*scaffold.NetworkRecord, error) {
	if err := s.client.checkOpen(); err != nil {
		return nil, err
	}
	name := s.ObjectName(id)
	obj, err := s.client.api.GetObject(ctx, s.client.Bucket(), name, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translate(err, id)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.translate(err, id)
	}
	var rec scaffold.NetworkRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode network record").WithDetail(name)
	}
	return &rec, nil
}

// Exists reports whether network id has been exported.
func (s *NetworkArtifactStore) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.client.api.StatObject(ctx, s.client.Bucket(), s.ObjectName(id), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNoSuchKey(err) {
		return false, nil
	}
	return false, errors.Wrap(err, errors.ErrCodeExternalService, "failed to stat network")
}

// Delete removes the export of network id.
func (s *NetworkArtifactStore) Delete(ctx context.Context, id string) error {
	if err := s.client.api.RemoveObject(ctx, s.client.Bucket(), s.ObjectName(id), minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to delete network export")
	}
	return nil
}

func (s *NetworkArtifactStore) translate(err error, id string) error {
	if isNoSuchKey(err) {
		return errors.New(errors.ErrCodeNetworkNotFound, "network export not found").WithDetail(id)
	}
	return errors.Wrap(err, errors.ErrCodeExternalService, "failed to download network")
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

var _ scaffold.ArtifactStore = (*NetworkArtifactStore)(nil)

//Personal.AI order the ending
