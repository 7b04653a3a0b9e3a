package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/relevec/blobstore"
)

// PointerName is the blob name CommitStore routes through DynamoDB.
const PointerName = "CURRENT"

// ErrConcurrentModification is returned when a concurrent write is detected.
var ErrConcurrentModification = errors.New("concurrent modification detected")

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// CommitStore implements blobstore.BlobStore backed by another store with
// DynamoDB holding the CURRENT pointer. Every other blob goes to the base
// store unchanged.
//
// Each Put of CURRENT appends version n+1 with a conditional write, so two
// writers racing from the same version cannot both succeed.
//
// Table schema:
//   - Partition key: base_uri (string) - the bucket/prefix being guarded
//   - Sort key: version (number) - monotonically increasing version
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name relevec-commits \
//	  --attribute-definitions AttributeName=base_uri,AttributeType=S AttributeName=version,AttributeType=N \
//	  --key-schema AttributeName=base_uri,KeyType=HASH AttributeName=version,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
type CommitStore struct {
	base      blobstore.BlobStore
	ddbClient DDBClient
	tableName string
	baseURI   string
}

var _ blobstore.BlobStore = (*CommitStore)(nil)

// NewCommitStore creates a new commit store over base.
// The baseURI (e.g. "s3://bucket/prefix") is used as partition key.
func NewCommitStore(base blobstore.BlobStore, ddbClient DDBClient, tableName, baseURI string) *CommitStore {
	return &CommitStore{
		base:      base,
		ddbClient: ddbClient,
		tableName: tableName,
		baseURI:   baseURI,
	}
}

// Open opens a blob for reading. CURRENT is served from the latest committed version.
func (s *CommitStore) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	if name != PointerName {
		return s.base.Open(ctx, name)
	}
	version, target, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}
	if version == 0 {
		return nil, blobstore.ErrNotFound
	}
	return &pointerBlob{content: []byte(target)}, nil
}

// Put writes a blob. For CURRENT, uses a DynamoDB conditional write.
func (s *CommitStore) Put(ctx context.Context, name string, data []byte) error {
	if name != PointerName {
		return s.base.Put(ctx, name, data)
	}
	current, _, err := s.latest(ctx)
	if err != nil {
		return err
	}
	return s.commit(ctx, current+1, string(data))
}

// Delete deletes a blob. The commit history of CURRENT is never deleted.
func (s *CommitStore) Delete(ctx context.Context, name string) error {
	if name == PointerName {
		return nil
	}
	return s.base.Delete(ctx, name)
}

// List lists blobs with prefix.
func (s *CommitStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.base.List(ctx, prefix)
}

// Version returns the latest committed version, or 0 before the first commit.
func (s *CommitStore) Version(ctx context.Context) (uint64, error) {
	version, _, err := s.latest(ctx)
	return version, err
}

// latest queries DynamoDB for the latest committed version.
func (s *CommitStore) latest(ctx context.Context) (uint64, string, error) {
	resp, err := s.ddbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("base_uri = :uri"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uri": &types.AttributeValueMemberS{Value: s.baseURI},
		},
		ScanIndexForward: aws.Bool(false), // Descending order
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to query DynamoDB: %w", err)
	}

	if len(resp.Items) == 0 {
		return 0, "", nil
	}

	item := resp.Items[0]
	versionAttr, ok := item["version"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, "", errors.New("invalid version attribute in DynamoDB")
	}
	targetAttr, ok := item["target"].(*types.AttributeValueMemberS)
	if !ok {
		return 0, "", errors.New("invalid target attribute in DynamoDB")
	}

	version, err := strconv.ParseUint(versionAttr.Value, 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse version: %w", err)
	}

	return version, targetAttr.Value, nil
}

// commit writes version only if no writer has taken it yet.
func (s *CommitStore) commit(ctx context.Context, version uint64, target string) error {
	_, err := s.ddbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item: map[string]types.AttributeValue{
			"base_uri": &types.AttributeValueMemberS{Value: s.baseURI},
			"version":  &types.AttributeValueMemberN{Value: strconv.FormatUint(version, 10)},
			"target":   &types.AttributeValueMemberS{Value: target},
		},
		ConditionExpression: aws.String("attribute_not_exists(version)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrConcurrentModification
		}
		return fmt.Errorf("failed to commit version to DynamoDB: %w", err)
	}
	return nil
}

// pointerBlob is an in-memory blob for the CURRENT content.
type pointerBlob struct {
	content []byte
}

func (b *pointerBlob) Close() error {
	return nil
}

func (b *pointerBlob) Size() int64 {
	return int64(len(b.content))
}

func (b *pointerBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(b.content)) {
		return 0, io.EOF
	}
	n := copy(p, b.content[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
