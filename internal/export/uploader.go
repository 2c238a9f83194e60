package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/commerce-insights/internal/domain"
	"github.com/ignite/commerce-insights/internal/pkg/logger"
)

// ObjectPutter is the subset of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ManifestTable is the subset of the DynamoDB client used for manifests.
type ManifestTable interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Manifest records one completed upload. Items are keyed by segment and
// ordered by generation time.
type Manifest struct {
	PK          string `json:"-" dynamodbav:"PK"`
	SK          string `json:"-" dynamodbav:"SK"`
	SegmentID   string `json:"segment_id" dynamodbav:"SegmentID"`
	SegmentName string `json:"segment_name" dynamodbav:"SegmentName"`
	Bucket      string `json:"bucket" dynamodbav:"Bucket"`
	Key         string `json:"key" dynamodbav:"Key"`
	Rows        int    `json:"rows" dynamodbav:"Rows"`
	GeneratedAt string `json:"generated_at" dynamodbav:"GeneratedAt"`
}

func manifestPK(segmentID string) string { return "SEGMENT#" + segmentID }

// Uploader writes segment CSVs to S3 and records a manifest per upload.
type Uploader struct {
	objects   ObjectPutter
	table     ManifestTable
	bucket    string
	tableName string
	keys      *KeyRenderer
	now       func() time.Time
}

// NewUploader creates an uploader. A nil table or empty tableName skips
// manifests.
func NewUploader(objects ObjectPutter, table ManifestTable, bucket, tableName string, keys *KeyRenderer) *Uploader {
	return &Uploader{
		objects:   objects,
		table:     table,
		bucket:    bucket,
		tableName: tableName,
		keys:      keys,
		now:       time.Now,
	}
}

// Upload writes the members of s to S3 and returns the recorded manifest.
func (u *Uploader) Upload(ctx context.Context, s *domain.Segment, members []domain.Customer) (*Manifest, error) {
	generated := u.now().UTC()
	key, err := u.keys.Render(s, generated)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	rows, err := WriteCSV(&buf, members)
	if err != nil {
		return nil, err
	}

	_, err = u.objects.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return nil, fmt.Errorf("uploading export to s3://%s/%s: %w", u.bucket, key, err)
	}

	m := &Manifest{
		PK:          manifestPK(s.ID),
		SK:          generated.Format(time.RFC3339Nano),
		SegmentID:   s.ID,
		SegmentName: s.Name,
		Bucket:      u.bucket,
		Key:         key,
		Rows:        rows,
		GeneratedAt: generated.Format(time.RFC3339),
	}
	if u.table == nil || u.tableName == "" {
		return m, nil
	}

	av, err := attributevalue.MarshalMap(m)
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}
	if _, err := u.table.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(u.tableName),
		Item:      av,
	}); err != nil {
		// The object is already in S3 so the manifest is still returned.
		logger.Error("export manifest write failed", "segment_id", s.ID, "key", key, "error", err)
		return m, fmt.Errorf("putting manifest to DynamoDB: %w", err)
	}
	return m, nil
}

// Manifests lists uploads of a segment, newest first.
func (u *Uploader) Manifests(ctx context.Context, segmentID string) ([]Manifest, error) {
	if u.table == nil || u.tableName == "" {
		return []Manifest{}, nil
	}

	out, err := u.table.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(u.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: manifestPK(segmentID)},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("querying DynamoDB: %w", err)
	}

	manifests := make([]Manifest, 0, len(out.Items))
	for _, item := range out.Items {
		var m Manifest
		if err := attributevalue.UnmarshalMap(item, &m); err != nil {
			return nil, fmt.Errorf("unmarshaling manifest: %w", err)
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}
