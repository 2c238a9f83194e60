package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/commerce-insights/internal/domain"
)

var members = []domain.Customer{
	{CustomerID: "c1", Name: "Ann Lee", Phone: "555-0101", Email: "ann@example.com", Gender: domain.GenderFemale,
		DateOfBirth: time.Date(1990, 2, 3, 0, 0, 0, 0, time.UTC)},
	{CustomerID: "c2", Name: "Smith, Bob", Gender: domain.GenderMale},
}

// =============================================================================
// CSV
// =============================================================================

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteCSV(&buf, members)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Columns, records[0])
	assert.Equal(t, []string{"c1", "Ann Lee", "555-0101", "ann@example.com", "F", "1990-02-03"}, records[1])
	assert.Equal(t, []string{"c2", "Smith, Bob", "", "", "M", ""}, records[2])
}

func TestWriteCSV_HeaderOnlyForEmptySegment(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteCSV(&buf, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "customer_id,name,phone,email,gender,date_of_birth\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestWriteCSV_WriterError(t *testing.T) {
	_, err := WriteCSV(failingWriter{}, members)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

// =============================================================================
// KEY TEMPLATES
// =============================================================================

func TestKeyRenderer(t *testing.T) {
	seg := &domain.Segment{ID: "seg-1", Name: "Young Females (EU)"}
	at := time.Date(2024, 10, 23, 9, 30, 0, 0, time.FixedZone("CEST", 2*3600))

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"default", "", "segments/seg-1/20241023T073000Z.csv"},
		{"slug filter", "exports/{{ segment.name | slug }}.csv", "exports/young-females-eu.csv"},
		{"date filter", "{{ generated | date: '%Y/%m' }}/{{ segment.id }}.csv", "2024/10/seg-1.csv"},
		{"leading slash trimmed", "/x/{{ segment.id }}", "x/seg-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := NewKeyRenderer(tt.template)
			require.NoError(t, err)
			got, err := k.Render(seg, at)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyRenderer_InvalidTemplate(t *testing.T) {
	_, err := NewKeyRenderer("{% if %}")
	assert.Error(t, err)
}

func TestKeyRenderer_EmptyKey(t *testing.T) {
	k, err := NewKeyRenderer("{{ missing }}")
	require.NoError(t, err)
	_, err = k.Render(&domain.Segment{ID: "s"}, time.Now())
	assert.Error(t, err)
}

// =============================================================================
// UPLOADER
// =============================================================================

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, string(body))
	return &s3.PutObjectOutput{}, nil
}

type fakeTable struct {
	items  []map[string]types.AttributeValue
	putErr error
}

func (f *fakeTable) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.items = append(f.items, in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeTable) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	pk := in.ExpressionAttributeValues[":pk"].(*types.AttributeValueMemberS).Value
	var out []map[string]types.AttributeValue
	for i := len(f.items) - 1; i >= 0; i-- {
		if f.items[i]["PK"].(*types.AttributeValueMemberS).Value == pk {
			out = append(out, f.items[i])
		}
	}
	return &dynamodb.QueryOutput{Items: out}, nil
}

func newTestUploader(t *testing.T, objects ObjectPutter, table ManifestTable) *Uploader {
	t.Helper()
	keys, err := NewKeyRenderer("")
	require.NoError(t, err)
	u := NewUploader(objects, table, "exports-bucket", "segment-exports", keys)
	u.now = func() time.Time { return time.Date(2024, 10, 23, 12, 0, 0, 0, time.UTC) }
	return u
}

func TestUploader_UploadWritesObjectAndManifest(t *testing.T) {
	objects, table := &fakeS3{}, &fakeTable{}
	u := newTestUploader(t, objects, table)

	m, err := u.Upload(context.Background(), &domain.Segment{ID: "seg-1", Name: "VIP"}, members)
	require.NoError(t, err)

	require.Len(t, objects.inputs, 1)
	assert.Equal(t, "exports-bucket", aws.ToString(objects.inputs[0].Bucket))
	assert.Equal(t, "segments/seg-1/20241023T120000Z.csv", aws.ToString(objects.inputs[0].Key))
	assert.Equal(t, "text/csv", aws.ToString(objects.inputs[0].ContentType))
	assert.True(t, strings.HasPrefix(objects.bodies[0], "customer_id,name,phone,email,gender,date_of_birth\n"))

	assert.Equal(t, 2, m.Rows)
	require.Len(t, table.items, 1)
	var stored Manifest
	require.NoError(t, attributevalue.UnmarshalMap(table.items[0], &stored))
	assert.Equal(t, *m, stored)
	assert.Equal(t, "SEGMENT#seg-1", stored.PK)
}

func TestUploader_S3FailureSkipsManifest(t *testing.T) {
	objects, table := &fakeS3{err: errors.New("access denied")}, &fakeTable{}
	u := newTestUploader(t, objects, table)

	_, err := u.Upload(context.Background(), &domain.Segment{ID: "seg-1"}, members)
	require.Error(t, err)
	assert.Empty(t, table.items)
}

func TestUploader_ManifestFailureStillReturnsManifest(t *testing.T) {
	objects, table := &fakeS3{}, &fakeTable{putErr: errors.New("throttled")}
	u := newTestUploader(t, objects, table)

	m, err := u.Upload(context.Background(), &domain.Segment{ID: "seg-1"}, members)
	require.Error(t, err)
	require.NotNil(t, m)
	assert.Len(t, objects.inputs, 1)
}

func TestUploader_Manifests(t *testing.T) {
	objects, table := &fakeS3{}, &fakeTable{}
	u := newTestUploader(t, objects, table)
	ctx := context.Background()

	_, err := u.Upload(ctx, &domain.Segment{ID: "seg-1"}, members)
	require.NoError(t, err)
	u.now = func() time.Time { return time.Date(2024, 10, 24, 12, 0, 0, 0, time.UTC) }
	_, err = u.Upload(ctx, &domain.Segment{ID: "seg-1"}, members[:1])
	require.NoError(t, err)
	_, err = u.Upload(ctx, &domain.Segment{ID: "seg-2"}, nil)
	require.NoError(t, err)

	got, err := u.Manifests(ctx, "seg-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Rows)
	assert.Equal(t, "2024-10-24T12:00:00Z", got[0].GeneratedAt)
}

func TestUploader_WithoutTable(t *testing.T) {
	u := newTestUploader(t, &fakeS3{}, nil)

	m, err := u.Upload(context.Background(), &domain.Segment{ID: "seg-1"}, members)
	require.NoError(t, err)
	assert.Equal(t, "exports-bucket", m.Bucket)

	got, err := u.Manifests(context.Background(), "seg-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}
