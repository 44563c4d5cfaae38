package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// MockObject is a stored object held by MockAPI.
type MockObject struct {
	Key          string
	Body         []byte
	LastModified *time.Time
}

// MockAPI implements API over an in-memory bucket for testing.
type MockAPI struct {
	Bucket  string
	Objects []MockObject
	// PageSize splits listings into pages; zero returns everything at once.
	PageSize int

	// Function overrides for custom behavior
	ListObjectsV2Func func(ctx context.Context, params *s3.ListObjectsV2Input) (*s3.ListObjectsV2Output, error)
	GetObjectFunc     func(ctx context.Context, params *s3.GetObjectInput) (*s3.GetObjectOutput, error)

	ListCalls int
	GetCalls  []string
}

func (m *MockAPI) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	m.ListCalls++
	if m.ListObjectsV2Func != nil {
		return m.ListObjectsV2Func(ctx, params)
	}
	if err := m.checkBucket(params.Bucket); err != nil {
		return nil, err
	}

	prefix := aws.ToString(params.Prefix)
	var matched []MockObject
	for _, obj := range m.Objects {
		if strings.HasPrefix(obj.Key, prefix) {
			matched = append(matched, obj)
		}
	}
	// S3 lists keys in lexical order.
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Key < matched[j].Key })

	start := 0
	if token := aws.ToString(params.ContinuationToken); token != "" {
		n, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("invalid continuation token %q", token)
		}
		start = n
	}
	end := len(matched)
	if m.PageSize > 0 && start+m.PageSize < end {
		end = start + m.PageSize
	}

	out := &s3.ListObjectsV2Output{KeyCount: aws.Int32(int32(end - start))}
	for _, obj := range matched[start:end] {
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(obj.Key),
			LastModified: obj.LastModified,
		})
	}
	if end < len(matched) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(strconv.Itoa(end))
	} else {
		out.IsTruncated = aws.Bool(false)
	}
	return out, nil
}

func (m *MockAPI) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(params.Key)
	m.GetCalls = append(m.GetCalls, key)
	if m.GetObjectFunc != nil {
		return m.GetObjectFunc(ctx, params)
	}
	if err := m.checkBucket(params.Bucket); err != nil {
		return nil, err
	}
	for _, obj := range m.Objects {
		if obj.Key == key {
			return &s3.GetObjectOutput{
				Body:          io.NopCloser(bytes.NewReader(obj.Body)),
				ContentLength: aws.Int64(int64(len(obj.Body))),
				LastModified:  obj.LastModified,
			}, nil
		}
	}
	return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
}

func (m *MockAPI) checkBucket(bucket *string) error {
	if m.Bucket != "" && aws.ToString(bucket) != m.Bucket {
		return &types.NoSuchBucket{Message: aws.String("The specified bucket does not exist")}
	}
	return nil
}
