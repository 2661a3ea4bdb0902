package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/forPelevin/topiccut/internal/types"
)

const (
	attrClip    = "VideoName"
	attrIndex   = "Index"
	attrCreated = "createdAt"
	attrVersion = "version"
)

type client interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// Store keeps highlight records in a table keyed by (VideoName, Index).
type Store struct {
	client client
	table  string
}

func New(client client, table string) *Store {
	return &Store{client: client, table: table}
}

type item struct {
	VideoName  string `dynamodbav:"VideoName"`
	Index      string `dynamodbav:"Index"`
	Text       string `dynamodbav:"Text"`
	Question   string `dynamodbav:"Question"`
	VideoTitle string `dynamodbav:"VideoTitle,omitempty"`
	Owner      string `dynamodbav:"owner,omitempty"`
	CreatedAt  string `dynamodbav:"createdAt"`
	UpdatedAt  string `dynamodbav:"updatedAt"`
	Timeframes string `dynamodbav:"timeframes"`
	Segments   string `dynamodbav:"segments,omitempty"`
	Duration   *int   `dynamodbav:"duration,omitempty"`
	Phase      string `dynamodbav:"phase,omitempty"`
	Version    int    `dynamodbav:"version"`
}

func toItem(h types.Highlight) item {
	return item{
		VideoName:  h.Key.ClipID,
		Index:      h.Key.Index,
		Text:       h.Text,
		Question:   h.Question,
		VideoTitle: h.Title,
		Owner:      h.Owner,
		CreatedAt:  h.CreatedAt,
		UpdatedAt:  h.UpdatedAt,
		Timeframes: h.Timeframes,
		Segments:   h.Segments,
		Duration:   h.Duration,
		Phase:      string(h.Phase),
		Version:    h.Version,
	}
}

func (it item) highlight() types.Highlight {
	return types.Highlight{
		Key:        types.HighlightKey{ClipID: it.VideoName, Index: it.Index},
		Question:   it.Question,
		Text:       it.Text,
		Title:      it.VideoTitle,
		Segments:   it.Segments,
		Timeframes: it.Timeframes,
		Duration:   it.Duration,
		Phase:      types.Phase(it.Phase),
		Version:    it.Version,
		Owner:      it.Owner,
		CreatedAt:  it.CreatedAt,
		UpdatedAt:  it.UpdatedAt,
	}
}

func keyOf(k types.HighlightKey) map[string]ddbtypes.AttributeValue {
	return map[string]ddbtypes.AttributeValue{
		attrClip:  &ddbtypes.AttributeValueMemberS{Value: k.ClipID},
		attrIndex: &ddbtypes.AttributeValueMemberS{Value: k.Index},
	}
}

func (s *Store) PutHighlight(ctx context.Context, h types.Highlight) error {
	av, err := attributevalue.MarshalMap(toItem(h))
	if err != nil {
		return fmt.Errorf("marshal highlight %s: %w", h.Key, err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      av,
	}); err != nil {
		return fmt.Errorf("put highlight %s: %w", h.Key, err)
	}
	return nil
}

func (s *Store) GetHighlight(ctx context.Context, key types.HighlightKey) (types.Highlight, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            keyOf(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return types.Highlight{}, fmt.Errorf("get highlight %s: %w", key, err)
	}
	if len(out.Item) == 0 {
		return types.Highlight{}, fmt.Errorf("highlight %s: %w", key, types.ErrNotFound)
	}
	var it item
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return types.Highlight{}, fmt.Errorf("unmarshal highlight %s: %w", key, err)
	}
	return it.highlight(), nil
}

// UpdateHighlight sets every non-key attribute of h, conditioned on the stored
// version still being expectedVersion.
func (s *Store) UpdateHighlight(ctx context.Context, h types.Highlight, expectedVersion int) error {
	in, err := s.updateInput(h, expectedVersion)
	if err != nil {
		return err
	}
	if _, err := s.client.UpdateItem(ctx, in); err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("highlight %s at version %d: %w", h.Key, expectedVersion, types.ErrVersionConflict)
		}
		return fmt.Errorf("update highlight %s: %w", h.Key, err)
	}
	return nil
}

func (s *Store) updateInput(h types.Highlight, expectedVersion int) (*dynamodb.UpdateItemInput, error) {
	av, err := attributevalue.MarshalMap(toItem(h))
	if err != nil {
		return nil, fmt.Errorf("marshal highlight %s: %w", h.Key, err)
	}
	delete(av, attrClip)
	delete(av, attrIndex)
	delete(av, attrCreated)

	names := make([]string, 0, len(av))
	for n := range av {
		names = append(names, n)
	}
	sort.Strings(names)

	exprNames := map[string]string{
		"#pk": attrClip,
		"#cv": attrVersion,
	}
	exprValues := map[string]ddbtypes.AttributeValue{
		":expected": &ddbtypes.AttributeValueMemberN{Value: strconv.Itoa(expectedVersion)},
	}
	sets := make([]string, 0, len(names))
	for i, n := range names {
		nk, vk := fmt.Sprintf("#a%d", i), fmt.Sprintf(":v%d", i)
		exprNames[nk] = n
		exprValues[vk] = av[n]
		sets = append(sets, nk+" = "+vk)
	}

	cond := "attribute_exists(#pk) AND #cv = :expected"
	if expectedVersion == 0 {
		// items written before versioning carry no version attribute
		cond = "attribute_exists(#pk) AND (attribute_not_exists(#cv) OR #cv = :expected)"
	}

	return &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       keyOf(h.Key),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeNames:  exprNames,
		ExpressionAttributeValues: exprValues,
	}, nil
}

func isConditionFailed(err error) bool {
	var ccf *ddbtypes.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException"
}
