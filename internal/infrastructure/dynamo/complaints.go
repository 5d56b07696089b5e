package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/grievance-portal/api/internal/domain"
)

// ComplaintRepo provides typed DynamoDB operations for the complaints table.
type ComplaintRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewComplaintRepo(client *dynamodb.Client, tableName string) *ComplaintRepo {
	return &ComplaintRepo{client: client, tableName: tableName}
}

func (r *ComplaintRepo) Put(ctx context.Context, c *domain.Complaint) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal complaint: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *ComplaintRepo) Get(ctx context.Context, complaintID string) (*domain.Complaint, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("complaint_id", complaintID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("complaint not found: %w", domain.ErrNotFound)
	}
	var c domain.Complaint
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ComplaintRepo) Update(ctx context.Context, complaintID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("complaint_id", complaintID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// AppendAttachment adds an S3 object key to the complaint's attachment list.
func (r *ComplaintRepo) AppendAttachment(ctx context.Context, complaintID, objectKey string) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("complaint_id", complaintID),
		UpdateExpression: aws.String("SET attachments = list_append(if_not_exists(attachments, :empty), :a), updated_at = :u"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberL{Value: []types.AttributeValue{
				&types.AttributeValueMemberS{Value: objectKey},
			}},
			":empty": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
			":u":     &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
		},
	})
	return err
}

// ListByUser returns a citizen's complaints, newest first.
func (r *ComplaintRepo) ListByUser(ctx context.Context, userID string) ([]domain.Complaint, error) {
	return r.queryIndex(ctx, "user_id-created_at-index", "user_id", userID)
}

// ListByDepartment returns a department's complaints, newest first.
func (r *ComplaintRepo) ListByDepartment(ctx context.Context, departmentID string) ([]domain.Complaint, error) {
	return r.queryIndex(ctx, "department_id-created_at-index", "department_id", departmentID)
}

func (r *ComplaintRepo) queryIndex(ctx context.Context, index, attr, value string) ([]domain.Complaint, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, err
	}
	var cs []domain.Complaint
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &cs); err != nil {
		return nil, err
	}
	return cs, nil
}
