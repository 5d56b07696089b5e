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

// DepartmentRepo provides typed DynamoDB operations for the departments table.
type DepartmentRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewDepartmentRepo(client *dynamodb.Client, tableName string) *DepartmentRepo {
	return &DepartmentRepo{client: client, tableName: tableName}
}

func (r *DepartmentRepo) Put(ctx context.Context, d *domain.Department) error {
	item, err := attributevalue.MarshalMap(d)
	if err != nil {
		return fmt.Errorf("marshal department: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *DepartmentRepo) Get(ctx context.Context, departmentID string) (*domain.Department, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("department_id", departmentID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("department not found: %w", domain.ErrNotFound)
	}
	var d domain.Department
	if err := attributevalue.UnmarshalMap(out.Item, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *DepartmentRepo) GetByCode(ctx context.Context, code string) (*domain.Department, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("code-index"),
		KeyConditionExpression: aws.String("code = :c"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: code},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("department not found: %w", domain.ErrNotFound)
	}
	var d domain.Department
	if err := attributevalue.UnmarshalMap(out.Items[0], &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListActive scans all active departments. The department table is small
// (tens of rows), so a filtered scan is fine here.
func (r *DepartmentRepo) ListActive(ctx context.Context) ([]domain.Department, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("active = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return nil, err
	}
	var ds []domain.Department
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &ds); err != nil {
		return nil, err
	}
	return ds, nil
}

func (r *DepartmentRepo) Update(ctx context.Context, departmentID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("department_id", departmentID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

// AdjustWorkload atomically increments (or decrements) a department's
// current workload counter.
func (r *DepartmentRepo) AdjustWorkload(ctx context.Context, departmentID string, delta int) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              strKey("department_id", departmentID),
		UpdateExpression: aws.String("ADD current_workload :d"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":d": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", delta)},
		},
	})
	return err
}

func (r *DepartmentRepo) SoftDelete(ctx context.Context, departmentID string) error {
	return r.Update(ctx, departmentID, map[string]interface{}{"active": false})
}
