package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/Domenicogestionale/gestionale-domenico/internal/domain"
	pkgconfig "github.com/Domenicogestionale/gestionale-domenico/pkg/config"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStoreUnavailable  = errors.New("product store unavailable")
)

// ProductRepository talks to the product collection in DynamoDB. The
// collection is the sole source of truth; lookups by barcode are full
// scans, matching the store contract ("list all documents").
type ProductRepository struct {
	client    *dynamodb.Client
	tableName string
}

func NewDynamoDBClient(cfg *pkgconfig.Config) (*dynamodb.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return nil, err
	}

	return dynamodb.NewFromConfig(awsCfg), nil
}

func NewProductRepository(client *dynamodb.Client, tableName string) *ProductRepository {
	return &ProductRepository{
		client:    client,
		tableName: tableName,
	}
}

func (r *ProductRepository) CreateProduct(ctx context.Context, product *domain.Product) error {
	av, err := attributevalue.MarshalMap(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		return storeError("put item", err)
	}

	return nil
}

func (r *ProductRepository) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
	})
	if err != nil {
		return nil, storeError("get item", err)
	}

	if result.Item == nil {
		return nil, ErrProductNotFound
	}

	var product domain.Product
	if err := attributevalue.UnmarshalMap(result.Item, &product); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}

	return &product, nil
}

// ListProducts scans the whole collection, following pagination.
func (r *ProductRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	var lastKey map[string]types.AttributeValue

	for {
		result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return nil, storeError("scan products", err)
		}

		var page []domain.Product
		if err := attributevalue.UnmarshalListOfMaps(result.Items, &page); err != nil {
			return nil, fmt.Errorf("failed to unmarshal products: %w", err)
		}
		products = append(products, page...)

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}

	return products, nil
}

// FindByBarcode scans the collection for a record whose normalized
// barcode matches code. code must already be normalized.
func (r *ProductRepository) FindByBarcode(ctx context.Context, code string) (*domain.Product, error) {
	products, err := r.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	for i := range products {
		if domain.NormalizeBarcode(products[i].Barcode) == code {
			return &products[i], nil
		}
	}

	return nil, ErrProductNotFound
}

// UpdateFields persists a sparse field map for the given product plus a
// fresh updated_at. Keys are attribute names, values already validated.
func (r *ProductRepository) UpdateFields(ctx context.Context, productID string, fields map[string]interface{}) (*domain.Product, error) {
	update := expression.Set(
		expression.Name("updated_at"),
		expression.Value(time.Now().UTC()),
	)
	for name, value := range fields {
		update = update.Set(expression.Name(name), expression.Value(value))
	}

	// Never upsert a phantom record for an id that was deleted under us.
	condition := expression.AttributeExists(expression.Name("product_id"))

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(condition).
		Build()
	if err != nil {
		return nil, err
	}

	result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil, ErrProductNotFound
		}
		return nil, storeError("update fields", err)
	}

	var updated domain.Product
	if err := attributevalue.UnmarshalMap(result.Attributes, &updated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}

	return &updated, nil
}

// AdjustQuantity applies a signed delta to the product's quantity in a
// single conditional update, so concurrent adjustments serialize at the
// store instead of losing writes. A negative delta is guarded by
// quantity >= -delta; crossing zero fails with ErrInsufficientStock and
// changes nothing.
func (r *ProductRepository) AdjustQuantity(ctx context.Context, productID string, delta int) (*domain.Product, error) {
	update := expression.Set(
		expression.Name("quantity"),
		expression.Plus(
			expression.Name("quantity"),
			expression.Value(delta),
		),
	).Set(
		expression.Name("updated_at"),
		expression.Value(time.Now().UTC()),
	)

	condition := expression.AttributeExists(expression.Name("product_id"))
	if delta < 0 {
		condition = condition.And(expression.GreaterThanEqual(
			expression.Name("quantity"),
			expression.Value(-delta),
		))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(condition).
		Build()
	if err != nil {
		return nil, err
	}

	result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			if delta < 0 {
				return nil, ErrInsufficientStock
			}
			return nil, ErrProductNotFound
		}
		return nil, storeError("adjust quantity", err)
	}

	var updated domain.Product
	if err := attributevalue.UnmarshalMap(result.Attributes, &updated); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}

	return &updated, nil
}

// storeError classifies transport/permission failures from DynamoDB as
// ErrStoreUnavailable while keeping the underlying detail in the message.
func storeError(op string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s: %v: %w", op, apiErr.ErrorCode(), err, ErrStoreUnavailable)
	}
	return fmt.Errorf("%s: %v: %w", op, err, ErrStoreUnavailable)
}
