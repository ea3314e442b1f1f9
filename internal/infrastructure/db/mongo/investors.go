package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tradeloom/portal/internal/core/domain"
)

type InvestorRequestRepository struct {
	col *mongo.Collection
}

func NewInvestorRequestRepository(db *mongo.Database) *InvestorRequestRepository {
	return &InvestorRequestRepository{col: db.Collection(collectionInvestorRequests)}
}

func (r *InvestorRequestRepository) Create(ctx context.Context, req *domain.InvestorRequest) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("insert investor request: %w", err)
	}
	return nil
}

func (r *InvestorRequestRepository) FindByID(ctx context.Context, id string) (*domain.InvestorRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var req domain.InvestorRequest
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInvestorRequestNotFound
		}
		return nil, fmt.Errorf("find investor request: %w", err)
	}
	return &req, nil
}

func (r *InvestorRequestRepository) List(ctx context.Context, status domain.InvestorRequestStatus) ([]domain.InvestorRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list investor requests: %w", err)
	}
	return decodeAll[domain.InvestorRequest](ctx, cur)
}

func (r *InvestorRequestRepository) MarkSent(ctx context.Context, id string) (*domain.InvestorRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id, "status": domain.InvestorPending}
	update := bson.M{"$set": bson.M{"status": domain.InvestorSent}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var req domain.InvestorRequest
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&req)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, ferr := r.FindByID(ctx, id); ferr != nil {
			return nil, ferr
		}
		return nil, fmt.Errorf("%w (investor request already sent)", domain.ErrInvalidTransition)
	}
	if err != nil {
		return nil, fmt.Errorf("mark investor request sent: %w", err)
	}
	return &req, nil
}
