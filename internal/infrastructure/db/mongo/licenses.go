package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tradeloom/portal/internal/core/domain"
	"github.com/tradeloom/portal/internal/core/ports"
)

type LicenseRepository struct {
	col *mongo.Collection
}

func NewLicenseRepository(db *mongo.Database) *LicenseRepository {
	return &LicenseRepository{col: db.Collection(collectionLicenses)}
}

func (r *LicenseRepository) Create(ctx context.Context, l *domain.License) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, l); err != nil {
		return fmt.Errorf("insert license: %w", err)
	}
	return nil
}

func (r *LicenseRepository) FindByID(ctx context.Context, id string) (*domain.License, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var l domain.License
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrLicenseNotFound
		}
		return nil, fmt.Errorf("find license: %w", err)
	}
	return &l, nil
}

func (r *LicenseRepository) List(ctx context.Context, filter ports.LicenseFilter) ([]domain.License, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_date", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, licenseQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("list licenses: %w", err)
	}
	return decodeAll[domain.License](ctx, cur)
}

// UpdateStatus only matches the document while its status is still from, so
// two admins racing on the same license cannot both win.
func (r *LicenseRepository) UpdateStatus(ctx context.Context, id string, from, to domain.LicenseStatus, key string) (*domain.License, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"status": to}
	if key != "" {
		set["key"] = key
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var l domain.License
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id, "status": from}, bson.M{"$set": set}, opts).Decode(&l)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, r.missOrConflict(ctx, id, from)
	}
	if err != nil {
		return nil, fmt.Errorf("update license status: %w", err)
	}
	return &l, nil
}

func (r *LicenseRepository) Delete(ctx context.Context, id string, from domain.LicenseStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": id}
	if from != "" {
		filter["status"] = from
	}
	res, err := r.col.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete license: %w", err)
	}
	if res.DeletedCount == 0 {
		return r.missOrConflict(ctx, id, from)
	}
	return nil
}

// missOrConflict tells a missing license apart from one whose status moved.
func (r *LicenseRepository) missOrConflict(ctx context.Context, id string, expected domain.LicenseStatus) error {
	current, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w (license is %s, expected %s)", domain.ErrInvalidTransition, current.Status, expected)
}

func licenseQuery(filter ports.LicenseFilter) bson.M {
	q := bson.M{}
	if filter.UserID != "" {
		q["user_id"] = filter.UserID
	}
	if filter.Status != "" {
		q["status"] = filter.Status
	}
	return q
}
