package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ErrItemNotFound is returned when an item has no cost record
var ErrItemNotFound = errors.New("item not found")

const (
	contractsCollection = "contract_prices"
	costsCollection     = "costs"
	customersCollection = "customers"
)

type Store struct {
	db     *mongo.Database
	logger *zap.Logger
}

// Connect dials MongoDB with retries and verifies the connection with a
// ping. Callers treat an exhausted retry budget as fatal.
func Connect(ctx context.Context, uri string, logger *zap.Logger) (*mongo.Client, error) {
	const operation = "storage.Connect"

	var client *mongo.Client

	retryPolicy := backoff.NewExponentialBackOff()
	retryPolicy.MaxElapsedTime = 2 * time.Minute
	retryPolicy.MaxInterval = 15 * time.Second

	logger.Info("Connecting to MongoDB...")

	err := backoff.RetryNotify(
		func() error {
			var err error
			client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}

			if err = client.Ping(ctx, nil); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
			return nil
		},
		retryPolicy,
		func(err error, duration time.Duration) {
			logger.Warn("MongoDB connection failed, retrying...",
				zap.Error(err),
				zap.Duration("next_attempt_in", duration))
		},
	)

	if err != nil {
		return nil, fmt.Errorf("%s: failed to connect after retries: %w", operation, err)
	}

	logger.Info("Successfully connected to MongoDB")
	return client, nil
}

func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{
		db:     db,
		logger: logger,
	}
}

// FindExpiringContracts returns every contract carrying a price agreement
// for item whose end date falls on or after cutoff. Only the fields the
// pricing pipeline consumes are materialized.
func (s *Store) FindExpiringContracts(ctx context.Context, item string, cutoff time.Time) ([]ContractRecord, error) {
	filter := bson.M{
		"pricingagreements.item": item,
		"contractend":            bson.M{"$gte": cutoff},
	}
	projection := bson.M{
		"pricingagreements": 1,
		"contractend":       1,
		"contractname":      1,
		"contractnumber":    1,
		"contractstart":     1,
		"_id":               0,
	}

	cur, err := s.db.Collection(contractsCollection).Find(ctx, filter, options.Find().SetProjection(projection))
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer cur.Close(ctx)

	var records []ContractRecord
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode contracts: %w", err)
	}

	return records, nil
}

// GetCost is a point lookup of the per-unit cost for an item
func (s *Store) GetCost(ctx context.Context, item string) (float64, error) {
	var rec CostRecord
	err := s.db.Collection(costsCollection).FindOne(ctx, bson.M{"item": item}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, fmt.Errorf("%w: %q", ErrItemNotFound, item)
		}
		return 0, fmt.Errorf("failed to get cost: %w", err)
	}
	return rec.Cost, nil
}

// GetCustomer looks up a customer by contract name. A missing customer is
// not an error: an empty record is returned and the fee lookup falls back
// to its defaults.
func (s *Store) GetCustomer(ctx context.Context, contractName string) (CustomerRecord, error) {
	var rec CustomerRecord
	err := s.db.Collection(customersCollection).FindOne(ctx, bson.M{"contract_name": contractName}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return CustomerRecord{ContractName: contractName}, nil
		}
		return CustomerRecord{}, fmt.Errorf("failed to get customer: %w", err)
	}
	return rec, nil
}

// Ping checks the backing connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}
