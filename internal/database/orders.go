package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Yusei-0/cuba-click/internal/checkout"
	"github.com/Yusei-0/cuba-click/internal/models"
)

func (s *Store) TrackingCodeExists(ctx context.Context, code string) (bool, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	n, err := s.db.Collection(colOrders).CountDocuments(ctx,
		bson.M{"trackingCode": code},
		options.Count().SetLimit(1),
	)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertOrder writes the order and its lines in one transaction. A duplicate
// key on trackingCode is reported as checkout.ErrTrackingCodeConflict.
func (s *Store) InsertOrder(ctx context.Context, order *models.Order, lines []models.OrderLine) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	session, err := s.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	orderID := primitive.NewObjectID()
	docs := make([]interface{}, 0, len(lines))
	for i := range lines {
		lines[i].ID = primitive.NewObjectID()
		lines[i].OrderID = orderID
		docs = append(docs, lines[i])
	}

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		doc := *order
		doc.ID = orderID
		if _, err := s.db.Collection(colOrders).InsertOne(sessCtx, doc); err != nil {
			return nil, err
		}
		if len(docs) > 0 {
			if _, err := s.db.Collection(colOrderLines).InsertMany(sessCtx, docs); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", checkout.ErrTrackingCodeConflict, order.TrackingCode)
		}
		return err
	}

	order.ID = orderID
	return nil
}

// OrdersByIDs returns the matching orders with their lines. Unknown ids are
// skipped.
func (s *Store) OrdersByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Order, error) {
	if len(ids) == 0 {
		return []models.Order{}, nil
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	orders, err := findAll[models.Order](ctx, s.db.Collection(colOrders), bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	if err := s.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) attachLines(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]primitive.ObjectID, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}

	lines, err := findAll[models.OrderLine](ctx, s.db.Collection(colOrderLines), bson.M{"orderId": bson.M{"$in": ids}})
	if err != nil {
		return err
	}
	byOrder := make(map[primitive.ObjectID][]models.OrderLine, len(orders))
	for _, l := range lines {
		byOrder[l.OrderID] = append(byOrder[l.OrderID], l)
	}
	for i := range orders {
		orders[i].Lines = byOrder[orders[i].ID]
	}
	return nil
}

/* =========================
   ORDER HISTORY
========================= */

func (s *Store) AppendOrderID(ctx context.Context, clientID string, orderID primitive.ObjectID) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	_, err := s.db.Collection(colOrderHistory).UpdateOne(ctx,
		bson.M{"_id": clientID},
		bson.M{
			"$addToSet": bson.M{"orderIds": orderID},
			"$set":      bson.M{"updatedAt": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *Store) OrderIDs(ctx context.Context, clientID string) ([]primitive.ObjectID, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	h, found, err := findOne[models.OrderHistory](ctx, s.db.Collection(colOrderHistory), bson.M{"_id": clientID})
	if err != nil {
		return nil, err
	}
	if !found {
		return []primitive.ObjectID{}, nil
	}
	return h.OrderIDs, nil
}

/* =========================
   ORDER ADMINISTRATION
========================= */

type OrderFilter struct {
	Status models.OrderStatus
	// Search matches an exact order id, or a fragment of the client name,
	// client phone or tracking code.
	Search string
	Page   int64
	Limit  int64
}

type OrderPage struct {
	Orders []models.Order `json:"orders"`
	Total  int64          `json:"total"`
	Page   int64          `json:"page"`
	Limit  int64          `json:"limit"`
}

func orderFilterQuery(f OrderFilter) bson.M {
	query := bson.M{}
	if f.Status != "" {
		query["status"] = f.Status
	}
	search := strings.TrimSpace(f.Search)
	if search == "" {
		return query
	}
	if id, err := primitive.ObjectIDFromHex(search); err == nil {
		query["_id"] = id
		return query
	}
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
	query["$or"] = bson.A{
		bson.M{"clientName": pattern},
		bson.M{"clientPhone": pattern},
		bson.M{"trackingCode": pattern},
	}
	return query
}

func (s *Store) ListOrders(ctx context.Context, f OrderFilter) (OrderPage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	query := orderFilterQuery(f)
	col := s.db.Collection(colOrders)

	total, err := col.CountDocuments(ctx, query)
	if err != nil {
		return OrderPage{}, err
	}

	orders, err := findAll[models.Order](ctx, col, query, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((f.Page-1)*f.Limit).
		SetLimit(f.Limit))
	if err != nil {
		return OrderPage{}, err
	}
	if err := s.attachLines(ctx, orders); err != nil {
		return OrderPage{}, err
	}
	return OrderPage{Orders: orders, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (models.Order, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var order models.Order
	err := s.db.Collection(colOrders).FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Order{}, ErrNotFound
	}
	return order, err
}

// DeleteOrder removes the order and its lines together.
func (s *Store) DeleteOrder(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	session, err := s.db.Client().StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		res, err := s.db.Collection(colOrders).DeleteOne(sessCtx, bson.M{"_id": id})
		if err != nil {
			return nil, err
		}
		if res.DeletedCount == 0 {
			return nil, ErrNotFound
		}
		_, err = s.db.Collection(colOrderLines).DeleteMany(sessCtx, bson.M{"orderId": id})
		return nil, err
	})
	return err
}
