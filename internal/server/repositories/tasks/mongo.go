package tasks

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dmitrijs2005/todovault/internal/common"
	"github.com/dmitrijs2005/todovault/internal/server/models"
)

// MongoCollection is the collection name used by the Mongo store.
const MongoCollection = "todos"

type mongoTask struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Text        string             `bson:"text"`
	Description *string            `bson:"description,omitempty"`
	Priority    string             `bson:"priority"`
	Category    string             `bson:"category"`
	Completed   bool               `bson:"completed"`
	DueDate     *time.Time         `bson:"dueDate,omitempty"`
	Tags        []string           `bson:"tags"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *mongoTask) toModel() *models.Task {
	return &models.Task{
		ID:          d.ID.Hex(),
		Text:        d.Text,
		Description: d.Description,
		Priority:    models.Priority(d.Priority),
		Category:    d.Category,
		Completed:   d.Completed,
		DueDate:     d.DueDate,
		Tags:        normalizeTags(d.Tags),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// MongoRepository stores tasks as documents keyed by ObjectID. Ids that are
// not valid ObjectID hex strings can never exist and report ErrNotFound.
type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) *MongoRepository {
	return &MongoRepository{coll: coll}
}

func (r *MongoRepository) List(ctx context.Context) ([]*models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, storeError("find tasks", err)
	}
	var docs []mongoTask
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeError("decode tasks", err)
	}

	result := make([]*models.Task, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toModel())
	}
	return result, nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrNotFound
	}
	var doc mongoTask
	err = r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, storeError("find task", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	doc := mongoTask{
		ID:          primitive.NewObjectID(),
		Text:        task.Text,
		Description: task.Description,
		Priority:    string(task.Priority),
		Category:    task.Category,
		Completed:   task.Completed,
		DueDate:     task.DueDate,
		Tags:        normalizeTags(task.Tags),
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.ID != "" {
		oid, err := primitive.ObjectIDFromHex(task.ID)
		if err != nil {
			return nil, common.NewFieldError("id", "must be a 24 character hex ObjectID")
		}
		doc.ID = oid
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, storeError("insert task", err)
	}
	return doc.toModel(), nil
}

func patchToSet(patch *models.TaskPatch, now time.Time) bson.D {
	set := bson.D{}
	if patch.Text != nil {
		set = append(set, bson.E{Key: "text", Value: *patch.Text})
	}
	if patch.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *patch.Description})
	}
	if patch.Priority != nil {
		set = append(set, bson.E{Key: "priority", Value: string(*patch.Priority)})
	}
	if patch.Category != nil {
		set = append(set, bson.E{Key: "category", Value: *patch.Category})
	}
	if patch.Completed != nil {
		set = append(set, bson.E{Key: "completed", Value: *patch.Completed})
	}
	if patch.DueDate != nil {
		set = append(set, bson.E{Key: "dueDate", Value: *patch.DueDate})
	}
	if patch.Tags != nil {
		set = append(set, bson.E{Key: "tags", Value: normalizeTags(*patch.Tags)})
	}
	return append(set, bson.E{Key: "updatedAt", Value: now})
}

// Update applies only the supplied fields with $set; the document is never
// replaced as a whole.
func (r *MongoRepository) Update(ctx context.Context, id string, patch *models.TaskPatch, now time.Time) (*models.Task, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrNotFound
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.D{{Key: "$set", Value: patchToSet(patch, now)}}

	var doc mongoTask
	err = r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, storeError("update task", err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return storeError("delete task", err)
	}
	if res.DeletedCount == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	if err := r.coll.Database().Client().Ping(ctx, nil); err != nil {
		return storeError("ping", err)
	}
	return nil
}
