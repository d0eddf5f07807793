package repomanager

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dmitrijs2005/todovault/internal/server/repositories/tasks"
)

// openMongo builds a client without waiting for a server; reachability is
// checked later through Repository.Ping.
func openMongo(ctx context.Context, uri, database string) (*Manager, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, unavailable("connect mongo", err)
	}
	coll := client.Database(database).Collection(tasks.MongoCollection)

	return &Manager{
		Tasks:   tasks.NewMongoRepository(coll),
		closers: []func(context.Context) error{client.Disconnect},
	}, nil
}
