// Package tasks manages the to-do items attached to events.
package tasks

import (
	eventstore "github.com/dalemusser/councilhub/internal/app/store/events"
	taskstore "github.com/dalemusser/councilhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/councilhub/internal/app/store/users"
	"github.com/dalemusser/councilhub/internal/app/system/clock"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	Tasks  *taskstore.Store
	Events *eventstore.Store
	Users  *userstore.Store
	Clock  clock.Clock
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Tasks:  taskstore.New(db),
		Events: eventstore.New(db),
		Users:  userstore.New(db),
		Clock:  clock.System{},
		Log:    logger,
	}
}
