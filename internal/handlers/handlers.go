package handlers

import (
	"context"
	"time"

	"github.com/nahidhasan98/ghe-as3-relay/internal/logger"
	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
	"github.com/nahidhasan98/ghe-as3-relay/internal/validation"
)

// Relay accepts validated pushes for processing
type Relay interface {
	Accept(ctx context.Context, settings models.Settings, ev *models.PushEvent, receivedAt time.Time) error
}

// Store is the persistence the handlers read and write
type Store interface {
	Ping(ctx context.Context) error
	Settings(ctx context.Context) (models.Settings, bool, error)
	SaveSettings(ctx context.Context, settings models.Settings) error
	LastPush(ctx context.Context) (*models.PushState, error)
	RecentDeployments(ctx context.Context, limit int) ([]models.DeploymentRecord, error)
}

// Recorder counts webhook deliveries
type Recorder interface {
	Webhook(event, result string)
}

type nopRecorder struct{}

func (nopRecorder) Webhook(string, string) {}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	relay        Relay
	store        Store
	metrics      Recorder
	log          *logger.Logger
	validator    *validation.Validator
	historyLimit int
	now          func() time.Time
}

// New creates a new handler instance. metrics may be nil.
func New(relay Relay, store Store, metrics Recorder, historyLimit int, log *logger.Logger) *Handler {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if historyLimit < 1 {
		historyLimit = 20
	}

	return &Handler{
		relay:        relay,
		store:        store,
		metrics:      metrics,
		log:          log,
		validator:    validation.New(),
		historyLimit: historyLimit,
		now:          time.Now,
	}
}
