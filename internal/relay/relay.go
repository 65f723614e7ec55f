// Package relay runs the change actions of a push through fetch, dispatch
// and reporting.
package relay

import (
	"context"
	"sync"
	"time"

	"github.com/nahidhasan98/ghe-as3-relay/internal/commit"
	"github.com/nahidhasan98/ghe-as3-relay/internal/errors"
	"github.com/nahidhasan98/ghe-as3-relay/internal/ghe"
	"github.com/nahidhasan98/ghe-as3-relay/internal/logger"
	"github.com/nahidhasan98/ghe-as3-relay/internal/models"
)

// GHE is the part of the GitHub Enterprise client the relay uses
type GHE interface {
	FetchDeclaration(ctx context.Context, action models.ChangeAction) ([]byte, error)
	CreateIssue(ctx context.Context, repository string, issue ghe.Issue) (int, error)
}

// GHEFactory builds a client for the settings of one run
type GHEFactory func(settings models.Settings) (GHE, error)

// Dispatcher applies declarations to the target
type Dispatcher interface {
	Apply(ctx context.Context, kind models.ActionKind, decl *models.ServiceDeclaration) (models.DeploymentResult, error)
	Delete(ctx context.Context, tenant string) models.DeploymentResult
}

// Store persists push state, history and the tenant index
type Store interface {
	SavePushState(ctx context.Context, state models.PushState) error
	RecordDeployment(ctx context.Context, rec models.DeploymentRecord) (int64, error)
	SetTenant(ctx context.Context, repository, filePath, tenant string) error
	LookupTenant(ctx context.Context, repository, filePath string) (string, bool, error)
	ForgetTenant(ctx context.Context, repository, filePath string) error
}

// Recorder receives pipeline metrics
type Recorder interface {
	Action(action, outcome string)
	Issue(result string)
}

type nopRecorder struct{}

func (nopRecorder) Action(string, string) {}
func (nopRecorder) Issue(string)          {}

// Options configures a relay
type Options struct {
	IssuesEnabled   bool
	IssueRepository string // "org/repo"; empty files into the pushing repository
	ProcessTimeout  time.Duration
}

// Relay processes push events
type Relay struct {
	interpreter *commit.Interpreter
	newGHE      GHEFactory
	dispatcher  Dispatcher
	store       Store
	metrics     Recorder
	opts        Options
	log         *logger.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New creates a relay. metrics may be nil.
func New(interpreter *commit.Interpreter, newGHE GHEFactory, dispatcher Dispatcher, store Store, metrics Recorder, opts Options, log *logger.Logger) *Relay {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if opts.ProcessTimeout <= 0 {
		opts.ProcessTimeout = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Relay{
		interpreter: interpreter,
		newGHE:      newGHE,
		dispatcher:  dispatcher,
		store:       store,
		metrics:     metrics,
		opts:        opts,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Accept records the push as the listener state and processes it in the
// background under the configured timeout. Once Shutdown has started pushes
// are refused with SERVICE_UNAVAILABLE and nothing is recorded.
func (r *Relay) Accept(ctx context.Context, settings models.Settings, ev *models.PushEvent, receivedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.Unavailable("Relay is shutting down")
	}

	state := models.PushState{
		Repository:   ev.GetRepositoryName(),
		HeadCommitID: ev.GetHeadCommitID(),
		Before:       ev.Before,
		ReceivedAt:   receivedAt,
	}
	if ev.Repository != nil {
		state.RepositoryName = ev.Repository.Name
	}
	err := r.store.SavePushState(ctx, state)

	r.wg.Go(func() {
		ctx, cancel := context.WithTimeout(r.ctx, r.opts.ProcessTimeout)
		defer cancel()

		r.Process(ctx, settings, ev)
	})

	return err
}

// Shutdown waits for in-flight pushes. When ctx ends first the remaining
// work is cancelled and ctx's error returned.
func (r *Relay) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancel()
		return nil
	case <-ctx.Done():
		r.cancel()
		<-done
		return ctx.Err()
	}
}
