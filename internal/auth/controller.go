package auth

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hammamikhairi/culina/internal/domain"
	"github.com/hammamikhairi/culina/internal/logger"
	"github.com/hammamikhairi/culina/internal/observe"
)

// Controller exposes the auth session to the UI. Sign-in calls are
// fire-and-forget: they set Loading, then Authenticated or Error.
type Controller struct {
	repo *Repository
	log  *logger.Logger

	// Session is the current auth state.
	Session *observe.Value[domain.AuthSession]

	unsubscribe func()

	// attemptGen orders sign-in attempts; only the newest may publish.
	// pubMu makes the generation check and the publish one step.
	attemptGen atomic.Uint64
	pubMu      sync.Mutex

	ctx     context.Context
	cancel  context.CancelFunc
	spawnMu sync.Mutex
	closed  bool
	wg      sync.WaitGroup
}

// NewController creates a controller seeded from the provider's current
// session. Later provider changes update Session as they arrive.
func NewController(repo *Repository, log *logger.Logger) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		repo:    repo,
		log:     log,
		Session: observe.NewValue(sessionFor(repo.CurrentUser())),
		ctx:     ctx,
		cancel:  cancel,
	}
	c.unsubscribe = repo.Subscribe(c.onProviderChange)
	return c
}

// IsSignedIn reports whether the provider has a user.
func (c *Controller) IsSignedIn() bool { return c.repo.IsSignedIn() }

// SignInWithGoogle runs the federated sign-in flow.
func (c *Controller) SignInWithGoogle() {
	c.run("google", func(ctx context.Context) (*domain.User, error) {
		return c.repo.SignInWithGoogle(ctx)
	})
}

// SignInWithEmail signs in with email and password.
func (c *Controller) SignInWithEmail(email, password string) {
	c.run("email", func(ctx context.Context) (*domain.User, error) {
		return c.repo.SignInWithEmail(ctx, email, password)
	})
}

// Register creates an account with email and password.
func (c *Controller) Register(email, password string) {
	c.run("register", func(ctx context.Context) (*domain.User, error) {
		return c.repo.Register(ctx, email, password)
	})
}

// SignOut clears the session synchronously. Attempts still in flight are
// superseded and will not publish.
func (c *Controller) SignOut() {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	c.attemptGen.Add(1)
	c.repo.SignOut()
	c.Session.Set(domain.SignedOutSession())
}

// Wait blocks until in-flight sign-in attempts finish.
func (c *Controller) Wait() { c.wg.Wait() }

// Close abandons in-flight attempts and stops following the provider.
func (c *Controller) Close() {
	c.spawnMu.Lock()
	if c.closed {
		c.spawnMu.Unlock()
		return
	}
	c.closed = true
	c.spawnMu.Unlock()

	c.unsubscribe()
	c.cancel()
	c.wg.Wait()
	c.Session.Close()
}

func (c *Controller) run(name string, fn func(ctx context.Context) (*domain.User, error)) {
	c.spawnMu.Lock()
	defer c.spawnMu.Unlock()
	if c.closed {
		c.log.Debug("dropping %s sign-in: controller closed", name)
		return
	}

	c.pubMu.Lock()
	gen := c.attemptGen.Add(1)
	c.Session.Set(domain.LoadingSession())
	c.pubMu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		user, err := fn(c.ctx)
		if err != nil {
			c.log.Warn("%s sign-in failed: %v", name, err)
			c.publish(gen, domain.ErrorSession(err.Error()))
			return
		}
		c.publish(gen, domain.SignedInSession(user))
	}()
}

// publish sets Session if attempt gen is still the newest and the
// controller is open.
func (c *Controller) publish(gen uint64, s domain.AuthSession) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if c.ctx.Err() != nil {
		return
	}
	if c.attemptGen.Load() != gen {
		c.log.Debug("discarding superseded sign-in result (%s)", s.Status)
		return
	}
	c.Session.Set(s)
}

// onProviderChange mirrors provider state. A sign-out notice never replaces
// Loading or Error.
func (c *Controller) onProviderChange(user *domain.User) {
	c.Session.Update(func(cur domain.AuthSession) domain.AuthSession {
		if user == nil && (cur.Status == domain.AuthLoading || cur.Status == domain.AuthError) {
			return cur
		}
		return sessionFor(user)
	})
}

func sessionFor(user *domain.User) domain.AuthSession {
	if user == nil {
		return domain.SignedOutSession()
	}
	return domain.SignedInSession(user)
}
