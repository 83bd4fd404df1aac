package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/vulyk/suggestserve/pkg/rank"
	"github.com/vulyk/suggestserve/pkg/score"
	"github.com/vulyk/suggestserve/pkg/session"
	"github.com/vulyk/suggestserve/pkg/vocab"
)

// Service is the part of the task service a Controller needs. *Client implements it.
type Service interface {
	Types(ctx context.Context) ([]string, error)
	Next(ctx context.Context, taskType string) (*Next, error)
	Skip(ctx context.Context, taskType, id string) error
	Done(ctx context.Context, taskType, id string, result any) error
}

// Controller runs the annotation flow for one session.
type Controller struct {
	service Service
	session *session.Session

	stats Stats
	mu    sync.Mutex
}

// NewController binds service to sess. A nil sess gets a fresh session.
func NewController(service Service, sess *session.Session) *Controller {
	if sess == nil {
		sess = session.New()
	}
	return &Controller{service: service, session: sess}
}

func (c *Controller) Session() *session.Session {
	return c.session
}

// Types lists the task types the service offers.
func (c *Controller) Types(ctx context.Context) ([]string, error) {
	return c.service.Types(ctx)
}

// Start switches the session to taskType and loads its first task.
func (c *Controller) Start(ctx context.Context, taskType string) (*session.Task, error) {
	if taskType == "" {
		return nil, ErrNoTaskType
	}
	c.session.SetTaskType(taskType, "")
	c.session.SetTask(nil)
	return c.LoadNext(ctx)
}

// LoadNext fetches the next task and makes it current. When the queue is
// empty the session is left without a task and ErrNoTasks is returned.
func (c *Controller) LoadNext(ctx context.Context) (*session.Task, error) {
	taskType := c.session.TaskType()
	if taskType == "" {
		return nil, ErrNoTaskType
	}

	next, err := c.service.Next(ctx, taskType)
	if err != nil {
		c.session.SetTask(nil)
		return nil, err
	}

	c.session.SetTask(&next.Task)
	c.mu.Lock()
	c.stats = next.Stats
	c.mu.Unlock()
	return c.session.Task(), nil
}

// Skip skips the current task. It does not load the next one.
func (c *Controller) Skip(ctx context.Context) error {
	taskType, id, err := c.current()
	if err != nil {
		return err
	}
	if err := c.service.Skip(ctx, taskType, id); err != nil {
		return fmt.Errorf("failed to skip task %s: %w", id, err)
	}
	c.session.SetTask(nil)
	return nil
}

// Save submits result for the current task and loads the next one. A nil
// result submits the session's current state.
func (c *Controller) Save(ctx context.Context, result any) (*session.Task, error) {
	taskType, id, err := c.current()
	if err != nil {
		return nil, err
	}
	if result == nil {
		if state := c.session.State(); state != nil {
			result = json.RawMessage(state)
		}
	}
	if err := c.service.Done(ctx, taskType, id, result); err != nil {
		return nil, fmt.Errorf("failed to save task %s: %w", id, err)
	}
	return c.LoadNext(ctx)
}

// Stats returns the user's standing as of the last loaded task.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Controller) current() (taskType, id string, err error) {
	taskType = c.session.TaskType()
	if taskType == "" {
		return "", "", ErrNoTaskType
	}
	id = c.session.TaskID()
	if id == "" {
		return "", "", fmt.Errorf("%w: no current %s task", ErrNoTasks, taskType)
	}
	return taskType, id, nil
}

// Suggest ranks the vocabulary for query with strategy. A nil strategy uses
// rank.Rank and a nil scorer uses score.Quicksilver.
func Suggest(query string, v *vocab.Vocabulary, scorer score.Scorer, strategy rank.Strategy) []rank.Entry {
	if scorer == nil {
		scorer = score.Quicksilver{}
	}
	candidates := v.Candidates(scorer)
	if strategy == nil {
		return rank.Rank(query, candidates)
	}
	return strategy.Rank(query, candidates)
}
