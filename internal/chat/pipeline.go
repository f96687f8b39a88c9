// Package chat runs one conversational turn: classify the text, look up
// matching projects, ask the model, and stream ordered events back.
//
// A completed turn always ends with exactly one message event with done set,
// whichever branch produced it. News is fetched after that event and is best
// effort.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"floodguard/internal/logging"
	"floodguard/internal/metrics"
	"floodguard/internal/perception"
	"floodguard/internal/projects"
	"floodguard/internal/retrieval"
	"floodguard/internal/session"
)

// Texts sent to the caller.
const (
	StatusProcessing   = "Processing your question..."
	MsgMessageRequired = "Message is required"
	MsgKeysRequired    = "API keys are required. Please configure them in Settings."
	ApologyMessage     = "I encountered an error processing your request. Please try rephrasing your question."
)

const (
	// DefaultNewsResults is how many articles follow an answer.
	DefaultNewsResults = 3
	// DefaultSearchLimit caps the rows a turn looks up.
	DefaultSearchLimit = projects.DefaultLimit

	newsContractorRows  = 3
	newsContractorLimit = 2
)

// Query types recorded in the session context.
const (
	QueryTypeProjects = "projects"
	QueryTypeGeneral  = "general"
)

// NewsSearcher finds related articles. It never fails.
type NewsSearcher interface {
	Search(ctx context.Context, req retrieval.Request) []retrieval.Article
}

// ArticleIndexer stores fetched articles for later semantic search.
type ArticleIndexer interface {
	IndexArticles(ctx context.Context, articles []retrieval.Article) error
}

// Turn is one inbound user message.
type Turn struct {
	Message     string                 `json:"message"`
	SessionID   string                 `json:"session_id"`
	Credentials perception.Credentials `json:"-"`
}

// Config tunes a Pipeline.
type Config struct {
	ContextWindow int
	NewsResults   int
	SearchLimit   int
}

// DefaultConfig returns the standard turn settings.
func DefaultConfig() Config {
	return Config{
		ContextWindow: session.DefaultWindow,
		NewsResults:   DefaultNewsResults,
		SearchLimit:   DefaultSearchLimit,
	}
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithNews enables the post-answer news lookup.
func WithNews(n NewsSearcher) Option {
	return func(p *Pipeline) { p.news = n }
}

// WithArticleIndex stores fetched news in the semantic index.
func WithArticleIndex(ix ArticleIndexer) Option {
	return func(p *Pipeline) { p.index = ix }
}

// WithMetrics records turn outcomes and event counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Pipeline processes turns. It holds no per-turn state and may serve many
// sessions concurrently; turns of one session must be sequential.
type Pipeline struct {
	engine     *projects.Engine
	classifier *perception.Classifier
	sessions   *session.Store
	model      perception.Model

	news    NewsSearcher
	index   ArticleIndexer
	metrics *metrics.Metrics
	now     func() time.Time
	cfg     Config
}

// New creates a pipeline.
func New(engine *projects.Engine, classifier *perception.Classifier, sessions *session.Store, model perception.Model, cfg Config, opts ...Option) *Pipeline {
	if cfg.ContextWindow <= 0 {
		cfg.ContextWindow = session.DefaultWindow
	}
	if cfg.NewsResults <= 0 {
		cfg.NewsResults = DefaultNewsResults
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = DefaultSearchLimit
	}
	p := &Pipeline{
		engine:     engine,
		classifier: classifier,
		sessions:   sessions,
		model:      model,
		now:        time.Now,
		cfg:        cfg,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// errStopped marks a failed emit; the channel is gone.
type errStopped struct{ err error }

func (e errStopped) Error() string { return "emit failed: " + e.err.Error() }
func (e errStopped) Unwrap() error { return e.err }

// HandleTurn runs one turn and streams its events through emit. The only
// error returned is a failed emit; every other failure becomes an event.
func (p *Pipeline) HandleTurn(ctx context.Context, turn Turn, emit EmitFunc) error {
	turnID := uuid.NewString()
	send := func(ev Event) error {
		if err := emit(ev); err != nil {
			return errStopped{err}
		}
		p.metrics.Event(string(ev.Type))
		return nil
	}

	if strings.TrimSpace(turn.Message) == "" {
		p.metrics.Turn(metrics.OutcomeRejected)
		return unwrapStopped(send(errorEvent(MsgMessageRequired)))
	}
	if turn.Credentials.For(p.model.Provider()) == "" {
		p.metrics.Turn(metrics.OutcomeRejected)
		return unwrapStopped(send(errorEvent(MsgKeysRequired)))
	}

	logging.Pipeline("turn %s: session=%s len=%d", turnID, turn.SessionID, len(turn.Message))
	timer := logging.StartTimer(logging.CategoryPipeline, "turn")
	defer timer.Stop()

	if err := send(statusEvent(StatusProcessing)); err != nil {
		return unwrapStopped(err)
	}

	rows, err := p.answer(ctx, turn, send)
	if err != nil {
		var stopped errStopped
		if errors.As(err, &stopped) {
			return stopped.err
		}
		logging.PipelineError("turn %s failed: %v", turnID, err)
		p.metrics.Turn(metrics.OutcomeFailed)
		return unwrapStopped(send(messageEvent(ApologyMessage)))
	}
	if len(rows) == 0 {
		p.metrics.Turn(metrics.OutcomeEmpty)
	} else {
		p.metrics.Turn(metrics.OutcomeOK)
	}

	return unwrapStopped(p.relatedNews(ctx, turnID, rows, send))
}

func unwrapStopped(err error) error {
	var stopped errStopped
	if errors.As(err, &stopped) {
		return stopped.err
	}
	return err
}

// answer covers everything up to and including the done message. Panics are
// returned as errors so the caller can apologize.
func (p *Pipeline) answer(ctx context.Context, turn Turn, send EmitFunc) (rows []projects.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	sess := p.sessions.GetOrCreate(turn.SessionID)
	p.metrics.Sessions(p.sessions.Len())

	system := SystemPrompt(p.engine.Len())
	if p.classifier.NeedsData(turn.Message) {
		rows = p.lookup(turn.Message)
		if len(rows) > 0 {
			stats := p.engine.Stats(rows)
			system += DataContext(len(rows), stats.TotalBudget)
		}
	}

	messages := []perception.Message{{Role: perception.RoleSystem, Content: system}}
	for _, m := range p.sessions.Recent(sess.ID, p.cfg.ContextWindow) {
		messages = append(messages, perception.Message{Role: string(m.Role), Content: m.Content})
	}
	userText := turn.Message
	if p.classifier.IsFollowUp(turn.Message) {
		if last, ok := p.sessions.LastContext(sess.ID); ok {
			userText += FollowUpHint(last.QueryType)
		}
	}
	messages = append(messages, perception.Message{Role: perception.RoleUser, Content: userText})

	start := p.now()
	output, err := p.model.Infer(ctx, messages, turn.Credentials)
	p.metrics.ModelLatency(string(p.model.Provider()), p.now().Sub(start))
	if err != nil {
		return nil, fmt.Errorf("model inference: %w", err)
	}

	if len(rows) > 0 {
		if err := send(projectsEvent(rows)); err != nil {
			return nil, err
		}
		if err := send(boundsEvent(p.engine.Bounds(rows))); err != nil {
			return nil, err
		}
	}

	qc := session.QueryContext{QueryType: QueryTypeGeneral, ResultCount: len(rows), Timestamp: p.now()}
	if len(rows) > 0 {
		qc.QueryType = QueryTypeProjects
	}
	// The persisted user entry is the raw text, without the follow-up hint.
	p.sessions.AppendExchange(sess.ID, turn.Message, output, qc)

	if err := send(messageEvent(output)); err != nil {
		return nil, err
	}
	return rows, nil
}

// lookup extracts filters and searches. Failures degrade to no data.
func (p *Pipeline) lookup(text string) (rows []projects.Record) {
	defer func() {
		if r := recover(); r != nil {
			logging.PipelineWarn("project lookup failed: %v", r)
			rows = nil
		}
	}()

	filters := p.classifier.ExtractFilters(text)
	p.metrics.Query("chat")
	res, err := p.engine.Search(projects.Query{Filters: &filters, Limit: p.cfg.SearchLimit})
	if err != nil {
		logging.PipelineWarn("project search failed: %v", err)
		return nil
	}
	logging.PipelineDebug("lookup matched %d projects", len(res.Records))
	return res.Records
}

// NewsRequest derives the article query for a turn: the fixed domain terms
// plus up to two distinct contractors among the top three rows.
func NewsRequest(rows []projects.Record, n int) retrieval.Request {
	var contractors []string
	for _, r := range rows[:min(len(rows), newsContractorRows)] {
		c := strings.TrimSpace(r.Contractor)
		if c == "" || containsString(contractors, c) {
			continue
		}
		contractors = append(contractors, c)
		if len(contractors) == newsContractorLimit {
			break
		}
	}
	query := retrieval.DefaultNewsQuery
	if len(contractors) > 0 {
		query += " " + strings.Join(contractors, " ")
	}
	return retrieval.Request{Query: query, MaxResults: n}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// relatedNews runs after the done message. Only an emit failure escapes.
func (p *Pipeline) relatedNews(ctx context.Context, turnID string, rows []projects.Record, send EmitFunc) (err error) {
	if p.news == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			logging.PipelineWarn("turn %s: news lookup panicked: %v", turnID, r)
			err = nil
		}
	}()

	articles := p.news.Search(ctx, NewsRequest(rows, p.cfg.NewsResults))
	if len(articles) == 0 {
		logging.PipelineDebug("turn %s: no related news", turnID)
		return nil
	}
	if err := send(newsEvent(articles)); err != nil {
		return err
	}

	if p.index != nil {
		if err := p.index.IndexArticles(ctx, articles); err != nil {
			logging.PipelineWarn("turn %s: indexing %d articles failed: %v", turnID, len(articles), err)
		}
	}
	return nil
}
