package interview

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/kalambet/interviewd/internal/session"
	"github.com/kalambet/interviewd/internal/storage"
)

const (
	recentWindow        = 5
	questionContextSize = 100
	flagExcerptSize     = 200

	defaultAnalysisTimeout   = 15 * time.Second
	defaultGenerationTimeout = 60 * time.Second
)

// Services bundles the external collaborators of a turn.
type Services struct {
	Classifier Classifier
	Evaluator  Evaluator
	Responder  Responder
	Writer     FeedbackWriter
}

// Options bounds external calls. Zero values fall back to 15s and 60s.
type Options struct {
	AnalysisTimeout   time.Duration
	GenerationTimeout time.Duration
}

// Archive persists saved-session snapshots.
type Archive interface {
	SaveSession(ctx context.Context, s storage.SavedSession) error
	GetSavedSession(ctx context.Context, id string) (storage.SavedSession, error)
	ListSavedSessions(ctx context.Context, limit, offset int) ([]storage.SavedSession, error)
	DeleteSavedSession(ctx context.Context, id string) error
}

// Orchestrator runs interview turns against a session store.
type Orchestrator struct {
	sessions *session.Store
	archive  Archive
	svc      Services

	analysisTimeout   time.Duration
	generationTimeout time.Duration
}

// New creates an Orchestrator. archive may be nil, in which case Save, Load
// and List fail.
func New(sessions *session.Store, archive Archive, svc Services, opts Options) *Orchestrator {
	if opts.AnalysisTimeout <= 0 {
		opts.AnalysisTimeout = defaultAnalysisTimeout
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = defaultGenerationTimeout
	}
	return &Orchestrator{
		sessions:          sessions,
		archive:           archive,
		svc:               svc,
		analysisTimeout:   opts.AnalysisTimeout,
		generationTimeout: opts.GenerationTimeout,
	}
}

// Debug exposes the per-turn service results.
type Debug struct {
	Persona          string   `json:"persona"`
	IsRelevant       bool     `json:"is_relevant"`
	Sentiment        string   `json:"sentiment"`
	Confidence       float64  `json:"confidence"`
	RiskFlags        []string `json:"risk_flags,omitempty"`
	Score            *int     `json:"score"`
	IsCorrect        bool     `json:"is_correct"`
	RequiresFollowup bool     `json:"follow_up"`
	Analysis         string   `json:"analysis,omitempty"`
}

// Analytics is the session-level view returned after every turn.
type Analytics struct {
	Phase         Phase   `json:"phase"`
	QuestionCount int     `json:"question_count"`
	AverageScore  float64 `json:"average_score"`
	Trend         string  `json:"trend"`
	Scores        []int   `json:"scores"`
	EdgeCaseCount int     `json:"edge_case_count"`
	AnomalyCount  int     `json:"anomaly_count"`
}

// Report is a generated feedback report with the statistics it was built from.
type Report struct {
	SessionID     string `json:"session_id"`
	Role          Role   `json:"role"`
	Text          string `json:"report"`
	Stats         Stats  `json:"stats"`
	QuestionCount int    `json:"question_count"`
}

// TurnResult is the outcome of one chat turn.
type TurnResult struct {
	SessionID string    `json:"session_id"`
	Reply     string    `json:"response"`
	Complete  bool      `json:"interview_complete"`
	Debug     Debug     `json:"debug"`
	Analytics Analytics `json:"analytics"`
	Report    *Report   `json:"report,omitempty"`
}

// StartInput carries the context uploaded at the start of an interview.
type StartInput struct {
	SessionID      string
	Resume         string
	JobDescription string
	Role           string
}

// Start resets the session to a fresh interview with the given context and
// returns its id, minting one if none was given.
func (o *Orchestrator) Start(ctx context.Context, in StartInput) (string, error) {
	resume := strings.TrimSpace(in.Resume)
	jd := strings.TrimSpace(in.JobDescription)
	if resume == "" || jd == "" {
		return "", ErrMissingContext
	}

	id := in.SessionID
	if id == "" {
		id = session.NewID()
	}
	role := in.Role
	if role == "" {
		role = DefaultRole
	}
	o.sessions.Reset(id, resume, jd, role)
	slog.Info("interview started", "session_id", id, "role", role)
	return id, nil
}

// Reset clears every field of the session, context included.
func (o *Orchestrator) Reset(_ context.Context, id string) string {
	if id == "" {
		id = session.NewID()
	}
	o.sessions.Reset(id, "", "", "")
	slog.Info("session reset", "session_id", id)
	return id
}

// Turn processes one candidate utterance. An empty or unknown id gets a new
// session. Once the interview has terminated, Turn returns the stored report
// without calling any service until the session is reset. A synthesis
// failure leaves the session unchanged.
func (o *Orchestrator) Turn(ctx context.Context, id, utterance string) (*TurnResult, error) {
	id = o.sessions.Ensure(id)

	var res *TurnResult
	err := o.sessions.Do(id, func(rec *session.Record) error {
		if rec.Terminated {
			res = o.completedResult(rec)
			return nil
		}

		if ShouldTerminate(rec, utterance) {
			report, err := o.buildReport(ctx, rec)
			if err != nil {
				return err
			}
			rec.Terminated = true
			rec.FinalReport = report.Text
			slog.Info("interview terminated",
				"session_id", rec.ID,
				"question_count", rec.QuestionCount,
				"average_score", report.Stats.Average,
			)
			res = o.completedResult(rec)
			res.Report = report
			return nil
		}

		work := rec.Clone()
		r, err := o.runTurn(ctx, work, utterance)
		if err != nil {
			return err
		}
		*rec = *work
		res = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (o *Orchestrator) runTurn(ctx context.Context, rec *session.Record, utterance string) (*TurnResult, error) {
	silent := IsSilence(utterance)
	recent := lastN(rec.History, recentWindow)

	// 1. Record the utterance. The first real utterance starts the interview.
	if !silent {
		rec.Append(session.RoleCandidate, utterance, "")
		rec.Started = true
	}

	// 2. Classify.
	cls := SilentClassification()
	if !silent {
		cls = o.classify(ctx, ClassifyInput{Utterance: utterance, Recent: recent})
	}

	// 3. Log anomalies.
	if !silent {
		logAnomalies(rec, utterance, cls)
	}

	// 4. Evaluate only relevant, non-silent turns of a started interview.
	var eval Evaluation
	if NeedsEvaluation(rec.Started, cls) {
		eval = o.evaluate(ctx, EvaluateInput{
			Utterance:      utterance,
			Question:       rec.CurrentQuestion,
			JobDescription: rec.JobDescription,
			Resume:         rec.ResumeText,
			Scores:         append([]int(nil), rec.Scores...),
		})
	}

	// 5. Record the score.
	if eval.Evaluated {
		rec.Scores = append(rec.Scores, eval.Score)
	}

	// 6. Synthesize the next interviewer turn.
	gctx, cancel := context.WithTimeout(ctx, o.generationTimeout)
	turn, err := o.svc.Responder.Respond(gctx, RespondInput{
		Utterance:      utterance,
		History:        append([]session.Message(nil), rec.History...),
		Resume:         rec.ResumeText,
		JobDescription: rec.JobDescription,
		Role:           RoleFor(rec.Role),
		Classification: cls,
		Evaluation:     eval,
		Phase:          PhaseFor(rec.QuestionCount),
		QuestionCount:  rec.QuestionCount,
	})
	cancel()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}
	rec.CurrentQuestion = tail(turn.Reply, questionContextSize)

	// 7. Advance.
	if ShouldAdvance(rec.Started, cls, eval) {
		rec.QuestionCount++
	}

	// 8. Record the interviewer turn with its analysis.
	rec.Append(session.RoleInterviewer, turn.Reply, turn.Analysis)

	slog.Debug("turn processed",
		"session_id", rec.ID,
		"persona", cls.Persona,
		"evaluated", eval.Evaluated,
		"follow_up", eval.RequiresFollowup,
		"question_count", rec.QuestionCount,
	)

	// 9. Report.
	res := &TurnResult{
		SessionID: rec.ID,
		Reply:     turn.Reply,
		Debug: Debug{
			Persona:          cls.Persona,
			IsRelevant:       cls.IsRelevant,
			Sentiment:        cls.Sentiment,
			Confidence:       cls.Confidence,
			RiskFlags:        cls.RiskFlags,
			IsCorrect:        eval.IsCorrect,
			RequiresFollowup: eval.RequiresFollowup,
			Analysis:         turn.Analysis,
		},
		Analytics: analyticsOf(rec),
	}
	if eval.Evaluated {
		score := eval.Score
		res.Debug.Score = &score
	}
	return res, nil
}

func (o *Orchestrator) classify(ctx context.Context, in ClassifyInput) Classification {
	ctx, cancel := context.WithTimeout(ctx, o.analysisTimeout)
	defer cancel()

	cls, err := o.svc.Classifier.Classify(ctx, in)
	if err != nil {
		slog.Warn("classification failed, using default", "error", err)
		return DefaultClassification()
	}
	if cls.Persona == "" {
		cls.Persona = PersonaNormal
	}
	if cls.Sentiment == "" {
		cls.Sentiment = "neutral"
	}
	return cls
}

func (o *Orchestrator) evaluate(ctx context.Context, in EvaluateInput) Evaluation {
	ctx, cancel := context.WithTimeout(ctx, o.analysisTimeout)
	defer cancel()

	eval, err := o.svc.Evaluator.Evaluate(ctx, in)
	if err != nil {
		slog.Warn("evaluation failed, using default", "error", err)
		eval = DefaultEvaluation()
	}
	eval.Score = ClampScore(eval.Score)
	eval.Evaluated = true
	return eval
}

// logAnomalies appends to the edge-case log for off-topic or rule-breaking
// turns and to the anomaly log for turns carrying risk tags.
func logAnomalies(rec *session.Record, utterance string, cls Classification) {
	now := time.Now().UTC()
	excerpt := head(utterance, flagExcerptSize)

	if cls.Persona == PersonaEdgeCase || !cls.IsRelevant {
		category := "off_topic"
		if cls.Persona == PersonaEdgeCase {
			category = PersonaEdgeCase
		}
		rec.EdgeCases = append(rec.EdgeCases, session.Flag{Excerpt: excerpt, Category: category, At: now})
	}

	tags := normalizeTags(cls.RiskFlags)
	if len(tags) > 0 {
		rec.Anomalies = append(rec.Anomalies, session.Flag{Excerpt: excerpt, Category: tags[0], RiskTags: tags, At: now})
	}
}

func normalizeTags(in []string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || t == "none" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// Feedback generates a report for the session without terminating it.
func (o *Orchestrator) Feedback(ctx context.Context, id string) (*Report, error) {
	if _, ok := o.sessions.Get(id); !ok {
		return nil, ErrSessionNotFound
	}

	var report *Report
	err := o.sessions.Do(id, func(rec *session.Record) error {
		if rec.QuestionCount == 0 {
			return ErrNoQuestions
		}
		r, err := o.buildReport(ctx, rec)
		if err != nil {
			return err
		}
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (o *Orchestrator) buildReport(ctx context.Context, rec *session.Record) (*Report, error) {
	stats := Summarize(rec.Scores)
	role := RoleFor(rec.Role)

	ctx, cancel := context.WithTimeout(ctx, o.generationTimeout)
	defer cancel()

	text, err := o.svc.Writer.Write(ctx, FeedbackInput{
		History:        append([]session.Message(nil), rec.History...),
		Resume:         rec.ResumeText,
		JobDescription: rec.JobDescription,
		Role:           role,
		Scores:         append([]int(nil), rec.Scores...),
		Stats:          stats,
		QuestionCount:  rec.QuestionCount,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesis, err)
	}

	return &Report{
		SessionID:     rec.ID,
		Role:          role,
		Text:          text + integrityNotes(rec),
		Stats:         stats,
		QuestionCount: rec.QuestionCount,
	}, nil
}

// integrityNotes summarizes the edge-case and anomaly logs for the end of a report.
func integrityNotes(rec *session.Record) string {
	memorization := 0
	tagSet := make(map[string]bool)
	for _, f := range rec.Anomalies {
		for _, t := range f.RiskTags {
			tagSet[t] = true
			if t == RiskMemorization {
				memorization++
			}
		}
	}
	tags := make([]string, 0, len(tagSet))
	for t := range tagSet {
		tags = append(tags, t)
	}
	sort.Strings(tags)

	risk := "none"
	if len(tags) > 0 {
		risk = strings.Join(tags, ", ")
	}

	var b strings.Builder
	b.WriteString("\n\n---\n## Session Integrity Notes\n")
	fmt.Fprintf(&b, "- Off-topic or edge-case turns: %d\n", len(rec.EdgeCases))
	fmt.Fprintf(&b, "- Memorization flags: %d\n", memorization)
	fmt.Fprintf(&b, "- Risk indicators: %s\n", risk)
	return b.String()
}

func (o *Orchestrator) completedResult(rec *session.Record) *TurnResult {
	return &TurnResult{
		SessionID: rec.ID,
		Reply:     rec.FinalReport,
		Complete:  true,
		Analytics: analyticsOf(rec),
	}
}

func analyticsOf(rec *session.Record) Analytics {
	return Analytics{
		Phase:         PhaseOf(rec),
		QuestionCount: rec.QuestionCount,
		AverageScore:  Summarize(rec.Scores).Average,
		Trend:         Trend(rec.Scores),
		Scores:        append([]int{}, rec.Scores...),
		EdgeCaseCount: len(rec.EdgeCases),
		AnomalyCount:  len(rec.Anomalies),
	}
}

// Snapshot is a read-only view of a live session.
type Snapshot struct {
	Record        *session.Record `json:"session"`
	Analytics     Analytics       `json:"analytics"`
	ContextLoaded bool            `json:"context_loaded"`
}

// Snapshot returns a copy of the live session state.
func (o *Orchestrator) Snapshot(_ context.Context, id string) (*Snapshot, error) {
	rec, ok := o.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &Snapshot{Record: rec, Analytics: analyticsOf(rec), ContextLoaded: rec.HasContext()}, nil
}

// End discards a live session. Archived copies are untouched.
func (o *Orchestrator) End(_ context.Context, id string) error {
	if !o.sessions.Delete(id) {
		return ErrSessionNotFound
	}
	slog.Info("session ended", "session_id", id)
	return nil
}

// LiveSessions returns the ids of sessions held in memory.
func (o *Orchestrator) LiveSessions() []string {
	return o.sessions.IDs()
}

func lastN(msgs []session.Message, n int) []session.Message {
	if len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return append([]session.Message(nil), msgs...)
}

func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func tail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
