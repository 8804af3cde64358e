package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/talgya/overtime/internal/agents"
	"github.com/talgya/overtime/internal/content"
	"github.com/talgya/overtime/internal/economy"
	"github.com/talgya/overtime/internal/llm"
	"github.com/talgya/overtime/internal/world"
)

var defaultPrologue = []string{
	"Rent is due Friday. Your savings account is a rounding error.",
	"One listing still answers the phone.",
	"You straighten your collar, even though it is a phone interview.",
}

func prologueLines(script []string, c Career) []string {
	if len(script) == 0 {
		script = defaultPrologue
	}
	lines := append([]string(nil), script...)
	if c.Shifts > 0 {
		lines = append(lines, fmt.Sprintf("Shifts survived so far: %d. Best closing balance: %s.",
			c.Shifts, economy.FormatMoney(c.BestBalance)))
	}
	return lines
}

func (s *Session) advancePrologue() {
	s.prologueIdx++
	if s.prologueIdx < len(s.prologue) {
		return
	}
	s.phase = PhaseConnectingCall
	s.dispatch(RequestBootstrap, s.bootstrap, fallbackBootstrap)
}

// bootstrap is the combined result of the connecting call.
type bootstrap struct {
	Article   content.Article
	Company   llm.CompanyProfile
	Questions []llm.Question
}

func fallbackBootstrap() any {
	return bootstrap{
		Article:   content.Canned(),
		Company:   llm.FallbackCompany(),
		Questions: llm.FallbackQuestions(),
	}
}

// bootstrap runs off the simulation goroutine. Each step degrades to its own
// fallback so one failure does not discard the others.
func (s *Session) bootstrap(ctx context.Context) (any, error) {
	reasoner, source := s.deps.Reasoner, s.deps.Content

	b := bootstrap{Article: content.Canned()}
	if a, err := source.Next(ctx); err != nil {
		slog.Warn("article unavailable", "error", err)
	} else {
		b.Article = a
	}

	company, err := reasoner.CompanyProfile(ctx, b.Article.Title, b.Article.Text)
	if err != nil {
		slog.Warn("company profile failed, using fallback", "error", err)
		company = llm.FallbackCompany()
	}
	b.Company = company

	questions, err := reasoner.InterviewQuestions(ctx, company)
	if err != nil || len(questions) == 0 {
		slog.Warn("interview questions failed, using fallback", "error", err)
		questions = llm.FallbackQuestions()
	}
	b.Questions = questions
	return b, nil
}

func (s *Session) onBootstrap(b bootstrap) {
	s.article = b.Article
	s.company = b.Company
	s.questions = b.Questions
	s.questionIdx = 0
	s.score = 0
	s.interview = nil
	s.askQuestion()
	slog.Info("interview connected",
		"company", s.company.Name,
		"theme", s.company.Theme,
		"departments", len(s.company.Departments),
		"article", s.article.Title,
	)
}

func (s *Session) askQuestion() {
	q := s.questions[s.questionIdx]
	s.question = &world.Task{Kind: world.TaskInterview, Role: "Hiring manager", Text: q.Text, Attempts: 1}
	s.feedback = ""
	s.phase = PhaseInterviewInput
}

func (s *Session) submitInterview(answer string) bool {
	p, history, question := s.company, append([]llm.Exchange(nil), s.interview...), s.question.Text
	reasoner := s.deps.Reasoner
	ok := s.dispatch(RequestJudgeInterview,
		func(ctx context.Context) (any, error) {
			return reasoner.JudgeInterview(ctx, p, history, question, answer)
		},
		func() any { return llm.FailedInterviewVerdict() },
	)
	if ok {
		s.answer = answer
	}
	return ok
}

func (s *Session) onInterviewVerdict(v llm.Verdict) {
	if v.Pass {
		s.score++
	}
	s.interview = append(s.interview, llm.Exchange{Prompt: s.question.Text, Answer: s.answer, Reply: v.Reply})
	s.feedback = v.Reply
	s.question = nil
	s.answer = ""
	s.phase = PhaseInterviewFeedback
}

func (s *Session) nextQuestion() {
	s.questionIdx++
	if s.questionIdx < len(s.questions) {
		s.askQuestion()
		return
	}
	s.phase = PhaseInterviewResult
}

// InterviewPassed reports whether score clears half the questions, rounded up.
func InterviewPassed(score, total int) bool {
	return score >= (total+1)/2
}

func (s *Session) concludeInterview() {
	if !InterviewPassed(s.score, len(s.questions)) {
		slog.Info("interview failed", "score", s.score, "total", len(s.questions))
		s.gameOver(OutcomeRejected)
		return
	}
	s.hire()
}

// hire builds the office and starts the shift.
func (s *Session) hire() {
	gen := s.opts.World
	if gen.Seed == 0 {
		gen.Seed = s.rng.Int63()
	}
	s.building = world.Generate(s.company.Departments, gen)
	s.player = agents.NewPlayer(s.building)
	s.resources = economy.Resources{}
	s.resources.Earn(s.opts.Rules.SigningBonus)
	s.phone = nil
	s.paused = false
	s.scheduler.Reset()
	s.phase = PhasePlay

	s.checkpoint("hired")
	slog.Info("hired",
		"company", s.company.Name,
		"building", s.building,
		"score", s.score,
		"bonus", economy.FormatMoney(s.opts.Rules.SigningBonus),
	)
}
