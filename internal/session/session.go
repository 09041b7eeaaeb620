// Package session drives game progression for one timed run.
package session

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/mizuki-t/kanata/internal/answer"
	"github.com/mizuki-t/kanata/internal/model"
)

// Verdict classifies a judged input.
type Verdict int

const (
	// VerdictNone means there is no answer to judge yet.
	VerdictNone Verdict = iota
	// VerdictIncorrect means the converted input does not match the target.
	VerdictIncorrect
	// VerdictCorrect means the converted input matches the target.
	VerdictCorrect
)

// Controller owns the state of a single game run: the sampled questions,
// progress index, correct count and elapsed time. Exactly one of the answer
// path and the expiry path may advance a question; the advancing flag blocks
// the loser of that race and the generation counter invalidates timer
// callbacks issued for an earlier question or an earlier run.
type Controller struct {
	conv answer.Table
	now  func() time.Time
	rnd  *rand.Rand

	questions  []model.Question
	index      int
	correct    int
	startedAt  time.Time
	active     bool
	advancing  bool
	generation uint64

	result *model.Result
}

// New constructs a controller with the wall clock and a time-seeded rand.
func New(conv answer.Table) *Controller {
	return NewWithClock(conv, time.Now, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewWithClock allows deterministic timestamps and sampling in tests.
func NewWithClock(conv answer.Table, now func() time.Time, rnd *rand.Rand) *Controller {
	return &Controller{conv: conv, now: now, rnd: rnd}
}

// Start samples up to sampleSize questions from the pool and begins a run.
func (c *Controller) Start(pool []model.Question, sampleSize int) error {
	if len(pool) == 0 {
		return fmt.Errorf("question pool is empty")
	}
	if sampleSize <= 0 {
		return fmt.Errorf("sample size must be > 0")
	}
	c.questions = c.sample(pool, sampleSize)
	c.index = 0
	c.correct = 0
	c.startedAt = c.now()
	c.active = true
	c.advancing = false
	c.generation++
	c.result = nil
	return nil
}

// sample draws an unbiased permutation (Fisher-Yates) truncated to n.
func (c *Controller) sample(pool []model.Question, n int) []model.Question {
	shuffled := append([]model.Question(nil), pool...)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := c.rnd.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	if n < len(shuffled) {
		shuffled = shuffled[:n]
	}
	return shuffled
}

// Current returns the question at the progress index.
func (c *Controller) Current() (model.Question, bool) {
	if !c.active || c.index >= len(c.questions) {
		return model.Question{}, false
	}
	return c.questions[c.index], true
}

// Active reports whether a run is in progress.
func (c *Controller) Active() bool { return c.active }

// Advancing reports whether the current question has been judged and the
// transition to the next one is pending.
func (c *Controller) Advancing() bool { return c.advancing }

// Generation identifies the current question slot. Timer callbacks capture it
// when scheduled and must present it back; a mismatch marks them stale.
func (c *Controller) Generation() uint64 { return c.generation }

// Index returns the zero-based progress index.
func (c *Controller) Index() int { return c.index }

// Total returns the number of sampled questions.
func (c *Controller) Total() int { return len(c.questions) }

// CorrectCount returns the number of correctly answered questions so far.
func (c *Controller) CorrectCount() int { return c.correct }

// Elapsed returns the time since the run started.
func (c *Controller) Elapsed() time.Duration {
	if c.startedAt.IsZero() {
		return 0
	}
	return c.now().Sub(c.startedAt)
}

// Judge evaluates the full input text against the current question. A correct
// verdict counts the question and arms the advancing guard; the caller
// completes the transition with Advance. Inputs that violate the context
// prefix or carry no answer yet judge as VerdictNone.
func (c *Controller) Judge(fullInput string) Verdict {
	question, ok := c.Current()
	if !ok || c.advancing {
		return VerdictNone
	}
	raw, ok := rawAnswer(fullInput, question.Context)
	if !ok {
		return VerdictNone
	}
	converted := question.Context + c.conv.Convert(raw, question.Context)
	if !answer.IsCorrect(converted, question.Expected) {
		return VerdictIncorrect
	}
	c.correct++
	c.advancing = true
	return VerdictCorrect
}

// Preview returns the converted form of the input for display, or "" when
// there is no answer yet.
func (c *Controller) Preview(fullInput string) string {
	question, ok := c.Current()
	if !ok {
		return ""
	}
	raw, ok := rawAnswer(fullInput, question.Context)
	if !ok {
		return ""
	}
	return question.Context + c.conv.Convert(raw, question.Context)
}

// Expire force-judges the current question as unanswered. It reports whether
// the expiry took effect; a stale generation, an armed guard or an inactive
// run make it a no-op.
func (c *Controller) Expire(generation uint64) bool {
	if !c.active || c.advancing || generation != c.generation {
		return false
	}
	if c.index >= len(c.questions) {
		return false
	}
	c.advancing = true
	return true
}

// Advance completes the transition armed by Judge or Expire and loads the
// next question slot. It finalizes the run past the last question.
func (c *Controller) Advance(generation uint64) bool {
	if !c.active || generation != c.generation {
		return false
	}
	c.index++
	c.generation++
	c.advancing = false
	if c.index >= len(c.questions) {
		c.finalize(false)
	}
	return true
}

// Retire terminates the run early. The score is forced to zero; the correct
// count and elapsed time up to this moment are preserved.
func (c *Controller) Retire() (model.Result, bool) {
	if !c.active {
		return model.Result{}, false
	}
	c.finalize(true)
	result := *c.result
	return result, true
}

// Result returns the outcome of a finished run.
func (c *Controller) Result() (model.Result, bool) {
	if c.result == nil {
		return model.Result{}, false
	}
	return *c.result, true
}

func (c *Controller) finalize(retired bool) {
	elapsed := c.Elapsed().Seconds()
	score := Score(c.correct, elapsed)
	if retired {
		score = 0
	}
	c.result = &model.Result{
		Score:          score,
		Correct:        c.correct,
		Total:          len(c.questions),
		ElapsedSeconds: elapsed,
		Retired:        retired,
	}
	c.active = false
	c.advancing = false
	c.generation++
}

// Score computes the final score: a 100-point base, minus one point per
// elapsed second, plus ten per correct answer, floored at zero.
func Score(correct int, elapsedSeconds float64) float64 {
	score := 100 - elapsedSeconds + float64(correct)*10
	if score < 0 {
		return 0
	}
	return score
}

// rawAnswer strips the context prefix and surrounding whitespace from the
// input. It reports false when the prefix was violated or nothing has been
// typed past it yet.
func rawAnswer(fullInput, context string) (string, bool) {
	if !strings.HasPrefix(fullInput, context) {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(fullInput, context))
	if raw == "" {
		return "", false
	}
	return raw, true
}
