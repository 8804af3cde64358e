// Interview generation and judging. The question set is a single structured
// call; each answer is judged over the running conversation so the
// interviewer remembers earlier replies.
package llm

import (
	"context"
	"fmt"
)

// InterviewQuestions generates the six interview questions for a company.
func (s *Service) InterviewQuestions(ctx context.Context, p CompanyProfile) ([]Question, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("LLM client not configured")
	}

	system := fmt.Sprintf(`You are the hiring manager at %s (%s). You are interviewing a candidate over the phone for an entry-level position.

Respond ONLY with a single JSON object:
- "questions": an array of exactly %d objects, each {"question": "..."}. Mix sincere and absurd questions.`,
		p.Name, p.Theme, QuestionCount)

	response, err := s.client.Complete(ctx, system, "Write the interview questions.", 600)
	if err != nil {
		return nil, fmt.Errorf("interview questions: %w", err)
	}

	var set struct {
		Questions []Question `json:"questions"`
	}
	if err := decodeObject(response, &set); err != nil {
		return nil, fmt.Errorf("interview questions: %w", err)
	}
	return normalizeQuestions(set.Questions), nil
}

// JudgeInterview decides whether an answer earns a point. history holds the
// already-judged rounds of this interview.
func (s *Service) JudgeInterview(ctx context.Context, p CompanyProfile, history []Exchange, question, answer string) (Verdict, error) {
	if !s.Enabled() {
		return Verdict{}, fmt.Errorf("LLM client not configured")
	}

	system := fmt.Sprintf(`You are the hiring manager at %s, interviewing a candidate by phone. Judge each answer fairly but with a sense of humour. Effort, honesty and wit count; one-word or hostile answers do not.

After each answer respond ONLY with a single JSON object:
- "approved": true if the answer earns a point, else false
- "reply": one or two sentences you say back to the candidate, in character`, p.Name)

	messages := threadMessages(history, question, answer)
	response, err := s.client.Chat(ctx, system, messages, 300)
	if err != nil {
		return Verdict{}, fmt.Errorf("judge interview: %w", err)
	}

	var v interviewVerdict
	if err := decodeObject(response, &v); err != nil {
		return Verdict{}, fmt.Errorf("judge interview: %w", err)
	}
	if v.Reply == "" {
		v.Reply = "Noted."
	}
	return Verdict{Pass: v.Approved, Reply: v.Reply}, nil
}

// threadMessages replays earlier rounds as alternating turns and ends with
// the answer being judged.
func threadMessages(history []Exchange, prompt, answer string) []Message {
	messages := make([]Message, 0, len(history)*2+1)
	for _, h := range history {
		messages = append(messages,
			Message{Role: "user", Content: fmt.Sprintf("Prompt: %s\nAnswer: %s", h.Prompt, h.Answer)},
			Message{Role: "assistant", Content: h.Reply},
		)
	}
	messages = append(messages, Message{
		Role:    "user",
		Content: fmt.Sprintf("Prompt: %s\nAnswer: %s", prompt, answer),
	})
	return messages
}
