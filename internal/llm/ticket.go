// Support tickets: a coworker's complaint and the judgement of the player's
// written fix.
package llm

import (
	"context"
	"fmt"
)

// TicketComplaint generates a complaint raised on a department floor.
func (s *Service) TicketComplaint(ctx context.Context, p CompanyProfile, department string) (Complaint, error) {
	if !s.Enabled() {
		return Complaint{}, fmt.Errorf("LLM client not configured")
	}

	system := fmt.Sprintf(`You write urgent support tickets from stressed employees at %s (%s). The player is the new hire who has to sort them out.

Respond ONLY with a single JSON object:
- "role": the complainer's job title
- "complaint": two or three sentences describing the problem, urgent and slightly ridiculous`, p.Name, p.Theme)

	prompt := fmt.Sprintf("Write a ticket from someone in the %s department.", department)
	response, err := s.client.Complete(ctx, system, prompt, 300)
	if err != nil {
		return Complaint{}, fmt.Errorf("ticket complaint: %w", err)
	}

	var c Complaint
	if err := decodeObject(response, &c); err != nil {
		return Complaint{}, fmt.Errorf("ticket complaint: %w", err)
	}
	c.normalize(department)
	return c, nil
}

// JudgeTicket decides whether the player's reply resolves the complaint.
// thread holds the earlier failed attempts on the same ticket.
func (s *Service) JudgeTicket(ctx context.Context, p CompanyProfile, c Complaint, thread []Exchange, answer string) (Verdict, error) {
	if !s.Enabled() {
		return Verdict{}, fmt.Errorf("LLM client not configured")
	}

	system := fmt.Sprintf(`You are a %s at %s who raised this ticket:

%q

Judge whether the new hire's written reply would actually solve your problem. Be demanding but not impossible.

After each reply respond ONLY with a single JSON object:
- "solved": true if the reply resolves the issue, else false
- "reply": one or two sentences you say back, in character`, c.Role, p.Name, c.Text)

	messages := threadMessages(thread, c.Text, answer)
	response, err := s.client.Chat(ctx, system, messages, 300)
	if err != nil {
		return Verdict{}, fmt.Errorf("judge ticket: %w", err)
	}

	var v ticketVerdict
	if err := decodeObject(response, &v); err != nil {
		return Verdict{}, fmt.Errorf("judge ticket: %w", err)
	}
	if v.Reply == "" {
		if v.Solved {
			v.Reply = "That did it, thanks."
		} else {
			v.Reply = "Still broken."
		}
	}
	return Verdict{Pass: v.Solved, Reply: v.Reply}, nil
}
