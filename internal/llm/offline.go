// Offline reasoning, used when no API key is configured. It satisfies the
// same contracts with canned content and word-count heuristics.
package llm

import (
	"context"
	"hash/fnv"
	"strings"
)

// Offline implements the reasoning contracts locally.
type Offline struct {
	// MinInterviewWords and MinTicketWords are the answer lengths that pass.
	MinInterviewWords int
	MinTicketWords    int
}

// NewOffline returns an offline reasoner with the default thresholds.
func NewOffline() *Offline {
	return &Offline{MinInterviewWords: 5, MinTicketWords: 8}
}

var offlineThemes = [...]Theme{ThemeCorporate, ThemeLab, ThemeStudio, ThemeIndustrial}

var offlineComplaints = []Complaint{
	{Role: "Account Manager", Text: "The shared drive ate my quarterly deck and the client call starts in five minutes."},
	{Role: "Junior Analyst", Text: "Excel keeps turning our part numbers into dates. Half the inventory is now 'March 4th'."},
	{Role: "Team Lead", Text: "The printer only prints in Wingdings and I need the reorg chart before the all-hands."},
	{Role: "Office Manager", Text: "Someone set the meeting room calendar to recurring every minute. Nobody can book anything."},
	{Role: "Intern", Text: "I replied-all to the whole company by accident and now there are four hundred replies asking to be removed."},
}

// CompanyProfile derives a company from the article title.
func (o *Offline) CompanyProfile(_ context.Context, title, _ string) (CompanyProfile, error) {
	p := FallbackCompany()
	title = strings.TrimSpace(title)
	if title != "" {
		p.Name = title + " Holdings"
		p.Theme = offlineThemes[hash(title)%uint32(len(offlineThemes))]
	}
	return p, nil
}

// InterviewQuestions returns the stock interview.
func (o *Offline) InterviewQuestions(context.Context, CompanyProfile) ([]Question, error) {
	return FallbackQuestions(), nil
}

// JudgeInterview approves answers of at least MinInterviewWords words.
func (o *Offline) JudgeInterview(_ context.Context, _ CompanyProfile, _ []Exchange, _, answer string) (Verdict, error) {
	if wordCount(answer) >= o.MinInterviewWords {
		return Verdict{Pass: true, Reply: "Good answer. I'm writing that down."}, nil
	}
	return Verdict{Reply: "Could you be a little more... anything?"}, nil
}

// TicketComplaint picks a stock complaint keyed by department.
func (o *Offline) TicketComplaint(_ context.Context, _ CompanyProfile, department string) (Complaint, error) {
	return offlineComplaints[hash(department)%uint32(len(offlineComplaints))], nil
}

// JudgeTicket solves tickets whose reply has at least MinTicketWords words.
func (o *Offline) JudgeTicket(_ context.Context, _ CompanyProfile, _ Complaint, _ []Exchange, answer string) (Verdict, error) {
	if wordCount(answer) >= o.MinTicketWords {
		return Verdict{Pass: true, Reply: "Oh! That actually worked. Thank you."}, nil
	}
	return Verdict{Reply: "That's not going to fix it. Try again."}, nil
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func hash(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}
