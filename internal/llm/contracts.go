// Structured contracts exchanged with the reasoning service, with the
// defaults applied when fields are missing and the canned values used when a
// call fails outright.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Theme is the visual/tonal flavour of the generated company.
type Theme string

const (
	ThemeCorporate  Theme = "corporate"
	ThemeLab        Theme = "lab"
	ThemeStudio     Theme = "studio"
	ThemeIndustrial Theme = "industrial"
)

// ParseTheme maps free text to a known theme, defaulting to corporate.
func ParseTheme(s string) Theme {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeCorporate, ThemeLab, ThemeStudio, ThemeIndustrial:
		return t
	}
	return ThemeCorporate
}

// MaxDepartments caps the number of office floors.
const MaxDepartments = 6

// QuestionCount is the length of an interview.
const QuestionCount = 6

// CompanyProfile describes the employer generated for a session.
type CompanyProfile struct {
	Name        string   `json:"company_name"`
	Theme       Theme    `json:"theme"`
	Departments []string `json:"departments"`
}

func (p *CompanyProfile) normalize() {
	fb := FallbackCompany()
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = fb.Name
	}
	p.Theme = ParseTheme(string(p.Theme))

	var depts []string
	for _, d := range p.Departments {
		if d = strings.TrimSpace(d); d != "" {
			depts = append(depts, d)
		}
	}
	if len(depts) == 0 {
		depts = fb.Departments
	}
	if len(depts) > MaxDepartments {
		depts = depts[:MaxDepartments]
	}
	p.Departments = depts
}

// Question is one interview question.
type Question struct {
	Text string `json:"question"`
}

// normalizeQuestions drops blanks and pads or trims to QuestionCount.
func normalizeQuestions(qs []Question) []Question {
	out := make([]Question, 0, QuestionCount)
	for _, q := range qs {
		if q.Text = strings.TrimSpace(q.Text); q.Text != "" {
			out = append(out, q)
		}
		if len(out) == QuestionCount {
			return out
		}
	}
	for _, q := range FallbackQuestions() {
		if len(out) == QuestionCount {
			break
		}
		out = append(out, q)
	}
	return out
}

// Verdict is the judgement of a submitted answer. Interview judgements carry
// the pass flag as "approved", ticket judgements as "solved".
type Verdict struct {
	Pass  bool   `json:"pass"`
	Reply string `json:"reply"`
}

type interviewVerdict struct {
	Approved bool   `json:"approved"`
	Reply    string `json:"reply"`
}

type ticketVerdict struct {
	Solved bool   `json:"solved"`
	Reply  string `json:"reply"`
}

// Complaint is a support ticket raised by a coworker.
type Complaint struct {
	Role string `json:"role"`
	Text string `json:"complaint"`
}

func (c *Complaint) normalize(department string) {
	fb := FallbackComplaint(department)
	c.Role = strings.TrimSpace(c.Role)
	c.Text = strings.TrimSpace(c.Text)
	if c.Role == "" {
		c.Role = fb.Role
	}
	if c.Text == "" {
		c.Text = fb.Text
	}
}

// Exchange is one prompt/answer/reply round of an interview or ticket thread.
type Exchange struct {
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
	Reply  string `json:"reply"`
}

// decodeObject extracts the outermost JSON object from a model response and
// unmarshals it into v. Unknown fields are ignored.
func decodeObject(response string, v any) error {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON object found in response")
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), v); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// FallbackCompany is used when the company profile cannot be generated.
func FallbackCompany() CompanyProfile {
	return CompanyProfile{
		Name:        "Consolidated Synergy Holdings",
		Theme:       ThemeCorporate,
		Departments: []string{"Sales", "Accounting", "IT Support"},
	}
}

// FallbackQuestions is the stock interview.
func FallbackQuestions() []Question {
	return []Question{
		{Text: "Why do you want to work here?"},
		{Text: "Describe a time you handled an impossible deadline."},
		{Text: "A coworker keeps microwaving fish. What do you do?"},
		{Text: "How do you prioritise three urgent requests at once?"},
		{Text: "What is your greatest weakness?"},
		{Text: "Where do you see yourself at the end of this shift?"},
	}
}

// FallbackComplaint is the stock ticket for a department.
func FallbackComplaint(department string) Complaint {
	if department == "" {
		department = "the office"
	}
	return Complaint{
		Role: "Coworker",
		Text: fmt.Sprintf("Nothing in %s works since the update and my report is due in ten minutes. Fix it.", department),
	}
}

// FailedInterviewVerdict is the canned judgement when the interviewer cannot
// be reached.
func FailedInterviewVerdict() Verdict {
	return Verdict{Reply: "The line crackles and drops. When the interviewer comes back, they have already marked that answer down."}
}

// FailedTicketVerdict is the canned judgement when the ticket cannot be
// evaluated.
func FailedTicketVerdict() Verdict {
	return Verdict{Reply: "Your reply bounced with a mail server error. The ticket stays open."}
}
