// Company generation. Turns a random article into the employer the player
// interviews with, including the departments that become office floors.
package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Service implements the game's reasoning contracts on top of a Client.
type Service struct {
	client *Client
}

// NewService wraps a configured client.
func NewService(c *Client) *Service {
	return &Service{client: c}
}

// Enabled reports whether remote calls can be made.
func (s *Service) Enabled() bool {
	return s != nil && s.client.Enabled()
}

const companySystem = `You invent satirical fictional employers for a workplace-survival game. Keep everything office-safe and a little absurd.

Respond ONLY with a single JSON object:
- "company_name": the company's name
- "theme": one of "corporate", "lab", "studio", "industrial"
- "departments": 3 to 5 short department names, one per office floor`

// CompanyProfile generates the employer, inspired by a seed article.
func (s *Service) CompanyProfile(ctx context.Context, title, text string) (CompanyProfile, error) {
	if !s.Enabled() {
		return CompanyProfile{}, fmt.Errorf("LLM client not configured")
	}

	var b strings.Builder
	b.WriteString("Base the company loosely on this article.\n\n")
	if title != "" {
		fmt.Fprintf(&b, "Title: %s\n", title)
	}
	if text != "" {
		fmt.Fprintf(&b, "Summary: %s\n", truncate(text, 1200))
	}
	b.WriteString("\nRespond with a single JSON object.")

	response, err := s.client.Complete(ctx, companySystem, b.String(), 300)
	if err != nil {
		return CompanyProfile{}, fmt.Errorf("company profile: %w", err)
	}

	var p CompanyProfile
	if err := decodeObject(response, &p); err != nil {
		return CompanyProfile{}, fmt.Errorf("company profile: %w", err)
	}
	p.normalize()
	return p, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
