package advice

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"finpulse/internal/core"

	"github.com/shopspring/decimal"
)

const systemPrompt = `
You are a personal finance assistant inside a budgeting application.

Given a savings goal and a summary of the user's recent ledger, write a short,
practical plan to reach the goal.

Rules:
1. Base every suggestion on the figures provided; do not invent income or expenses.
2. Suggest at most 5 concrete steps, each one sentence.
3. Propose a monthly contribution as a plain decimal number with two digits.
4. Do not recommend specific securities or financial products.

Reply with pure JSON only, no text outside it:

{
  "summary": "<one or two sentences>",
  "steps": ["<step>", "..."],
  "monthly_contribution": "<amount>"
}
`

// Plan is the model's structured answer.
type Plan struct {
	Summary             string   `json:"summary"`
	Steps               []string `json:"steps"`
	MonthlyContribution string   `json:"monthly_contribution"`
}

// Text renders the plan as the advice stored on the goal.
func (p Plan) Text() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(p.Summary))
	for i, step := range p.Steps {
		fmt.Fprintf(&b, "\n%d. %s", i+1, strings.TrimSpace(step))
	}
	if p.MonthlyContribution != "" {
		fmt.Fprintf(&b, "\nSuggested monthly contribution: %s", p.MonthlyContribution)
	}
	return b.String()
}

// BuildPrompt summarises goal and recent ledger entries into the two prompt
// halves sent to the provider.
func BuildPrompt(goal core.Goal, recent []core.Transaction) (system, user string) {
	income, expenses := decimal.Zero, decimal.Zero
	byCategory := map[string]decimal.Decimal{}
	for _, tx := range recent {
		if tx.Kind == core.KindPeriodClose {
			continue
		}
		if tx.IsExpense() {
			expenses = expenses.Add(tx.Amount.Abs())
			byCategory[tx.Category] = byCategory[tx.Category].Add(tx.Amount.Abs())
		} else if tx.Category != core.CategorySavings {
			income = income.Add(tx.Amount)
		}
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool {
		a, b := byCategory[categories[i]], byCategory[categories[j]]
		if a.Equal(b) {
			return categories[i] < categories[j]
		}
		return a.GreaterThan(b)
	})
	if len(categories) > 5 {
		categories = categories[:5]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", goal.Title)
	fmt.Fprintf(&b, "Saved so far: %s of %s (%s%%)\n",
		core.FormatAmount(goal.Current), core.FormatAmount(goal.Target), goal.Progress().StringFixed(2))
	fmt.Fprintf(&b, "Still needed: %s\n", core.FormatAmount(decimal.Max(goal.Target.Sub(goal.Current), decimal.Zero)))
	fmt.Fprintf(&b, "Recent income: %s\n", core.FormatAmount(income))
	fmt.Fprintf(&b, "Recent expenses: %s\n", core.FormatAmount(expenses))
	if len(categories) > 0 {
		b.WriteString("Largest expense categories:\n")
		for _, c := range categories {
			fmt.Fprintf(&b, "- %s: %s\n", c, core.FormatAmount(byCategory[c]))
		}
	}
	return systemPrompt, b.String()
}

// ParsePlan strips markdown fences the model tends to add and decodes the plan.
func ParsePlan(raw string) (Plan, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	var plan Plan
	if err := json.Unmarshal([]byte(clean), &plan); err != nil {
		return Plan{}, fmt.Errorf("decode advice plan: %w", err)
	}
	if strings.TrimSpace(plan.Summary) == "" && len(plan.Steps) == 0 {
		return Plan{}, ErrEmptyResponse
	}
	return plan, nil
}
