package service

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/sirupsen/logrus"

	"github.com/jask/bucketd/internal/database"
	"github.com/jask/bucketd/internal/database/repository"
)

const fuzzyAliasMaxDistance = 2

// RulesService applies merchant aliases and tag rules.
type RulesService struct {
	DB           *sql.DB
	Transactions *repository.TransactionRepo
	Aliases      *repository.AliasRepo
	TagRules     *repository.TagRuleRepo
	Log          *logrus.Logger
}

// AliasFor resolves a raw description to a canonical merchant name.
func (s *RulesService) AliasFor(ctx context.Context, description string) (string, bool, error) {
	aliases, err := s.Aliases.List(ctx)
	if err != nil {
		return "", false, err
	}
	norm := normalizeMerchant(description)
	for _, a := range aliases {
		if aliasMatches(a, norm) {
			return a.Alias, true, nil
		}
	}
	return "", false, nil
}

func aliasMatches(a repository.MerchantAlias, normDesc string) bool {
	pattern := normalizeMerchant(a.Pattern)
	if pattern == "" {
		return false
	}
	switch a.MatchType {
	case "exact":
		return normDesc == pattern
	case "fuzzy":
		for _, token := range strings.Fields(normDesc) {
			if levenshtein.ComputeDistance(token, pattern) <= fuzzyAliasMaxDistance {
				return true
			}
		}
		return false
	default: // contains
		return strings.Contains(normDesc, pattern)
	}
}

func normalizeMerchant(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(strings.TrimSpace(s))), " ")
}

// ApplyToTransactions runs aliases and enabled tag rules over the given
// rows, typically right after an import commit.
func (s *RulesService) ApplyToTransactions(ctx context.Context, txs []repository.Transaction) error {
	rules, err := s.enabledRules(ctx)
	if err != nil {
		return err
	}
	for _, t := range txs {
		if t.Merchant == nil || *t.Merchant == "" {
			if alias, ok, err := s.AliasFor(ctx, t.Description); err != nil {
				return err
			} else if ok {
				if err := s.Transactions.UpdateMerchant(ctx, t.ID, &alias); err != nil {
					return err
				}
				t.Merchant = &alias
			}
		}
		for _, r := range rules {
			if r.matches(t) {
				if err := s.Transactions.AttachTag(ctx, t.ID, r.rule.TagID); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// RuleSample is one example transaction a rule would modify.
type RuleSample struct {
	TransactionID string `json:"transaction_id"`
	Date          string `json:"date"`
	AmountCents   int64  `json:"amount_cents"`
	Description   string `json:"description"`
	TagName       string `json:"tag_name"`
}

// RuleOutcome reports one rule's effect in a dry run or apply.
type RuleOutcome struct {
	RuleID   string       `json:"rule_id"`
	RuleName string       `json:"rule_name"`
	Error    string       `json:"error,omitempty"`
	Matched  int          `json:"matched"`
	Tagged   int          `json:"tagged"`
	Samples  []RuleSample `json:"samples,omitempty"`
}

// RuleRunSummary totals a rule run.
type RuleRunSummary struct {
	TransactionsScoped int `json:"transactions_scoped"`
	TotalTagged        int `json:"total_tagged"`
	FailedRules        int `json:"failed_rules"`
}

type compiledRule struct {
	rule repository.TagRule
	re   *regexp.Regexp
}

func (c compiledRule) matches(t repository.Transaction) bool {
	var value string
	switch c.rule.Field {
	case "merchant":
		if t.Merchant != nil {
			value = *t.Merchant
		}
	default:
		value = t.Description
	}
	value = strings.ToLower(value)
	pattern := strings.ToLower(c.rule.Pattern)
	switch c.rule.MatchType {
	case "exact":
		return value == pattern
	case "regexp":
		return c.re != nil && c.re.MatchString(value)
	default: // contains
		return strings.Contains(value, pattern)
	}
}

func (s *RulesService) enabledRules(ctx context.Context) ([]compiledRule, error) {
	rules, err := s.TagRules.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []compiledRule
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		cr := compiledRule{rule: r}
		if r.MatchType == "regexp" {
			re, err := regexp.Compile("(?i)" + r.Pattern)
			if err != nil {
				continue // surfaced per-rule by DryRun
			}
			cr.re = re
		}
		out = append(out, cr)
	}
	return out, nil
}

// DryRunTagRules evaluates every enabled rule against all transactions
// without writing, reporting per-rule match counts and up to three samples.
func (s *RulesService) DryRunTagRules(ctx context.Context) ([]RuleOutcome, RuleRunSummary, error) {
	return s.runTagRules(ctx, true)
}

// ApplyTagRules attaches tags for every matching rule in one transaction.
func (s *RulesService) ApplyTagRules(ctx context.Context) ([]RuleOutcome, RuleRunSummary, error) {
	return s.runTagRules(ctx, false)
}

func (s *RulesService) runTagRules(ctx context.Context, dryRun bool) ([]RuleOutcome, RuleRunSummary, error) {
	rules, err := s.TagRules.List(ctx)
	if err != nil {
		return nil, RuleRunSummary{}, err
	}
	txs, err := s.Transactions.List(ctx, repository.TransactionFilters{})
	if err != nil {
		return nil, RuleRunSummary{}, err
	}
	summary := RuleRunSummary{TransactionsScoped: len(txs)}

	type pendingTag struct{ txID, tagID string }
	var pending []pendingTag
	outcomes := make([]RuleOutcome, 0, len(rules))
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		outcome := RuleOutcome{RuleID: r.ID, RuleName: r.Name}
		cr := compiledRule{rule: r}
		if r.MatchType == "regexp" {
			re, reErr := regexp.Compile("(?i)" + r.Pattern)
			if reErr != nil {
				outcome.Error = "invalid pattern: " + reErr.Error()
				summary.FailedRules++
				outcomes = append(outcomes, outcome)
				continue
			}
			cr.re = re
		}
		for _, t := range txs {
			if !cr.matches(t) {
				continue
			}
			outcome.Matched++
			if hasTag(t, r.TagID) {
				continue
			}
			outcome.Tagged++
			pending = append(pending, pendingTag{txID: t.ID, tagID: r.TagID})
			if len(outcome.Samples) < 3 {
				outcome.Samples = append(outcome.Samples, RuleSample{
					TransactionID: t.ID,
					Date:          t.Date.Format("2006-01-02"),
					AmountCents:   t.AmountCents,
					Description:   t.Description,
					TagName:       r.Name,
				})
			}
		}
		summary.TotalTagged += outcome.Tagged
		outcomes = append(outcomes, outcome)
	}

	if dryRun || len(pending) == 0 {
		return outcomes, summary, nil
	}

	err = database.WithTx(s.DB, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO transaction_tags(transaction_id, tag_id) VALUES(?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, p := range pending {
			if _, err := stmt.ExecContext(ctx, p.txID, p.tagID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, RuleRunSummary{}, err
	}
	return outcomes, summary, nil
}

func hasTag(t repository.Transaction, tagID string) bool {
	for _, tag := range t.Tags {
		if tag.ID == tagID {
			return true
		}
	}
	return false
}
