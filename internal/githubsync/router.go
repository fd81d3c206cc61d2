package githubsync

import (
	"context"
	"regexp"
	"strings"
	"time"

	"teamboard/internal/models"
	"teamboard/internal/store"
)

const defaultColumnName = "Imported"

var titlePrefixPattern = regexp.MustCompile(`^\s*(\[[^\[\]]+\])\s*(.*)$`)

// Router derives a destination column from a title's bracketed prefix
// convention ("[Bug] Login fails" → the Bug column, title "Login fails").
// The rule set is loaded once per Router, so a bulk-import batch sharing a
// new prefix creates exactly one column for it.
type Router struct {
	board  store.BoardStore
	teamID string
	rules  []models.ColumnPrefixRule
	now    func() time.Time
}

// NewRouter loads a team's prefix rules and returns a router for one
// batch. Build one Router per import batch, not per issue.
func NewRouter(ctx context.Context, board store.BoardStore, teamID string) (*Router, error) {
	rules, err := board.ListPrefixRules(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return &Router{board: board, teamID: teamID, rules: rules, now: time.Now}, nil
}

// Route returns the destination column id for a title and the title with
// any recognized prefix stripped. Unknown bracketed prefixes create a new
// column and rule on the fly; titles without a prefix land in the team's
// default column, created on demand.
func (r *Router) Route(ctx context.Context, title string) (columnID, cleanTitle string, err error) {
	prefix, rest := splitTitlePrefix(title)
	if prefix == "" {
		columnID, err = r.defaultColumn(ctx)
		return columnID, strings.TrimSpace(title), err
	}

	for _, rule := range r.rules {
		if strings.EqualFold(rule.Prefix, prefix) {
			return rule.ColumnID, rest, nil
		}
	}

	column, err := r.createColumn(ctx, prefixColumnName(prefix), false)
	if err != nil {
		return "", "", err
	}
	rule := models.ColumnPrefixRule{
		TeamID:   r.teamID,
		ColumnID: column.ID,
		Prefix:   prefix,
	}
	rule.ID, err = store.GenerateID("cr", nil)
	if err != nil {
		return "", "", err
	}
	if err := r.board.CreatePrefixRule(ctx, &rule); err != nil {
		return "", "", err
	}
	r.rules = append(r.rules, rule)
	return column.ID, rest, nil
}

func (r *Router) defaultColumn(ctx context.Context) (string, error) {
	column, err := r.board.GetDefaultColumn(ctx, r.teamID)
	if err != nil {
		return "", err
	}
	if column != nil {
		return column.ID, nil
	}
	created, err := r.createColumn(ctx, defaultColumnName, true)
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (r *Router) createColumn(ctx context.Context, name string, isDefault bool) (*models.Column, error) {
	id, err := store.GenerateColumnID(nil)
	if err != nil {
		return nil, err
	}
	column := &models.Column{
		ID:        id,
		TeamID:    r.teamID,
		Name:      name,
		IsDefault: isDefault,
		CreatedAt: r.now().UTC(),
	}
	if err := r.board.CreateColumn(ctx, column); err != nil {
		return nil, err
	}
	return column, nil
}

// splitTitlePrefix returns the bracketed prefix (brackets included) and
// the remaining title, or ("", title) when there is no prefix.
func splitTitlePrefix(title string) (prefix, rest string) {
	match := titlePrefixPattern.FindStringSubmatch(title)
	if match == nil {
		return "", title
	}
	return match[1], strings.TrimSpace(match[2])
}

// prefixColumnName derives a column name from a prefix: "[Bug]" → "Bug".
func prefixColumnName(prefix string) string {
	return strings.TrimSpace(strings.Trim(prefix, "[]"))
}
