package component

import (
	"fmt"
	"strings"

	"github.com/carbongdt/carbon/internal/persist"
	"github.com/carbongdt/carbon/internal/reference"
	"github.com/carbongdt/carbon/internal/world"
)

// row is the part of a component the table helpers need.
type row interface {
	World() *world.World
	ReferenceID() reference.ID
	ShouldSerialize() bool
	DatabaseTable() string
}

func insertRow(c row, columns []string, values []any) error {
	params := make([]string, len(columns)+1)
	for i := range params {
		params[i] = fmt.Sprintf("?%d", i+1)
	}
	sql := fmt.Sprintf(`INSERT INTO %s (RefId, %s) VALUES (%s)`,
		persist.QuoteIdentifier(c.DatabaseTable()), strings.Join(columns, ", "), strings.Join(params, ", "))
	q, err := c.World().DB().Prepare(sql)
	if err != nil {
		return err
	}
	if err := q.Exec(append([]any{c.ReferenceID()}, values...)...); err != nil {
		return fmt.Errorf("insert %s %s: %w", c.DatabaseTable(), c.ReferenceID(), err)
	}
	return nil
}

// updateColumn writes one column of the component's row when it serializes.
func updateColumn(c row, column string, value any) error {
	if !c.ShouldSerialize() {
		return nil
	}
	q, err := c.World().DB().Prepare(fmt.Sprintf(`UPDATE %s SET %s = ?1 WHERE RefId = ?2`,
		persist.QuoteIdentifier(c.DatabaseTable()), column))
	if err != nil {
		return err
	}
	if err := q.Exec(value, c.ReferenceID()); err != nil {
		return fmt.Errorf("update %s.%s: %w", c.DatabaseTable(), column, err)
	}
	return nil
}

// selectRow reads the row stored for refID and passes it to fn.
func selectRow(c row, refID reference.ID, fn func(q *persist.Query) error) error {
	q, err := c.World().DB().Prepare(fmt.Sprintf(`SELECT * FROM %s WHERE RefId = ?1`,
		persist.QuoteIdentifier(c.DatabaseTable())))
	if err != nil {
		return err
	}
	defer q.Reset()
	if err := q.BindParameter(1, refID); err != nil {
		return err
	}
	if !q.Step(false) {
		return fmt.Errorf("select %s %s: %s", c.DatabaseTable(), refID, q.LastError())
	}
	if !q.HasRow() {
		return fmt.Errorf("select %s %s: no stored row", c.DatabaseTable(), refID)
	}
	return fn(q)
}
