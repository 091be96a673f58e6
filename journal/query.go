package journal

import "time"

// Recent returns up to limit events, newest first. An empty item matches
// every drink.
func (j *SQLite) Recent(item string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.Query(`
		SELECT event_id, time, item, reason, price_before, price_after
		FROM price_changes
		WHERE (? = '' OR item = ?)
		ORDER BY event_id DESC
		LIMIT ?`, item, item, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e  Event
			at time.Time
		)
		if err := rows.Scan(&e.ID, &at, &e.Item, &e.Reason, &e.Before, &e.After); err != nil {
			return nil, err
		}
		e.Time = at.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
