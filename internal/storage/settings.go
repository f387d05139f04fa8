package storage

import "context"

// GetDailyGoal returns the owner's configured daily review goal, or
// domain.ErrNotFound when the owner never set one.
func (db *DB) GetDailyGoal(ctx context.Context, owner string) (int, error) {
	var goal int
	err := db.q(ctx).QueryRowContext(ctx, `
		SELECT daily_goal FROM user_settings WHERE owner = ?
	`, owner).Scan(&goal)
	if err != nil {
		return 0, mapError(err, "settings", owner)
	}
	return goal, nil
}

// SetDailyGoal stores the owner's daily review goal.
func (db *DB) SetDailyGoal(ctx context.Context, owner string, goal int) error {
	_, err := db.q(ctx).ExecContext(ctx, `
		INSERT INTO user_settings (owner, daily_goal) VALUES (?, ?)
		ON CONFLICT (owner) DO UPDATE SET daily_goal = excluded.daily_goal
	`, owner, goal)
	if err != nil {
		return mapError(err, "settings", owner)
	}
	return nil
}
