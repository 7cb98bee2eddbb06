package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/hearth/internal/model"
)

type PushStore struct {
	db *sql.DB
}

func NewPushStore(db *sql.DB) *PushStore {
	return &PushStore{db: db}
}

func scanSubscription(scanner interface{ Scan(...any) error }) (*model.PushSubscription, error) {
	var sub model.PushSubscription
	err := scanner.Scan(&sub.ID, &sub.HouseholdID, &sub.UserID, &sub.Endpoint, &sub.P256dhKey, &sub.AuthKey, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

const subscriptionCols = `id, household_id, user_id, endpoint, p256dh_key, auth_key, created_at`

// Subscribe registers a browser endpoint for the household. Re-subscribing
// an endpoint moves it to the caller and refreshes its keys.
func (s *PushStore) Subscribe(ctx context.Context, householdID int64, userID, endpoint, p256dh, auth string) (*model.PushSubscription, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO push_subscriptions (household_id, user_id, endpoint, p256dh_key, auth_key)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (endpoint) DO UPDATE SET
		   household_id = excluded.household_id,
		   user_id = excluded.user_id,
		   p256dh_key = excluded.p256dh_key,
		   auth_key = excluded.auth_key`,
		householdID, userID, endpoint, p256dh, auth,
	)
	if err != nil {
		return nil, fmt.Errorf("create push subscription: %w", err)
	}
	// LastInsertId is unreliable after the conflict branch; look up by endpoint.
	row := s.db.QueryRowContext(ctx, `SELECT `+subscriptionCols+` FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	sub, err := scanSubscription(row)
	if err != nil {
		return nil, fmt.Errorf("get push subscription: %w", err)
	}
	return sub, nil
}

func (s *PushStore) ListByHousehold(ctx context.Context, householdID int64) ([]model.PushSubscription, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+subscriptionCols+` FROM push_subscriptions WHERE household_id = ? ORDER BY created_at DESC, id DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.PushSubscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// Unsubscribe removes an endpoint owned by userID.
func (s *PushStore) Unsubscribe(ctx context.Context, userID, endpoint string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM push_subscriptions WHERE endpoint = ? AND user_id = ?`,
		endpoint, userID,
	)
	if err != nil {
		return false, fmt.Errorf("delete push subscription: %w", err)
	}
	return affected(result)
}

// DeleteByEndpoint drops a subscription the push service reported as gone.
func (s *PushStore) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription by endpoint: %w", err)
	}
	return nil
}
