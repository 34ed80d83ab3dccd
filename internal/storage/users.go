package storage

import (
	"context"
	"time"

	"lexstream/internal/model"
)

const upsertUserSQL = `
INSERT INTO users (learnworlds_user_id, email, username, display_name, avatar_url,
                   learnworlds_tags, category_slugs, last_login_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (learnworlds_user_id) DO UPDATE SET
	email            = EXCLUDED.email,
	username         = EXCLUDED.username,
	display_name     = EXCLUDED.display_name,
	avatar_url       = EXCLUDED.avatar_url,
	learnworlds_tags = EXCLUDED.learnworlds_tags,
	category_slugs   = EXCLUDED.category_slugs,
	last_login_at    = EXCLUDED.last_login_at
RETURNING id`

// UpsertUser refreshes the locally cached identity-provider profile on
// every login and returns the local user ID.
func (s *Store) UpsertUser(ctx context.Context, u *model.User) (int64, error) {
	u.LastLoginAt = time.Now().UTC()
	var id int64
	err := s.db.QueryRow(ctx, upsertUserSQL,
		u.LearnWorldsUserID, u.Email, u.Username, u.DisplayName, u.AvatarURL,
		u.LearnWorldsTags, u.CategorySlugs, u.LastLoginAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	u.ID = id
	return id, nil
}

// UserByID loads a user by local ID.
func (s *Store) UserByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(ctx,
		`SELECT id, learnworlds_user_id, email, username, display_name, avatar_url,
		        learnworlds_tags, category_slugs, last_login_at
		 FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.LearnWorldsUserID, &u.Email, &u.Username, &u.DisplayName, &u.AvatarURL,
		&u.LearnWorldsTags, &u.CategorySlugs, &u.LastLoginAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
