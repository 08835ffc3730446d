package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aussiebroadwan/portal/pkg/portalsdk"
)

// Load reads everything in one transaction so a concurrent Clear is never
// observed half done.
func (s *Store) Load(ctx context.Context) (portalsdk.PersistedState, error) {
	var state portalsdk.PersistedState

	err := s.WithTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx,
			`SELECT access_token, username, first_session FROM session WHERE id = 1`,
		).Scan(&state.Session.AccessToken, &state.Session.Username, &state.Session.FirstSession)
		if err := ignoreNotFound(err); err != nil {
			return fmt.Errorf("read session: %w", err)
		}

		err = tx.QueryRowContext(ctx, `SELECT data FROM user_data WHERE id = 1`).Scan(&state.UserData)
		if err := ignoreNotFound(err); err != nil {
			return fmt.Errorf("read user data: %w", err)
		}

		cookies, err := loadCookies(ctx, tx)
		if err != nil {
			return fmt.Errorf("read cookies: %w", err)
		}
		state.Cookies = cookies
		return nil
	})
	if err != nil {
		return portalsdk.PersistedState{}, err
	}
	return state, nil
}

func loadCookies(ctx context.Context, tx *sql.Tx) ([]portalsdk.StoredCookie, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT name, path, value, expires_at, secure, http_only FROM cookies ORDER BY name, path`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []portalsdk.StoredCookie
	for rows.Next() {
		var (
			c       portalsdk.StoredCookie
			expires int64
		)
		if err := rows.Scan(&c.Name, &c.Path, &c.Value, &expires, &c.Secure, &c.HttpOnly); err != nil {
			return nil, err
		}
		if expires > 0 {
			c.Expires = time.Unix(expires, 0).UTC()
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) SaveSession(ctx context.Context, session portalsdk.StoredSession) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session (id, access_token, username, first_session, updated_at)
		VALUES (1, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			access_token  = excluded.access_token,
			username      = excluded.username,
			first_session = excluded.first_session,
			updated_at    = excluded.updated_at`,
		session.AccessToken, session.Username, session.FirstSession,
	)
	return err
}

func (s *Store) SaveUserData(ctx context.Context, data []byte) error {
	if data == nil {
		_, err := s.db.ExecContext(ctx, `DELETE FROM user_data`)
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_data (id, data, updated_at)
		VALUES (1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			data       = excluded.data,
			updated_at = excluded.updated_at`,
		data,
	)
	return err
}

// SaveCookies replaces the stored cookies with cookies.
func (s *Store) SaveCookies(ctx context.Context, cookies []portalsdk.StoredCookie) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cookies`); err != nil {
			return err
		}

		for _, c := range cookies {
			var expires int64
			if !c.Expires.IsZero() {
				expires = c.Expires.Unix()
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO cookies (name, path, value, expires_at, secure, http_only)
				VALUES (?, ?, ?, ?, ?, ?)`,
				c.Name, c.Path, c.Value, expires, c.Secure, c.HttpOnly,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// Clear removes the session, user data and cookies in one transaction.
func (s *Store) Clear(ctx context.Context) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"session", "user_data", "cookies"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
		return nil
	})
}
