package service

import (
	"database/sql"

	"gameserver/internal/server/core"
	"gameserver/internal/server/crypt"
	"gameserver/internal/server/storage"

	"go.uber.org/zap"
)

// CreateUser creates a new account. The username must not exist yet;
// the password arrives transit-obfuscated and is stored as its salted
// digest. Pre-check and insert share one transaction, with the unique
// index on username as the backstop against races.
func (s *Service) CreateUser(login core.Login) error {
	const op = "service.create_user"
	hash := crypt.PasswordHash(login.Password)

	err := s.store.WithTx(func(tx *sql.Tx) error {
		exists, err := userExists(tx, login.Username)
		if err != nil {
			return err
		}
		if exists {
			return core.NoPermission(op, "username already exists")
		}

		_, err = tx.Exec(
			"INSERT INTO "+storage.TableUsers+" (username, password) VALUES (?, ?)",
			login.Username, hash,
		)
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info("user created", zap.String("username", login.Username))
	return nil
}

// VerifyUser checks a login against the stored credential. An unknown
// username is an error; a wrong password is a regular false result.
func (s *Service) VerifyUser(login core.Login) (bool, error) {
	const op = "service.verify_user"

	var stored string
	found := false
	err := s.store.Query(
		"SELECT password FROM "+storage.TableUsers+" WHERE username = ?",
		[]any{login.Username},
		func(rows *sql.Rows) error {
			found = true
			return rows.Scan(&stored)
		},
	)
	if err != nil {
		return false, err
	}
	if !found {
		return false, core.NotFound(op, "user not found")
	}

	return stored == crypt.PasswordHash(login.Password), nil
}

// UpdateUser replaces username and password for the account matching the
// current login. The current login must verify first; a new username
// already taken by another account reports not-found per the wire
// contract.
func (s *Service) UpdateUser(current, update core.Login) error {
	const op = "service.update_user"

	verified, err := s.VerifyUser(current)
	if err != nil {
		return err
	}
	if !verified {
		return core.NoPermission(op, "user verification failed")
	}

	hash := crypt.PasswordHash(update.Password)
	return s.store.WithTx(func(tx *sql.Tx) error {
		if update.Username != current.Username {
			exists, err := userExists(tx, update.Username)
			if err != nil {
				return err
			}
			if exists {
				return core.NotFound(op, "username already taken")
			}
		}

		res, err := tx.Exec(
			"UPDATE "+storage.TableUsers+" SET username = ?, password = ? WHERE username = ?",
			update.Username, hash, current.Username,
		)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return core.NotFound(op, "user not found")
		}
		return nil
	})
}

// userExists verifies username uniqueness within a transaction.
func userExists(tx *sql.Tx, username string) (bool, error) {
	var count int
	err := tx.QueryRow(
		"SELECT COUNT(*) FROM "+storage.TableUsers+" WHERE username = ?",
		username,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
