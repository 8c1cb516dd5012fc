package service

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"gameserver/internal/server/core"
	"gameserver/internal/server/storage"

	"go.uber.org/zap"
)

// Wire sentinels for the list endpoints: "-" matches all usernames,
// -1 matches all games or all moves.
const (
	AllUsers = "-"
	All      = -1
)

// GameList maps game ids to their content and dates. Games entries are
// nil when the listing was requested without data.
type GameList struct {
	Games      map[int64]*string `json:"games"`
	Started    map[int64]string  `json:"started"`
	LastPlayed map[int64]string  `json:"lastPlayed"`
}

// MoveList maps move ids to their content, per-game number and author.
type MoveList struct {
	Moves        map[int64]string `json:"moves"`
	IDToNum      map[int64]int    `json:"idToNum"`
	IDToUsername map[int64]string `json:"idToUsername"`
}

// CreateGame inserts a game started today with empty data and one player
// row per username, all in a single transaction. An unknown username
// rolls the whole creation back.
func (s *Service) CreateGame(players []string) (int64, error) {
	const op = "service.create_game"
	today := time.Now().Format(time.DateOnly)

	var id int64
	err := s.store.WithTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			"INSERT INTO "+storage.TableGames+" (active, started, last_played, data) VALUES (1, ?, ?, '')",
			today, today,
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		if err != nil {
			return err
		}
		if id <= 0 {
			return core.Unknown(op, "no generated game id")
		}

		for _, player := range players {
			res, err := tx.Exec(
				"INSERT INTO "+storage.TablePlayers+" (user_id, game_id)"+
					" SELECT u.id, ? FROM "+storage.TableUsers+" u WHERE u.username = ?",
				id, player,
			)
			if err != nil {
				return err
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return core.NotFound(op, "player does not exist: "+player)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("game created", zap.Int64("gameId", id), zap.Int("players", len(players)))
	return id, nil
}

// GetGame returns the stored game data for an id.
func (s *Service) GetGame(id int64) (string, error) {
	const op = "service.get_game"

	var data string
	found := false
	err := s.store.Query(
		"SELECT data FROM "+storage.TableGames+" WHERE id = ?",
		[]any{id},
		func(rows *sql.Rows) error {
			found = true
			return rows.Scan(&data)
		},
	)
	if err != nil {
		return "", err
	}
	if !found {
		return "", core.NotFound(op, "game not found")
	}
	return data, nil
}

// UpdateGame replaces the stored game data wholesale.
func (s *Service) UpdateGame(id int64, data string) error {
	const op = "service.update_game"

	affected, err := s.store.Update(
		"UPDATE "+storage.TableGames+" SET data = ? WHERE id = ?",
		data, id,
	)
	if err != nil {
		return err
	}
	if affected == 0 {
		return core.NotFound(op, "game not found")
	}
	return nil
}

// SetMove appends a move to a game. The move number continues the
// game-wide sequence (one past the latest move of the game regardless of
// author); UNIQUE(game_id, num) backs this up at the store. The game's
// last_played date advances to today in the same transaction.
func (s *Service) SetMove(gameID int64, username, move string) error {
	const op = "service.set_move"
	today := time.Now().Format(time.DateOnly)

	return s.store.WithTx(func(tx *sql.Tx) error {
		res, err := tx.Exec(
			"UPDATE "+storage.TableGames+" SET last_played = ? WHERE id = ?",
			today, gameID,
		)
		if err != nil {
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return core.NotFound(op, "game not found")
		}

		num := 1
		var lastNum int
		err = tx.QueryRow(
			"SELECT num FROM "+storage.TableMoves+" WHERE game_id = ? ORDER BY num DESC LIMIT 1",
			gameID,
		).Scan(&lastNum)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// first move of the game
		case err != nil:
			return err
		default:
			num = lastNum + 1
		}

		res, err = tx.Exec(
			"INSERT INTO "+storage.TableMoves+" (user_id, game_id, move, num)"+
				" SELECT u.id, ?, ?, ? FROM "+storage.TableUsers+" u WHERE u.username = ?",
			gameID, move, num, username,
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return core.NotFound(op, "user does not exist: "+username)
		}
		return nil
	})
}

// ListGames lists games, optionally filtered to one participant and
// optionally including the game data.
func (s *Service) ListGames(complete bool, username string) (*GameList, error) {
	allUsers := username == AllUsers
	query := storage.BuildGameListQuery(complete, allUsers)

	var args []any
	if !allUsers {
		args = append(args, username)
	}

	list := &GameList{
		Games:      make(map[int64]*string),
		Started:    make(map[int64]string),
		LastPlayed: make(map[int64]string),
	}
	err := s.store.Query(query, args, func(rows *sql.Rows) error {
		var (
			id                  int64
			started, lastPlayed string
			data                *string
		)
		if complete {
			if err := rows.Scan(&id, &started, &lastPlayed, &data); err != nil {
				return err
			}
		} else {
			if err := rows.Scan(&id, &started, &lastPlayed); err != nil {
				return err
			}
		}
		list.Games[id] = data
		list.Started[id] = started
		list.LastPlayed[id] = lastPlayed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return list, nil
}

// ListMoves lists moves newest first, optionally filtered by game and
// author and optionally bounded. Bind order follows the builder contract:
// username, game id, limit.
func (s *Service) ListMoves(gameID int64, username string, count int) (*MoveList, error) {
	allGames := gameID == All
	allUsers := username == AllUsers
	allMoves := count == All
	query := storage.BuildMoveListQuery(allGames, allUsers, allMoves)

	var args []any
	if !allUsers {
		args = append(args, username)
	}
	if !allGames {
		args = append(args, gameID)
	}
	if !allMoves {
		args = append(args, count)
	}

	list := &MoveList{
		Moves:        make(map[int64]string),
		IDToNum:      make(map[int64]int),
		IDToUsername: make(map[int64]string),
	}
	err := s.store.Query(query, args, func(rows *sql.Rows) error {
		var (
			id   int64
			num  int
			move string
		)
		if err := rows.Scan(&id, &num, &move); err != nil {
			return err
		}
		list.Moves[id] = move
		list.IDToNum[id] = num
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.resolveMoveAuthors(list); err != nil {
		return nil, err
	}
	return list, nil
}

// resolveMoveAuthors fills IDToUsername for the collected move ids.
func (s *Service) resolveMoveAuthors(list *MoveList) error {
	if len(list.Moves) == 0 {
		return nil
	}

	ids := make([]any, 0, len(list.Moves))
	for id := range list.Moves {
		ids = append(ids, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	query := "SELECT m.id, u.username FROM " + storage.TableMoves + " m" +
		" JOIN " + storage.TableUsers + " u ON u.id = m.user_id" +
		" WHERE m.id IN (" + placeholders + ")"

	return s.store.Query(query, ids, func(rows *sql.Rows) error {
		var (
			id       int64
			username string
		)
		if err := rows.Scan(&id, &username); err != nil {
			return err
		}
		list.IDToUsername[id] = username
		return nil
	})
}
