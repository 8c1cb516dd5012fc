package storage

// Table names shared by the query builders and the domain services.
const (
	TableGames   = "games"
	TableMoves   = "moves"
	TablePlayers = "players"
	TableUsers   = "users"
)

// GameRecord represents a row in the games table. Dates are stored as
// ISO-8601 day strings; data is an opaque JSON blob the server never
// interprets.
type GameRecord struct {
	ID         int64  `db:"id"`
	Active     bool   `db:"active"`
	Started    string `db:"started"`
	LastPlayed string `db:"last_played"`
	Data       string `db:"data"`
}

// MoveRecord represents a row in the moves table. Num is the position
// of the move within its game, unique per game.
type MoveRecord struct {
	ID     int64  `db:"id"`
	UserID int64  `db:"user_id"`
	GameID int64  `db:"game_id"`
	Move   string `db:"move"`
	Num    int    `db:"num"`
}

// UserRecord represents a row in the users table. Password holds the
// salted md5 hex digest, never a plaintext password.
type UserRecord struct {
	ID       int64  `db:"id"`
	Username string `db:"username"`
	Password string `db:"password"`
}

// PlayerRecord links a user to a game it participates in.
type PlayerRecord struct {
	UserID int64 `db:"user_id"`
	GameID int64 `db:"game_id"`
}

// Schema defines the SQLite database structure
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT UNIQUE NOT NULL,
	password TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);

CREATE TABLE IF NOT EXISTS games (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	active INTEGER NOT NULL DEFAULT 1,
	started TEXT NOT NULL,
	last_played TEXT NOT NULL,
	data TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS players (
	user_id INTEGER NOT NULL,
	game_id INTEGER NOT NULL,
	PRIMARY KEY (user_id, game_id),
	FOREIGN KEY (user_id) REFERENCES users(id),
	FOREIGN KEY (game_id) REFERENCES games(id)
);

CREATE INDEX IF NOT EXISTS idx_players_game_id ON players(game_id);

CREATE TABLE IF NOT EXISTS moves (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	game_id INTEGER NOT NULL,
	move TEXT NOT NULL,
	num INTEGER NOT NULL,
	FOREIGN KEY (user_id) REFERENCES users(id),
	FOREIGN KEY (game_id) REFERENCES games(id),
	UNIQUE(game_id, num)
);

CREATE INDEX IF NOT EXISTS idx_moves_game_id ON moves(game_id);
CREATE INDEX IF NOT EXISTS idx_moves_user_id ON moves(user_id);
`

// DropSchema removes all tables, children first.
const DropSchema = `
DROP TABLE IF EXISTS moves;
DROP TABLE IF EXISTS players;
DROP TABLE IF EXISTS games;
DROP TABLE IF EXISTS users;
`
