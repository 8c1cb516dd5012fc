package storage

import "strings"

// Query builders assemble SQL text only; values are always bound through
// placeholders, never interpolated. Callers translate the wire sentinels
// ("-" for all users, -1 for all games / all moves) into the boolean
// selectivity flags before calling in here.

// BuildGameListQuery returns the game listing query. The data column is
// selected only for complete listings; a username filter joins through
// the players table. No filter means no WHERE clause at all.
func BuildGameListQuery(complete bool, allUsers bool) string {
	var sb strings.Builder
	sb.WriteString("SELECT g.id, g.started, g.last_played")
	if complete {
		sb.WriteString(", g.data")
	}
	sb.WriteString(" FROM " + TableGames + " g")
	if !allUsers {
		sb.WriteString(" JOIN " + TablePlayers + " p ON g.id = p.game_id")
		sb.WriteString(" JOIN " + TableUsers + " u ON u.id = p.user_id")
		sb.WriteString(" WHERE u.username = ?")
	}
	return sb.String()
}

// BuildMoveListQuery returns the move listing query. A WHERE clause is
// always emitted ("WHERE 1" when unfiltered) so a trailing LIMIT always
// has a preceding clause. Bind order matches clause order exactly:
// username, then game id, then limit.
func BuildMoveListQuery(allGames, allUsers, allMoves bool) string {
	var sb strings.Builder
	sb.WriteString("SELECT m.id, m.num, m.move FROM " + TableMoves + " m")

	if !allUsers {
		// username can only be matched by joining
		sb.WriteString(" JOIN " + TableUsers + " u ON u.id = m.user_id")
	}
	sb.WriteString(" WHERE")
	if allUsers && allGames {
		sb.WriteString(" 1")
	} else {
		if !allUsers {
			sb.WriteString(" u.username = ?")
		}
		if !allUsers && !allGames {
			sb.WriteString(" AND")
		}
		if !allGames {
			sb.WriteString(" m.game_id = ?")
		}
	}

	sb.WriteString(" ORDER BY m.num DESC")
	if !allMoves {
		sb.WriteString(" LIMIT ?")
	}

	return sb.String()
}
