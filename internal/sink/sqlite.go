package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pkg/errors"

	"github.com/you/fakechat/internal/core"
	"github.com/you/fakechat/internal/httpapi"
)

const schema = `CREATE TABLE IF NOT EXISTS messages (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  ts TEXT NOT NULL,
  offset_sec REAL NOT NULL DEFAULT 0,
  username TEXT NOT NULL,
  text TEXT NOT NULL,
  bot INTEGER NOT NULL DEFAULT 0,
  colour TEXT NOT NULL DEFAULT '',
  badges_json TEXT NOT NULL DEFAULT '[]'
);`

type SQLiteSink struct {
	db *sql.DB
}

const defaultListLimit = 100

func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "apply schema")
	}
	if _, err := db.Exec(`PRAGMA journal_mode=wal;`); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "set WAL")
	}
	ApplySQLitePragmas(context.Background(), db)
	return &SQLiteSink{db: db}, nil
}

func (s *SQLiteSink) Close() error { return s.db.Close() }

func (s *SQLiteSink) Write(ev core.StoredEvent) error {
	const q = `INSERT INTO messages (ts, offset_sec, username, text, bot, colour, badges_json)
VALUES (?, ?, ?, ?, ?, ?, ?);`
	ts := ev.Ts.UTC().Format(time.RFC3339Nano)
	bot := 0
	if ev.Bot {
		bot = 1
	}
	_, err := s.db.Exec(q, ts, ev.Timestamp, ev.Username, ev.Text, bot, ev.Color, badgesJSON(ev.Badges))
	return errors.Wrap(err, "insert message")
}

func badgesJSON(badges []core.Badge) string {
	if len(badges) == 0 {
		return "[]"
	}
	names := make([]string, 0, len(badges))
	for _, b := range badges {
		names = append(names, b.Name)
	}
	data, err := json.Marshal(names)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func (s *SQLiteSink) Ping() error {
	return s.db.Ping()
}

func (s *SQLiteSink) String() string {
	return fmt.Sprintf("SQLiteSink{%p}", s.db)
}

func (s *SQLiteSink) CountMessages(ctx context.Context, filters httpapi.Filters) (int64, error) {
	query, args := buildMessageQuery(filters, true)
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, errors.Wrap(err, "count")
	}
	return n, nil
}

func (s *SQLiteSink) ListMessages(ctx context.Context, filters httpapi.Filters) ([]core.StoredEvent, error) {
	query, args := buildMessageQuery(filters, false)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list messages")
	}
	defer rows.Close()

	var out []core.StoredEvent
	for rows.Next() {
		var (
			ev     core.StoredEvent
			ts     string
			bot    int
			badges string
		)
		if err := rows.Scan(&ev.ID, &ts, &ev.Timestamp, &ev.Username, &ev.Text, &bot, &ev.Color, &badges); err != nil {
			return nil, errors.Wrap(err, "scan message")
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			ev.Ts = t
		}
		ev.Bot = bot != 0
		var names []string
		if err := json.Unmarshal([]byte(badges), &names); err == nil {
			for _, name := range names {
				ev.Badges = append(ev.Badges, core.Badge{Kind: strings.ToLower(name), Name: name})
			}
		}
		out = append(out, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate messages")
	}
	return out, nil
}

func buildMessageQuery(filters httpapi.Filters, count bool) (string, []any) {
	var builder strings.Builder
	if count {
		builder.WriteString("SELECT COUNT(*) FROM messages")
	} else {
		builder.WriteString("SELECT id, ts, offset_sec, username, text, bot, colour, badges_json FROM messages")
	}

	var (
		conditions []string
		args       []any
	)

	if len(filters.Usernames) > 0 {
		ors := make([]string, 0, len(filters.Usernames))
		for _, u := range filters.Usernames {
			ors = append(ors, "LOWER(username) LIKE '%' || ? || '%'")
			args = append(args, u)
		}
		conditions = append(conditions, fmt.Sprintf("(%s)", strings.Join(ors, " OR ")))
	}

	if filters.Bot != nil {
		bot := 0
		if *filters.Bot {
			bot = 1
		}
		conditions = append(conditions, "bot = ?")
		args = append(args, bot)
	}

	if filters.Since != nil {
		conditions = append(conditions, "ts >= ?")
		args = append(args, filters.Since.UTC().Format(time.RFC3339Nano))
	}

	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}

	if !count {
		order := "DESC"
		if filters.Order == httpapi.OrderAsc {
			order = "ASC"
		}
		builder.WriteString(" ORDER BY ts ")
		builder.WriteString(order)
		limit := filters.Limit
		if limit <= 0 {
			limit = defaultListLimit
		}
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}

	builder.WriteString(";")
	return builder.String(), args
}
