package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alphabot-ai/devconnect/internal/dbx"
	"github.com/alphabot-ai/devconnect/internal/model"
	"github.com/alphabot-ai/devconnect/internal/store"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer; one connection keeps transactions from
	// tripping over "database is locked".
	db.SetMaxOpenConns(1)
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	// Migration 1: Initial schema
	`
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	password TEXT NOT NULL,
	avatar TEXT,
	created_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);

CREATE TABLE IF NOT EXISTS posts (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	text TEXT NOT NULL,
	name TEXT,
	avatar TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);

CREATE TABLE IF NOT EXISTS post_likes (
	post_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_post_likes_unique ON post_likes(post_id, user_id);

CREATE TABLE IF NOT EXISTS post_comments (
	id TEXT PRIMARY KEY,
	post_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	text TEXT NOT NULL,
	name TEXT,
	avatar TEXT,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_post_comments_post_id ON post_comments(post_id);
`,
	// Future migrations go here:
	// Migration 2: `ALTER TABLE ...`,
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	id := uuid.NewString()
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO users (id, name, email, password, avatar, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, id, user.Name, user.Email, user.Password, nullIfEmpty(user.Avatar), now.UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEmail
		}
		return err
	}
	user.ID = id
	user.Date = time.UnixMilli(now.UnixMilli())
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, email, password, avatar, created_at FROM users WHERE id = ?
`, id)
	return scanUser(row)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, name, email, password, avatar, created_at FROM users WHERE email = ?
`, email)
	return scanUser(row)
}

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	id := uuid.NewString()
	now := time.Now()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO posts (id, user_id, text, name, avatar, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`, id, post.User, post.Text, nullIfEmpty(post.Name), nullIfEmpty(post.Avatar), now.UnixMilli())
	if err != nil {
		return err
	}
	post.ID = id
	post.Date = time.UnixMilli(now.UnixMilli())
	if post.Likes == nil {
		post.Likes = []model.Like{}
	}
	if post.Comments == nil {
		post.Comments = []model.Comment{}
	}
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	return getPost(ctx, s.db, id)
}

func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, text, name, avatar, created_at
FROM posts
ORDER BY created_at DESC, rowid DESC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []model.Post{}
	index := make(map[string]int)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		index[post.ID] = len(posts)
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	likeRows, err := s.db.QueryContext(ctx, `SELECT post_id, user_id FROM post_likes ORDER BY rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer likeRows.Close()
	for likeRows.Next() {
		var postID string
		var like model.Like
		if err := likeRows.Scan(&postID, &like.User); err != nil {
			return nil, err
		}
		if i, ok := index[postID]; ok {
			posts[i].Likes = append(posts[i].Likes, like)
		}
	}
	if err := likeRows.Err(); err != nil {
		return nil, err
	}

	commentRows, err := s.db.QueryContext(ctx, `
SELECT post_id, id, user_id, text, name, avatar, created_at
FROM post_comments
ORDER BY rowid DESC
`)
	if err != nil {
		return nil, err
	}
	defer commentRows.Close()
	for commentRows.Next() {
		var postID string
		c, err := scanComment(commentRows, &postID)
		if err != nil {
			return nil, err
		}
		if i, ok := index[postID]; ok {
			posts[i].Comments = append(posts[i].Comments, c)
		}
	}
	return posts, commentRows.Err()
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id = ?`, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM post_comments WHERE post_id = ?`, id)
		return err
	})
}

func (s *Store) AddLike(ctx context.Context, postID, userID string) ([]model.Like, error) {
	var likes []model.Like
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := postExists(ctx, tx, postID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
INSERT INTO post_likes (post_id, user_id, created_at) VALUES (?, ?, ?)
`, postID, userID, time.Now().UnixMilli())
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrAlreadyLiked
			}
			return err
		}
		likes, err = listLikes(ctx, tx, postID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return likes, nil
}

func (s *Store) RemoveLike(ctx context.Context, postID, userID string) ([]model.Like, error) {
	var likes []model.Like
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := postExists(ctx, tx, postID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM post_likes WHERE post_id = ? AND user_id = ?`, postID, userID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotLiked
		}
		likes, err = listLikes(ctx, tx, postID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return likes, nil
}

func (s *Store) AddComment(ctx context.Context, postID string, comment *model.Comment) (model.Post, error) {
	var post model.Post
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := postExists(ctx, tx, postID); err != nil {
			return err
		}
		id := uuid.NewString()
		now := time.Now()
		_, err := tx.ExecContext(ctx, `
INSERT INTO post_comments (id, post_id, user_id, text, name, avatar, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, id, postID, comment.User, comment.Text, nullIfEmpty(comment.Name), nullIfEmpty(comment.Avatar), now.UnixMilli())
		if err != nil {
			return err
		}
		comment.ID = id
		comment.Date = time.UnixMilli(now.UnixMilli())
		post, err = getPost(ctx, tx, postID)
		return err
	})
	if err != nil {
		return model.Post{}, err
	}
	return post, nil
}

func (s *Store) RemoveComment(ctx context.Context, postID, commentID string) ([]model.Comment, error) {
	var comments []model.Comment
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := postExists(ctx, tx, postID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM post_comments WHERE post_id = ? AND id = ?`, postID, commentID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		comments, err = listComments(ctx, tx, postID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func getPost(ctx context.Context, q dbx.DBTX, id string) (model.Post, error) {
	row := q.QueryRowContext(ctx, `
SELECT id, user_id, text, name, avatar, created_at FROM posts WHERE id = ?
`, id)
	post, err := scanPost(row)
	if err != nil {
		return model.Post{}, err
	}
	if post.Likes, err = listLikes(ctx, q, id); err != nil {
		return model.Post{}, err
	}
	if post.Comments, err = listComments(ctx, q, id); err != nil {
		return model.Post{}, err
	}
	return post, nil
}

func postExists(ctx context.Context, q dbx.DBTX, id string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func listLikes(ctx context.Context, q dbx.DBTX, postID string) ([]model.Like, error) {
	rows, err := q.QueryContext(ctx, `SELECT user_id FROM post_likes WHERE post_id = ? ORDER BY rowid DESC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	likes := []model.Like{}
	for rows.Next() {
		var like model.Like
		if err := rows.Scan(&like.User); err != nil {
			return nil, err
		}
		likes = append(likes, like)
	}
	return likes, rows.Err()
}

func listComments(ctx context.Context, q dbx.DBTX, postID string) ([]model.Comment, error) {
	rows, err := q.QueryContext(ctx, `
SELECT post_id, id, user_id, text, name, avatar, created_at
FROM post_comments
WHERE post_id = ?
ORDER BY rowid DESC
`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		var owner string
		c, err := scanComment(rows, &owner)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

type scanner interface{ Scan(dest ...any) error }

func scanUser(row scanner) (model.User, error) {
	var u model.User
	var avatar sql.NullString
	var created int64
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &avatar, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, store.ErrNotFound
		}
		return model.User{}, err
	}
	u.Avatar = avatar.String
	u.Date = time.UnixMilli(created)
	return u, nil
}

func scanPost(row scanner) (model.Post, error) {
	var p model.Post
	var name, avatar sql.NullString
	var created int64
	if err := row.Scan(&p.ID, &p.User, &p.Text, &name, &avatar, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Post{}, store.ErrNotFound
		}
		return model.Post{}, err
	}
	p.Name = name.String
	p.Avatar = avatar.String
	p.Date = time.UnixMilli(created)
	p.Likes = []model.Like{}
	p.Comments = []model.Comment{}
	return p, nil
}

func scanComment(row scanner, postID *string) (model.Comment, error) {
	var c model.Comment
	var name, avatar sql.NullString
	var created int64
	if err := row.Scan(postID, &c.ID, &c.User, &c.Text, &name, &avatar, &created); err != nil {
		return model.Comment{}, err
	}
	c.Name = name.String
	c.Avatar = avatar.String
	c.Date = time.UnixMilli(created)
	return c, nil
}

func nullIfEmpty(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
