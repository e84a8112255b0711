// Package postgres implements store.Store on PostgreSQL through the pgx
// database/sql driver. The schema is managed by goose from embedded migrations.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/alphabot-ai/devconnect/internal/dbx"
	"github.com/alphabot-ai/devconnect/internal/model"
	"github.com/alphabot-ai/devconnect/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

type Store struct {
	db *sql.DB
}

// Open connects to dsn, checks the connection and migrates the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return New(db), nil
}

// New wraps an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// validID reports whether id can be a primary key at all. Malformed ids are
// reported as store.ErrNotFound without a round trip.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	id := uuid.NewString()
	created := now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, password, avatar, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, user.Name, user.Email, user.Password, user.Avatar, created)
	if err != nil {
		if pgCode(err) == codeUniqueViolation {
			return store.ErrDuplicateEmail
		}
		return fmt.Errorf("db error: %w", err)
	}
	user.ID = id
	user.Date = created
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	if !validID(id) {
		return model.User{}, store.ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password, avatar, created_at FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, password, avatar, created_at FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (s *Store) CreatePost(ctx context.Context, post *model.Post) error {
	id := uuid.NewString()
	created := now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (id, user_id, text, name, avatar, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		id, post.User, post.Text, post.Name, post.Avatar, created)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	post.ID = id
	post.Date = created
	if post.Likes == nil {
		post.Likes = []model.Like{}
	}
	if post.Comments == nil {
		post.Comments = []model.Comment{}
	}
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	if !validID(id) {
		return model.Post{}, store.ErrNotFound
	}
	return getPost(ctx, s.db, id)
}

func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, text, name, avatar, created_at
		 FROM posts
		 ORDER BY created_at DESC, seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	index := make(map[string]int)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		index[p.ID] = len(posts)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	likeRows, err := s.db.QueryContext(ctx, `SELECT post_id, user_id FROM post_likes ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
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

	commentRows, err := s.db.QueryContext(ctx,
		`SELECT post_id, id, user_id, text, name, avatar, created_at
		 FROM post_comments
		 ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
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

// DeletePost removes the post; likes and comments go with it through
// ON DELETE CASCADE.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	if !validID(id) {
		return store.ErrNotFound
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) AddLike(ctx context.Context, postID, userID string) ([]model.Like, error) {
	if !validID(postID) {
		return nil, store.ErrNotFound
	}
	var likes []model.Like
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO post_likes (post_id, user_id) VALUES ($1, $2)`, postID, userID)
		switch pgCode(err) {
		case "":
		case codeUniqueViolation:
			return store.ErrAlreadyLiked
		case codeForeignKeyViolation:
			return store.ErrNotFound
		default:
			return fmt.Errorf("db error: %w", err)
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
	if !validID(postID) {
		return nil, store.ErrNotFound
	}
	var likes []model.Like
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := lockPost(ctx, tx, postID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`DELETE FROM post_likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
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
	if !validID(postID) {
		return model.Post{}, store.ErrNotFound
	}
	id := uuid.NewString()
	created := now()
	var post model.Post
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO post_comments (id, post_id, user_id, text, name, avatar, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, postID, comment.User, comment.Text, comment.Name, comment.Avatar, created)
		switch pgCode(err) {
		case "":
		case codeForeignKeyViolation:
			return store.ErrNotFound
		default:
			return fmt.Errorf("db error: %w", err)
		}
		post, err = getPost(ctx, tx, postID)
		return err
	})
	if err != nil {
		return model.Post{}, err
	}
	comment.ID = id
	comment.Date = created
	return post, nil
}

func (s *Store) RemoveComment(ctx context.Context, postID, commentID string) ([]model.Comment, error) {
	if !validID(postID) || !validID(commentID) {
		return nil, store.ErrNotFound
	}
	var comments []model.Comment
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM post_comments WHERE post_id = $1 AND id = $2`, postID, commentID)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
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

// lockPost takes a row lock on the post so concurrent mutations of its likes
// serialize, and reports store.ErrNotFound for a missing post.
func lockPost(ctx context.Context, q dbx.DBTX, id string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = $1 FOR UPDATE`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func getPost(ctx context.Context, q dbx.DBTX, id string) (model.Post, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, user_id, text, name, avatar, created_at FROM posts WHERE id = $1`, id)
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

func listLikes(ctx context.Context, q dbx.DBTX, postID string) ([]model.Like, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT user_id FROM post_likes WHERE post_id = $1 ORDER BY seq DESC`, postID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
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
	rows, err := q.QueryContext(ctx,
		`SELECT post_id, id, user_id, text, name, avatar, created_at
		 FROM post_comments
		 WHERE post_id = $1
		 ORDER BY seq DESC`, postID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
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
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Avatar, &u.Date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, store.ErrNotFound
		}
		return model.User{}, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func scanPost(row scanner) (model.Post, error) {
	var p model.Post
	if err := row.Scan(&p.ID, &p.User, &p.Text, &p.Name, &p.Avatar, &p.Date); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Post{}, store.ErrNotFound
		}
		return model.Post{}, fmt.Errorf("db error: %w", err)
	}
	p.Likes = []model.Like{}
	p.Comments = []model.Comment{}
	return p, nil
}

func scanComment(row scanner, postID *string) (model.Comment, error) {
	var c model.Comment
	if err := row.Scan(postID, &c.ID, &c.User, &c.Text, &c.Name, &c.Avatar, &c.Date); err != nil {
		return model.Comment{}, err
	}
	return c, nil
}

func pgCode(err error) string {
	if err == nil {
		return ""
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return "unknown"
}
