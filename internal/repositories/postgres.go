package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/lermo/backend/internal/db"
	"github.com/lermo/backend/internal/models"
	"github.com/lermo/backend/internal/videos"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, email, username, password_hash, about, age, gender, avatar, banner, created_at, updated_at`

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Email, &user.Username, &user.Password, &user.About,
		&user.Age, &user.Gender, &user.Avatar, &user.Banner, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, email, username, password_hash, about, age, gender, avatar, banner, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `, user.ID, user.Email, user.Username, user.Password, user.About, user.Age, user.Gender,
		user.Avatar, user.Banner, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE email = $1
    `, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by email: %w", err)
	}

	return user, nil
}

// FindByID fetches a user by their identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	user, err := scanUser(conn.QueryRow(ctx, `
        SELECT `+userColumns+`
        FROM users
        WHERE id = $1
    `, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by id: %w", err)
	}

	return user, nil
}

// Update modifies an existing user's profile fields and password hash.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET username = $2, password_hash = $3, about = $4, age = $5, gender = $6, updated_at = $7
        WHERE id = $1
    `, user.ID, user.Username, user.Password, user.About, user.Age, user.Gender, user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateAvatar records the storage path of the user's avatar image.
func (r *PostgresUserRepository) UpdateAvatar(ctx context.Context, id, path string) error {
	return r.updateImage(ctx, id, "avatar", path)
}

// UpdateBanner records the storage path of the user's banner image.
func (r *PostgresUserRepository) UpdateBanner(ctx context.Context, id, path string) error {
	return r.updateImage(ctx, id, "banner", path)
}

func (r *PostgresUserRepository) updateImage(ctx context.Context, id, column, path string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx,
		`UPDATE users SET `+column+` = $2, updated_at = $3 WHERE id = $1`,
		id, path, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update user %s: %w", column, err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos.
// Not-found conditions surface videos.ErrNotFound: the lifecycle manager
// owns the video error taxonomy.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `id, owner_id, title, description, video_type, status, stream_key, video_name,
        video_path, thumbnail, views, payment_type, enable_donation, price, free_minute,
        tags, categories, created_at, updated_at`

func scanVideo(row pgx.Row) (models.Video, error) {
	var video models.Video
	err := row.Scan(&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.VideoType,
		&video.Status, &video.StreamKey, &video.VideoName, &video.VideoPath, &video.Thumbnail,
		&video.Views, &video.PaymentType, &video.EnableDonation, &video.Price, &video.FreeMinute,
		&video.Tags, &video.Categories, &video.CreatedAt, &video.UpdatedAt)
	return video, err
}

// Create stores a new video record.
func (r *PostgresVideoRepository) Create(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// Nil slices would encode as SQL NULL and trip the NOT NULL constraint.
	if video.Tags == nil {
		video.Tags = []string{}
	}
	if video.Categories == nil {
		video.Categories = []string{}
	}

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, video_type, status, stream_key,
                video_name, video_path, thumbnail, views, payment_type, enable_donation, price,
                free_minute, tags, categories, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.VideoType, video.Status,
		video.StreamKey, video.VideoName, video.VideoPath, video.Thumbnail, video.Views,
		video.PaymentType, video.EnableDonation, video.Price, video.FreeMinute,
		video.Tags, video.Categories, video.CreatedAt, video.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return fmt.Errorf("insert video: %w", err)
	}

	return nil
}

// FindByID fetches a video by its identifier.
func (r *PostgresVideoRepository) FindByID(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `
        SELECT `+videoColumns+`
        FROM videos
        WHERE id = $1
    `, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, videos.ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video by id: %w", err)
	}

	return video, nil
}

// FindByStreamKey resolves the first video carrying the provided stream key.
func (r *PostgresVideoRepository) FindByStreamKey(ctx context.Context, key string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `
        SELECT `+videoColumns+`
        FROM videos
        WHERE stream_key = $1
        ORDER BY created_at DESC
        LIMIT 1
    `, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, videos.ErrNotFound
		}
		return models.Video{}, fmt.Errorf("select video by stream key: %w", err)
	}

	return video, nil
}

// List returns videos matching the filter, newest first, using skip/limit
// pagination. Title matching is a case-insensitive substring search.
func (r *PostgresVideoRepository) List(ctx context.Context, filter videos.Filter, page, limit int) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.OwnerID != "" {
		where = append(where, "owner_id = "+arg(filter.OwnerID))
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "status = ANY("+arg(filter.Statuses)+")")
	}
	if filter.ExcludeStatus != "" {
		where = append(where, "status <> "+arg(filter.ExcludeStatus))
	}
	if filter.Title != "" {
		where = append(where, "title ILIKE "+arg("%"+filter.Title+"%"))
	}
	if filter.StreamKey != "" {
		where = append(where, "stream_key = "+arg(filter.StreamKey))
	}

	query := `SELECT ` + videoColumns + ` FROM videos`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT " + arg(limit) + " OFFSET " + arg(page*limit)

	rows, err := conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var out []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		out = append(out, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return out, nil
}

// UpdateMetadata applies the non-nil patch fields. Deleted videos never match.
func (r *PostgresVideoRepository) UpdateMetadata(ctx context.Context, id string, patch videos.MetadataPatch) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	args := []any{id}
	var set []string
	assign := func(column string, v any) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		assign("title", *patch.Title)
	}
	if patch.Description != nil {
		assign("description", *patch.Description)
	}
	if patch.Status != nil {
		assign("status", *patch.Status)
	}
	if patch.VideoType != nil {
		assign("video_type", *patch.VideoType)
	}
	if patch.PaymentType != nil {
		assign("payment_type", *patch.PaymentType)
	}
	if patch.EnableDonation != nil {
		assign("enable_donation", *patch.EnableDonation)
	}
	if patch.Price != nil {
		assign("price", *patch.Price)
	}
	if patch.FreeMinute != nil {
		assign("free_minute", *patch.FreeMinute)
	}
	if patch.Tags != nil {
		assign("tags", patch.Tags)
	}
	if patch.Categories != nil {
		assign("categories", patch.Categories)
	}

	if len(set) == 0 {
		return nil
	}
	assign("updated_at", time.Now().UTC())

	tag, err := conn.Exec(ctx,
		`UPDATE videos SET `+strings.Join(set, ", ")+` WHERE id = $1 AND status <> 'deleted'`,
		args...)
	if err != nil {
		return fmt.Errorf("update video metadata: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return videos.ErrNotFound
	}

	return nil
}

// UpdateStatus sets only the status column. Deleted videos never match.
func (r *PostgresVideoRepository) UpdateStatus(ctx context.Context, id, status string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET status = $2, updated_at = $3
        WHERE id = $1 AND status <> 'deleted'
    `, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update video status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return videos.ErrNotFound
	}

	return nil
}

// UpdateAsset records the storage location for one of the video's asset slots.
func (r *PostgresVideoRepository) UpdateAsset(ctx context.Context, id string, kind videos.AssetKind, name, path string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var tag pgconn.CommandTag
	switch kind {
	case videos.AssetSource:
		tag, err = conn.Exec(ctx, `
            UPDATE videos
            SET video_name = $2, video_path = $3, updated_at = $4
            WHERE id = $1 AND status <> 'deleted'
        `, id, name, path, time.Now().UTC())
	case videos.AssetThumbnail:
		tag, err = conn.Exec(ctx, `
            UPDATE videos
            SET thumbnail = $2, updated_at = $3
            WHERE id = $1 AND status <> 'deleted'
        `, id, path, time.Now().UTC())
	default:
		return fmt.Errorf("unknown asset kind %q", kind)
	}
	if err != nil {
		return fmt.Errorf("update video asset: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return videos.ErrNotFound
	}

	return nil
}

// ClearStreamKey blanks a live stream key once the stream has ended.
func (r *PostgresVideoRepository) ClearStreamKey(ctx context.Context, key string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET stream_key = '', updated_at = $2
        WHERE stream_key = $1
    `, key, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("clear stream key: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return videos.ErrNotFound
	}

	return nil
}

// IncrementViews bumps the view counter by one in a single atomic statement
// so concurrent increments never lose updates.
func (r *PostgresVideoRepository) IncrementViews(ctx context.Context, id string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE videos
        SET views = views + 1
        WHERE id = $1 AND status <> 'deleted'
    `, id)
	if err != nil {
		return fmt.Errorf("increment video views: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return videos.ErrNotFound
	}

	return nil
}

// PostgresCommentRepository provides PostgreSQL-backed persistence for comments.
type PostgresCommentRepository struct {
	pool db.Pool
}

// NewPostgresCommentRepository constructs a comment repository backed by PostgreSQL.
func NewPostgresCommentRepository(pool db.Pool) *PostgresCommentRepository {
	return &PostgresCommentRepository{pool: pool}
}

// Create stores a new comment.
func (r *PostgresCommentRepository) Create(ctx context.Context, comment models.Comment) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO comments (id, user_id, video_id, message, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, comment.ID, comment.UserID, comment.VideoID, comment.Message, comment.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return videos.ErrNotFound
		}
		return fmt.Errorf("insert comment: %w", err)
	}

	return nil
}

// ListForVideo returns a video's comments, oldest first.
func (r *PostgresCommentRepository) ListForVideo(ctx context.Context, videoID string) ([]models.Comment, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `
        SELECT id, user_id, video_id, message, created_at
        FROM comments
        WHERE video_id = $1
        ORDER BY created_at ASC
    `, videoID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	var out []models.Comment
	for rows.Next() {
		var comment models.Comment
		if err := rows.Scan(&comment.ID, &comment.UserID, &comment.VideoID, &comment.Message, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out = append(out, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return out, nil
}

var _ videos.Store = (*PostgresVideoRepository)(nil)
var _ videos.CommentStore = (*PostgresCommentRepository)(nil)
